package dag

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kbukum/gobatch/errors"
)

const elementDefinition = `
name: element-values
nodes:
  - id: "1"
    method: GET
    resource: https://pi/piwebapi/elements?path=${element}
  - id: "2"
    method: GET
    resource: "{0}"
    parameters: ["$.1.Content.Links.Value"]
    parents: ["1"]
  - id: "3"
    method: post
    resource: https://pi/piwebapi/streams/{0}/value
    parameters: ["$.1.Content.WebId"]
    parents: ["1"]
    content:
      Value: 12
      Good: true
`

func TestParseDefinition(t *testing.T) {
	d, err := ParseDefinition([]byte(elementDefinition), map[string]string{"element": `\\srv\db\pump`})
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if d.Name != "element-values" || len(d.Nodes) != 3 {
		t.Fatalf("unexpected definition %+v", d)
	}
	if got := d.Nodes[0].Resource; got != `https://pi/piwebapi/elements?path=\\srv\db\pump` {
		t.Errorf("variable not expanded: %q", got)
	}
	if got := d.Nodes[2].Content; got != `{"Good":true,"Value":12}` {
		t.Errorf("mapping content: got %q", got)
	}
	if got := d.Nodes[1].ParentIDs; !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("parents: got %v", got)
	}

	g, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := g.Order(); !reflect.DeepEqual(got, []NodeID{"1", "2", "3"}) {
		t.Errorf("order: got %v", got)
	}
	n, _ := g.Node("3")
	if n.Method != MethodPost {
		t.Errorf("expected POST, got %s", n.Method)
	}
}

func TestParseDefinition_UndefinedVariable(t *testing.T) {
	if _, err := ParseDefinition([]byte(elementDefinition), nil); err == nil {
		t.Fatal("expected an error for ${element}")
	}
}

func TestParseDefinition_VariablesDoNotChangeStructure(t *testing.T) {
	const def = `
nodes:
  - id: "1"
    method: POST
    resource: https://pi/piwebapi/attributes/${attr}/value
    content:
      Value: ${value}
      Note: ${note}
`
	d, err := ParseDefinition([]byte(def), map[string]string{
		"attr":  "A1",
		"value": "12.5",
		"note":  `a: b # "quoted"`,
	})
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if len(d.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(d.Nodes))
	}
	n := d.Nodes[0]
	if n.Resource != "https://pi/piwebapi/attributes/A1/value" {
		t.Errorf("resource: got %q", n.Resource)
	}
	if want := `{"Note":"a: b # \"quoted\"","Value":12.5}`; n.Content != want {
		t.Errorf("content: expected %s, got %s", want, n.Content)
	}
}

func TestParseDefinition_InvalidNode(t *testing.T) {
	d, err := ParseDefinition([]byte("nodes:\n  - id: a.b\n    method: GET\n    resource: /x\n"), nil)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if _, err := d.Build(); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(elementDefinition), 0o600); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDefinition(path, map[string]string{"element": "pump"})
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	if len(d.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(d.Nodes))
	}

	if _, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}
