package dag

import (
	"fmt"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"
)

// Definition is a batch described in YAML:
//
//	name: element-attributes
//	nodes:
//	  - id: "1"
//	    method: GET
//	    resource: https://pi/piwebapi/elements?path=${element}
//	  - id: "2"
//	    method: GET
//	    resource: "{0}"
//	    parameters: ["$.1.Content.Links.Attributes"]
//	    parents: ["1"]
//
// Content may be a string or any YAML mapping or sequence, which is sent as
// compact JSON.
type Definition struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"-"`
}

type definitionFile struct {
	Name  string          `yaml:"name"`
	Nodes []definitionRow `yaml:"nodes"`
}

type definitionRow struct {
	ID         string   `yaml:"id"`
	Method     string   `yaml:"method"`
	Resource   string   `yaml:"resource"`
	Content    any      `yaml:"content"`
	Parameters []string `yaml:"parameters"`
	Parents    []string `yaml:"parents"`
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadDefinition reads a definition file, expanding ${name} from vars.
func LoadDefinition(path string, vars map[string]string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dag: reading %s: %w", path, err)
	}
	d, err := ParseDefinition(data, vars)
	if err != nil {
		return nil, fmt.Errorf("dag: parsing %s: %w", path, err)
	}
	return d, nil
}

// ParseDefinition decodes a YAML definition, then replaces ${name}
// placeholders inside the decoded string fields from vars. Unknown names are
// an error. A content value that is exactly one placeholder takes the type
// the variable reads as in YAML, so "Value: ${v}" with v=12.5 sends a number.
func ParseDefinition(data []byte, vars map[string]string) (*Definition, error) {
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	x := &expander{vars: vars}
	d := &Definition{Name: x.text(f.Name), Nodes: make([]NodeSpec, 0, len(f.Nodes))}
	for _, row := range f.Nodes {
		content, err := contentString(x.content(row.Content))
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", row.ID, err)
		}
		d.Nodes = append(d.Nodes, NodeSpec{
			ID:         x.text(row.ID),
			Method:     x.text(row.Method),
			Resource:   x.text(row.Resource),
			Content:    content,
			Parameters: x.texts(row.Parameters),
			ParentIDs:  x.texts(row.Parents),
		})
	}
	if len(x.missing) > 0 {
		return nil, fmt.Errorf("undefined variables %v", x.missing)
	}
	return d, nil
}

type expander struct {
	vars    map[string]string
	missing []string
}

func (x *expander) text(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(m string) string {
		name := variablePattern.FindStringSubmatch(m)[1]
		if v, ok := x.vars[name]; ok {
			return v
		}
		x.missing = append(x.missing, name)
		return m
	})
}

func (x *expander) texts(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = x.text(s)
	}
	return out
}

// content walks decoded YAML content. Mapping keys are expanded as text.
func (x *expander) content(c any) any {
	switch v := c.(type) {
	case string:
		return x.scalar(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[x.text(k)] = x.content(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = x.content(e)
		}
		return out
	default:
		return c
	}
}

// scalar expands a string leaf. A leaf that is a single placeholder is
// re-read as a YAML scalar so numbers and booleans keep their type.
func (x *expander) scalar(s string) any {
	loc := variablePattern.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return x.text(s)
	}
	expanded := x.text(s)
	if expanded == s {
		return s
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(expanded), &node); err != nil ||
		len(node.Content) != 1 || node.Content[0].Kind != yaml.ScalarNode || node.Content[0].Tag == "!!str" ||
		node.Content[0].Value != expanded {
		return expanded
	}
	var typed any
	if err := node.Content[0].Decode(&typed); err != nil {
		return expanded
	}
	return typed
}

func contentString(c any) (string, error) {
	switch v := c.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		val, err := FromAny(v)
		if err != nil {
			return "", err
		}
		return val.Text(), nil
	}
}

// Builder returns a builder holding every node of the definition.
func (d *Definition) Builder() (*Builder, error) {
	b := NewBuilder()
	for _, spec := range d.Nodes {
		if err := b.AddNode(spec); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build adds every node to a fresh builder and builds the graph.
func (d *Definition) Build() (*Graph, error) {
	b, err := d.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}
