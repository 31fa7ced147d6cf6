package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/kbukum/gobatch/emulator"
	"github.com/kbukum/gobatch/errors"
	"github.com/kbukum/gobatch/logger"
	"github.com/kbukum/gobatch/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const pointDefinition = `
name: write-point
nodes:
  - id: "1"
    method: GET
    resource: /points?path=${point}
  - id: "2"
    method: POST
    resource: /streams/{0}/value
    parameters: ["$.1.Content.Query.path"]
    parents: ["1"]
    content:
      Value: ${value}
`

func writeDefinition(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseVars(t *testing.T) {
	got, err := parseVars([]string{"point=sinusoid", "expr=a=b"})
	if err != nil {
		t.Fatalf("parseVars: %v", err)
	}
	want := map[string]string{"point": "sinusoid", "expr": "a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseVars([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRun_SubmitsToBatchEndpoint(t *testing.T) {
	emu, err := emulator.New(emulator.Config{}, emulator.EchoHandler())
	if err != nil {
		t.Fatalf("emulator.New: %v", err)
	}
	srv := httptest.NewServer(emu.Handler())
	defer srv.Close()

	err = run(context.Background(), []string{
		"-d", writeDefinition(t, pointDefinition),
		"--set", "point=sinusoid", "--set", "value=12.5",
		"--base-url", srv.URL,
		"--log-level", "error",
		"--fail-on-node",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRun_Local(t *testing.T) {
	srv := httptest.NewServer(emulator.EchoHandler())
	defer srv.Close()

	err := run(context.Background(), []string{
		"-d", writeDefinition(t, pointDefinition),
		"--set", "point=sinusoid", "--set", "value=1",
		"--base-url", srv.URL,
		"--local", "--parallel", "2",
		"--log-level", "error",
		"--fail-on-node",
	})
	if err != nil {
		t.Fatalf("run --local: %v", err)
	}
}

func TestRun_FailOnNode(t *testing.T) {
	srv := httptest.NewServer(emulator.EchoHandler())
	defer srv.Close()

	def := `
name: broken-reference
nodes:
  - id: "1"
    method: GET
    resource: /points
  - id: "2"
    method: GET
    resource: /streams/{0}
    parameters: ["$.1.Content.WebId"]
    parents: ["1"]
`
	err := run(context.Background(), []string{
		"-d", writeDefinition(t, def),
		"--base-url", srv.URL,
		"--local",
		"--log-level", "error",
		"--fail-on-node",
	})
	if err == nil {
		t.Fatal("expected an error when node 2 cannot resolve its reference")
	}
}

func TestRun_ConstructionErrorBeforeNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s %s", r.Method, r.URL)
	}))
	defer srv.Close()

	def := `
name: cycle
nodes:
  - {id: A, method: GET, resource: /a, parents: [B]}
  - {id: B, method: GET, resource: /b, parents: [A]}
`
	err := run(context.Background(), []string{
		"-d", writeDefinition(t, def),
		"--base-url", srv.URL,
		"--log-level", "error",
	})
	if !errors.HasCode(err, errors.ErrCodeCyclicDependency) {
		t.Fatalf("expected %s, got %v", errors.ErrCodeCyclicDependency, err)
	}
}

func TestRun_RequiresDefinition(t *testing.T) {
	err := run(context.Background(), []string{"--base-url", "http://localhost:1", "--log-level", "error"})
	if err == nil {
		t.Fatal("expected an error without --definition")
	}
}

func TestRun_StoredBatchesAreListed(t *testing.T) {
	mini := miniredis.RunT(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	cfgBody := "client:\n  base_url: http://127.0.0.1:1\nstore:\n  enabled: true\n  addr: " + mini.Addr() + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o600); err != nil {
		t.Fatal(err)
	}

	emu, err := emulator.New(emulator.Config{}, emulator.EchoHandler())
	if err != nil {
		t.Fatalf("emulator.New: %v", err)
	}
	srv := httptest.NewServer(emu.Handler())
	defer srv.Close()

	ctx := context.Background()
	err = run(ctx, []string{
		"-c", cfgPath,
		"-d", writeDefinition(t, pointDefinition),
		"--set", "point=sinusoid", "--set", "value=12.5",
		"--base-url", srv.URL,
		"--log-level", "error",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	client, err := store.New(store.Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	defer client.Close()
	ids, err := recent(ctx, logger.Nop(), store.NewResultStore(client, "gobatch", 0), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one stored batch, got %v", ids)
	}

	for _, args := range [][]string{{"--recent", "5"}, {"--show", ids[0]}} {
		args = append(args, "-c", cfgPath, "--log-level", "error")
		if err := run(ctx, args); err != nil {
			t.Errorf("run %v: %v", args[:2], err)
		}
	}
}
