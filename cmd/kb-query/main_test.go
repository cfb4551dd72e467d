package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DeusData/kb-query/internal/config"
	"github.com/DeusData/kb-query/internal/schema"
)

const cliSchemaYAML = `
classes:
  - name: V
    properties:
      - {name: "@rid", type: link}
      - {name: deletedAt, type: long}
  - {name: E, edge: true}
  - name: Disease
    inherits: [V]
    properties:
      - {name: name, type: string, cast: lowercase}
      - {name: subsets, type: embeddedset}
  - {name: SubclassOf, inherits: [E]}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if strings.TrimSpace(out) != "kb-query "+version {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestCompileFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	sch, err := schema.Load([]byte(cliSchemaYAML))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	files := []string{
		writeFile(t, dir, "a.json", `{"class": "Disease", "where": {"attr": "name", "value": "A"}}`),
		writeFile(t, dir, "b.json", `{"class": "Disease", "where": {"attr": "blargh", "value": 1}}`),
		writeFile(t, dir, "c.json", `{"class": "Disease", "type": "descendants", "activeOnly": false}`),
	}
	outputs, err := compileFiles(context.Background(), sch, files, compileOptions{})
	if err != nil {
		t.Fatalf("compileFiles: %v", err)
	}
	if len(outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(outputs))
	}
	for i, o := range outputs {
		if o.File != files[i] {
			t.Errorf("output %d: expected %s, got %s", i, files[i], o.File)
		}
	}
	if outputs[0].Result == nil || outputs[0].Result.Params["param0"] != "a" {
		t.Errorf("unexpected first result %+v", outputs[0])
	}
	if outputs[1].Error == "" || outputs[1].Result != nil {
		t.Errorf("expected second request to fail, got %+v", outputs[1])
	}
	if outputs[2].Result == nil || !strings.Contains(outputs[2].Result.Query, ".out('SubclassOf')") {
		t.Errorf("unexpected third result %+v", outputs[2])
	}
}

func TestCompileFilesMissingFile(t *testing.T) {
	sch, err := schema.Load([]byte(cliSchemaYAML))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if _, err := compileFiles(context.Background(), sch, []string{"/nonexistent/req.json"}, compileOptions{}); err == nil {
		t.Fatal("expected read error")
	}
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", cliSchemaYAML)
	req := writeFile(t, dir, "req.json", `{"where": [{"attr": "subsets", "value": "X"}]}`)

	out, err := runCLI(t, "--schema", schemaPath, "compile", "--class", "Disease", "--display", req)
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, out)
	}
	var outputs []compileOutput
	if err := json.Unmarshal([]byte(out), &outputs); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(outputs) != 1 || outputs[0].Result == nil {
		t.Fatalf("unexpected output %s", out)
	}
	want := "SELECT * FROM Disease WHERE subsets CONTAINS 'X' AND deletedAt IS NULL"
	if outputs[0].Result.Display != want {
		t.Errorf("expected display %q, got %q", want, outputs[0].Result.Display)
	}
}

func TestCompileCommandReportsFailure(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", cliSchemaYAML)
	req := writeFile(t, dir, "req.json", `{"class": "Disease", "limit": 5000}`)
	if _, err := runCLI(t, "--schema", schemaPath, "compile", req); err == nil {
		t.Fatal("expected failure for limit out of range")
	}
}

func TestCompileWithoutSchema(t *testing.T) {
	_, err := runCLI(t, "compile", "x.json")
	if err == nil || !strings.Contains(err.Error(), "no schema configured") {
		t.Fatalf("expected missing schema error, got %v", err)
	}
}

func TestTraverseCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", cliSchemaYAML)
	out, err := runCLI(t, "--schema", schemaPath, "traverse", "--class", "Disease", "in(SubclassOf).vertex.name")
	if err != nil {
		t.Fatalf("traverse: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"text": "inE('SubclassOf').outV().name"`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestSchemaImportAndExport(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", cliSchemaYAML)
	dbPath := filepath.Join(dir, "kb.db")

	if out, err := runCLI(t, "schema", "import", schemaPath, dbPath); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	out, err := runCLI(t, "schema", "list", dbPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "kb\t") {
		t.Errorf("expected snapshot kb, got %q", out)
	}

	out, err = runCLI(t, "--schema", dbPath, "schema", "export")
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	if !strings.Contains(out, "name: Disease") || !strings.Contains(out, "cast: lowercase") {
		t.Errorf("unexpected export %s", out)
	}
	again, err := schema.Load([]byte(out))
	if err != nil {
		t.Fatalf("exported schema does not load: %v", err)
	}
	if !again.Has("SubclassOf") {
		t.Error("expected SubclassOf in exported schema")
	}
}

func TestWatchPaths(t *testing.T) {
	if got := watchPaths(&config.Config{Schema: "kb.yaml"}); len(got) != 1 || got[0] != "kb.yaml" {
		t.Errorf("unexpected yaml watch paths %v", got)
	}
	if got := watchPaths(&config.Config{Schema: "kb.db"}); len(got) != 2 || got[1] != "kb.db-wal" {
		t.Errorf("unexpected db watch paths %v", got)
	}
}

func TestSchemaImportDefaultStore(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	schemaPath := writeFile(t, t.TempDir(), "schema.yaml", cliSchemaYAML)

	if out, err := runCLI(t, "--snapshot", "graphkb", "schema", "import", schemaPath); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(home, ".cache", "kb-query", defaultStoreName+".db")); err != nil {
		t.Fatalf("expected cache database: %v", err)
	}
	out, err := runCLI(t, "schema", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "graphkb\t") {
		t.Errorf("expected snapshot graphkb, got %q", out)
	}
}
