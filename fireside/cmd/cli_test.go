package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fireside-db/fireside/testutil"
)

// runCLI executes the command tree with the given arguments and
// returns what it printed.
func runCLI(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cli := NewCLI()
	var out bytes.Buffer
	cli.rootCmd.SetOut(&out)
	cli.rootCmd.SetErr(&out)
	cli.rootCmd.SetIn(strings.NewReader(in))
	cli.rootCmd.SetArgs(args)

	err := cli.Execute()
	return out.String(), err
}

func newFakeServer(t *testing.T) (*testutil.FakeStore, []string) {
	t.Helper()
	store := testutil.NewFakeStore("test-project")
	srv := httptest.NewServer(store.Handler())
	t.Cleanup(srv.Close)

	connection := []string{
		"--project", "test-project",
		"--api-key", "test-key",
		"--endpoint", srv.URL + "/v1",
	}
	return store, connection
}

func TestCLIRequiresProject(t *testing.T) {
	t.Setenv("FIRESIDE_PROJECT", "")
	t.Setenv("FIRESIDE_API_KEY", "")

	_, err := runCLI(t, "", "collections", "list")
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if !strings.Contains(err.Error(), "project") {
		t.Errorf("error does not mention the project: %v", err)
	}
}

func TestCLIDataCreateReadDelete(t *testing.T) {
	store, connection := newFakeServer(t)

	out, err := runCLI(t, "", append([]string{
		"data", "create", "-c", "users", "--id", "ada",
		"--json", `{"name": "Ada", "age": 36}`,
	}, connection...)...)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "Created users/ada") {
		t.Errorf("unexpected create output: %q", out)
	}
	if store.Count("users") != 1 {
		t.Fatalf("store has %d users, want 1", store.Count("users"))
	}

	out, err = runCLI(t, "", append([]string{
		"data", "read", "-c", "users", "-i", "ada", "--format", "json",
	}, connection...)...)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("read output is not JSON: %v\n%s", err, out)
	}
	if fields["name"] != "Ada" {
		t.Errorf("name = %v, want Ada", fields["name"])
	}

	// Answering "n" to the prompt keeps the document.
	out, err = runCLI(t, "n\n", append([]string{
		"data", "delete", "-c", "users", "-i", "ada",
	}, connection...)...)
	if err != nil {
		t.Fatalf("delete (declined): %v", err)
	}
	if !strings.Contains(out, "Cancelled") {
		t.Errorf("expected cancellation, got: %q", out)
	}
	if store.Count("users") != 1 {
		t.Fatal("document deleted despite declined confirmation")
	}

	if _, err = runCLI(t, "", append([]string{
		"data", "delete", "-c", "users", "-i", "ada", "--yes",
	}, connection...)...); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Count("users") != 0 {
		t.Fatal("document still present after delete")
	}
}

func TestCLIDataReadNotFound(t *testing.T) {
	_, connection := newFakeServer(t)

	_, err := runCLI(t, "", append([]string{
		"data", "read", "-c", "users", "-i", "ghost",
	}, connection...)...)
	if err == nil {
		t.Fatal("expected an error for a missing document")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error does not say not found: %v", err)
	}
}

func TestCLIDataList(t *testing.T) {
	store, connection := newFakeServer(t)
	if err := store.SeedJSON("users", "ada", `{"name": {"stringValue": "Ada"}}`); err != nil {
		t.Fatal(err)
	}
	if err := store.SeedJSON("users", "grace", `{"name": {"stringValue": "Grace"}}`); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", append([]string{
		"data", "list", "-c", "users", "--format", "json",
	}, connection...)...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0]["_id"] != "ada" {
		t.Errorf("_id = %v, want ada", items[0]["_id"])
	}
}

func TestCLICollectionsList(t *testing.T) {
	store, connection := newFakeServer(t)
	if err := store.SeedJSON("users", "ada", `{"name": {"stringValue": "Ada"}}`); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", append([]string{"collections", "list"}, connection...)...)
	if err != nil {
		t.Fatalf("collections list: %v", err)
	}
	if !strings.Contains(out, "users") {
		t.Errorf("output missing seeded collection: %q", out)
	}
}

func TestCLIDataExportImport(t *testing.T) {
	store, connection := newFakeServer(t)
	if err := store.SeedJSON("users", "ada", `{"name": {"stringValue": "Ada"}, "age": {"integerValue": "36"}}`); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "users.json")
	out, err := runCLI(t, "", append([]string{
		"data", "export", "-c", "users", "-o", path,
	}, connection...)...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 1 documents") {
		t.Errorf("unexpected export output: %q", out)
	}

	out, err = runCLI(t, "", append([]string{
		"data", "import", "-i", path, "-c", "users_copy",
	}, connection...)...)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 of 1") {
		t.Errorf("unexpected import output: %q", out)
	}
	if store.Count("users_copy") != 1 {
		t.Fatalf("users_copy has %d documents, want 1", store.Count("users_copy"))
	}
}

func TestCLISchemaExampleAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	if _, err := runCLI(t, "", "schema", "example", "-o", path); err != nil {
		t.Fatalf("schema example: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("example file not written: %v", err)
	}

	out, err := runCLI(t, "", "schema", "validate", "--file", path)
	if err != nil {
		t.Fatalf("schema validate: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("unexpected validate output: %q", out)
	}
}

func TestCLISchemaImportSyncsMetadata(t *testing.T) {
	store, connection := newFakeServer(t)
	path := filepath.Join(t.TempDir(), "schema.json")

	if _, err := runCLI(t, "", "schema", "example", "-o", path); err != nil {
		t.Fatalf("schema example: %v", err)
	}

	out, err := runCLI(t, "", append([]string{
		"schema", "import", "-i", path,
	}, connection...)...)
	if err != nil {
		t.Fatalf("schema import: %v", err)
	}
	if !strings.Contains(out, "posts") || !strings.Contains(out, "users") {
		t.Errorf("unexpected import output: %q", out)
	}
	if store.Count("_metadata_collections") != 2 {
		t.Fatalf("metadata collection has %d documents, want 2",
			store.Count("_metadata_collections"))
	}
}
