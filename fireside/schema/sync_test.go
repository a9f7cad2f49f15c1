package schema_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/collections"
	"github.com/fireside-db/fireside/fireside/schema"
	"github.com/fireside-db/fireside/testutil"
)

func newStoreClient(t *testing.T) (*fireside.Client, *testutil.FakeStore) {
	t.Helper()
	fs := testutil.NewFakeStore("test-project")
	srv := httptest.NewServer(fs.Handler())
	t.Cleanup(srv.Close)

	client, err := fireside.New("test-project", "test-key",
		fireside.WithBaseURL(srv.URL+"/v1"),
		fireside.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, fs
}

func TestSyncWritesMetadataDocuments(t *testing.T) {
	client, fs := newStoreClient(t)
	m := schema.NewManager(client)
	m.Import(schema.Example())

	if err := m.Sync(context.Background()); err != nil {
		t.Fatalf("failed to sync schemas: %v", err)
	}
	if got := fs.Count(collections.MetadataCollection); got != 2 {
		t.Fatalf("expected 2 metadata documents, got %d", got)
	}

	// The metadata documents make the schemas discoverable.
	inspector := collections.NewInspector(client)
	infos, err := inspector.List(context.Background())
	if err != nil {
		t.Fatalf("failed to list collections: %v", err)
	}
	found := false
	for _, info := range infos {
		if info.Name == collections.MetadataCollection {
			found = true
		}
	}
	if !found {
		t.Error("expected metadata collection in discovery results")
	}
}

func TestSyncWithoutClient(t *testing.T) {
	m := schema.NewManager(nil)
	m.Import(schema.Example())
	if err := m.Sync(context.Background()); err == nil {
		t.Error("expected error when syncing without a client")
	}
}

func TestDiscover(t *testing.T) {
	client, fs := newStoreClient(t)

	if err := fs.SeedJSON("users", "u1", `{
		"name": {"stringValue": "ada"},
		"age": {"integerValue": "36"}
	}`); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	if err := fs.SeedJSON("users", "u2", `{
		"name": {"stringValue": "grace"},
		"age": {"stringValue": "unknown"}
	}`); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	inspector := collections.NewInspector(client)
	f, err := schema.Discover(context.Background(), inspector, nil)
	if err != nil {
		t.Fatalf("failed to discover schemas: %v", err)
	}

	users, ok := f.Collections["users"]
	if !ok {
		t.Fatalf("expected users collection, got %+v", f.Collections)
	}
	byName := make(map[string]schema.Field)
	for _, field := range users.Fields {
		byName[field.Name] = field
	}
	if byName["name"].Type != schema.TypeString || !byName["name"].Required {
		t.Errorf("unexpected name field: %+v", byName["name"])
	}
	// Mixed types collapse to string, the loosest declaration.
	if byName["age"].Type != schema.TypeString {
		t.Errorf("expected mixed field to fall back to string, got %+v", byName["age"])
	}

	// The discovered file must itself be a valid schema file.
	if err := f.Validate(); err != nil {
		t.Errorf("discovered schema does not validate: %v", err)
	}
}
