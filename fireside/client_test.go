package fireside_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/query"
	"github.com/fireside-db/fireside/testutil"
)

func newTestClient(t *testing.T) (*fireside.Client, *testutil.FakeStore) {
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

func TestNewRequiresConfig(t *testing.T) {
	if _, err := fireside.New("", "key"); err == nil {
		t.Error("expected error for missing project ID")
	}
	if _, err := fireside.New("proj", ""); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestCreateDocument(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	t.Run("generated ID", func(t *testing.T) {
		id, err := client.CreateDocument(ctx, "users", "", map[string]any{
			"name": "ada",
			"age":  json.Number("36"),
		})
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
		if id == "" {
			t.Fatal("expected a generated document ID")
		}
		fields, ok := fs.Document("users", id)
		if !ok {
			t.Fatal("document not stored")
		}
		if string(fields["age"]) != `{"integerValue":"36"}` {
			t.Errorf("unexpected age encoding: %s", fields["age"])
		}
	})

	t.Run("explicit ID", func(t *testing.T) {
		id, err := client.CreateDocument(ctx, "users", "ada-1", map[string]any{"name": "ada"})
		if err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
		if id != "ada-1" {
			t.Errorf("expected ada-1, got %s", id)
		}
	})
}

func TestGetDocument(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	if err := fs.SeedJSON("users", "u1", `{
		"name": {"stringValue": "ada"},
		"age": {"integerValue": "36"},
		"tags": {"arrayValue": {"values": [{"stringValue": "x"}]}}
	}`); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	t.Run("found", func(t *testing.T) {
		got, err := client.GetDocument(ctx, "users", "u1")
		if err != nil {
			t.Fatalf("failed to get document: %v", err)
		}
		want := map[string]any{
			"name": "ada",
			"age":  json.Number("36"),
			"tags": []any{"x"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.GetDocument(ctx, "users", "missing")
		if !fireside.IsNotFound(err) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestUpdateDocument(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	seed := func(t *testing.T, id string) {
		t.Helper()
		if err := fs.SeedJSON("users", id, `{
			"name": {"stringValue": "ada"},
			"age": {"integerValue": "36"}
		}`); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	t.Run("merge touches only given fields", func(t *testing.T) {
		seed(t, "u-merge")
		err := client.UpdateDocument(ctx, "users", "u-merge", map[string]any{"age": json.Number("37")}, true)
		if err != nil {
			t.Fatalf("failed to update document: %v", err)
		}
		fields, _ := fs.Document("users", "u-merge")
		if string(fields["age"]) != `{"integerValue":"37"}` {
			t.Errorf("age not updated: %s", fields["age"])
		}
		if string(fields["name"]) != `{"stringValue":"ada"}` {
			t.Errorf("merge clobbered name: %s", fields["name"])
		}
	})

	t.Run("replace drops other fields", func(t *testing.T) {
		seed(t, "u-replace")
		err := client.UpdateDocument(ctx, "users", "u-replace", map[string]any{"age": json.Number("40")}, false)
		if err != nil {
			t.Fatalf("failed to update document: %v", err)
		}
		fields, _ := fs.Document("users", "u-replace")
		if _, ok := fields["name"]; ok {
			t.Error("replace kept old field name")
		}
	})

	t.Run("not found", func(t *testing.T) {
		err := client.UpdateDocument(ctx, "users", "missing", map[string]any{"a": "b"}, true)
		if !fireside.IsNotFound(err) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})
}

func TestDeleteDocument(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	if err := fs.SeedJSON("users", "u1", `{"name": {"stringValue": "ada"}}`); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	if err := client.DeleteDocument(ctx, "users", "u1"); err != nil {
		t.Fatalf("failed to delete document: %v", err)
	}
	if fs.Count("users") != 0 {
		t.Error("document not removed")
	}

	err := client.DeleteDocument(ctx, "users", "u1")
	if !fireside.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("u%d", i)
		if err := fs.SeedJSON("users", id, fmt.Sprintf(`{"n": {"integerValue": "%d"}}`, i)); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	t.Run("all", func(t *testing.T) {
		items, err := client.ListDocuments(ctx, "users", 0)
		if err != nil {
			t.Fatalf("failed to list documents: %v", err)
		}
		if len(items) != 5 {
			t.Errorf("expected 5 documents, got %d", len(items))
		}
	})

	t.Run("limited", func(t *testing.T) {
		items, err := client.ListDocuments(ctx, "users", 2)
		if err != nil {
			t.Fatalf("failed to list documents: %v", err)
		}
		if len(items) != 2 {
			t.Errorf("expected 2 documents, got %d", len(items))
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		items, err := client.ListDocuments(ctx, "empty", 0)
		if err != nil {
			t.Fatalf("failed to list documents: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no documents, got %d", len(items))
		}
	})
}

func TestRunQuery(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("u%d", i)
		if err := fs.SeedJSON("users", id, fmt.Sprintf(`{"n": {"integerValue": "%d"}}`, i)); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	// Blank heartbeat lines interleaved with results must be skipped.
	fs.Heartbeats = 2

	q := query.New("users").Limit(2).Offset(1).Build()
	items, err := client.RunQuery(ctx, q)
	if err != nil {
		t.Fatalf("failed to run query: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 results, got %d", len(items))
	}
	if items[0]["n"] != json.Number("1") {
		t.Errorf("expected offset to skip first document, got %v", items[0]["n"])
	}
}

func TestRunQuerySkipsUnparsableLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"document":{"name":"projects/p/databases/(default)/documents/users/a","fields":{"n":{"integerValue":"1"}}}}`)
		fmt.Fprintln(w, `this is not json`)
		fmt.Fprintln(w)
		fmt.Fprintln(w, `{"document":{"name":"projects/p/databases/(default)/documents/users/b","fields":{"n":{"integerValue":"2"}}}}`)
		fmt.Fprintln(w, `{"readTime":"2024-01-15T10:30:00Z"}`)
	}))
	defer srv.Close()

	client, err := fireside.New("p", "k", fireside.WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	items, err := client.RunQuery(context.Background(), query.New("users").Build())
	if err != nil {
		t.Fatalf("failed to run query: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 results with bad line skipped, got %d", len(items))
	}
}

func TestAuthErrorMapping(t *testing.T) {
	client, fs := newTestClient(t)
	fs.RejectKey = "other-key"

	_, err := client.GetDocument(context.Background(), "users", "u1")
	if !fireside.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestStoreErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		fmt.Fprint(w, `{"error":{"message":"nope"}}`)
	}))
	defer srv.Close()

	client, err := fireside.New("p", "k", fireside.WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, gerr := client.GetDocument(context.Background(), "users", "u1")
	var se *fireside.StoreError
	if !errors.As(gerr, &se) {
		t.Fatalf("expected StoreError, got %v", gerr)
	}
	if se.Status != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", se.Status)
	}
	if se.Body != `{"error":{"message":"nope"}}` {
		t.Errorf("body not carried verbatim: %q", se.Body)
	}
}

func TestTransportError(t *testing.T) {
	client, err := fireside.New("p", "k", fireside.WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	_, gerr := client.GetDocument(context.Background(), "users", "u1")
	var te *fireside.TransportError
	if !errors.As(gerr, &te) {
		t.Fatalf("expected TransportError, got %v", gerr)
	}
}
