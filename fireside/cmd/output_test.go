package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fireside-db/fireside/fireside/collections"
)

func TestRenderDocument(t *testing.T) {
	fields := map[string]any{
		"name":   "Ada",
		"age":    json.Number("36"),
		"active": true,
		"tags":   []any{"math", "computing"},
	}

	t.Run("table", func(t *testing.T) {
		out, err := renderDocument(fields, "table")
		if err != nil {
			t.Fatalf("renderDocument: %v", err)
		}
		for _, want := range []string{"name", "Ada", "age", "36", "active", "true"} {
			if !strings.Contains(out, want) {
				t.Errorf("table output missing %q:\n%s", want, out)
			}
		}
		// Keys come out sorted.
		if strings.Index(out, "active") > strings.Index(out, "name") {
			t.Errorf("keys not sorted:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := renderDocument(fields, "json")
		if err != nil {
			t.Fatalf("renderDocument: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, out)
		}
		if decoded["name"] != "Ada" {
			t.Errorf("name = %v, want Ada", decoded["name"])
		}
	})

	t.Run("yaml numbers are not quoted", func(t *testing.T) {
		out, err := renderDocument(fields, "yaml")
		if err != nil {
			t.Fatalf("renderDocument: %v", err)
		}
		if !strings.Contains(out, "age: 36") {
			t.Errorf("yaml output quotes the number:\n%s", out)
		}
	})
}

func TestRenderDocuments(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out, err := renderDocuments(nil, "table")
		if err != nil {
			t.Fatalf("renderDocuments: %v", err)
		}
		if !strings.Contains(out, "no documents") {
			t.Errorf("missing empty marker:\n%s", out)
		}
	})

	t.Run("yaml list", func(t *testing.T) {
		items := []map[string]any{
			{"name": "Ada", "age": json.Number("36")},
			{"name": "Grace"},
		}
		out, err := renderDocuments(items, "yaml")
		if err != nil {
			t.Fatalf("renderDocuments: %v", err)
		}
		if !strings.Contains(out, "age: 36") {
			t.Errorf("yaml list quotes numbers:\n%s", out)
		}
		if !strings.Contains(out, "Grace") {
			t.Errorf("second item missing:\n%s", out)
		}
	})
}

func TestRenderCollections(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out, err := renderCollections(nil, "table")
		if err != nil {
			t.Fatalf("renderCollections: %v", err)
		}
		if !strings.Contains(out, "no collections") {
			t.Errorf("missing empty marker:\n%s", out)
		}
	})

	t.Run("table", func(t *testing.T) {
		infos := []collections.CollectionInfo{
			{Name: "users", DocumentCount: 4, EstimatedSize: "8.0KB",
				LastModified: "2026-08-23T10:00:00.123456Z"},
			{Name: "posts", DocumentCount: 1, EstimatedSize: "2.0KB"},
		}
		out, err := renderCollections(infos, "table")
		if err != nil {
			t.Fatalf("renderCollections: %v", err)
		}
		for _, want := range []string{"users", "8.0KB", "posts", "Unknown"} {
			if !strings.Contains(out, want) {
				t.Errorf("table output missing %q:\n%s", want, out)
			}
		}
		if !strings.Contains(out, "2026-08-23T10:00:00") || strings.Contains(out, "123456") {
			t.Errorf("timestamp not truncated:\n%s", out)
		}
	})
}

func TestRenderSchema(t *testing.T) {
	cs := &collections.CollectionSchema{
		CollectionName: "users",
		TotalDocuments: 4,
		Fields: []collections.FieldInfo{
			{Name: "created_at", FieldType: "timestamp", IsRequired: true,
				Frequency: 4, AutoField: collections.AutoCreatedAt},
			{Name: "name", FieldType: "string", IsRequired: true, Frequency: 4,
				SampleValues: []string{`"Ada"`, `"Grace"`, `"Edsger"`, `"Barbara"`, `"Donald"`}},
			{Name: "age", FieldType: "integer", Frequency: 2, SampleValues: []string{"36"}},
		},
		SampleDocument: map[string]any{"name": "Ada"},
	}

	out, err := renderSchema(cs, "table")
	if err != nil {
		t.Fatalf("renderSchema: %v", err)
	}
	for _, want := range []string{"users", "(auto)", `"Ada"`, "2/4", "Sample document"} {
		if !strings.Contains(out, want) {
			t.Errorf("schema output missing %q:\n%s", want, out)
		}
	}
	// More than three samples collapse into a count.
	if !strings.Contains(out, "(5 total)") {
		t.Errorf("long sample list not capped:\n%s", out)
	}
	if strings.Contains(out, `"Barbara"`) {
		t.Errorf("samples past the cap still rendered:\n%s", out)
	}
}

func TestCompactValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{json.Number("9007199254740993"), "9007199254740993"},
		{true, "true"},
		{float64(1.5), "1.5"},
		{[]any{"a", "b"}, `["a","b"]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range cases {
		if got := compactValue(tc.in); got != tc.want {
			t.Errorf("compactValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
