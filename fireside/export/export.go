// Package export moves collection data across the file boundary:
// snapshot a collection to JSON or YAML, import such a file back, and
// back up every discoverable collection at once.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/collections"
)

// Format selects the file serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a format from a file extension, defaulting to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Envelope is the exported form of one collection: provenance plus the
// documents' fields as plain values.
type Envelope struct {
	Collection string           `json:"collection" yaml:"collection"`
	ExportedAt string           `json:"exported_at" yaml:"exported_at"`
	Count      int              `json:"count" yaml:"count"`
	Data       []map[string]any `json:"data" yaml:"data"`
}

// Generate snapshots a collection into an envelope.
func Generate(ctx context.Context, c *fireside.Client, collection string) (*Envelope, error) {
	items, err := c.ListDocuments(ctx, collection, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to export collection %s: %w", collection, err)
	}
	if items == nil {
		items = []map[string]any{}
	}
	return &Envelope{
		Collection: collection,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(items),
		Data:       items,
	}, nil
}

// Encode serializes the envelope in the given format.
func Encode(env *Envelope, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(yamlReady(env))
		if err != nil {
			return nil, &fireside.SerializationError{Op: "encode export", Err: err}
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, &fireside.SerializationError{Op: "encode export", Err: err}
		}
		return append(data, '\n'), nil
	}
}

// yamlReady rewrites json.Number values as native ints or floats so
// the YAML encoder does not quote them as strings.
func yamlReady(env *Envelope) *Envelope {
	out := *env
	out.Data = make([]map[string]any, len(env.Data))
	for i, item := range env.Data {
		out.Data[i] = normalizeMap(item)
	}
	return &out
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// Normalize rewrites json.Number values in a dynamic value tree as
// native ints or floats, for encoders that would otherwise render them
// as strings.
func Normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		return normalizeMap(x)
	default:
		return v
	}
}

// WriteFile exports a collection to a file, choosing the format from
// the extension. It returns the number of exported documents.
func WriteFile(ctx context.Context, c *fireside.Client, collection, path string) (int, error) {
	env, err := Generate(ctx, c, collection)
	if err != nil {
		return 0, err
	}
	data, err := Encode(env, DetectFormat(path))
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, &fireside.ConfigError{Reason: fmt.Sprintf("failed to write export file: %v", err)}
	}
	return env.Count, nil
}

// ReadFile loads an export envelope, choosing the format from the
// extension. JSON numbers are decoded as json.Number so integer
// precision survives.
func ReadFile(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fireside.ConfigError{Reason: fmt.Sprintf("failed to read import file: %v", err)}
	}

	var env Envelope
	switch DetectFormat(path) {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, &fireside.SerializationError{Op: "read import file", Err: err}
		}
	default:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.UseNumber()
		if err := dec.Decode(&env); err != nil {
			return nil, &fireside.SerializationError{Op: "read import file", Err: err}
		}
	}
	return &env, nil
}

// Import creates one document per envelope item. The target collection
// overrides the envelope's own when non-empty. An item that fails to
// import is logged and skipped; the returned count is the number that
// made it.
func Import(ctx context.Context, c *fireside.Client, env *Envelope, target string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if target == "" {
		target = env.Collection
	}
	if target == "" {
		return 0, &fireside.ConfigError{Reason: "import has no target collection"}
	}

	imported := 0
	for _, item := range env.Data {
		if err := ctx.Err(); err != nil {
			return imported, &fireside.TransportError{Op: "import collection", Err: err}
		}
		if _, err := c.CreateDocument(ctx, target, "", item); err != nil {
			logger.Warn("failed to import item", "collection", target, "error", err)
			continue
		}
		imported++
	}
	return imported, nil
}

// Backup exports every discoverable collection into dir, one file per
// collection named <collection>_backup.json. It returns per-collection
// document counts; a collection that fails to export is logged with a
// zero count rather than aborting the rest.
func Backup(ctx context.Context, c *fireside.Client, inspector *collections.Inspector, dir string, logger *slog.Logger) (map[string]int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &fireside.ConfigError{Reason: fmt.Sprintf("failed to create backup directory: %v", err)}
	}

	infos, err := inspector.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover collections for backup: %w", err)
	}

	counts := make(map[string]int, len(infos))
	for _, info := range infos {
		path := filepath.Join(dir, info.Name+"_backup.json")
		n, err := WriteFile(ctx, c, info.Name, path)
		if err != nil {
			logger.Warn("failed to back up collection", "collection", info.Name, "error", err)
			counts[info.Name] = 0
			continue
		}
		counts[info.Name] = n
	}
	return counts, nil
}
