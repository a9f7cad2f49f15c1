package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fireside-db/fireside/fireside/collections"
)

// FromDiscovered converts an inferred collection schema into a
// declared one. Mixed-type fields fall back to string, the loosest
// declaration that still round-trips; indexes and rules cannot be
// inferred from data alone and come back empty.
func FromDiscovered(cs *collections.CollectionSchema) Collection {
	fields := make([]Field, 0, len(cs.Fields))
	for _, fi := range cs.Fields {
		fields = append(fields, Field{
			Name:        fi.Name,
			Type:        discoveredType(fi.FieldType),
			Required:    fi.IsRequired,
			Description: discoveredDescription(fi),
		})
	}
	return Collection{
		Name:            cs.CollectionName,
		Description:     fmt.Sprintf("Discovered collection with %d documents", cs.TotalDocuments),
		Fields:          fields,
		Indexes:         []Index{},
		ValidationRules: []Rule{},
	}
}

func discoveredType(label string) FieldType {
	if strings.HasPrefix(label, "Mixed(") {
		return TypeString
	}
	ft := FieldType(label)
	if !ft.Valid() {
		return TypeString
	}
	return ft
}

func discoveredDescription(fi collections.FieldInfo) string {
	desc := fmt.Sprintf("Seen in %d documents", fi.Frequency)
	if len(fi.SampleValues) > 0 {
		desc += ", e.g. " + fi.SampleValues[0]
	}
	return desc
}

// Discover probes the database and builds a schema file from every
// non-empty collection found. A collection that cannot be described is
// logged and skipped.
func Discover(ctx context.Context, inspector *collections.Inspector, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}
	infos, err := inspector.List(ctx)
	if err != nil {
		return nil, err
	}

	out := &File{Version: Version, Collections: make(map[string]Collection, len(infos))}
	for _, info := range infos {
		cs, err := inspector.Describe(ctx, info.Name, 50)
		if err != nil {
			logger.Warn("skipping collection during schema discovery",
				"collection", info.Name, "error", err)
			continue
		}
		out.Collections[info.Name] = FromDiscovered(cs)
	}
	return out, nil
}
