package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/collections"
)

// Sync writes one metadata document per declared collection into the
// metadata collection, so other clients can discover the schemas. The
// structured parts are flattened to JSON strings because metadata
// documents are read by tools that only understand flat fields.
// Collections sync in name order; the first failure stops the sync.
func (m *Manager) Sync(ctx context.Context) error {
	if m.client == nil {
		return &fireside.ConfigError{Reason: "schema manager has no client to sync with"}
	}

	names := m.Names()
	sort.Strings(names)

	for _, name := range names {
		data, err := metadataDocument(m.collections[name])
		if err != nil {
			return err
		}
		if _, err := m.client.CreateDocument(ctx, collections.MetadataCollection, "", data); err != nil {
			return fmt.Errorf("failed to sync schema for collection %s: %w", name, err)
		}
	}
	return nil
}

func metadataDocument(col Collection) (map[string]any, error) {
	fieldsJSON, err := json.Marshal(col.Fields)
	if err != nil {
		return nil, &fireside.SerializationError{Op: "sync schema", Err: err}
	}
	indexesJSON, err := json.Marshal(col.Indexes)
	if err != nil {
		return nil, &fireside.SerializationError{Op: "sync schema", Err: err}
	}
	rulesJSON, err := json.Marshal(col.ValidationRules)
	if err != nil {
		return nil, &fireside.SerializationError{Op: "sync schema", Err: err}
	}

	return map[string]any{
		"name":             col.Name,
		"created_at":       time.Now().UTC(),
		"fields":           string(fieldsJSON),
		"indexes":          string(indexesJSON),
		"validation_rules": string(rulesJSON),
	}, nil
}
