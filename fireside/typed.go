package fireside

import (
	"context"
	"time"

	"github.com/fireside-db/fireside/fireside/query"
	"github.com/fireside-db/fireside/types"
)

// Record constrains a pointer type that can move through the wire
// codec in both directions.
type Record[T any] interface {
	*T
	types.FieldMarshaler
	types.FieldUnmarshaler
}

// TypedClient wraps a Client with a concrete record type for one
// collection, so callers work with their own structs instead of field
// maps.
type TypedClient[T any, PT Record[T]] struct {
	client     *Client
	collection string
}

// NewTyped creates a typed view over one collection.
func NewTyped[T any, PT Record[T]](c *Client, collection string) *TypedClient[T, PT] {
	return &TypedClient[T, PT]{client: c, collection: collection}
}

// Collection returns the collection this client reads and writes.
func (tc *TypedClient[T, PT]) Collection() string { return tc.collection }

// Create stores a new record and returns the generated document ID.
func (tc *TypedClient[T, PT]) Create(ctx context.Context, rec *T) (string, error) {
	return tc.client.createFields(ctx, tc.collection, "", PT(rec).MarshalFields())
}

// CreateWithID stores a new record under the given document ID.
func (tc *TypedClient[T, PT]) CreateWithID(ctx context.Context, id string, rec *T) (string, error) {
	return tc.client.createFields(ctx, tc.collection, id, PT(rec).MarshalFields())
}

// Get fetches one record by ID.
func (tc *TypedClient[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	fields, err := tc.client.getFields(ctx, tc.collection, id)
	if err != nil {
		return nil, err
	}
	rec := new(T)
	if err := PT(rec).UnmarshalFields(fields); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update merges the record's fields into an existing document and
// stamps updated_at with the current time.
func (tc *TypedClient[T, PT]) Update(ctx context.Context, id string, rec *T) error {
	fields := PT(rec).MarshalFields()
	fields["updated_at"] = types.Timestamp(time.Now())
	return tc.client.patchFields(ctx, tc.collection, id, fields, fieldMask(fields))
}

// Delete removes one record by ID.
func (tc *TypedClient[T, PT]) Delete(ctx context.Context, id string) error {
	return tc.client.DeleteDocument(ctx, tc.collection, id)
}

// List fetches up to limit records. A record that fails to decode is
// logged and skipped so one bad document cannot hide the rest.
func (tc *TypedClient[T, PT]) List(ctx context.Context, limit int) ([]T, error) {
	docs, err := tc.client.ListRaw(ctx, tc.collection, limit)
	if err != nil {
		return nil, err
	}
	return tc.decodeAll(docs), nil
}

// Query runs a structured query and decodes matching records, skipping
// any that fail to decode.
func (tc *TypedClient[T, PT]) Query(ctx context.Context, q query.StructuredQuery) ([]T, error) {
	docs, err := tc.client.RunQueryRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	return tc.decodeAll(docs), nil
}

func (tc *TypedClient[T, PT]) decodeAll(docs []Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := PT(&rec).UnmarshalFields(doc.Fields); err != nil {
			tc.client.logger.Warn("skipping undecodable document",
				"collection", tc.collection, "id", doc.ID(), "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
