// Package collections discovers what lives in a database the store
// cannot enumerate directly: which collections exist, roughly how big
// they are, and what shape their documents take, inferred from samples.
package collections

import (
	"context"
	"fmt"
	"sort"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/types"
)

// MetadataCollection holds the schema documents written by schema sync.
// It is always probed during discovery, after the candidate names.
const MetadataCollection = "_metadata_collections"

// maxSampleSize is the largest sample one describe call reads, bounded
// by the store's page size.
const maxSampleSize = 100

// DefaultCandidates are the collection names discovery probes. The
// store has no list-collections endpoint, so discovery is a guess over
// common names plus whatever the metadata collection records.
var DefaultCandidates = []string{
	"users", "posts", "comments", "products", "orders", "customers",
	"articles", "messages", "notifications", "settings", "logs",
	"events", "analytics", "feedback", "reviews", "categories",
}

// CollectionInfo summarizes one discovered collection.
type CollectionInfo struct {
	Name          string `json:"name" yaml:"name"`
	DocumentCount int    `json:"document_count" yaml:"document_count"`
	EstimatedSize string `json:"estimated_size" yaml:"estimated_size"`
	LastModified  string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// FieldInfo describes one field as observed across a document sample.
type FieldInfo struct {
	Name         string        `json:"name" yaml:"name"`
	FieldType    string        `json:"field_type" yaml:"field_type"`
	IsRequired   bool          `json:"is_required" yaml:"is_required"`
	SampleValues []string      `json:"sample_values" yaml:"sample_values"`
	Frequency    int           `json:"frequency" yaml:"frequency"`
	UniqueValues int           `json:"unique_values" yaml:"unique_values"`
	AutoField    AutoFieldKind `json:"auto_field,omitempty" yaml:"auto_field,omitempty"`
}

// CollectionSchema is the inferred shape of one collection.
type CollectionSchema struct {
	CollectionName string         `json:"collection_name" yaml:"collection_name"`
	TotalDocuments int            `json:"total_documents" yaml:"total_documents"`
	Fields         []FieldInfo    `json:"fields" yaml:"fields"`
	SampleDocument map[string]any `json:"sample_document,omitempty" yaml:"sample_document,omitempty"`
}

// Inspector probes a database for collections and infers their schemas.
type Inspector struct {
	client     *fireside.Client
	candidates []string
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithCandidates replaces the probed collection names.
func WithCandidates(names []string) InspectorOption {
	return func(in *Inspector) { in.candidates = names }
}

// NewInspector creates an inspector over the given client.
func NewInspector(c *fireside.Client, opts ...InspectorOption) *Inspector {
	in := &Inspector{client: c, candidates: DefaultCandidates}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// List probes candidate collections plus the metadata collection and
// returns the non-empty ones, largest first. A candidate that errors
// is treated as absent; discovery is best-effort by nature.
func (in *Inspector) List(ctx context.Context) ([]CollectionInfo, error) {
	var found []CollectionInfo
	for _, name := range append(append([]string{}, in.candidates...), MetadataCollection) {
		if err := ctx.Err(); err != nil {
			return nil, &fireside.TransportError{Op: "list collections", Err: err}
		}
		info, err := in.Info(ctx, name)
		if err != nil {
			continue
		}
		if info.DocumentCount > 0 {
			found = append(found, info)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].DocumentCount > found[j].DocumentCount
	})
	return found, nil
}

// Info summarizes one collection. The document count is a sample-based
// floor: a full page means "at least this many".
func (in *Inspector) Info(ctx context.Context, name string) (CollectionInfo, error) {
	docs, err := in.client.ListRaw(ctx, name, maxSampleSize)
	if err != nil {
		return CollectionInfo{}, err
	}

	info := CollectionInfo{
		Name:          name,
		DocumentCount: len(docs),
		EstimatedSize: sizeEstimate(len(docs)),
	}
	if len(docs) > 0 {
		info.LastModified = docs[0].UpdateTime
	}
	return info, nil
}

// sizeEstimate guesses storage from document count, assuming ~2KB per
// document.
func sizeEstimate(count int) string {
	if count == 0 {
		return "Empty"
	}
	bytes := float64(count) * 2048
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%.0fB", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1fKB", bytes/1024)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.1fMB", bytes/(1024*1024))
	default:
		return fmt.Sprintf("%.1fGB", bytes/(1024*1024*1024))
	}
}

type fieldStats struct {
	frequency int
	kinds     map[string]struct{}
	samples   []string
	seen      map[string]struct{}
}

// Describe infers a collection's schema from a sample of up to
// sampleSize documents (capped at the store's page size). A field is
// required only when every sampled document carries it. An empty
// collection cannot be described.
func (in *Inspector) Describe(ctx context.Context, name string, sampleSize int) (*CollectionSchema, error) {
	if sampleSize <= 0 || sampleSize > maxSampleSize {
		sampleSize = maxSampleSize
	}
	docs, err := in.client.ListRaw(ctx, name, sampleSize)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &fireside.NotFoundError{ID: fmt.Sprintf("no documents found in collection %s", name)}
	}

	stats := make(map[string]*fieldStats)
	for _, doc := range docs {
		for fieldName, value := range doc.Fields {
			st, ok := stats[fieldName]
			if !ok {
				st = &fieldStats{
					kinds: make(map[string]struct{}),
					seen:  make(map[string]struct{}),
				}
				stats[fieldName] = st
			}
			st.frequency++
			st.kinds[value.Kind().String()] = struct{}{}

			sample := sampleValue(value)
			if _, dup := st.seen[sample]; !dup && len(st.samples) < 5 {
				st.seen[sample] = struct{}{}
				st.samples = append(st.samples, sample)
			}
		}
	}

	names := make([]string, 0, len(stats))
	for fieldName := range stats {
		names = append(names, fieldName)
	}
	sort.Strings(names)

	fields := make([]FieldInfo, 0, len(names))
	for _, fieldName := range names {
		st := stats[fieldName]
		fields = append(fields, FieldInfo{
			Name:         fieldName,
			FieldType:    typeLabel(st.kinds),
			IsRequired:   st.frequency == len(docs),
			SampleValues: st.samples,
			Frequency:    st.frequency,
			UniqueValues: len(st.samples),
			AutoField:    DetectAutoField(fieldName),
		})
	}

	return &CollectionSchema{
		CollectionName: name,
		TotalDocuments: len(docs),
		Fields:         fields,
		SampleDocument: docs[0].Dynamic(),
	}, nil
}

// typeLabel names a field's type; a field observed with several kinds
// is labeled Mixed with the kinds sorted for stable output.
func typeLabel(kinds map[string]struct{}) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) == 1 {
		return names[0]
	}
	out := "Mixed("
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out + ")"
}

// sampleValue renders a compact display form of one observed value.
// Composites are abbreviated; strings are quoted.
func sampleValue(v types.Value) string {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		return fmt.Sprintf("%q", s)
	case types.KindArray:
		return "[...]"
	case types.KindMap:
		return "{...}"
	case types.KindUnknown:
		return "?"
	default:
		return v.Display()
	}
}
