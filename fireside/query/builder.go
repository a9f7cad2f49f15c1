package query

import "github.com/fireside-db/fireside/types"

// Builder assembles a StructuredQuery with a fluent interface.
//
// Every Where* call replaces the whole filter; the last one wins. Use
// Where with And or Or to install a composite filter. OrderBy appends,
// while Limit and Offset overwrite.
type Builder struct {
	q StructuredQuery
}

// New starts a query over the given collection.
func New(collection string) *Builder {
	return &Builder{q: StructuredQuery{
		From: []CollectionSelector{{CollectionID: collection}},
	}}
}

// Where installs the given filter as the query's filter root.
func (b *Builder) Where(f Filter) *Builder {
	b.q.Where = &f
	return b
}

// WhereEq filters on field == v.
func (b *Builder) WhereEq(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpEqual, v))
}

// WhereNotEq filters on field != v.
func (b *Builder) WhereNotEq(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpNotEqual, v))
}

// WhereLt filters on field < v.
func (b *Builder) WhereLt(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpLessThan, v))
}

// WhereLte filters on field <= v.
func (b *Builder) WhereLte(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpLessThanOrEqual, v))
}

// WhereGt filters on field > v.
func (b *Builder) WhereGt(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpGreaterThan, v))
}

// WhereGte filters on field >= v.
func (b *Builder) WhereGte(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpGreaterThanOrEqual, v))
}

// WhereArrayContains filters on array field containing v.
func (b *Builder) WhereArrayContains(field string, v types.Value) *Builder {
	return b.Where(Compare(field, OpArrayContains, v))
}

// WhereIn filters on field being one of vs.
func (b *Builder) WhereIn(field string, vs ...types.Value) *Builder {
	return b.Where(CompareAll(field, OpIn, vs...))
}

// WhereNotIn filters on field being none of vs.
func (b *Builder) WhereNotIn(field string, vs ...types.Value) *Builder {
	return b.Where(CompareAll(field, OpNotIn, vs...))
}

// WhereArrayContainsAny filters on array field containing any of vs.
func (b *Builder) WhereArrayContainsAny(field string, vs ...types.Value) *Builder {
	return b.Where(CompareAll(field, OpArrayContainsAny, vs...))
}

// WhereNull filters on field being null.
func (b *Builder) WhereNull(field string) *Builder {
	return b.Where(Unary(field, OpIsNull))
}

// WhereNotNull filters on field being non-null.
func (b *Builder) WhereNotNull(field string) *Builder {
	return b.Where(Unary(field, OpIsNotNull))
}

// OrderBy appends an ordering clause.
func (b *Builder) OrderBy(field string, dir Direction) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, Order{
		Field:     FieldReference{FieldPath: field},
		Direction: dir,
	})
	return b
}

// Limit caps the number of returned documents.
func (b *Builder) Limit(n int) *Builder {
	b.q.Limit = n
	return b
}

// Offset skips the first n matching documents.
func (b *Builder) Offset(n int) *Builder {
	b.q.Offset = n
	return b
}

// Build returns the assembled query. The builder can keep being used;
// the returned query does not alias its ordering slice.
func (b *Builder) Build() StructuredQuery {
	q := b.q
	if b.q.OrderBy != nil {
		q.OrderBy = make([]Order, len(b.q.OrderBy))
		copy(q.OrderBy, b.q.OrderBy)
	}
	return q
}
