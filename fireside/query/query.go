// Package query models structured queries in the wire format the
// document store expects and provides a fluent builder over them.
package query

import "github.com/fireside-db/fireside/types"

// Operator is a field comparison operator.
type Operator string

const (
	OpLessThan           Operator = "LESS_THAN"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpEqual              Operator = "EQUAL"
	OpNotEqual           Operator = "NOT_EQUAL"
	OpArrayContains      Operator = "ARRAY_CONTAINS"
	OpIn                 Operator = "IN"
	OpArrayContainsAny   Operator = "ARRAY_CONTAINS_ANY"
	OpNotIn              Operator = "NOT_IN"
)

// UnaryOperator tests a field against a fixed condition with no operand.
type UnaryOperator string

const (
	OpIsNull    UnaryOperator = "IS_NULL"
	OpIsNotNull UnaryOperator = "IS_NOT_NULL"
	OpIsNaN     UnaryOperator = "IS_NAN"
	OpIsNotNaN  UnaryOperator = "IS_NOT_NAN"
)

// CompositeOperator combines sub-filters.
type CompositeOperator string

const (
	CompositeAnd CompositeOperator = "AND"
	CompositeOr  CompositeOperator = "OR"
)

// Direction orders query results.
type Direction string

const (
	Ascending  Direction = "ASCENDING"
	Descending Direction = "DESCENDING"
)

// StructuredQuery is the wire form of one query. Zero limit and offset
// are omitted from serialization, which the store treats as unbounded.
type StructuredQuery struct {
	From    []CollectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []Order              `json:"orderBy,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
}

// CollectionSelector names a collection the query reads from.
type CollectionSelector struct {
	CollectionID   string `json:"collectionId"`
	AllDescendants bool   `json:"allDescendants,omitempty"`
}

// Filter is one node of a filter tree. Exactly one of the three
// branches is set.
type Filter struct {
	Composite *CompositeFilter `json:"compositeFilter,omitempty"`
	Field     *FieldFilter     `json:"fieldFilter,omitempty"`
	Unary     *UnaryFilter     `json:"unaryFilter,omitempty"`
}

// CompositeFilter combines sub-filters with AND or OR.
type CompositeFilter struct {
	Op      CompositeOperator `json:"op"`
	Filters []Filter          `json:"filters"`
}

// FieldFilter compares one field against an operand.
type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    Operator       `json:"op"`
	Value types.Value    `json:"value"`
}

// UnaryFilter tests one field with an operand-free operator.
type UnaryFilter struct {
	Op    UnaryOperator  `json:"op"`
	Field FieldReference `json:"field"`
}

// FieldReference names a field by dot-separated path.
type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

// Order is one orderBy clause.
type Order struct {
	Field     FieldReference `json:"field"`
	Direction Direction      `json:"direction,omitempty"`
}

// Compare builds a field filter node.
func Compare(field string, op Operator, v types.Value) Filter {
	return Filter{Field: &FieldFilter{
		Field: FieldReference{FieldPath: field},
		Op:    op,
		Value: v,
	}}
}

// CompareAll builds a field filter whose operand is the given values
// wrapped in an array, as IN, NOT_IN, and ARRAY_CONTAINS_ANY require.
func CompareAll(field string, op Operator, vs ...types.Value) Filter {
	return Compare(field, op, types.Array(vs...))
}

// Unary builds a unary filter node.
func Unary(field string, op UnaryOperator) Filter {
	return Filter{Unary: &UnaryFilter{
		Op:    op,
		Field: FieldReference{FieldPath: field},
	}}
}

// And combines filters under an AND composite.
func And(filters ...Filter) Filter {
	return Filter{Composite: &CompositeFilter{Op: CompositeAnd, Filters: filters}}
}

// Or combines filters under an OR composite.
func Or(filters ...Filter) Filter {
	return Filter{Composite: &CompositeFilter{Op: CompositeOr, Filters: filters}}
}
