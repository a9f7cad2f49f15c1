package fireside

import "github.com/fireside-db/fireside/types"

// Re-exports from the types package, so most callers only import
// fireside.

// Value is one wire-format field value.
type Value = types.Value

// Fields is the field map of one document.
type Fields = types.Fields

// Kind identifies the variant held by a Value.
type Kind = types.Kind

// FieldMarshaler converts a typed record into wire fields.
type FieldMarshaler = types.FieldMarshaler

// FieldUnmarshaler populates a typed record from wire fields.
type FieldUnmarshaler = types.FieldUnmarshaler

// DecodeError reports why a field could not be decoded into a record.
type DecodeError = types.DecodeError

const (
	KindNull      = types.KindNull
	KindString    = types.KindString
	KindInteger   = types.KindInteger
	KindDouble    = types.KindDouble
	KindBoolean   = types.KindBoolean
	KindTimestamp = types.KindTimestamp
	KindArray     = types.KindArray
	KindMap       = types.KindMap
	KindUnknown   = types.KindUnknown
)
