package types

import (
	"fmt"
	"time"
)

// Fields is the field map of one document.
type Fields map[string]Value

// FieldMarshaler converts a typed record into wire fields.
type FieldMarshaler interface {
	MarshalFields() Fields
}

// FieldUnmarshaler populates a typed record from wire fields.
// Implementations should return *DecodeError for per-field failures.
type FieldUnmarshaler interface {
	UnmarshalFields(Fields) error
}

// DecodeError reports why a field could not be decoded into a record.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode field %q: %s", e.Field, e.Reason)
}

// MissingField returns the decode error for a required field that was
// absent from the document.
func MissingField(name string) *DecodeError {
	return &DecodeError{Field: name, Reason: "field is missing"}
}

// WrongKind returns the decode error for a field holding an unexpected
// variant.
func WrongKind(name string, want Kind, got Kind) *DecodeError {
	return &DecodeError{Field: name, Reason: fmt.Sprintf("expected %s, got %s", want, got)}
}

// String returns the named string field.
func (f Fields) String(name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", MissingField(name)
	}
	s, ok := v.AsString()
	if !ok {
		return "", WrongKind(name, KindString, v.Kind())
	}
	return s, nil
}

// StringOr returns the named string field or def when absent or mistyped.
func (f Fields) StringOr(name, def string) string {
	if s, err := f.String(name); err == nil {
		return s
	}
	return def
}

// Int returns the named integer field.
func (f Fields) Int(name string) (int64, error) {
	v, ok := f[name]
	if !ok {
		return 0, MissingField(name)
	}
	i, ok := v.AsInteger()
	if !ok {
		if v.Kind() != KindInteger {
			return 0, WrongKind(name, KindInteger, v.Kind())
		}
		return 0, &DecodeError{Field: name, Reason: "integer overflows int64"}
	}
	return i, nil
}

// IntOr returns the named integer field or def when absent or mistyped.
func (f Fields) IntOr(name string, def int64) int64 {
	if i, err := f.Int(name); err == nil {
		return i
	}
	return def
}

// Float returns the named double field. Integer fields convert when
// they fit.
func (f Fields) Float(name string) (float64, error) {
	v, ok := f[name]
	if !ok {
		return 0, MissingField(name)
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, WrongKind(name, KindDouble, v.Kind())
	}
	return n, nil
}

// FloatOr returns the named double field or def when absent or mistyped.
func (f Fields) FloatOr(name string, def float64) float64 {
	if n, err := f.Float(name); err == nil {
		return n
	}
	return def
}

// Bool returns the named boolean field.
func (f Fields) Bool(name string) (bool, error) {
	v, ok := f[name]
	if !ok {
		return false, MissingField(name)
	}
	b, ok := v.AsBoolean()
	if !ok {
		return false, WrongKind(name, KindBoolean, v.Kind())
	}
	return b, nil
}

// BoolOr returns the named boolean field or def when absent or mistyped.
func (f Fields) BoolOr(name string, def bool) bool {
	if b, err := f.Bool(name); err == nil {
		return b
	}
	return def
}

// Time returns the named timestamp field.
func (f Fields) Time(name string) (time.Time, error) {
	v, ok := f[name]
	if !ok {
		return time.Time{}, MissingField(name)
	}
	t, ok := v.AsTimestamp()
	if !ok {
		if v.Kind() != KindTimestamp {
			return time.Time{}, WrongKind(name, KindTimestamp, v.Kind())
		}
		return time.Time{}, &DecodeError{Field: name, Reason: "timestamp is not RFC 3339"}
	}
	return t, nil
}

// TimeOr returns the named timestamp field or def when absent or mistyped.
func (f Fields) TimeOr(name string, def time.Time) time.Time {
	if t, err := f.Time(name); err == nil {
		return t
	}
	return def
}
