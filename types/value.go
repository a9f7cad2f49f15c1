// Package types defines the wire value model shared by the client,
// query, and schema packages. A Value is the tagged representation a
// document store speaks on the wire: every field of a document is one
// of a small closed set of variants, each serialized as a single-key
// JSON object ({"stringValue": ...}, {"integerValue": ...}, and so on).
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindDouble
	KindBoolean
	KindTimestamp
	KindArray
	KindMap
	// KindUnknown preserves a wire variant this version does not model.
	// Unknown values round-trip through re-serialization unchanged.
	KindUnknown
)

// String returns the lowercase type label used in schema reports.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is one wire-format field value. The zero Value is the null value.
//
// Integers are carried as their decimal string form, exactly as the wire
// sends them, so values outside the 53-bit float-safe range survive a
// decode/encode round trip without loss.
type Value struct {
	kind   Kind
	str    string // string, timestamp, integer (decimal), or raw JSON for unknown
	num    float64
	b      bool
	values []Value
	fields map[string]Value
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Integer returns an integer value.
func Integer(i int64) Value {
	return Value{kind: KindInteger, str: strconv.FormatInt(i, 10)}
}

// IntegerString returns an integer value from its decimal string form.
// The string is kept verbatim so magnitudes beyond int64 are preserved.
func IntegerString(s string) Value { return Value{kind: KindInteger, str: s} }

// Double returns a double value.
func Double(f float64) Value { return Value{kind: KindDouble, num: f} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Timestamp returns a timestamp value in RFC 3339 form.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, str: t.UTC().Format(time.RFC3339)}
}

// TimestampString returns a timestamp value from an already-formatted string.
func TimestampString(s string) Value { return Value{kind: KindTimestamp, str: s} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Array returns an array value.
func Array(vs ...Value) Value { return Value{kind: KindArray, values: vs} }

// Map returns a map value.
func Map(fields map[string]Value) Value { return Value{kind: KindMap, fields: fields} }

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload if the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInteger returns the integer payload if the value is an integer that
// fits in int64.
func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	i, err := strconv.ParseInt(v.str, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// IntegerText returns the decimal string payload of an integer value.
// Unlike AsInteger it cannot overflow.
func (v Value) IntegerText() (string, bool) {
	if v.kind != KindInteger {
		return "", false
	}
	return v.str, true
}

// AsDouble returns the float payload if the value is a double.
func (v Value) AsDouble() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.num, true
}

// AsNumber returns a float64 view of an integer or double value.
// Integer values beyond float precision are rounded.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.num, true
	case KindInteger:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBoolean returns the bool payload if the value is a boolean.
func (v Value) AsBoolean() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

// AsTimestamp parses and returns the timestamp payload.
func (v Value) AsTimestamp() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v.str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TimestampText returns the raw timestamp string payload.
func (v Value) TimestampText() (string, bool) {
	if v.kind != KindTimestamp {
		return "", false
	}
	return v.str, true
}

// AsArray returns the element slice if the value is an array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.values, true
}

// AsMap returns the field map if the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.fields, true
}

type wireArray struct {
	Values []Value `json:"values"`
}

type wireMap struct {
	Fields map[string]Value `json:"fields"`
}

// MarshalJSON encodes the value as its single-key wire object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(map[string]string{"stringValue": v.str})
	case KindInteger:
		return json.Marshal(map[string]string{"integerValue": v.str})
	case KindDouble:
		return json.Marshal(map[string]float64{"doubleValue": v.num})
	case KindBoolean:
		return json.Marshal(map[string]bool{"booleanValue": v.b})
	case KindTimestamp:
		return json.Marshal(map[string]string{"timestampValue": v.str})
	case KindNull:
		return []byte(`{"nullValue":null}`), nil
	case KindArray:
		vals := v.values
		if vals == nil {
			vals = []Value{}
		}
		return json.Marshal(map[string]wireArray{"arrayValue": {Values: vals}})
	case KindMap:
		flds := v.fields
		if flds == nil {
			flds = map[string]Value{}
		}
		return json.Marshal(map[string]wireMap{"mapValue": {Fields: flds}})
	case KindUnknown:
		return []byte(v.str), nil
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a single-key wire object. A tag this version
// does not model becomes an unknown value carrying the raw JSON, so it
// survives re-serialization verbatim.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode wire value: %w", err)
	}

	if msg, ok := raw["stringValue"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("failed to decode stringValue: %w", err)
		}
		*v = String(s)
		return nil
	}
	if msg, ok := raw["integerValue"]; ok {
		// The wire sends integers as strings, but tolerate bare numbers.
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			var n json.Number
			if err := json.Unmarshal(msg, &n); err != nil {
				return fmt.Errorf("failed to decode integerValue: %w", err)
			}
			s = n.String()
		}
		*v = IntegerString(s)
		return nil
	}
	if msg, ok := raw["doubleValue"]; ok {
		var f float64
		if err := json.Unmarshal(msg, &f); err != nil {
			return fmt.Errorf("failed to decode doubleValue: %w", err)
		}
		*v = Double(f)
		return nil
	}
	if msg, ok := raw["booleanValue"]; ok {
		var b bool
		if err := json.Unmarshal(msg, &b); err != nil {
			return fmt.Errorf("failed to decode booleanValue: %w", err)
		}
		*v = Boolean(b)
		return nil
	}
	if msg, ok := raw["timestampValue"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("failed to decode timestampValue: %w", err)
		}
		*v = TimestampString(s)
		return nil
	}
	if _, ok := raw["nullValue"]; ok {
		*v = Null()
		return nil
	}
	if msg, ok := raw["arrayValue"]; ok {
		var arr wireArray
		if err := json.Unmarshal(msg, &arr); err != nil {
			return fmt.Errorf("failed to decode arrayValue: %w", err)
		}
		*v = Value{kind: KindArray, values: arr.Values}
		return nil
	}
	if msg, ok := raw["mapValue"]; ok {
		var m wireMap
		if err := json.Unmarshal(msg, &m); err != nil {
			return fmt.Errorf("failed to decode mapValue: %w", err)
		}
		*v = Value{kind: KindMap, fields: m.Fields}
		return nil
	}

	*v = Value{kind: KindUnknown, str: string(data)}
	return nil
}

// Dynamic converts the value to its plain Go representation: string,
// json.Number, float64, bool, nil, []any, or map[string]any. Integers
// come back as json.Number carrying the exact decimal text, so callers
// never see silent truncation. Unknown variants become a placeholder
// string.
func (v Value) Dynamic() any {
	switch v.kind {
	case KindString, KindTimestamp:
		return v.str
	case KindInteger:
		return json.Number(v.str)
	case KindDouble:
		return v.num
	case KindBoolean:
		return v.b
	case KindNull:
		return nil
	case KindArray:
		out := make([]any, len(v.values))
		for i, e := range v.values {
			out[i] = e.Dynamic()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for k, e := range v.fields {
			out[k] = e.Dynamic()
		}
		return out
	default:
		return "<unknown value>"
	}
}

// FromDynamic converts a plain Go value into a wire value. It is total:
// json.Number routes by shape (no fraction or exponent means integer),
// integer Go types become integers, floats become doubles, time.Time
// becomes a timestamp, and anything unrecognized falls back to its
// string form.
func FromDynamic(in any) Value {
	switch x := in.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Boolean(x)
	case json.Number:
		if isIntegerText(x.String()) {
			return IntegerString(x.String())
		}
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Double(f)
	case int:
		return Integer(int64(x))
	case int32:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case uint:
		return IntegerString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return IntegerString(strconv.FormatUint(x, 10))
	case float32:
		return Double(float64(x))
	case float64:
		return Double(x)
	case time.Time:
		return Timestamp(x)
	case []any:
		vals := make([]Value, len(x))
		for i, e := range x {
			vals[i] = FromDynamic(e)
		}
		return Value{kind: KindArray, values: vals}
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			fields[k] = FromDynamic(e)
		}
		return Value{kind: KindMap, fields: fields}
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// isIntegerText reports whether a json.Number literal has no fraction
// or exponent part.
func isIntegerText(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

// DynamicToFields converts a plain field map into wire values.
func DynamicToFields(m map[string]any) map[string]Value {
	fields := make(map[string]Value, len(m))
	for k, v := range m {
		fields[k] = FromDynamic(v)
	}
	return fields
}

// FieldsToDynamic converts wire fields back to plain Go values.
func FieldsToDynamic(fields map[string]Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v.Dynamic()
	}
	return out
}

// Display renders the value for human-readable output. Maps print with
// sorted keys so output is deterministic.
func (v Value) Display() string {
	switch v.kind {
	case KindString, KindTimestamp:
		return v.str
	case KindInteger:
		return v.str
	case KindDouble:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return strconv.FormatFloat(v.num, 'f', 1, 64)
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	case KindArray:
		parts := make([]string, len(v.values))
		for i, e := range v.values {
			parts[i] = e.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.fields))
		for k := range v.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.fields[k].Display()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<unknown value>"
	}
}
