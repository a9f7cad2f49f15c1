package types_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fireside-db/fireside/types"
)

func TestFieldsAccessors(t *testing.T) {
	fields := types.Fields{
		"name":    types.String("ada"),
		"age":     types.Integer(36),
		"score":   types.Double(98.5),
		"active":  types.Boolean(true),
		"joined":  types.TimestampString("2024-01-15T10:30:00Z"),
		"big":     types.IntegerString("9223372036854775808"),
		"badtime": types.TimestampString("yesterday"),
	}

	t.Run("string", func(t *testing.T) {
		s, err := fields.String("name")
		if err != nil {
			t.Fatalf("failed to read string field: %v", err)
		}
		if s != "ada" {
			t.Errorf("expected ada, got %q", s)
		}
	})

	t.Run("int", func(t *testing.T) {
		i, err := fields.Int("age")
		if err != nil {
			t.Fatalf("failed to read integer field: %v", err)
		}
		if i != 36 {
			t.Errorf("expected 36, got %d", i)
		}
	})

	t.Run("float accepts integer", func(t *testing.T) {
		f, err := fields.Float("age")
		if err != nil {
			t.Fatalf("failed to read integer as float: %v", err)
		}
		if f != 36 {
			t.Errorf("expected 36, got %v", f)
		}
	})

	t.Run("bool", func(t *testing.T) {
		b, err := fields.Bool("active")
		if err != nil {
			t.Fatalf("failed to read boolean field: %v", err)
		}
		if !b {
			t.Error("expected true")
		}
	})

	t.Run("time", func(t *testing.T) {
		ts, err := fields.Time("joined")
		if err != nil {
			t.Fatalf("failed to read timestamp field: %v", err)
		}
		want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		if !ts.Equal(want) {
			t.Errorf("expected %v, got %v", want, ts)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := fields.String("nope")
		var de *types.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
		if de.Field != "nope" {
			t.Errorf("expected field nope, got %q", de.Field)
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := fields.Int("name")
		var de *types.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
	})

	t.Run("integer overflow", func(t *testing.T) {
		if _, err := fields.Int("big"); err == nil {
			t.Error("expected overflow error")
		}
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		if _, err := fields.Time("badtime"); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("or variants default", func(t *testing.T) {
		if got := fields.StringOr("nope", "dflt"); got != "dflt" {
			t.Errorf("expected default, got %q", got)
		}
		if got := fields.IntOr("name", 9); got != 9 {
			t.Errorf("expected default, got %d", got)
		}
		if got := fields.BoolOr("missing", true); !got {
			t.Error("expected default true")
		}
	})
}
