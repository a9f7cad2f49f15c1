// Package form assembles new documents interactively. The Filler
// interface is the seam between the prompting front end and the rest
// of the system: callers hand it an inferred collection schema and get
// back field values, or nil when the user cancels.
package form

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/collections"
)

// Filler turns an inferred schema into field values for one new
// document. A nil map with a nil error means the user cancelled.
type Filler interface {
	Fill(schema *collections.CollectionSchema) (map[string]any, error)
}

// ParseValue converts one line of user input into a field value guided
// by the field's inferred type. Empty input becomes nil. Unknown and
// Mixed types fall back to string.
func ParseValue(input, fieldType string) (any, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	switch fieldType {
	case "integer":
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, &fireside.ValidationError{Field: "", Reason: fmt.Sprintf("invalid integer: %s", trimmed)}
		}
		return n, nil
	case "double", "number":
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, &fireside.ValidationError{Field: "", Reason: fmt.Sprintf("invalid number: %s", trimmed)}
		}
		return f, nil
	case "boolean":
		switch strings.ToLower(trimmed) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		default:
			return nil, &fireside.ValidationError{Field: "", Reason: fmt.Sprintf("invalid boolean: %s (use true/false)", trimmed)}
		}
	case "array", "map", "object":
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, &fireside.ValidationError{Field: "", Reason: fmt.Sprintf("invalid JSON: %s", trimmed)}
		}
		return v, nil
	case "timestamp":
		if strings.EqualFold(trimmed, "now") {
			return time.Now().UTC().Format(time.RFC3339), nil
		}
		if _, err := time.Parse(time.RFC3339, trimmed); err != nil {
			return nil, &fireside.ValidationError{Field: "", Reason: fmt.Sprintf("invalid timestamp: %s (use RFC 3339 or 'now')", trimmed)}
		}
		return trimmed, nil
	default:
		return trimmed, nil
	}
}

// ApplyAutoFields fills generated values for auto-detected fields the
// user left empty. Explicit values always win.
func ApplyAutoFields(schema *collections.CollectionSchema, values map[string]any) {
	for _, field := range schema.Fields {
		if field.AutoField == collections.AutoNone {
			continue
		}
		if _, set := values[field.Name]; set {
			continue
		}
		if v := field.AutoField.Generate(); v != nil {
			values[field.Name] = v
		}
	}
}

// PromptFiller fills a document by prompting line by line. It is the
// plain-terminal filler; anything that can supply an io.Reader and
// io.Writer can drive it, which is also how it is tested.
type PromptFiller struct {
	in  *bufio.Reader
	out io.Writer
	// MaxAttempts bounds re-prompts for one field before giving up.
	MaxAttempts int
}

// NewPromptFiller creates a filler reading from r and prompting on w.
func NewPromptFiller(r io.Reader, w io.Writer) *PromptFiller {
	return &PromptFiller{in: bufio.NewReader(r), out: w, MaxAttempts: 3}
}

// Fill prompts for every non-auto field in the schema. Empty input
// skips optional fields and re-prompts required ones; end of input
// cancels the form. Auto fields are generated, never prompted.
func (pf *PromptFiller) Fill(schema *collections.CollectionSchema) (map[string]any, error) {
	values := make(map[string]any)

	fmt.Fprintf(pf.out, "New document in %s (empty line skips optional fields)\n", schema.CollectionName)
	for _, field := range schema.Fields {
		if field.AutoField != collections.AutoNone {
			fmt.Fprintf(pf.out, "  %s: %s\n", field.Name, field.AutoField.Description())
			continue
		}

		v, cancelled, err := pf.promptField(field)
		if err != nil {
			return nil, err
		}
		if cancelled {
			return nil, nil
		}
		if v != nil {
			values[field.Name] = v
		}
	}

	ApplyAutoFields(schema, values)
	return values, nil
}

func (pf *PromptFiller) promptField(field collections.FieldInfo) (any, bool, error) {
	marker := ""
	if field.IsRequired {
		marker = " *"
	}

	for attempt := 0; attempt < pf.MaxAttempts; attempt++ {
		fmt.Fprintf(pf.out, "  %s (%s)%s: ", field.Name, field.FieldType, marker)

		line, err := pf.in.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil, true, nil
		}
		if err != nil && err != io.EOF {
			return nil, false, fmt.Errorf("failed to read input: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if field.IsRequired {
				fmt.Fprintf(pf.out, "  %s is required\n", field.Name)
				continue
			}
			return nil, false, nil
		}

		v, perr := ParseValue(trimmed, field.FieldType)
		if perr != nil {
			fmt.Fprintf(pf.out, "  %v\n", perr)
			continue
		}
		return v, false, nil
	}
	return nil, false, &fireside.ValidationError{
		Field:  field.Name,
		Reason: fmt.Sprintf("no valid value after %d attempts", pf.MaxAttempts),
	}
}
