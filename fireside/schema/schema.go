// Package schema manages declared collection schemas: field
// definitions, index descriptions, and validation rules, plus the
// schema file they are loaded from and the metadata documents they
// sync to.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/types"
)

// FieldType names a declared field's wire type.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeDouble    FieldType = "double"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
	TypeArray     FieldType = "array"
	TypeMap       FieldType = "map"
	// TypeReference marks a field holding another document's ID. On the
	// wire it is a plain string.
	TypeReference FieldType = "reference"
)

// Valid reports whether the field type is one this version knows.
func (ft FieldType) Valid() bool {
	switch ft {
	case TypeString, TypeInteger, TypeDouble, TypeBoolean,
		TypeTimestamp, TypeArray, TypeMap, TypeReference:
		return true
	}
	return false
}

// matches reports whether a wire value satisfies the declared type.
func (ft FieldType) matches(k types.Kind) bool {
	switch ft {
	case TypeString, TypeReference:
		return k == types.KindString
	case TypeInteger:
		return k == types.KindInteger
	case TypeDouble:
		return k == types.KindDouble
	case TypeBoolean:
		return k == types.KindBoolean
	case TypeTimestamp:
		return k == types.KindTimestamp
	case TypeArray:
		return k == types.KindArray
	case TypeMap:
		return k == types.KindMap
	}
	return false
}

// RuleType names a validation rule.
type RuleType string

const (
	RuleMinLength RuleType = "min_length"
	RuleMaxLength RuleType = "max_length"
	RuleMin       RuleType = "min"
	RuleMax       RuleType = "max"
	RuleRegex     RuleType = "regex"
	RuleEmail     RuleType = "email"
	RuleURL       RuleType = "url"
	// RuleCustom is carried in schema files for documentation but never
	// enforced client-side.
	RuleCustom RuleType = "custom"
)

// Valid reports whether the rule type is one this version knows.
func (rt RuleType) Valid() bool {
	switch rt {
	case RuleMinLength, RuleMaxLength, RuleMin, RuleMax,
		RuleRegex, RuleEmail, RuleURL, RuleCustom:
		return true
	}
	return false
}

// Field declares one field of a collection.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"field_type" yaml:"field_type"`
	Required    bool      `json:"required" yaml:"required"`
	Default     any       `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// IndexField is one component of a composite index.
type IndexField struct {
	FieldPath string `json:"field_path" yaml:"field_path"`
	Order     string `json:"order" yaml:"order"` // "asc" or "desc"
}

// Index documents a composite index the store needs for certain
// queries. The store's console owns index creation; this is a record of
// intent.
type Index struct {
	Fields      []IndexField `json:"fields" yaml:"fields"`
	Unique      bool         `json:"unique" yaml:"unique"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Rule declares one validation rule over a field.
type Rule struct {
	Field       string   `json:"field" yaml:"field"`
	Type        RuleType `json:"rule_type" yaml:"rule_type"`
	Value       any      `json:"value,omitempty" yaml:"value,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Collection declares one collection's schema.
type Collection struct {
	Name            string  `json:"name" yaml:"name"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields          []Field `json:"fields" yaml:"fields"`
	Indexes         []Index `json:"indexes" yaml:"indexes"`
	ValidationRules []Rule  `json:"validation_rules" yaml:"validation_rules"`
}

// Manager holds declared schemas and validates records against them.
type Manager struct {
	client      *fireside.Client
	collections map[string]Collection
}

// NewManager creates a schema manager. The client is used only when
// syncing schemas to the metadata collection.
func NewManager(client *fireside.Client) *Manager {
	return &Manager{
		client:      client,
		collections: make(map[string]Collection),
	}
}

// Define registers or replaces a collection schema.
func (m *Manager) Define(col Collection) {
	m.collections[col.Name] = col
}

// Collection returns a declared schema by name.
func (m *Manager) Collection(name string) (Collection, bool) {
	col, ok := m.collections[name]
	return col, ok
}

// Names returns the declared collection names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks fields against the named collection's schema and
// returns the first violation found. Field definitions are checked
// before rules; rules only fire on fields that are present.
func (m *Manager) Validate(collection string, fields types.Fields) error {
	col, ok := m.collections[collection]
	if !ok {
		return &fireside.ConfigError{Reason: fmt.Sprintf("collection %s not defined", collection)}
	}

	for _, def := range col.Fields {
		value, present := fields[def.Name]
		if !present {
			if def.Required {
				return &fireside.ValidationError{Field: def.Name, Reason: "required field is missing"}
			}
			continue
		}
		if !def.Type.matches(value.Kind()) {
			return &fireside.ValidationError{
				Field:  def.Name,
				Reason: fmt.Sprintf("expected %s, got %s", def.Type, value.Kind()),
			}
		}
	}

	for _, rule := range col.ValidationRules {
		value, present := fields[rule.Field]
		if !present {
			continue
		}
		if err := checkRule(rule, value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRecord validates a typed record against the named schema.
func (m *Manager) ValidateRecord(collection string, rec types.FieldMarshaler) error {
	return m.Validate(collection, rec.MarshalFields())
}

func checkRule(rule Rule, value types.Value) error {
	switch rule.Type {
	case RuleMinLength:
		s, ok := value.AsString()
		if !ok {
			return nil
		}
		min, err := ruleInt(rule)
		if err != nil {
			return err
		}
		if len(s) < min {
			return &fireside.ValidationError{
				Field:  rule.Field,
				Reason: fmt.Sprintf("must be at least %d characters", min),
			}
		}
	case RuleMaxLength:
		s, ok := value.AsString()
		if !ok {
			return nil
		}
		max, err := ruleInt(rule)
		if err != nil {
			return err
		}
		if len(s) > max {
			return &fireside.ValidationError{
				Field:  rule.Field,
				Reason: fmt.Sprintf("must be at most %d characters", max),
			}
		}
	case RuleMin:
		n, ok := value.AsNumber()
		if !ok {
			return nil
		}
		min, err := ruleFloat(rule)
		if err != nil {
			return err
		}
		if n < min {
			return &fireside.ValidationError{
				Field:  rule.Field,
				Reason: fmt.Sprintf("must be at least %v", min),
			}
		}
	case RuleMax:
		n, ok := value.AsNumber()
		if !ok {
			return nil
		}
		max, err := ruleFloat(rule)
		if err != nil {
			return err
		}
		if n > max {
			return &fireside.ValidationError{
				Field:  rule.Field,
				Reason: fmt.Sprintf("must be at most %v", max),
			}
		}
	case RuleRegex:
		s, ok := value.AsString()
		if !ok {
			return nil
		}
		pattern, ok := rule.Value.(string)
		if !ok {
			return &fireside.ConfigError{Reason: fmt.Sprintf("regex rule on %s has no pattern", rule.Field)}
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &fireside.ConfigError{Reason: fmt.Sprintf("invalid regex for %s: %v", rule.Field, err)}
		}
		if !re.MatchString(s) {
			return &fireside.ValidationError{
				Field:  rule.Field,
				Reason: fmt.Sprintf("does not match pattern %s", pattern),
			}
		}
	case RuleEmail:
		s, ok := value.AsString()
		if !ok {
			return nil
		}
		if !strings.Contains(s, "@") || !strings.Contains(s, ".") {
			return &fireside.ValidationError{Field: rule.Field, Reason: "must be a valid email"}
		}
	case RuleURL:
		s, ok := value.AsString()
		if !ok {
			return nil
		}
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return &fireside.ValidationError{Field: rule.Field, Reason: "must be an http(s) URL"}
		}
	}
	return nil
}

// ruleInt reads a rule operand as an integer. Schema files decoded
// from JSON or YAML deliver numbers in several Go shapes.
func ruleInt(rule Rule) (int, error) {
	f, err := ruleFloat(rule)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func ruleFloat(rule Rule) (float64, error) {
	switch v := rule.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		if n, ok := v.(interface{ Float64() (float64, error) }); ok {
			f, err := n.Float64()
			if err == nil {
				return f, nil
			}
		}
		return 0, &fireside.ConfigError{
			Reason: fmt.Sprintf("%s rule on %s has non-numeric operand %v", rule.Type, rule.Field, rule.Value),
		}
	}
}
