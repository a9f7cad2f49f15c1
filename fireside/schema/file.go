package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/fireside-db/fireside/fireside"
)

// Version is the schema file format version this package writes.
const Version = "1.0.0"

// File is the on-disk schema document: a format version plus declared
// collections keyed by name.
type File struct {
	Version     string                `json:"version" yaml:"version"`
	Collections map[string]Collection `json:"collections" yaml:"collections"`
}

// Load reads and validates a schema file. Reads take a shared lock so
// a concurrent Save cannot be observed half-written.
func Load(path string) (*File, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock schema file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fireside.ConfigError{Reason: fmt.Sprintf("failed to read schema file: %v", err)}
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &fireside.SerializationError{Op: "load schema file", Err: err}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes a schema file under an exclusive lock.
func Save(path string, f *File) error {
	if err := f.Validate(); err != nil {
		return err
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock schema file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return &fireside.SerializationError{Op: "save schema file", Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &fireside.ConfigError{Reason: fmt.Sprintf("failed to write schema file: %v", err)}
	}
	return nil
}

// Validate checks the file's structure: known field and rule types,
// operands on rules that need them, and rules that reference declared
// fields.
func (f *File) Validate() error {
	if f.Version == "" {
		return &fireside.ConfigError{Reason: "schema file has no version"}
	}
	for name, col := range f.Collections {
		declared := make(map[string]bool, len(col.Fields))
		for _, field := range col.Fields {
			if field.Name == "" {
				return &fireside.ConfigError{Reason: fmt.Sprintf("collection %s has a field with no name", name)}
			}
			if !field.Type.Valid() {
				return &fireside.ConfigError{
					Reason: fmt.Sprintf("collection %s field %s has unknown type %q", name, field.Name, field.Type),
				}
			}
			declared[field.Name] = true
		}
		for _, rule := range col.ValidationRules {
			if !rule.Type.Valid() {
				return &fireside.ConfigError{
					Reason: fmt.Sprintf("collection %s has unknown rule type %q", name, rule.Type),
				}
			}
			if !declared[rule.Field] {
				return &fireside.ConfigError{
					Reason: fmt.Sprintf("collection %s rule %s references undeclared field %s", name, rule.Type, rule.Field),
				}
			}
			switch rule.Type {
			case RuleMinLength, RuleMaxLength, RuleMin, RuleMax, RuleRegex:
				if rule.Value == nil {
					return &fireside.ConfigError{
						Reason: fmt.Sprintf("collection %s rule %s on %s has no operand", name, rule.Type, rule.Field),
					}
				}
			}
		}
		for _, idx := range col.Indexes {
			for _, idxField := range idx.Fields {
				if idxField.Order != "asc" && idxField.Order != "desc" {
					return &fireside.ConfigError{
						Reason: fmt.Sprintf("collection %s index field %s has order %q, want asc or desc", name, idxField.FieldPath, idxField.Order),
					}
				}
			}
		}
	}
	return nil
}

// Import defines every collection in the file on the manager. A
// collection keyed without a name takes its key as name.
func (m *Manager) Import(f *File) {
	for name, col := range f.Collections {
		if col.Name == "" {
			col.Name = name
		}
		m.Define(col)
	}
}

// Export snapshots the manager's declared collections as a file.
func (m *Manager) Export() *File {
	out := &File{Version: Version, Collections: make(map[string]Collection, len(m.collections))}
	for name, col := range m.collections {
		out.Collections[name] = col
	}
	return out
}

// Example returns a starter schema file describing users and posts,
// exercising every rule type a new setup is likely to want.
func Example() *File {
	return &File{
		Version: Version,
		Collections: map[string]Collection{
			"users": {
				Name:        "users",
				Description: "User accounts",
				Fields: []Field{
					{Name: "id", Type: TypeString, Required: true, Description: "Unique user identifier"},
					{Name: "name", Type: TypeString, Required: true, Description: "Display name"},
					{Name: "email", Type: TypeString, Required: true, Description: "Contact email"},
					{Name: "age", Type: TypeInteger, Required: false, Description: "Age in years"},
					{Name: "active", Type: TypeBoolean, Required: false, Default: true, Description: "Account is active"},
					{Name: "created_at", Type: TypeTimestamp, Required: true, Description: "Creation time"},
				},
				Indexes: []Index{
					{
						Fields:      []IndexField{{FieldPath: "email", Order: "asc"}},
						Unique:      true,
						Description: "Unique email lookup",
					},
					{
						Fields: []IndexField{
							{FieldPath: "active", Order: "asc"},
							{FieldPath: "created_at", Order: "desc"},
						},
						Description: "Active users by creation date",
					},
				},
				ValidationRules: []Rule{
					{Field: "email", Type: RuleEmail, Description: "Must be valid email format"},
					{Field: "age", Type: RuleMin, Value: 13, Description: "Minimum age 13"},
					{Field: "age", Type: RuleMax, Value: 120, Description: "Maximum age 120"},
					{Field: "name", Type: RuleMinLength, Value: 2, Description: "Name must be at least 2 characters"},
					{Field: "name", Type: RuleMaxLength, Value: 100, Description: "Name must be at most 100 characters"},
				},
			},
			"posts": {
				Name:        "posts",
				Description: "User posts",
				Fields: []Field{
					{Name: "id", Type: TypeString, Required: true, Description: "Unique post identifier"},
					{Name: "title", Type: TypeString, Required: true, Description: "Post title"},
					{Name: "content", Type: TypeString, Required: true, Description: "Post content"},
					{Name: "author_id", Type: TypeReference, Required: true, Description: "Reference to user ID"},
					{Name: "published", Type: TypeBoolean, Required: false, Default: false, Description: "Visible to readers"},
					{Name: "link", Type: TypeString, Required: false, Description: "Optional external link"},
					{Name: "created_at", Type: TypeTimestamp, Required: true, Description: "Creation time"},
				},
				Indexes: []Index{
					{
						Fields: []IndexField{
							{FieldPath: "author_id", Order: "asc"},
							{FieldPath: "published", Order: "asc"},
						},
						Description: "Posts by author and publication status",
					},
				},
				ValidationRules: []Rule{
					{Field: "title", Type: RuleMinLength, Value: 5, Description: "Title must be at least 5 characters"},
					{Field: "title", Type: RuleMaxLength, Value: 200, Description: "Title must be at most 200 characters"},
					{Field: "content", Type: RuleMinLength, Value: 10, Description: "Content must be at least 10 characters"},
					{Field: "link", Type: RuleURL, Description: "Link must be an http(s) URL"},
				},
			},
		},
	}
}
