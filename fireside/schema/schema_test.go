package schema_test

import (
	"errors"
	"testing"

	"github.com/fireside-db/fireside/fireside"
	"github.com/fireside-db/fireside/fireside/schema"
	"github.com/fireside-db/fireside/types"
)

func userSchema() schema.Collection {
	return schema.Collection{
		Name: "users",
		Fields: []schema.Field{
			{Name: "name", Type: schema.TypeString, Required: true},
			{Name: "email", Type: schema.TypeString, Required: true},
			{Name: "age", Type: schema.TypeInteger, Required: false},
			{Name: "site", Type: schema.TypeString, Required: false},
			{Name: "code", Type: schema.TypeString, Required: false},
		},
		ValidationRules: []schema.Rule{
			{Field: "name", Type: schema.RuleMinLength, Value: 2},
			{Field: "name", Type: schema.RuleMaxLength, Value: 10},
			{Field: "email", Type: schema.RuleEmail},
			{Field: "age", Type: schema.RuleMin, Value: 13},
			{Field: "age", Type: schema.RuleMax, Value: 120},
			{Field: "site", Type: schema.RuleURL},
			{Field: "code", Type: schema.RuleRegex, Value: "^[A-Z]{3}-[0-9]+$"},
		},
	}
}

func validUser() types.Fields {
	return types.Fields{
		"name":  types.String("ada"),
		"email": types.String("ada@example.com"),
		"age":   types.Integer(36),
		"site":  types.String("https://example.com"),
		"code":  types.String("ABC-42"),
	}
}

func expectViolation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *fireside.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != field {
		t.Errorf("expected violation on %s, got %s", field, ve.Field)
	}
}

func TestValidate(t *testing.T) {
	m := schema.NewManager(nil)
	m.Define(userSchema())

	t.Run("valid record passes", func(t *testing.T) {
		if err := m.Validate("users", validUser()); err != nil {
			t.Errorf("expected record to pass, got %v", err)
		}
	})

	t.Run("undefined collection", func(t *testing.T) {
		err := m.Validate("ghosts", validUser())
		var ce *fireside.ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		fields := validUser()
		delete(fields, "email")
		expectViolation(t, m.Validate("users", fields), "email")
	})

	t.Run("missing optional field passes", func(t *testing.T) {
		fields := validUser()
		delete(fields, "age")
		delete(fields, "site")
		delete(fields, "code")
		if err := m.Validate("users", fields); err != nil {
			t.Errorf("expected record to pass, got %v", err)
		}
	})

	t.Run("wrong field type", func(t *testing.T) {
		fields := validUser()
		fields["age"] = types.String("old")
		expectViolation(t, m.Validate("users", fields), "age")
	})

	t.Run("min length", func(t *testing.T) {
		fields := validUser()
		fields["name"] = types.String("a")
		expectViolation(t, m.Validate("users", fields), "name")
	})

	t.Run("max length", func(t *testing.T) {
		fields := validUser()
		fields["name"] = types.String("a very long name indeed")
		expectViolation(t, m.Validate("users", fields), "name")
	})

	t.Run("email needs at sign and dot", func(t *testing.T) {
		fields := validUser()
		fields["email"] = types.String("not-an-email")
		expectViolation(t, m.Validate("users", fields), "email")
	})

	t.Run("min applies to integers", func(t *testing.T) {
		fields := validUser()
		fields["age"] = types.Integer(12)
		expectViolation(t, m.Validate("users", fields), "age")
	})

	t.Run("max applies to integers", func(t *testing.T) {
		fields := validUser()
		fields["age"] = types.Integer(130)
		expectViolation(t, m.Validate("users", fields), "age")
	})

	t.Run("url rule", func(t *testing.T) {
		fields := validUser()
		fields["site"] = types.String("ftp://example.com")
		expectViolation(t, m.Validate("users", fields), "site")
	})

	t.Run("regex rule", func(t *testing.T) {
		fields := validUser()
		fields["code"] = types.String("abc-42")
		expectViolation(t, m.Validate("users", fields), "code")
	})

	t.Run("invalid regex pattern is a config error", func(t *testing.T) {
		m2 := schema.NewManager(nil)
		m2.Define(schema.Collection{
			Name:            "c",
			Fields:          []schema.Field{{Name: "x", Type: schema.TypeString}},
			ValidationRules: []schema.Rule{{Field: "x", Type: schema.RuleRegex, Value: "("}},
		})
		err := m2.Validate("c", types.Fields{"x": types.String("v")})
		var ce *fireside.ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("rules skip mistyped values", func(t *testing.T) {
		// A length rule on a non-string value does not fire; the type
		// check is the field definition's job.
		m2 := schema.NewManager(nil)
		m2.Define(schema.Collection{
			Name:            "c",
			Fields:          []schema.Field{},
			ValidationRules: []schema.Rule{{Field: "x", Type: schema.RuleMinLength, Value: 5}},
		})
		if err := m2.Validate("c", types.Fields{"x": types.Integer(1)}); err != nil {
			t.Errorf("expected rule to skip non-string, got %v", err)
		}
	})
}

type profile struct {
	Name string
}

func (p *profile) MarshalFields() types.Fields {
	return types.Fields{"name": types.String(p.Name), "email": types.String(p.Name + "@example.com")}
}

func (p *profile) UnmarshalFields(f types.Fields) error {
	p.Name = f.StringOr("name", "")
	return nil
}

func TestValidateRecord(t *testing.T) {
	m := schema.NewManager(nil)
	m.Define(userSchema())

	if err := m.ValidateRecord("users", &profile{Name: "ada"}); err != nil {
		t.Errorf("expected record to pass, got %v", err)
	}
	expectViolation(t, m.ValidateRecord("users", &profile{Name: "a"}), "name")
}
