package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	schemas map[Kind]Schema
	rules   *validator.Validate
}

// New returns a validator over the given schemas, or over Default() when
// none are passed.
func New(schemas ...Schema) *Validator {
	if len(schemas) == 0 {
		schemas = Default()
	}
	v := &Validator{
		schemas: make(map[Kind]Schema, len(schemas)),
		rules:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, s := range schemas {
		v.schemas[s.Kind] = s
	}
	return v
}

// Validate checks every declared field of kind against doc and returns doc
// unchanged when it conforms. Fields not declared by the schema are ignored.
func (v *Validator) Validate(kind Kind, doc Document) (Document, error) {
	s, ok := v.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", kind)
	}
	for _, f := range s.Fields {
		if err := v.check(kind, f, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// ValidateField checks a single declared field of kind.
func (v *Validator) ValidateField(kind Kind, doc Document, field string) error {
	s, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown collection %q", kind)
	}
	for _, f := range s.Fields {
		if f.Name == field {
			return v.check(kind, f, doc)
		}
	}
	return fmt.Errorf("collection %q has no field %q", kind, field)
}

func (v *Validator) check(kind Kind, f Field, doc Document) error {
	if !doc.has(f.Name) {
		if f.Required {
			return &Violation{Kind: kind, Field: f.Name, Reason: ReasonMissing}
		}
		return nil
	}

	value, ok := coerce(f.Type, doc[f.Name])
	if !ok {
		return &Violation{
			Kind:   kind,
			Field:  f.Name,
			Reason: ReasonType,
			Detail: fmt.Sprintf("want %s, got %T", f.Type, doc[f.Name]),
		}
	}

	if f.Type == Enum {
		if err := v.rules.Var(value, "oneof="+strings.Join(f.Enum, " ")); err != nil {
			return &Violation{
				Kind:   kind,
				Field:  f.Name,
				Reason: ReasonEnum,
				Detail: fmt.Sprintf("%q not one of [%s]", value, strings.Join(f.Enum, ", ")),
			}
		}
	}

	if f.Rules != "" {
		if err := v.rules.Var(value, f.Rules); err != nil {
			return &Violation{Kind: kind, Field: f.Name, Reason: ReasonRule, Detail: f.Rules}
		}
	}
	return nil
}

// coerce maps a document value onto the Go type used for rule checks, or
// reports that the value does not have the declared type.
func coerce(t Type, v any) (any, bool) {
	switch t {
	case String, Enum:
		s, ok := v.(string)
		return s, ok
	case Double:
		return toFloat(v)
	case Int32:
		return toInt32(v)
	case Date:
		tm, ok := v.(time.Time)
		if !ok || tm.IsZero() {
			return nil, false
		}
		return tm, true
	}
	return nil, false
}
