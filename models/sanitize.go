package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm/schema"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

// SerializerName is the GORM serializer that cleans a column with the policy
// found in the field's `sanitize` struct tag:
//
//	Content string `gorm:"type:text;serializer:sanitize" sanitize:"tags=a,em;attrs=href"`
const SerializerName = "sanitize"

// TagKey is the struct tag holding a field's policy.
const TagKey = "sanitize"

// ErrUnsupportedField is returned for sanitized fields that are not string or *string.
var ErrUnsupportedField = errors.New("models: sanitized field must be string or *string")

// ErrNotSanitized is returned by FieldPolicy for a field tagged `sanitize:"-"`.
var ErrNotSanitized = errors.New("models: field is not sanitized")

func init() {
	schema.RegisterSerializer(SerializerName, SanitizeSerializer{})
}

// SanitizeSerializer cleans values both when they are loaded from and when
// they are written to the database, so the stored representation is always
// already sanitized. With a nil Policy the field's struct tag is used.
type SanitizeSerializer struct {
	Policy  *sanitizer.Policy
	Cleaner sanitizer.Cleaner
}

// RegisterPolicy registers a serializer under name bound to a fixed policy,
// for columns declared as `gorm:"serializer:<name>"`.
func RegisterPolicy(name string, p sanitizer.Policy, c sanitizer.Cleaner) {
	schema.RegisterSerializer(name, SanitizeSerializer{Policy: &p, Cleaner: c})
}

type fieldPolicy struct {
	policy sanitizer.Policy
	skip   bool
	err    error
}

// parsed struct tags, keyed by *schema.Field
var fieldPolicies sync.Map

// Scan converts the stored value to a string, cleans it and sets the field.
func (s SanitizeSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var text string
		switch v := dbValue.(type) {
		case []byte:
			text = string(v)
		case string:
			text = v
		default:
			text = fmt.Sprint(v)
		}

		clean, err := s.clean(field, text)
		if err != nil {
			return err
		}
		if err := setText(fieldValue.Elem(), clean); err != nil {
			return fmt.Errorf("models: field %s: %w", field.Name, err)
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// Value cleans the field's value before it is stored. A nil *string is stored as NULL.
func (s SanitizeSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	rv := reflect.ValueOf(fieldValue)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.String {
		return nil, fmt.Errorf("models: field %s: %w", field.Name, ErrUnsupportedField)
	}
	return s.clean(field, rv.String())
}

func (s SanitizeSerializer) clean(field *schema.Field, text string) (string, error) {
	fp := s.policyFor(field)
	if fp.err != nil {
		return "", fp.err
	}
	if fp.skip {
		return text, nil
	}
	return sanitizer.Or(s.Cleaner).Clean(text, fp.policy)
}

func (s SanitizeSerializer) policyFor(field *schema.Field) fieldPolicy {
	if s.Policy != nil {
		return fieldPolicy{policy: *s.Policy}
	}
	if cached, ok := fieldPolicies.Load(field); ok {
		return cached.(fieldPolicy)
	}

	var fp fieldPolicy
	tag := field.Tag.Get(TagKey)
	if tag == sanitizer.SkipTag {
		fp.skip = true
	} else if p, err := sanitizer.ParseTag(tag); err != nil {
		fp.err = fmt.Errorf("models: field %s: %w", field.Name, err)
	} else {
		fp.policy = p
	}
	fieldPolicies.Store(field, fp)
	return fp
}

func setText(v reflect.Value, text string) error {
	switch {
	case v.Kind() == reflect.String:
		v.SetString(text)
	case v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.String:
		p := reflect.New(v.Type().Elem())
		p.Elem().SetString(text)
		v.Set(p)
	default:
		return ErrUnsupportedField
	}
	return nil
}

// FieldPolicy returns the policy declared by the sanitize tag of the named
// field of model, so handlers and templates can reuse a column's policy.
func FieldPolicy(model any, name string) (sanitizer.Policy, error) {
	t := reflect.Indirect(reflect.ValueOf(model)).Type()
	sf, ok := t.FieldByName(name)
	if !ok {
		return sanitizer.Policy{}, fmt.Errorf("models: %s has no field %s", t.Name(), name)
	}
	tag := sf.Tag.Get(TagKey)
	if tag == sanitizer.SkipTag {
		return sanitizer.Policy{}, fmt.Errorf("models: %s.%s: %w", t.Name(), name, ErrNotSanitized)
	}
	return sanitizer.ParseTag(tag)
}
