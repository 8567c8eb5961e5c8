package forms

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

// TagKey is the struct tag read by SanitizeStruct.
const TagKey = "sanitize"

// Bind binds the request into obj with gin (running its `binding` validation
// tags) and then sanitizes obj's text fields with SanitizeStruct. Validation
// failures are returned before any sanitization happens.
func Bind(ctx *gin.Context, obj any, p sanitizer.Policy, c sanitizer.Cleaner) error {
	if err := ctx.ShouldBind(obj); err != nil {
		return err
	}
	return SanitizeStruct(obj, p, c)
}

// SanitizeStruct cleans every settable string, *string and []string field of
// the struct pointed to by obj, recursing into nested structs. A field tagged
// `sanitize:"-"` is skipped; a field with another sanitize tag uses the policy
// it describes instead of p. Fields of other types are skipped. Each pointer
// is followed once, so cyclic structures terminate.
func SanitizeStruct(obj any, p sanitizer.Policy, c sanitizer.Cleaner) error {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("forms: must pass a pointer to struct")
	}
	w := &walker{cleaner: sanitizer.Or(c), seen: make(map[visit]bool)}
	w.seen[visit{rv.Pointer(), rv.Type()}] = true
	return w.sanitizeStruct(rv.Elem(), p)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

type walker struct {
	cleaner sanitizer.Cleaner
	seen    map[visit]bool
}

func (w *walker) sanitizeStruct(rv reflect.Value, p sanitizer.Policy) error {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		sf := rt.Field(i)
		policy := p
		switch tag, ok := sf.Tag.Lookup(TagKey); {
		case tag == sanitizer.SkipTag:
			continue
		case ok:
			parsed, err := sanitizer.ParseTag(tag)
			if err != nil {
				return fmt.Errorf("forms: field %s: %w", sf.Name, err)
			}
			policy = parsed
		}

		if err := w.sanitizeValue(field, policy); err != nil {
			return fmt.Errorf("forms: field %s: %w", sf.Name, err)
		}
	}
	return nil
}

func (w *walker) sanitizeValue(v reflect.Value, p sanitizer.Policy) error {
	switch v.Kind() {
	case reflect.String:
		clean, err := w.cleaner.Clean(v.String(), p)
		if err != nil {
			return err
		}
		v.SetString(clean)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		key := visit{v.Pointer(), v.Type()}
		if w.seen[key] {
			return nil
		}
		w.seen[key] = true
		return w.sanitizeValue(v.Elem(), p)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := w.sanitizeValue(v.Index(i), p); err != nil {
				return err
			}
		}
	case reflect.Struct:
		return w.sanitizeStruct(v, p)
	}
	return nil
}
