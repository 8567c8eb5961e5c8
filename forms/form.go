package forms

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

var (
	// ErrDuplicateField is returned by New when two fields share a name.
	ErrDuplicateField = errors.New("forms: duplicate field")
	// ErrNotTextField is returned by New when SanitizeStrict meets a non-text field.
	ErrNotTextField = errors.New("forms: field is not a text field")
)

// Form is an ordered set of named fields. A Form is immutable once built by New.
type Form struct {
	names  []string
	fields map[string]Field
}

type sanitizeStep struct {
	policy  sanitizer.Policy
	cleaner sanitizer.Cleaner
	strict  bool
}

type builder struct {
	form     *Form
	sanitize []sanitizeStep
	err      error
}

// Option configures a Form under construction.
type Option func(*builder)

// WithField declares a field. Order of declaration is the order of validation.
func WithField(name string, f Field) Option {
	return func(b *builder) {
		if _, dup := b.form.fields[name]; dup {
			b.err = errors.Join(b.err, fmt.Errorf("%w: %q", ErrDuplicateField, name))
			return
		}
		b.form.names = append(b.form.names, name)
		b.form.fields[name] = f
	}
}

// Sanitize wraps every text field of the form, whenever declared, in a
// SanitizedCharField sharing one policy. Fields that already sanitize and
// non-text fields are left alone.
func Sanitize(p sanitizer.Policy, c sanitizer.Cleaner) Option {
	return func(b *builder) {
		b.sanitize = append(b.sanitize, sanitizeStep{policy: p, cleaner: c})
	}
}

// SanitizeStrict is Sanitize, but New fails with ErrNotTextField if the form
// has a field that is not a TextField.
func SanitizeStrict(p sanitizer.Policy, c sanitizer.Cleaner) Option {
	return func(b *builder) {
		b.sanitize = append(b.sanitize, sanitizeStep{policy: p, cleaner: c, strict: true})
	}
}

// New composes a Form. Sanitize steps run after all fields are declared.
func New(opts ...Option) (*Form, error) {
	b := &builder{form: &Form{fields: map[string]Field{}}}
	for _, opt := range opts {
		opt(b)
	}
	for _, step := range b.sanitize {
		for _, name := range b.form.names {
			switch f := b.form.fields[name].(type) {
			case *SanitizedCharField:
			case TextField:
				b.form.fields[name] = NewSanitizedCharField(f, step.policy, step.cleaner)
			default:
				if step.strict {
					b.err = errors.Join(b.err, fmt.Errorf("%w: %q is %T", ErrNotTextField, name, f))
				}
			}
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.form, nil
}

// MustNew is New that panics on error, for package-level form declarations.
func MustNew(opts ...Option) *Form {
	f, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Names returns the field names in declaration order.
func (f *Form) Names() []string {
	return append([]string(nil), f.names...)
}

// Field returns the field declared under name.
func (f *Form) Field(name string) (Field, bool) {
	field, ok := f.fields[name]
	return field, ok
}

// Cleaned holds the validated values of a form, keyed by field name.
type Cleaned map[string]any

// String returns the cleaned text value of name, or "".
func (c Cleaned) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Errors maps field names to their validation failure.
type Errors map[string]error

func (e Errors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e[name].Error())
	}
	return strings.Join(parts, "; ")
}

// Validate cleans every field from data. Fields failing validation are left
// out of the cleaned values and reported in the returned Errors. Any other
// error, such as a cleaner failure, is returned as is and stops validation.
func (f *Form) Validate(data url.Values) (Cleaned, error) {
	cleaned := make(Cleaned, len(f.names))
	errs := Errors{}
	for _, name := range f.names {
		v, err := f.fields[name].Clean(data.Get(name))
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return nil, err
			}
			errs[name] = err
			continue
		}
		cleaned[name] = v
	}
	if len(errs) > 0 {
		return cleaned, errs
	}
	return cleaned, nil
}
