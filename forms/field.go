package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

// Validation error codes.
const (
	CodeRequired  = "required"
	CodeMinLength = "min_length"
	CodeMaxLength = "max_length"
	CodeInvalid   = "invalid"
)

// ValidationError is returned by a field whose input fails validation.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	validate = validator.New()

	invalidNumber = &ValidationError{Code: CodeInvalid, Message: "Enter a whole number."}
)

// check runs value through rule and maps the first failing validator tag
// onto a ValidationError.
func check(value any, rule string) error {
	err := validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Code: CodeRequired, Message: "This field is required."}
	case "max":
		return &ValidationError{
			Code:    CodeMaxLength,
			Message: fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), runeCount(fe.Value())),
		}
	case "min":
		return &ValidationError{
			Code:    CodeMinLength,
			Message: fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), runeCount(fe.Value())),
		}
	case "numeric":
		return invalidNumber
	}
	return &ValidationError{Code: CodeInvalid, Message: fe.Error()}
}

func runeCount(v any) int {
	s, _ := v.(string)
	return utf8.RuneCountInString(s)
}

// Field turns a submitted value into a cleaned value.
type Field interface {
	Clean(value string) (any, error)
}

// TextField is a Field whose cleaned value is a string. Only text fields are
// wrapped by Sanitize.
type TextField interface {
	Field
	CleanText(value string) (string, error)
}

// CharField validates single-line text input.
type CharField struct {
	Required  bool
	MinLength int
	MaxLength int
	// KeepSpace disables trimming of surrounding whitespace.
	KeepSpace bool
}

// Rule returns the validator tag the field checks against.
func (f *CharField) Rule() string {
	rules := []string{"omitempty"}
	if f.Required {
		rules[0] = "required"
	}
	if f.MaxLength > 0 {
		rules = append(rules, "max="+strconv.Itoa(f.MaxLength))
	}
	if f.MinLength > 0 {
		rules = append(rules, "min="+strconv.Itoa(f.MinLength))
	}
	return strings.Join(rules, ",")
}

// CleanText trims the value and checks the required and length constraints.
func (f *CharField) CleanText(value string) (string, error) {
	if !f.KeepSpace {
		value = strings.TrimSpace(value)
	}
	if err := check(value, f.Rule()); err != nil {
		return "", err
	}
	return value, nil
}

// Clean implements Field.
func (f *CharField) Clean(value string) (any, error) { return f.CleanText(value) }

// SanitizedCharField runs its base field's validation and then cleans the
// result with Policy. Invalid input never reaches the cleaner.
type SanitizedCharField struct {
	Base    TextField
	Policy  sanitizer.Policy
	Cleaner sanitizer.Cleaner
}

// NewSanitizedCharField wraps base. A nil cleaner means sanitizer.Default.
func NewSanitizedCharField(base TextField, p sanitizer.Policy, c sanitizer.Cleaner) *SanitizedCharField {
	if base == nil {
		base = &CharField{}
	}
	return &SanitizedCharField{Base: base, Policy: p, Cleaner: c}
}

// CleanText validates then sanitizes value.
func (f *SanitizedCharField) CleanText(value string) (string, error) {
	value, err := f.Base.CleanText(value)
	if err != nil {
		return "", err
	}
	return sanitizer.Or(f.Cleaner).Clean(value, f.Policy)
}

// Clean implements Field.
func (f *SanitizedCharField) Clean(value string) (any, error) { return f.CleanText(value) }

// IntegerField accepts a base-10 integer.
type IntegerField struct {
	Required bool
}

// Clean returns nil for an empty optional value, otherwise an int.
func (f *IntegerField) Clean(value string) (any, error) {
	value = strings.TrimSpace(value)
	rule := "omitempty,numeric"
	if f.Required {
		rule = "required,numeric"
	}
	if err := check(value, rule); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, invalidNumber
	}
	return n, nil
}

// BooleanField is a checkbox. Required means it must be checked.
type BooleanField struct {
	Required bool
}

// Clean treats "", "0", "false" and "off" as unchecked.
func (f *BooleanField) Clean(value string) (any, error) {
	checked := true
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off":
		checked = false
	}
	if f.Required {
		if err := check(checked, "required"); err != nil {
			return false, err
		}
	}
	return checked, nil
}
