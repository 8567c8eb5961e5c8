package sanitizer

import (
	"errors"
	"fmt"
	"strings"
)

// SkipTag is the struct tag value that opts a field out of sanitization.
const SkipTag = "-"

// ErrInvalidTag reports a sanitize struct tag that cannot be parsed.
var ErrInvalidTag = errors.New("sanitizer: invalid policy tag")

// Resolve normalizes an allow-list given either as a comma separated string
// or as a sequence of strings. Tokens are trimmed and empty ones dropped, so
// "a, ,b," resolves to [a b]. A nil value resolves to an empty list.
func Resolve(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		raw = make([]string, 0, len(t))
		for _, it := range t {
			raw = append(raw, Resolve(it)...)
		}
	case fmt.Stringer:
		raw = strings.Split(t.String(), ",")
	default:
		raw = strings.Split(fmt.Sprint(t), ",")
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// ParseAllow splits a "tag1, tag2; attr1, attr2" argument into its tag and
// attribute lists. Anything after a second semicolon is ignored.
func ParseAllow(arg string) (tags, attrs []string) {
	parts := strings.Split(strings.TrimSpace(arg), ";")
	tags = Resolve(parts[0])
	attrs = []string{}
	if len(parts) > 1 {
		attrs = Resolve(parts[1])
	}
	return tags, attrs
}

// ParseTag builds a Policy from a struct tag such as
//
//	sanitize:"tags=a,em;attrs=href;styles=width;strip"
//
// Recognized keys are tags, attrs, styles and protocols (comma separated
// values) plus the bare flags strip and comments. An empty tag yields the
// zero Policy.
func ParseTag(tag string) (Policy, error) {
	var opts []Option
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case "tags":
			opts = append(opts, WithTags(Resolve(value)...))
		case "attrs", "attributes":
			opts = append(opts, WithAttributes(Resolve(value)...))
		case "styles":
			opts = append(opts, WithStyles(Resolve(value)...))
		case "protocols":
			opts = append(opts, WithProtocols(Resolve(value)...))
		case "strip":
			strip := true
			if hasValue {
				switch strings.TrimSpace(value) {
				case "true", "1":
				case "false", "0":
					strip = false
				default:
					return Policy{}, fmt.Errorf("%w: strip=%q", ErrInvalidTag, value)
				}
			}
			opts = append(opts, WithStrip(strip))
		case "comments":
			opts = append(opts, WithComments())
		default:
			return Policy{}, fmt.Errorf("%w: unknown key %q", ErrInvalidTag, key)
		}
	}
	return NewPolicy(opts...), nil
}
