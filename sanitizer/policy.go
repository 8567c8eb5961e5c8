package sanitizer

import (
	"slices"
	"strings"
)

// DefaultProtocols are the URL schemes kept in href and src attributes when
// a Policy does not name its own.
var DefaultProtocols = []string{"http", "https", "mailto"}

// Policy is an immutable set of allow-lists plus the strip flag.
// The zero value allows nothing, escapes disallowed markup and drops comments.
type Policy struct {
	tags         []string
	attributes   []string
	styles       []string
	protocols    []string
	strip        bool
	keepComments bool
}

// Option configures a Policy under construction.
type Option func(*Policy)

// WithTags allows the given tag names. Names are lower-cased.
func WithTags(tags ...string) Option {
	return func(p *Policy) { p.tags = appendNames(p.tags, tags) }
}

// WithAttributes allows the given attribute names on every allowed tag.
func WithAttributes(attrs ...string) Option {
	return func(p *Policy) { p.attributes = appendNames(p.attributes, attrs) }
}

// WithStyles allows the given CSS properties inside an allowed style attribute.
func WithStyles(styles ...string) Option {
	return func(p *Policy) { p.styles = appendNames(p.styles, styles) }
}

// WithProtocols replaces DefaultProtocols for href and src values.
func WithProtocols(protocols ...string) Option {
	return func(p *Policy) { p.protocols = appendNames(make([]string, 0, len(protocols)), protocols) }
}

// WithStrip removes disallowed tags instead of escaping them.
func WithStrip(strip bool) Option {
	return func(p *Policy) { p.strip = strip }
}

// WithComments keeps HTML comments in the output.
func WithComments() Option {
	return func(p *Policy) { p.keepComments = true }
}

// NewPolicy builds a Policy. Input slices are copied.
func NewPolicy(opts ...Option) Policy {
	var p Policy
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Tags returns a copy of the allowed tag names.
func (p Policy) Tags() []string { return slices.Clone(p.tags) }

// Attributes returns a copy of the allowed attribute names.
func (p Policy) Attributes() []string { return slices.Clone(p.attributes) }

// Styles returns a copy of the allowed style properties.
func (p Policy) Styles() []string { return slices.Clone(p.styles) }

// Protocols returns the URL schemes allowed in href and src.
func (p Policy) Protocols() []string {
	if p.protocols == nil {
		return slices.Clone(DefaultProtocols)
	}
	return slices.Clone(p.protocols)
}

// Strip reports whether disallowed tags are removed rather than escaped.
func (p Policy) Strip() bool { return p.strip }

// KeepComments reports whether comments survive cleaning.
func (p Policy) KeepComments() bool { return p.keepComments }

// WithStripMode returns a copy of p with the strip flag set to strip.
func (p Policy) WithStripMode(strip bool) Policy {
	p.strip = strip
	return p
}

// Equal reports whether both policies clean identically.
func (p Policy) Equal(o Policy) bool {
	return slices.Equal(p.tags, o.tags) &&
		slices.Equal(p.attributes, o.attributes) &&
		slices.Equal(p.styles, o.styles) &&
		slices.Equal(p.Protocols(), o.Protocols()) &&
		p.strip == o.strip &&
		p.keepComments == o.keepComments
}

// String renders p in the struct tag grammar accepted by ParseTag.
func (p Policy) String() string {
	parts := make([]string, 0, 6)
	if len(p.tags) > 0 {
		parts = append(parts, "tags="+strings.Join(p.tags, ","))
	}
	if len(p.attributes) > 0 {
		parts = append(parts, "attrs="+strings.Join(p.attributes, ","))
	}
	if len(p.styles) > 0 {
		parts = append(parts, "styles="+strings.Join(p.styles, ","))
	}
	if p.protocols != nil {
		parts = append(parts, "protocols="+strings.Join(p.protocols, ","))
	}
	if p.strip {
		parts = append(parts, "strip")
	}
	if p.keepComments {
		parts = append(parts, "comments")
	}
	return strings.Join(parts, ";")
}

func (p Policy) allowsTag(name string) bool {
	return slices.Contains(p.tags, name)
}

func (p Policy) allowsAttribute(name string) bool {
	return slices.Contains(p.attributes, name)
}

func (p Policy) allowsStyle(name string) bool {
	return slices.Contains(p.styles, name)
}

func (p Policy) allowsProtocol(scheme string) bool {
	if p.protocols == nil {
		return slices.Contains(DefaultProtocols, scheme)
	}
	return slices.Contains(p.protocols, scheme)
}

func appendNames(dst, names []string) []string {
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || slices.Contains(dst, name) {
			continue
		}
		dst = append(dst, name)
	}
	return dst
}
