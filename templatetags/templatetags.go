// Package templatetags exposes HTML sanitization to html/template.
//
// A Library is built once from the process-wide sanitizer configuration and
// is read-only afterwards. Its FuncMap is meant to be installed on a template
// (or a gin engine) before parsing:
//
//	lib := templatetags.New(cfg.Sanitizer, nil)
//	t := template.Must(template.New("post").Funcs(lib.FuncMap()).Parse(src))
//
// Inside templates:
//
//	{{ .Body | escape_html }}
//	{{ .Body | strip_html }}
//	{{ .Body | sanitize_allow "a, strong, img; href, src" }}
//	{{ .Body | escape_html_with "a,img" "href,src" }}
//	{{ .Body | strip_html_with "a" "href" }}
//	{{ sanitize_text .Body "a" "href,style" "width" true }}
//
// Only text values are cleaned; anything else is returned unchanged.
package templatetags

import (
	"html/template"

	"github.com/cppla/htmlsanitizer/config"
	"github.com/cppla/htmlsanitizer/sanitizer"
)

// Func names registered by FuncMap.
const (
	FuncEscapeHTML     = "escape_html"
	FuncStripHTML      = "strip_html"
	FuncSanitizeAllow  = "sanitize_allow"
	FuncEscapeHTMLWith = "escape_html_with"
	FuncStripHTMLWith  = "strip_html_with"
	FuncSanitizeText   = "sanitize_text"
)

// Library holds the global policy used by the template funcs.
type Library struct {
	global         sanitizer.Policy
	stripByDefault bool
	cleaner        sanitizer.Cleaner
}

// New builds a Library from cfg. A nil cleaner means sanitizer.Default.
func New(cfg config.SanitizerConfig, c sanitizer.Cleaner) *Library {
	return &Library{
		global:         cfg.Policy(),
		stripByDefault: cfg.StripByDefault,
		cleaner:        sanitizer.Or(c),
	}
}

// Policy returns the global escaping policy.
func (l *Library) Policy() sanitizer.Policy { return l.global }

// FuncMap returns the template funcs keyed by their template names.
func (l *Library) FuncMap() template.FuncMap {
	return template.FuncMap{
		FuncEscapeHTML:     l.EscapeHTML,
		FuncStripHTML:      l.StripHTML,
		FuncSanitizeAllow:  l.SanitizeAllow,
		FuncEscapeHTMLWith: l.EscapeHTMLWith,
		FuncStripHTMLWith:  l.StripHTMLWith,
		FuncSanitizeText:   l.SanitizeText,
	}
}

// EscapeHTML cleans value with the global policy, escaping disallowed tags.
func (l *Library) EscapeHTML(value any) (any, error) {
	return l.apply(value, l.global.WithStripMode(false))
}

// StripHTML cleans value with the global policy, removing disallowed tags.
func (l *Library) StripHTML(value any) (any, error) {
	return l.apply(value, l.global.WithStripMode(true))
}

// SanitizeAllow strips every tag and attribute not named in args, which is
// formatted as "tag1, tag2; attr1, attr2".
func (l *Library) SanitizeAllow(args string, value any) (any, error) {
	tags, attrs := sanitizer.ParseAllow(args)
	return l.apply(value, sanitizer.NewPolicy(
		sanitizer.WithTags(tags...),
		sanitizer.WithAttributes(attrs...),
		sanitizer.WithStrip(true),
	))
}

// EscapeHTMLWith escapes every tag not in tags and drops every attribute not
// in attrs. Both accept a comma separated string or a list.
func (l *Library) EscapeHTMLWith(tags, attrs any, value any) (any, error) {
	return l.apply(value, explicit(tags, attrs, nil, false))
}

// StripHTMLWith is EscapeHTMLWith in strip mode.
func (l *Library) StripHTMLWith(tags, attrs any, value any) (any, error) {
	return l.apply(value, explicit(tags, attrs, nil, true))
}

// SanitizeText cleans value with explicit allow-lists. Without a strip
// argument the configured strip default applies.
func (l *Library) SanitizeText(value any, tags, attrs, styles any, strip ...bool) (any, error) {
	mode := l.stripByDefault
	if len(strip) > 0 {
		mode = strip[0]
	}
	return l.apply(value, explicit(tags, attrs, styles, mode))
}

func explicit(tags, attrs, styles any, strip bool) sanitizer.Policy {
	return sanitizer.NewPolicy(
		sanitizer.WithTags(sanitizer.Resolve(tags)...),
		sanitizer.WithAttributes(sanitizer.Resolve(attrs)...),
		sanitizer.WithStyles(sanitizer.Resolve(styles)...),
		sanitizer.WithStrip(strip),
	)
}

func (l *Library) apply(value any, p sanitizer.Policy) (any, error) {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case template.HTML:
		text = string(v)
	case *string:
		if v == nil {
			return value, nil
		}
		text = *v
	default:
		return value, nil
	}

	clean, err := l.cleaner.Clean(text, p)
	if err != nil {
		return nil, err
	}
	return template.HTML(clean), nil
}
