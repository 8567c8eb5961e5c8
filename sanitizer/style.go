package sanitizer

import (
	"regexp"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// styleValuePattern accepts plain CSS values and simple numeric functions
// such as rgb(0, 0, 0); anything else (url(), expression()) is rejected.
var styleValuePattern = regexp.MustCompile(`^(?:[-/:,#%.'"\s!\w]|\([\d,%.\s]+\))*$`)

var styleCommentPattern = regexp.MustCompile(`(?s)/\*.*?(?:\*/|$)`)

// cleanStyle keeps the allowed declarations of a style attribute, rendered
// as "prop: value;" joined by spaces. Declarations that fail to parse are
// skipped on their own.
func cleanStyle(style string, p Policy) string {
	style = styleCommentPattern.ReplaceAllString(style, " ")
	clean := make([]string, 0, 4)
	for _, d := range parseDeclarations(style) {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		value := strings.TrimSpace(d.Value)
		if !p.allowsStyle(prop) || value == "" || !styleValuePattern.MatchString(value) {
			continue
		}
		if d.Important {
			value += " !important"
		}
		clean = append(clean, prop+": "+value+";")
	}
	return strings.Join(clean, " ")
}

// parseDeclarations parses style, falling back to one declaration at a time
// when the whole attribute does not parse. The parser only keeps a value once
// it sees a terminating semicolon.
func parseDeclarations(style string) []*css.Declaration {
	decls, err := parser.ParseDeclarations(terminate(style))
	if err == nil {
		return decls
	}
	decls = nil
	for _, piece := range strings.Split(style, ";") {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		d, err := parser.ParseDeclarations(piece + ";")
		if err != nil {
			continue
		}
		decls = append(decls, d...)
	}
	return decls
}

func terminate(style string) string {
	if s := strings.TrimSpace(style); s != "" && !strings.HasSuffix(s, ";") {
		return s + ";"
	}
	return style
}
