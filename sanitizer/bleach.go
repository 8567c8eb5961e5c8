package sanitizer

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// BleachCleaner is the default engine. It walks the token stream of the
// input and re-serializes allowed tags in canonical form, so cleaning its own
// output again is a no-op.
//
// Disallowed tags are written back as escaped text unless the Policy strips,
// in which case they are dropped and their text kept. The content of script
// and style elements is dropped as well when stripping.
type BleachCleaner struct{}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

	schemePattern = regexp.MustCompile(`^([a-z0-9][-+.a-z0-9]*):`)
)

// elements whose text is not entity-decoded by the tokenizer
var rawTextElements = map[string]bool{
	"iframe": true, "noembed": true, "noframes": true, "noscript": true,
	"plaintext": true, "script": true, "style": true, "xmp": true,
}

// elements whose content goes away with them in strip mode
var skipContentElements = map[string]bool{
	"script": true, "style": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var urlAttributes = map[string]bool{
	"href": true, "src": true, "action": true, "cite": true, "poster": true,
}

// Clean applies p to text. Allowed elements left open are closed at the end
// of input and end tags with no open element are dropped, so the output is
// always balanced.
func (BleachCleaner) Clean(text string, p Policy) (string, error) {
	text = strings.ReplaceAll(text, "\x00", "\ufffd")
	var (
		b    strings.Builder
		z    = html.NewTokenizer(strings.NewReader(text))
		open []string
		skip string // stripped element whose content is being dropped
		raw  string // kept element whose text is emitted verbatim
	)
	b.Grow(len(text))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			for i := len(open) - 1; i >= 0; i-- {
				b.WriteString("</" + open[i] + ">")
			}
			return b.String(), nil

		case html.TextToken:
			if skip != "" {
				continue
			}
			if raw != "" {
				b.Write(z.Raw())
				continue
			}
			b.WriteString(textEscaper.Replace(string(z.Text())))

		case html.StartTagToken, html.SelfClosingTagToken:
			// <script/> still opens raw text in the tokenizer
			tok := z.Token()
			if skip != "" {
				continue
			}
			if p.allowsTag(tok.Data) {
				writeStartTag(&b, tok, p)
				if !voidElements[tok.Data] {
					open = append(open, tok.Data)
				}
				if rawTextElements[tok.Data] {
					raw = tok.Data
				}
				continue
			}
			if p.strip {
				if skipContentElements[tok.Data] {
					skip = tok.Data
				}
				continue
			}
			b.WriteString(textEscaper.Replace(tok.String()))

		case html.EndTagToken:
			tok := z.Token()
			if skip != "" {
				if tok.Data == skip {
					skip = ""
				}
				continue
			}
			if tok.Data == raw {
				raw = ""
			}
			if p.allowsTag(tok.Data) {
				open = closeElement(&b, open, tok.Data)
				continue
			}
			if !p.strip {
				b.WriteString(textEscaper.Replace(tok.String()))
			}

		case html.CommentToken:
			if skip != "" || !p.keepComments {
				continue
			}
			b.WriteString(z.Token().String())

		case html.DoctypeToken:
			// dropped
		}
	}
}

// closeElement pops open up to and including the innermost name, writing an
// end tag for each popped element. Nothing is written if name is not open.
func closeElement(b *strings.Builder, open []string, name string) []string {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] != name {
			continue
		}
		for j := len(open) - 1; j >= i; j-- {
			b.WriteString("</" + open[j] + ">")
		}
		return open[:i]
	}
	return open
}

func writeStartTag(b *strings.Builder, tok html.Token, p Policy) {
	b.WriteByte('<')
	b.WriteString(tok.Data)
	seen := make(map[string]bool, len(tok.Attr))
	for _, attr := range tok.Attr {
		key := attr.Key
		if attr.Namespace != "" || seen[key] || !p.allowsAttribute(key) {
			continue
		}
		seen[key] = true

		val := attr.Val
		switch {
		case key == "style":
			val = cleanStyle(val, p)
		case urlAttributes[key]:
			if !allowedURL(val, p) {
				continue
			}
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// allowedURL reports whether a URL-valued attribute may be kept. Relative
// URLs are always fine; absolute ones need an allowed scheme.
func allowedURL(val string, p Policy) bool {
	normalized := strings.Map(func(r rune) rune {
		if r <= 0x20 || (r >= 0x7f && r <= 0xa0) || r == '`' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, val)
	m := schemePattern.FindStringSubmatch(normalized)
	if m == nil {
		return true
	}
	return p.allowsProtocol(m[1])
}
