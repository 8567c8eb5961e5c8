package templatetags

import (
	"errors"
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/htmlsanitizer/config"
	"github.com/cppla/htmlsanitizer/sanitizer"
)

func newLibrary(strip bool) *Library {
	return New(config.SanitizerConfig{
		AllowedTags:       []string{"a"},
		AllowedAttributes: []string{"href"},
		StripByDefault:    strip,
	}, nil)
}

func TestGlobalFilters(t *testing.T) {
	lib := newLibrary(false)
	in := `<a href="" title="t">foo</a><em>bar</em>`

	got, err := lib.EscapeHTML(in)
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<a href="">foo</a>&lt;em&gt;bar&lt;/em&gt;`), got)

	got, err = lib.StripHTML(in)
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<a href="">foo</a>bar`), got)
}

func TestSanitizeAllow(t *testing.T) {
	lib := newLibrary(false)

	got, err := lib.SanitizeAllow("br", "test<script></script><br>")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("test<br>"), got)

	got, err = lib.SanitizeAllow("a, strong; href", `<a href="/x" rel="y"><strong>x</strong></a><img src="z">`)
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<a href="/x"><strong>x</strong></a>`), got)
}

func TestExplicitLists(t *testing.T) {
	lib := newLibrary(false)
	in := `<a href="">foo</a><em>bar</em>`
	want := template.HTML(`<a href="">foo</a>&lt;em&gt;bar&lt;/em&gt;`)

	for _, tags := range []any{"a", []string{"a"}, []any{"a"}, " a , "} {
		got, err := lib.EscapeHTMLWith(tags, "href", in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%#v", tags)
	}

	got, err := lib.StripHTMLWith("a", []string{"href"}, in)
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<a href="">foo</a>bar`), got)
}

func TestSanitizeText(t *testing.T) {
	lib := newLibrary(false)

	got, err := lib.SanitizeText(`<a href="" style="width: 200px; height: 400px">foo</a>`, "a", "href,style", "width")
	require.NoError(t, err)
	assert.Equal(t, template.HTML(`<a href="" style="width: 200px;">foo</a>`), got)

	single, err := lib.SanitizeText(`<a href="">foo</a><em>bar</em>`, "a", "href", nil)
	require.NoError(t, err)
	list, err := lib.SanitizeText(`<a href="">foo</a><em>bar</em>`, []string{"a"}, []string{"href"}, nil)
	require.NoError(t, err)
	assert.Equal(t, single, list)
}

func TestSanitizeText_StripDefault(t *testing.T) {
	got, err := newLibrary(true).SanitizeText("<b>x</b>", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("x"), got)

	got, err = newLibrary(true).SanitizeText("<b>x</b>", "", "", "", false)
	require.NoError(t, err)
	assert.Equal(t, template.HTML("&lt;b&gt;x&lt;/b&gt;"), got)

	got, err = newLibrary(false).SanitizeText("<b>x</b>", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("&lt;b&gt;x&lt;/b&gt;"), got)
}

func TestNonTextPassesThrough(t *testing.T) {
	lib := newLibrary(false)
	for _, v := range []any{42, nil, 3.5, true, []string{"<b>"}} {
		got, err := lib.EscapeHTML(v)
		require.NoError(t, err)
		assert.Equal(t, v, got)

		got, err = lib.SanitizeAllow("a", v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := lib.EscapeHTML(template.HTML("<em>x</em>"))
	require.NoError(t, err)
	assert.Equal(t, template.HTML("&lt;em&gt;x&lt;/em&gt;"), got)
}

func TestStringPointer(t *testing.T) {
	lib := newLibrary(false)
	s := "a&amp;b <i>c</i>"
	got, err := lib.StripHTML(&s)
	require.NoError(t, err)
	assert.Equal(t, template.HTML("a&amp;b c"), got)

	var nilStr *string
	got, err = lib.StripHTML(nilStr)
	require.NoError(t, err)
	assert.Equal(t, nilStr, got)
}

func TestConfigIsCopied(t *testing.T) {
	cfg := config.SanitizerConfig{AllowedTags: []string{"a"}}
	lib := New(cfg, nil)
	cfg.AllowedTags[0] = "script"

	got, err := lib.EscapeHTML("<a>x</a><script>y</script>")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("<a>x</a>&lt;script&gt;y&lt;/script&gt;"), got)
}

func TestFuncMap_InTemplate(t *testing.T) {
	lib := newLibrary(false)
	tpl := template.Must(template.New("post").Funcs(lib.FuncMap()).Parse(
		`{{ .Body | escape_html }}|{{ .Body | strip_html }}|{{ .Body | sanitize_allow "em" }}|` +
			`{{ .Body | escape_html_with "em" "" }}|{{ sanitize_text .Body "a" "href" "" true }}|{{ .N | escape_html }}`,
	))

	var sb strings.Builder
	err := tpl.Execute(&sb, map[string]any{
		"Body": `<em>x</em><a href="/y">y</a>`,
		"N":    7,
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		`&lt;em&gt;x&lt;/em&gt;<a href="/y">y</a>`,
		`x<a href="/y">y</a>`,
		`<em>x</em>y`,
		`<em>x</em>&lt;a href="/y"&gt;y&lt;/a&gt;`,
		`x<a href="/y">y</a>`,
		`7`,
	}, "|"), sb.String())
}

func TestCleanerErrorAbortsTemplate(t *testing.T) {
	boom := errors.New("boom")
	lib := New(config.SanitizerConfig{}, sanitizer.CleanerFunc(func(string, sanitizer.Policy) (string, error) {
		return "", boom
	}))
	tpl := template.Must(template.New("x").Funcs(lib.FuncMap()).Parse(`{{ .Body | escape_html }}`))

	err := tpl.Execute(&strings.Builder{}, map[string]any{"Body": "<b>"})
	assert.ErrorIs(t, err, boom)
}
