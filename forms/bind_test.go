package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

type commentInput struct {
	Author string `form:"author" binding:"required"`
	Body   string `form:"body" binding:"required"`
	Email  string `form:"email" sanitize:"-"`
}

type nested struct {
	Note *string
	Tags []string
	Meta struct {
		Title string `sanitize:"strip"`
	}
	Count  int
	hidden string
}

func newContext(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx.Request = req
	return ctx
}

func TestBind(t *testing.T) {
	ctx := newContext(t, url.Values{
		"author": {"<b>Ann</b>"},
		"body":   {`<a href="javascript:alert(1)">x</a><a href="/ok">ok</a>`},
		"email":  {"<ann@example.com>"},
	})

	var in commentInput
	require.NoError(t, Bind(ctx, &in, linkPolicy, nil))
	assert.Equal(t, "&lt;b&gt;Ann&lt;/b&gt;", in.Author)
	assert.Equal(t, `<a>x</a><a href="/ok">ok</a>`, in.Body)
	assert.Equal(t, "<ann@example.com>", in.Email)
}

func TestBind_ValidationFailsFirst(t *testing.T) {
	ctx := newContext(t, url.Values{"author": {"Ann"}})

	called := false
	c := sanitizer.CleanerFunc(func(text string, p sanitizer.Policy) (string, error) {
		called = true
		return text, nil
	})

	var in commentInput
	assert.Error(t, Bind(ctx, &in, linkPolicy, c))
	assert.False(t, called)
}

func TestSanitizeStruct(t *testing.T) {
	note := "<i>n</i>"
	obj := nested{Note: &note, Tags: []string{"<a href=\"/t\">t</a>", "<p>"}, Count: 3, hidden: "<x>"}
	obj.Meta.Title = "<h1>Title</h1>"

	require.NoError(t, SanitizeStruct(&obj, linkPolicy, nil))
	assert.Equal(t, "&lt;i&gt;n&lt;/i&gt;", *obj.Note)
	assert.Equal(t, []string{`<a href="/t">t</a>`, "&lt;p&gt;"}, obj.Tags)
	assert.Equal(t, "Title", obj.Meta.Title)
	assert.Equal(t, 3, obj.Count)
	assert.Equal(t, "<x>", obj.hidden)
}

func TestSanitizeStruct_Errors(t *testing.T) {
	assert.Error(t, SanitizeStruct(nested{}, linkPolicy, nil))
	assert.Error(t, SanitizeStruct((*nested)(nil), linkPolicy, nil))

	var bad struct {
		Title string `sanitize:"colour=red"`
	}
	err := SanitizeStruct(&bad, linkPolicy, nil)
	assert.ErrorIs(t, err, sanitizer.ErrInvalidTag)
}

type node struct {
	Name string
	Next *node
}

func TestSanitizeStruct_Cycle(t *testing.T) {
	a := &node{Name: "<b>a</b>"}
	b := &node{Name: "<i>b</i>", Next: a}
	a.Next = b

	require.NoError(t, SanitizeStruct(a, linkPolicy, nil))
	assert.Equal(t, "&lt;b&gt;a&lt;/b&gt;", a.Name)
	assert.Equal(t, "&lt;i&gt;b&lt;/i&gt;", b.Name)

	self := &node{Name: `<a href="/x">x</a>`}
	self.Next = self
	require.NoError(t, SanitizeStruct(self, linkPolicy, nil))
	assert.Equal(t, `<a href="/x">x</a>`, self.Name)
}

func TestSanitizeStruct_SharedPointerCleanedOnce(t *testing.T) {
	calls := 0
	counting := sanitizer.CleanerFunc(func(text string, p sanitizer.Policy) (string, error) {
		calls++
		return sanitizer.Clean(text, p)
	})
	s := "<b>x</b>"
	obj := struct{ A, B *string }{&s, &s}

	require.NoError(t, SanitizeStruct(&obj, linkPolicy, counting))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", s)
}
