package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/htmlsanitizer/config"
	"github.com/cppla/htmlsanitizer/templatetags"
	"github.com/cppla/htmlsanitizer/utils"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	lib := templatetags.New(config.SanitizerConfig{
		AllowedTags:       []string{"a"},
		AllowedAttributes: []string{"href"},
	}, nil)
	pc := NewPostController(nil, lib, nil, utils.NewCache(nil, "test:post:", 0), utils.NewCache(nil, "test:preview:", 0))

	r := gin.New()
	r.POST("/preview", pc.Preview)
	r.POST("/posts/:id/comments", pc.CreateComment)
	r.GET("/posts/:id", pc.GetPost)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) utils.JSONResponse {
	t.Helper()
	resp := utils.JSONResponse{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPreview(t *testing.T) {
	r := newTestRouter(t)
	body := `{"content":"<a href=\"/x\" onclick=\"y\">x</a><p>para</p><script>z()</script>","allow":"p; "}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res PreviewResult
	decode(t, w, &res)
	assert.Equal(t, `<a href="/x">x</a>&lt;p&gt;para&lt;/p&gt;&lt;script&gt;z()&lt;/script&gt;`, res.Escaped)
	assert.Equal(t, `<a href="/x">x</a>para`, res.Stripped)
	assert.Equal(t, `<a href="/x">x</a><p>para</p>&lt;script&gt;z()&lt;/script&gt;`, res.Content)
	assert.Equal(t, `x<p>para</p>`, res.Allowed)
}

func TestPreview_Invalid(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(`{"allow":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40040, decode(t, w, nil).Code)
}

func TestCreateComment_ValidationFailsBeforeStorage(t *testing.T) {
	r := newTestRouter(t)
	form := url.Values{
		"author":  {" "},
		"body":    {"<b>hi</b>"},
		"website": {strings.Repeat("w", 300)},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts/1/comments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := map[string]string{}
	resp := decode(t, w, &fields)
	assert.Equal(t, 42200, resp.Code)
	assert.Equal(t, "This field is required.", fields["author"])
	assert.Contains(t, fields["website"], "at most 255")
	assert.NotContains(t, fields, "body")
}

func TestInvalidID(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/posts/abc", "/posts/0"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestParsePagination(t *testing.T) {
	page, size := parsePagination("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = parsePagination("3", "50")
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	page, size = parsePagination("-1", "1000")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)
}
