package models

import (
	"context"
	"database/sql/driver"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

func parseField(t *testing.T, model any, name string) *schema.Field {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField(name)
	require.NotNil(t, field, "field %s", name)
	require.NotNil(t, field.Serializer, "field %s has no serializer", name)
	return field
}

// value runs the field through GORM's own value path, as an INSERT would.
func value(t *testing.T, field *schema.Field, model any) (driver.Value, error) {
	t.Helper()
	v, _ := field.ValueOf(context.Background(), reflect.ValueOf(model).Elem())
	valuer, ok := v.(driver.Valuer)
	require.True(t, ok, "serialized field value must be a driver.Valuer, got %T", v)
	return valuer.Value()
}

func TestSanitizeSerializer_ValueOnPersist(t *testing.T) {
	post := &Post{
		Title:   `<b>Hello</b> <script>x()</script>world`,
		Content: `<a href="" onclick="x()">foo</a><em>bar</em><img src="y">`,
	}

	got, err := value(t, parseField(t, &Post{}, "Content"), post)
	require.NoError(t, err)
	assert.Equal(t, `<a href="">foo</a><em>bar</em>&lt;img src="y"&gt;`, got)

	got, err = value(t, parseField(t, &Post{}, "Title"), post)
	require.NoError(t, err)
	assert.Equal(t, `Hello world`, got)
}

func TestSanitizeSerializer_ScanOnLoad(t *testing.T) {
	field := parseField(t, &Post{}, "Content")
	post := &Post{}

	err := field.Serializer.Scan(context.Background(), field, reflect.ValueOf(post).Elem(),
		[]byte(`<p>ok</p><iframe src="evil"></iframe>`))
	require.NoError(t, err)
	assert.Equal(t, `<p>ok</p>&lt;iframe src="evil"&gt;&lt;/iframe&gt;`, post.Content)
}

func TestSanitizeSerializer_NamedPolicy(t *testing.T) {
	field := parseField(t, &Comment{}, "Body")
	c := &Comment{Body: `<a href="">foo</a><em>bar</em><p>para</p>`}

	got, err := value(t, field, c)
	require.NoError(t, err)
	assert.Equal(t, `<a href="">foo</a><em>bar</em>&lt;p&gt;para&lt;/p&gt;`, got)
}

func TestSanitizeSerializer_StoredValueIsStable(t *testing.T) {
	field := parseField(t, &Post{}, "Content")
	post := &Post{Content: `<a href="/x" title="t" style="x">foo</a><em>bar</em> 1 < 2`}

	stored, err := value(t, field, post)
	require.NoError(t, err)

	loaded := &Post{}
	require.NoError(t, field.Serializer.Scan(context.Background(), field, reflect.ValueOf(loaded).Elem(), stored))
	assert.Equal(t, stored, loaded.Content)
}

func TestSanitizeSerializer_PointerField(t *testing.T) {
	field := parseField(t, &Comment{}, "Website")

	got, err := value(t, field, &Comment{})
	require.NoError(t, err)
	assert.Nil(t, got)

	site := `<b>example.com</b>`
	got, err = value(t, field, &Comment{Website: &site})
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)

	loaded := &Comment{}
	require.NoError(t, field.Serializer.Scan(context.Background(), field, reflect.ValueOf(loaded).Elem(), "<i>site</i>"))
	require.NotNil(t, loaded.Website)
	assert.Equal(t, "site", *loaded.Website)

	loaded = &Comment{}
	require.NoError(t, field.Serializer.Scan(context.Background(), field, reflect.ValueOf(loaded).Elem(), nil))
	assert.Nil(t, loaded.Website)
}

func TestSanitizeSerializer_ErrorsPropagate(t *testing.T) {
	boom := errors.New("cleaner exploded")
	p := sanitizer.NewPolicy()
	s := SanitizeSerializer{
		Policy:  &p,
		Cleaner: sanitizer.CleanerFunc(func(string, sanitizer.Policy) (string, error) { return "", boom }),
	}
	field := parseField(t, &Post{}, "Content")

	_, err := s.Value(context.Background(), field, reflect.Value{}, "x")
	assert.ErrorIs(t, err, boom)

	err = s.Scan(context.Background(), field, reflect.ValueOf(&Post{}).Elem(), "x")
	assert.ErrorIs(t, err, boom)
}

type badTagModel struct {
	ID   uint
	Body string `gorm:"serializer:sanitize" sanitize:"colour=red"`
	Raw  string `gorm:"serializer:sanitize" sanitize:"-"`
	Num  int    `gorm:"serializer:sanitize"`
}

func TestSanitizeSerializer_TagHandling(t *testing.T) {
	m := &badTagModel{Body: "<b>x</b>", Raw: "<b>x</b>", Num: 3}

	_, err := value(t, parseField(t, &badTagModel{}, "Body"), m)
	assert.ErrorIs(t, err, sanitizer.ErrInvalidTag)

	got, err := value(t, parseField(t, &badTagModel{}, "Raw"), m)
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", got)

	_, err = value(t, parseField(t, &badTagModel{}, "Num"), m)
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

func TestFieldPolicy(t *testing.T) {
	p, err := FieldPolicy(&Post{}, "Content")
	require.NoError(t, err)
	assert.Contains(t, p.Tags(), "blockquote")
	assert.Equal(t, []string{"href", "title"}, p.Attributes())
	assert.False(t, p.Strip())

	p, err = FieldPolicy(Comment{}, "Author")
	require.NoError(t, err)
	assert.True(t, p.Strip())

	_, err = FieldPolicy(Post{}, "Nope")
	assert.Error(t, err)

	_, err = FieldPolicy(badTagModel{}, "Raw")
	assert.ErrorIs(t, err, ErrNotSanitized)
	assert.NotErrorIs(t, err, sanitizer.ErrInvalidTag)

	_, err = FieldPolicy(&badTagModel{}, "Body")
	assert.ErrorIs(t, err, sanitizer.ErrInvalidTag)
}
