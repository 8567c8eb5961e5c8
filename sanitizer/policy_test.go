package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/htmlsanitizer/sanitizer"
)

func TestPolicy_ZeroValue(t *testing.T) {
	var p sanitizer.Policy
	assert.Empty(t, p.Tags())
	assert.Empty(t, p.Attributes())
	assert.Empty(t, p.Styles())
	assert.False(t, p.Strip())
	assert.False(t, p.KeepComments())
	assert.Equal(t, sanitizer.DefaultProtocols, p.Protocols())
	assert.True(t, p.Equal(sanitizer.NewPolicy()))
}

func TestPolicy_Immutable(t *testing.T) {
	tags := []string{"a", "em"}
	p := sanitizer.NewPolicy(sanitizer.WithTags(tags...))

	tags[0] = "script"
	assert.Equal(t, []string{"a", "em"}, p.Tags())

	got := p.Tags()
	got[0] = "script"
	assert.Equal(t, []string{"a", "em"}, p.Tags())
}

func TestPolicy_NormalizesNames(t *testing.T) {
	p := sanitizer.NewPolicy(sanitizer.WithTags(" A ", "a", "", "EM"), sanitizer.WithAttributes("HREF"))
	assert.Equal(t, []string{"a", "em"}, p.Tags())
	assert.Equal(t, []string{"href"}, p.Attributes())
}

func TestPolicy_WithStripMode(t *testing.T) {
	p := sanitizer.NewPolicy(sanitizer.WithTags("a"))
	stripped := p.WithStripMode(true)

	assert.False(t, p.Strip())
	assert.True(t, stripped.Strip())
	assert.Equal(t, p.Tags(), stripped.Tags())
	assert.False(t, p.Equal(stripped))
}

func TestPolicy_String(t *testing.T) {
	p := sanitizer.NewPolicy(
		sanitizer.WithTags("a", "em"),
		sanitizer.WithAttributes("href"),
		sanitizer.WithStrip(true),
	)
	assert.Equal(t, "tags=a,em;attrs=href;strip", p.String())
	assert.Equal(t, "", sanitizer.NewPolicy().String())
}
