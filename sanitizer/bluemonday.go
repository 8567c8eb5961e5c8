package sanitizer

import (
	"slices"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// BluemondayCleaner cleans with a bluemonday policy built from the Policy.
// bluemonday never escapes, so disallowed tags are always removed whatever
// the strip flag says. Built policies are cached per Policy.
type BluemondayCleaner struct {
	policies *sync.Map
}

// NewBluemondayCleaner returns a BluemondayCleaner with an empty cache.
func NewBluemondayCleaner() BluemondayCleaner {
	return BluemondayCleaner{policies: &sync.Map{}}
}

// Clean applies p to text.
func (c BluemondayCleaner) Clean(text string, p Policy) (string, error) {
	if c.policies == nil {
		return buildBluemonday(p).Sanitize(text), nil
	}
	key := p.String()
	bm, ok := c.policies.Load(key)
	if !ok {
		bm, _ = c.policies.LoadOrStore(key, buildBluemonday(p))
	}
	return bm.(*bluemonday.Policy).Sanitize(text), nil
}

func buildBluemonday(p Policy) *bluemonday.Policy {
	bm := bluemonday.NewPolicy()
	if len(p.tags) == 0 {
		return bm
	}
	bm.AllowElements(p.tags...)

	attrs := slices.DeleteFunc(slices.Clone(p.attributes), func(a string) bool { return a == "style" })
	if len(attrs) > 0 {
		bm.AllowAttrs(attrs...).OnElements(p.tags...)
	}
	if slices.Contains(p.attributes, "style") && len(p.styles) > 0 {
		bm.AllowStyles(p.styles...).OnElements(p.tags...)
	}
	bm.AllowRelativeURLs(true)
	bm.AllowURLSchemes(p.Protocols()...)
	if p.keepComments {
		bm.AllowComments()
	}
	return bm
}
