// Package sanitizer holds the HTML cleaning contract shared by the model,
// form and template integrations.
//
// A Policy bundles the allowed tags, attributes and style properties with a
// strip flag. A Cleaner applies a Policy to a string:
//
//	p := sanitizer.NewPolicy(
//		sanitizer.WithTags("a", "em"),
//		sanitizer.WithAttributes("href"),
//	)
//	out, err := sanitizer.Clean(`<a href="/x" onclick="y()">x</a><b>y</b>`, p)
//	// out: <a href="/x">x</a>&lt;b&gt;y&lt;/b&gt;
//
// With strip disabled (the default) disallowed markup is entity-escaped into
// inert text; with strip enabled it is removed and only its text is kept.
// Allow-lists may be supplied either as slices or as comma separated strings,
// see Resolve.
package sanitizer
