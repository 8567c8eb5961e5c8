// Package templates holds the server-rendered HTML pages.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Post is the name of the single post page.
const Post = "post.html"

// Parse parses every page with funcs installed.
func Parse(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "*.html")
}
