// internal/builder/models.go
package builder

import (
	"html/template"

	"navmark/internal/config"
)

// PageMeta holds metadata from front matter. Keys it doesn't know about end
// up in Params.
type PageMeta struct {
	Title       string         `yaml:"title"`
	Author      string         `yaml:"author"`
	Draft       bool           `yaml:"draft"`
	Description string         `yaml:"description"`
	Params      map[string]any `yaml:",inline"`
}

// PageData is the struct passed to templates.
type PageData struct {
	Content     template.HTML
	Title       string
	BaseHref    string
	Author      string
	Description string
	Site        config.SiteConfig

	// Path is the page's URL path relative to the site root, e.g.
	// "/posts/first.html".
	Path string

	// Page is the identifier navbar links are compared against, after
	// aliasing, e.g. "publication.html" for "/publications.html".
	Page string

	Params map[string]any
}
