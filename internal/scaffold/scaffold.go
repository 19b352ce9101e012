// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"navmark/internal/config"
)

// ErrExists is returned when scaffolding would overwrite an existing file.
var ErrExists = errors.New("already exists")

// CreateNewSite writes a site skeleton into the directory name: a site.yaml
// with the nav defaults, a navbar theme, starter pages for every
// navbar link and an archetype for new content.
func CreateNewSite(name string, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if _, err := os.Stat(filepath.Join(name, "site.yaml")); err == nil {
		return fmt.Errorf("site.yaml in %s: %w", name, ErrExists)
	}
	log.Info("scaffolding new site", "dir", name)

	mkdir := func(path string) error { return os.MkdirAll(filepath.Join(name, path), 0755) }
	writeFile := func(path, content string) error {
		return os.WriteFile(filepath.Join(name, path), []byte(content), 0644)
	}
	dirs := []string{"content", "static/css", "static/js", "static/images", "static/data", "templates/simple", "archetypes"}
	for _, dir := range dirs {
		if err := mkdir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg := config.Default()
	cfg.Title = "My Research Group"
	cfg.Author = "Your Name"
	cfg.Description = "A new site powered by navmark."
	if err := cfg.Save(filepath.Join(name, "site.yaml")); err != nil {
		return err
	}

	files := map[string]string{
		"content/index.md":              indexMdContent,
		"content/about.md":              aboutMdContent,
		"content/publication.md":        publicationMdContent,
		"content/publications.md":       publicationsMdContent,
		"static/css/style.css":          staticCssContent,
		"static/data/publications.json": publicationsJSONContent,
		"templates/simple/layout.html":  templateLayoutHtmlContent,
		"templates/simple/header.html":  templateHeaderHtmlContent,
		"templates/simple/nav.html":     templateNavHtmlContent,
		"templates/simple/footer.html":  templateFooterHtmlContent,
		"archetypes/default.md":         archetypeDefaultMdContent,
	}
	for path, content := range files {
		if err := writeFile(path, content); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
	}
	log.Info("site scaffolded", "next", "cd "+name+" && navmark serve")
	return nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)

// Slug turns a title into a file name: "Hello, World" becomes "hello-world".
func Slug(title string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	slug = slugUnsafe.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}

// CreateNewContent renders the default archetype into
// content/<contentType>/<slug>.md and returns the path it wrote.
func CreateNewContent(contentType, title, configPath string) (string, error) {
	slug := Slug(title)
	if slug == "" {
		return "", fmt.Errorf("title %q has no usable characters", title)
	}
	site, err := config.LoadSiteConfig(configPath)
	if err != nil {
		return "", err
	}

	path := filepath.Join("content", contentType, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	archetypePath := filepath.Join("archetypes", "default.md")
	tmplBytes, err := os.ReadFile(archetypePath)
	if err != nil {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
	}

	tmpl, err := template.New("archetype").Parse(string(tmplBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse archetype file %s: %w", archetypePath, err)
	}

	data := struct {
		Title  string
		Author string
	}{
		Title:  title,
		Author: site.Author,
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute archetype template: %w", err)
	}

	if err := os.WriteFile(path, output.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

const indexMdContent = `---
title: Home
---

Welcome to the group. Read [about us](about.md) or browse our
[publications](publication.md).
`

const aboutMdContent = `---
title: About
---

Who we are and what we work on.
`

const publicationMdContent = `---
title: Publications
---

The full list lives in data/publications.json. Run ` + "`navmark doi static/data/publications.json`" + `
to fill in missing DOI links.
`

// publications.html is the page's old address. The default nav alias keeps
// the Publications link highlighted there too.
const publicationsMdContent = `---
title: Publications
---

This page has moved to [Publications](publication.md).
`

const publicationsJSONContent = `[
  {
    "year": 2024,
    "citation": "1. A. Writer, B. Coauthor, An example title about molecules. J. Chem. Phys. 160, 1 (2024).",
    "url": ""
  }
]
`

const archetypeDefaultMdContent = `---
title: {{.Title}}
author: {{.Author}}
description:
---

Write something meaningful here.
`

const staticCssContent = `body {
  font-family: sans-serif;
  max-width: 760px;
  margin: 2em auto;
  padding: 0 1em;
  line-height: 1.6;
  color: #222;
  background: #fdfdfd;
}
.navbar { border-bottom: 1px solid #ddd; margin-bottom: 2em; }
.navbar-brand { font-weight: 600; text-decoration: none; color: #222; }
.navbar-nav { display: flex; gap: 1em; list-style: none; margin: 0.5em 0; padding: 0; }
.nav-link { color: #555; text-decoration: none; padding-bottom: 0.2em; }
.nav-link:hover { color: #000; }
.nav-link.active { color: #000; border-bottom: 2px solid #0a58ca; }
main { margin-bottom: 3em; }
footer { text-align: center; font-size: 0.9em; color: #555; }
`

const templateLayoutHtmlContent = `{{ define "main" }}
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  {{ if .BaseHref }}<base href="{{ .BaseHref }}">{{ end }}
  <title>{{ .Title }} | {{ .Site.Title }}</title>
  <link rel="stylesheet" href="css/style.css">
  <meta name="description" content="{{ .Description }}">
</head>
<body>
  {{ template "header" . }}
  <main>
    {{ .Content }}
  </main>
  {{ template "footer" . }}
</body>
</html>
{{ end }}`

const templateHeaderHtmlContent = `{{ define "header" }}
<header class="navbar">
  <a class="navbar-brand" href="index.html">{{ .Site.Title }}</a>
  {{ template "nav" . }}
</header>
{{ end }}`

const templateNavHtmlContent = `{{ define "nav" }}
<ul class="navbar-nav">
  <li class="nav-item"><a class="nav-link" href="index.html">Home</a></li>
  <li class="nav-item"><a class="nav-link" href="about.html">About</a></li>
  <li class="nav-item"><a class="nav-link" href="publication.html">Publications</a></li>
</ul>
{{ end }}`

const templateFooterHtmlContent = `{{ define "footer" }}
<footer>
  &copy; {{ .Site.Title }}{{ if .Author }} &middot; {{ .Author }}{{ end }}
</footer>
{{ end }}`
