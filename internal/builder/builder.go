// internal/builder/builder.go
package builder

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"navmark/internal/config"
	"navmark/internal/navmark"
	"navmark/internal/util"
)

type BuildOptions struct {
	CleanDestination bool
	Unsafe           bool

	// Debug reports every rendered page with its render time at info level.
	Debug bool

	// Marker marks the active navbar link on every generated page. When
	// nil, a Marker with the default options is used.
	Marker *navmark.Marker

	// Logger receives build progress. When nil, nothing is logged.
	Logger *slog.Logger
}

func (opts BuildOptions) marker() (*navmark.Marker, error) {
	if opts.Marker != nil {
		return opts.Marker, nil
	}
	return navmark.NewMarker(navmark.Options{})
}

func (opts BuildOptions) logger() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// BuildSite processes content files, renders them into HTML pages with the
// active navbar link marked, and copies static assets.
func BuildSite(outputDir, contentDir, staticDir string, site config.SiteConfig, tmpl *template.Template, opts BuildOptions) (int, error) {
	log := opts.logger()
	marker, err := opts.marker()
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	if opts.CleanDestination {
		log.Info("cleaning destination directory", "dir", outputDir)
		entries, err := os.ReadDir(outputDir)
		if err != nil {
			return 0, err
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(outputDir, entry.Name())); err != nil {
				return 0, err
			}
		}
	}

	pagesGenerated := 0
	if err := filepath.Walk(contentDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(info.Name())
		if ext != ".html" && ext != ".md" {
			return nil
		}
		start := time.Now()

		contentBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if !utf8.Valid(contentBytes) {
			return fmt.Errorf("content file is not valid UTF-8: %s", path)
		}

		meta, htmlOut, parseErr := processContent(contentBytes, opts)
		if parseErr != nil {
			return fmt.Errorf("failed to process content for %s: %w", path, parseErr)
		}

		relPath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}

		if meta.Draft && !isExceptionPage(strings.TrimSuffix(relPath, ext)) {
			log.Debug("skipping draft", "path", relPath)
			return nil
		}

		outRel := strings.TrimSuffix(relPath, ext) + ".html"
		outputPath := filepath.Join(outputDir, outRel)
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return err
		}

		urlPath := util.URLPath(outRel)
		pageData := PageData{
			Content:     template.HTML(htmlOut),
			Title:       meta.Title,
			BaseHref:    util.ComputeBaseHref(relPath),
			Description: meta.Description,
			Site:        site,
			Path:        urlPath,
			Page:        marker.Current(urlPath),
			Params:      meta.Params,
		}

		if meta.Author != "" {
			pageData.Author = meta.Author
		} else {
			pageData.Author = site.Author
		}
		if pageData.Description == "" {
			pageData.Description = site.Description
		}

		matched, err := renderPage(tmpl, marker, outputPath, pageData)
		if err != nil {
			return fmt.Errorf("failed to render page %s: %w", path, err)
		}
		level := slog.LevelDebug
		if opts.Debug {
			level = slog.LevelInfo
		}
		log.Log(context.Background(), level, "rendered page",
			"path", urlPath, "page", pageData.Page, "active_links", matched, "duration", time.Since(start))
		pagesGenerated++
		return nil
	}); err != nil {
		return 0, err
	}

	if err := copyStaticAssets(staticDir, outputDir); err != nil {
		return 0, err
	}
	return pagesGenerated, nil
}

// copyStaticAssets copies files from the static directory to the output
// directory. A missing static directory is not an error.
func copyStaticAssets(staticDir, outputDir string) error {
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return nil
	}
	allowedExts := map[string]bool{
		".css": true, ".js": true, ".txt": true, ".svg": true, ".json": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
		".woff": true, ".woff2": true, ".pdf": true,
	}
	return filepath.Walk(staticDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !allowedExts[strings.ToLower(filepath.Ext(info.Name()))] {
			return nil
		}

		rel, err := filepath.Rel(staticDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return copyFile(path, dest)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// isExceptionPage checks for pages that should not be considered drafts.
func isExceptionPage(slug string) bool {
	return slug == "index" || slug == "about" || slug == "menu"
}

// renderPage executes the layout, marks the active navbar link for the
// page's path and writes the result to outPath. It returns how many navbar
// links were marked.
func renderPage(tmpl *template.Template, marker *navmark.Marker, outPath string, data PageData) (int, error) {
	var rendered bytes.Buffer
	// "main" is the name of the template defined within the layout file.
	if err := tmpl.ExecuteTemplate(&rendered, "main", data); err != nil {
		return 0, err
	}
	marked, matched, err := marker.RewriteBytes(rendered.Bytes(), data.Path)
	if err != nil {
		return 0, err
	}
	return matched, os.WriteFile(outPath, marked, 0644)
}

// LoadTemplates parses the layout, header and footer templates of the named
// theme, plus its nav partial when the theme has one.
func LoadTemplates(templateDir, templateName string) (*template.Template, error) {
	path := filepath.Join(templateDir, templateName)
	files := []string{
		filepath.Join(path, "layout.html"),
		filepath.Join(path, "header.html"),
		filepath.Join(path, "footer.html"),
	}
	nav := filepath.Join(path, "nav.html")
	if _, err := os.Stat(nav); err == nil {
		files = append(files, nav)
	}
	tmpl, err := template.ParseFiles(files...)
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}
