// internal/builder/mark.go
package builder

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/natefinch/atomic"

	"navmark/internal/navmark"
	"navmark/internal/progress"
	"navmark/internal/util"
)

// DefaultMarkInclude selects every HTML page in a site.
var DefaultMarkInclude = []string{"**/*.html"}

// MarkOptions configures MarkDir.
type MarkOptions struct {
	// Include and Exclude are doublestar patterns matched against paths
	// relative to the site directory, with forward slashes. Include
	// defaults to DefaultMarkInclude.
	Include []string
	Exclude []string

	// DryRun reports what would change without writing anything.
	DryRun bool

	Marker   *navmark.Marker
	Logger   *slog.Logger
	Reporter progress.Reporter
}

// MarkStats summarizes a MarkDir run.
type MarkStats struct {
	// Scanned is the number of pages read.
	Scanned int

	// Matched is the number of pages with at least one navbar link for
	// themselves.
	Matched int

	// Updated is the number of pages whose contents changed.
	Updated int

	// Unmatched lists the pages, relative to the site directory, where
	// no navbar link matched.
	Unmatched []string
}

// MarkDir marks the active navbar link in every selected page under dir,
// rewriting the files in place. Each page is marked using its own path
// relative to dir as the location. Pages where nothing changes are not
// rewritten.
func MarkDir(dir string, opts MarkOptions) (MarkStats, error) {
	stats := MarkStats{}
	marker := opts.Marker
	if marker == nil {
		var err error
		marker, err = navmark.NewMarker(navmark.Options{})
		if err != nil {
			return stats, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Discard
	}
	include := opts.Include
	if len(include) == 0 {
		include = DefaultMarkInclude
	}
	for _, pattern := range append(append([]string{}, include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return stats, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	pages, err := selectPages(dir, include, opts.Exclude)
	if err != nil {
		return stats, err
	}

	reporter.Start(len(pages))
	defer reporter.Finish()
	for i, rel := range pages {
		reporter.Update(i+1, rel)
		path := filepath.Join(dir, filepath.FromSlash(rel))
		original, err := os.ReadFile(path)
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", path, err)
		}
		stats.Scanned++

		urlPath := util.URLPath(rel)
		marked, matched, err := marker.RewriteBytes(original, urlPath)
		if err != nil {
			return stats, fmt.Errorf("failed to mark %s: %w", path, err)
		}
		if matched == 0 {
			log.Debug("no navbar link for page", "path", urlPath, "page", marker.Current(urlPath))
			stats.Unmatched = append(stats.Unmatched, rel)
			continue
		}
		stats.Matched++
		if bytes.Equal(marked, original) {
			continue
		}
		stats.Updated++
		if opts.DryRun {
			log.Info("would mark page", "path", urlPath, "page", marker.Current(urlPath))
			continue
		}
		if err := atomic.WriteFile(path, bytes.NewReader(marked)); err != nil {
			return stats, fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Info("marked page", "path", urlPath, "page", marker.Current(urlPath))
	}
	return stats, nil
}

// selectPages returns the slash-separated paths under dir that match one of
// include and none of exclude, in lexical order.
func selectPages(dir string, include, exclude []string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(include, rel) || matchAny(exclude, rel) {
			return nil
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return pages, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(pattern), rel); err == nil && ok {
			return true
		}
	}
	return false
}
