// internal/pubs/fill.go
package pubs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// DOIBaseURL is prepended to a DOI to make a publication's link.
const DOIBaseURL = "https://doi.org/"

// Resolver finds the DOI of a publication. *Client is the Crossref
// implementation.
type Resolver interface {
	Lookup(ctx context.Context, title, author string, year int) (string, error)
}

// FillOptions configures Fill.
type FillOptions struct {
	// Resolver defaults to a Crossref client with the default user agent.
	Resolver Resolver

	// Delay is the pause between lookups. Zero means no pause.
	Delay time.Duration

	// DryRun looks everything up but leaves the file untouched.
	DryRun bool

	Logger *slog.Logger
}

// FillStats summarizes a Fill run.
type FillStats struct {
	Entries int
	Missing int
	Updated int
}

// StillMissing is the number of entries left without a link.
func (s FillStats) StillMissing() int {
	return s.Missing - s.Updated
}

var jsonLayout = &pretty.Options{Indent: "  ", SortKeys: false}

// Fill reads the publications list at path, a JSON array of objects with
// "citation", "year" and "url" keys, and sets url to the DOI link of every
// entry that lacks one. A failed lookup counts as a miss and does not stop
// the run. The file keeps its key order and is rewritten with two-space
// indentation when at least one entry was updated.
func Fill(ctx context.Context, path string, opts FillOptions) (FillStats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewClient("")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FillStats{}, err
	}
	if !gjson.ValidBytes(data) {
		return FillStats{}, fmt.Errorf("%s is not valid JSON", path)
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return FillStats{}, fmt.Errorf("%s must hold a JSON array of publications", path)
	}

	var stats FillStats
	entries := list.Array()
	stats.Entries = len(entries)
	for i, entry := range entries {
		if entry.Get("url").String() != "" {
			continue
		}
		if stats.Missing > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
		stats.Missing++

		title, author := ExtractTitleAndAuthor(entry.Get("citation").String())
		n := i + 1
		doi, err := resolver.Lookup(ctx, title, author, int(entry.Get("year").Int()))
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if errors.Is(err, ErrNotFound) {
				log.Info("no DOI found", "entry", n, "title", truncate(title, 80))
			} else {
				log.Warn("DOI lookup failed", "entry", n, "title", truncate(title, 80), "error", err)
			}
			continue
		}

		data, err = sjson.SetBytes(data, fmt.Sprintf("%d.url", i), DOIBaseURL+doi)
		if err != nil {
			return stats, fmt.Errorf("could not update entry %d: %w", n, err)
		}
		stats.Updated++
		log.Info("DOI found", "entry", n, "doi", doi, "title", truncate(title, 80))
	}

	if stats.Updated == 0 || opts.DryRun {
		return stats, nil
	}
	if err := os.WriteFile(path, pretty.PrettyOptions(data, jsonLayout), 0644); err != nil {
		return stats, err
	}
	return stats, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
