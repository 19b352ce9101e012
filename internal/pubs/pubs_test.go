package pubs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExtractTitleAndAuthor(t *testing.T) {
	tests := []struct {
		name     string
		citation string
		title    string
		author   string
	}{
		{
			name:     "numbered with journal",
			citation: "1. A. Writer, B. Coauthor, An example title about molecules. J. Chem. Phys. 160, 1 (2024).",
			title:    "An example title about molecules",
			author:   "Writer",
		},
		{
			name:     "single author",
			citation: "12. J. Smith, Solvation dynamics. Nature 1 (2020).",
			title:    "Solvation dynamics",
			author:   "Smith",
		},
		{
			name:     "no list number",
			citation: "K. Müller Jr., Quantum effects in water. Phys. Rev. Lett. 99 (2007).",
			title:    "Quantum effects in water",
			author:   "Jr",
		},
		{
			name:     "no commas",
			citation: "Just some words",
			title:    "",
			author:   "words",
		},
		{
			name:     "empty",
			citation: "",
			title:    "",
			author:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, author := ExtractTitleAndAuthor(tt.citation)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.author, author)
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("Solvation dynamics", "SOLVATION Dynamics!"))
	assert.InDelta(t, 1.0/3.0, TitleSimilarity("alpha beta", "beta gamma"), 1e-9)
	assert.Zero(t, TitleSimilarity("", "anything"))
	assert.Zero(t, TitleSimilarity("---", "anything"))
	assert.Zero(t, TitleSimilarity("alpha", "beta"))
}

const crossrefResponse = `{
  "status": "ok",
  "message": {
    "items": [
      {"DOI": "10.1000/unrelated", "title": ["Something else entirely"]},
      {"DOI": "10.1063/5.0001", "title": ["An Example Title About Molecules"]},
      {"DOI": "10.1000/notitle"}
    ]
  }
}`

func newCrossref(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	c := NewClient("navmark-test (mailto:test@example.com)")
	c.Endpoint = ts.URL + "/works"
	c.RetryInterval = time.Millisecond
	return c, &calls
}

func TestLookup(t *testing.T) {
	c, calls := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "An example title about molecules", q.Get("query.title"))
		assert.Equal(t, "Writer", q.Get("query.author"))
		assert.Equal(t, "5", q.Get("rows"))
		assert.Equal(t, "from-pub-date:2024-01-01,until-pub-date:2024-12-31", q.Get("filter"))
		assert.Equal(t, "navmark-test (mailto:test@example.com)", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, crossrefResponse)
	})

	doi, err := c.Lookup(context.Background(), "An example title about molecules", "Writer", 2024)
	require.NoError(t, err)
	assert.Equal(t, "10.1063/5.0001", doi)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLookupOptionalParams(t *testing.T) {
	c, _ := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("query.author"))
		assert.False(t, q.Has("filter"))
		fmt.Fprint(w, crossrefResponse)
	})

	_, err := c.Lookup(context.Background(), "An example title about molecules", "", 0)
	require.NoError(t, err)
}

func TestLookupNotFound(t *testing.T) {
	c, calls := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crossrefResponse)
	})

	_, err := c.Lookup(context.Background(), "Completely different words here", "Writer", 2024)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(context.Background(), "", "Writer", 2024)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load(), "an empty title makes no request")
}

func TestLookupRetriesRateLimit(t *testing.T) {
	var n atomic.Int32
	c, calls := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, crossrefResponse)
	})

	doi, err := c.Lookup(context.Background(), "An example title about molecules", "Writer", 2024)
	require.NoError(t, err)
	assert.Equal(t, "10.1063/5.0001", doi)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLookupGivesUp(t *testing.T) {
	c, calls := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.Retries = 2

	_, err := c.Lookup(context.Background(), "An example title", "", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLookupClientErrorIsPermanent(t *testing.T) {
	c, calls := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Lookup(context.Background(), "An example title", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.EqualValues(t, 1, calls.Load())
}

func TestLookupInvalidJSON(t *testing.T) {
	c, _ := newCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>")
	})

	_, err := c.Lookup(context.Background(), "An example title", "", 0)
	require.Error(t, err)
}

type fakeResolver struct {
	dois  map[string]string
	calls []string
}

func (f *fakeResolver) Lookup(_ context.Context, title, author string, year int) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s|%s|%d", title, author, year))
	if title == "Broken lookup" {
		return "", fmt.Errorf("connection reset")
	}
	if doi, ok := f.dois[title]; ok {
		return doi, nil
	}
	return "", ErrNotFound
}

const publications = `[
  {"year": 2024, "citation": "1. A. Writer, B. Coauthor, An example title about molecules. J. Chem. Phys. 160, 1 (2024).", "url": ""},
  {"year": 2023, "citation": "2. E. Schrödinger, Already linked. Ann. Phys. 1 (2023).", "url": "https://doi.org/10.1/linked"},
  {"year": 2022, "citation": "3. C. Other, Nobody knows this one. Chem. Sci. 2 (2022)."},
  {"year": 2021, "citation": "4. D. Flaky, Broken lookup. Chem. Sci. 3 (2021).", "url": null}
]`

func writePublications(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publications.json")
	require.NoError(t, os.WriteFile(path, []byte(publications), 0644))
	return path
}

func TestFill(t *testing.T) {
	path := writePublications(t)
	resolver := &fakeResolver{dois: map[string]string{
		"An example title about molecules": "10.1063/5.0001",
	}}

	stats, err := Fill(context.Background(), path, FillOptions{Resolver: resolver})
	require.NoError(t, err)
	assert.Equal(t, FillStats{Entries: 4, Missing: 3, Updated: 1}, stats)
	assert.Equal(t, 2, stats.StillMissing())
	assert.Equal(t, []string{
		"An example title about molecules|Writer|2024",
		"Nobody knows this one|Other|2022",
		"Broken lookup|Flaky|2021",
	}, resolver.calls)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://doi.org/10.1063/5.0001", gjson.GetBytes(out, "0.url").String())
	assert.Equal(t, "https://doi.org/10.1/linked", gjson.GetBytes(out, "1.url").String())
	assert.False(t, gjson.GetBytes(out, "2.url").Exists())

	var keys []string
	gjson.GetBytes(out, "0").ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	assert.Equal(t, []string{"year", "citation", "url"}, keys)
	assert.True(t, strings.HasPrefix(string(out), "[\n  {\n    \"year\": 2024,"), "got %q", out)
	assert.Contains(t, string(out), "Schrödinger")
}

func TestFillNothingFound(t *testing.T) {
	path := writePublications(t)

	stats, err := Fill(context.Background(), path, FillOptions{Resolver: &fakeResolver{}})
	require.NoError(t, err)
	assert.Zero(t, stats.Updated)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, publications, string(out), "the file is only rewritten when something changed")
}

func TestFillDryRun(t *testing.T) {
	path := writePublications(t)
	resolver := &fakeResolver{dois: map[string]string{
		"An example title about molecules": "10.1063/5.0001",
	}}

	stats, err := Fill(context.Background(), path, FillOptions{Resolver: resolver, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, publications, string(out))
}

func TestFillCancelledDuringDelay(t *testing.T) {
	path := writePublications(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := Fill(ctx, path, FillOptions{Resolver: &fakeResolver{}, Delay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Missing, "the first lookup runs without waiting")
}

func TestFillBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := Fill(context.Background(), filepath.Join(dir, "missing.json"), FillOptions{Resolver: &fakeResolver{}})
	assert.ErrorIs(t, err, os.ErrNotExist)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"url": `), 0644))
	_, err = Fill(context.Background(), invalid, FillOptions{Resolver: &fakeResolver{}})
	assert.Error(t, err)

	object := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(object, []byte(`{"url": ""}`), 0644))
	_, err = Fill(context.Background(), object, FillOptions{Resolver: &fakeResolver{}})
	assert.ErrorContains(t, err, "array")
}
