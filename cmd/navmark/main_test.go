package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"navmark/internal/navmark"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// navTargets returns the href of every navbar link in the page at path.
func navTargets(t *testing.T, path string) []string {
	t.Helper()
	marker, err := navmark.NewMarker(navmark.Options{})
	require.NoError(t, err)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := html.Parse(f)
	require.NoError(t, err)

	var hrefs []string
	for _, link := range marker.Links(doc) {
		if link.HasTarget {
			hrefs = append(hrefs, link.Target)
		}
	}
	return hrefs
}

func TestResolveCommand(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "site.yaml")

	tests := map[string]string{
		"/site/about.html":        "about.html",
		"/site/":                  "index.html",
		"/site/publications.html": "publication.html",
		"/site/contact.html":      "contact.html",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want+"\n", execute(t, "resolve", "--config", missing, path))
		})
	}
}

func TestResolveCommandUsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nav:\n  aliases:\n    - from: team.html\n      to: people.html\n"), 0644))

	assert.Equal(t, "people.html\n", execute(t, "resolve", "--config", path, "/team.html"))
	assert.Equal(t, "publications.html\n", execute(t, "resolve", "--config", path, "/publications.html"))
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "navmark dev\n", execute(t, "version"))
}

func TestNewSiteAndBuild(t *testing.T) {
	t.Chdir(t.TempDir())
	execute(t, "new", "site", "group", "--quiet")

	t.Chdir("group")
	execute(t, "build", "--quiet", "--config", configFile)

	page := func(name string) string {
		b, err := os.ReadFile(filepath.Join(outputDir, name))
		require.NoError(t, err)
		return string(b)
	}
	assert.Contains(t, page("index.html"), `<a class="nav-link active" href="index.html">`)
	assert.Contains(t, page("about.html"), `<a class="nav-link active" href="about.html">`)
	assert.Contains(t, page("publications.html"), `<a class="nav-link active" href="publication.html">`)
	assert.NotContains(t, page("about.html"), `<a class="nav-link active" href="index.html">`)
	assert.Contains(t, page("publication.html"), `<a class="nav-link active" href="publication.html">`)
	assert.FileExists(t, filepath.Join(outputDir, "css", "style.css"))
	assert.FileExists(t, filepath.Join(outputDir, "data", "publications.json"))

	// every navbar link of every built page leads to a built page
	pages, err := filepath.Glob(filepath.Join(outputDir, "*.html"))
	require.NoError(t, err)
	require.NotEmpty(t, pages)
	for _, p := range pages {
		for _, href := range navTargets(t, p) {
			assert.FileExists(t, filepath.Join(outputDir, filepath.FromSlash(href)), "navbar of %s", p)
		}
	}

	// the built pages are already marked
	execute(t, "mark", "--quiet", "--config", configFile)
	assert.Contains(t, page("about.html"), `<a class="nav-link active" href="about.html">`)

	execute(t, "new", "posts", "First Results", "--quiet", "--config", configFile)
	assert.FileExists(t, filepath.Join(contentDir, "posts", "first-results.md"))
}

func TestServeConfigBuildsIntoServedDir(t *testing.T) {
	t.Chdir(t.TempDir())
	execute(t, "new", "site", "group", "--quiet")
	t.Chdir("group")

	prevDir, prevNoBuild, prevCfg := serveDir, serveNoBuild, cfgFile
	t.Cleanup(func() { serveDir, serveNoBuild, cfgFile = prevDir, prevNoBuild, prevCfg })
	cfgFile = configFile

	tests := map[string]struct {
		dir     string
		noBuild bool
		wantErr bool
	}{
		"default output dir":   {dir: outputDir},
		"custom dir":           {dir: filepath.Join(t.TempDir(), "preview")},
		"nested dir":           {dir: filepath.Join("tmp", "site")},
		"project root":         {dir: ".", wantErr: true},
		"source dir":           {dir: contentDir, wantErr: true},
		"parent of project":    {dir: "..", wantErr: true},
		"source dir, no build": {dir: contentDir, noBuild: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			serveDir, serveNoBuild = tt.dir, tt.noBuild

			cfg, err := serveConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dir, cfg.Dir)
			if tt.noBuild {
				assert.Nil(t, cfg.Build)
				return
			}

			require.NotNil(t, cfg.Build)
			require.NoError(t, cfg.Build(cfg.BuildOptions))
			assert.FileExists(t, filepath.Join(tt.dir, "index.html"))
			assert.FileExists(t, filepath.Join(tt.dir, "publication.html"))
		})
	}
}
