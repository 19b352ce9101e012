package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "simple", cfg.Template)
	assert.Equal(t, "/", cfg.BaseURL)
	assert.Equal(t, ".navbar-nav .nav-link", cfg.Nav.Selector)
	assert.Equal(t, "active", cfg.Nav.ActiveClass)
	assert.Equal(t, "index.html", cfg.Nav.Fallback)
	assert.Equal(t, []AliasRule{{From: "publications.html", To: "publication.html"}}, cfg.Nav.Aliases)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadSiteConfig(filepath.Join(t.TempDir(), "site.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`title: Theory Group
author: A. Chemist
description: Computational chemistry
nav:
  selector: "#menu a"
  active_class: current
  aliases:
    - from: pubs.html
      to: publication.html
    - from: people.html
      to: about.html
`), 0644))

	cfg, err := LoadSiteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Theory Group", cfg.Title)
	assert.Equal(t, "A. Chemist", cfg.Author)
	assert.Equal(t, "simple", cfg.Template, "unset fields get defaults")
	assert.Equal(t, "#menu a", cfg.Nav.Selector)
	assert.Equal(t, "current", cfg.Nav.ActiveClass)
	assert.Equal(t, "index.html", cfg.Nav.Fallback)
	assert.Equal(t, []AliasRule{
		{From: "pubs.html", To: "publication.html"},
		{From: "people.html", To: "about.html"},
	}, cfg.Nav.Aliases)
	require.NoError(t, cfg.Validate())

	marker, err := cfg.Nav.NewMarker()
	require.NoError(t, err)
	assert.Equal(t, "publication.html", marker.Current("/pubs.html"))
	assert.Equal(t, "publications.html", marker.Current("/publications.html"), "configured aliases replace the defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: From File\n"), 0644))

	t.Setenv("NAVMARK_TITLE", "From Env")
	t.Setenv("NAVMARK_NAV_ACTIVE_CLASS", "is-active")

	cfg, err := LoadSiteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Title)
	assert.Equal(t, "is-active", cfg.Nav.ActiveClass)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: [unclosed\n"), 0644))

	_, err := LoadSiteConfig(path)
	require.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")

	original := Default()
	original.Title = "Round Trip"
	original.Nav.ActiveClass = "selected"
	original.Nav.Aliases = append(original.Nav.Aliases, AliasRule{From: "team.html", To: "about.html"})
	require.NoError(t, original.Save(path))

	loaded, err := LoadSiteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SiteConfig)
	}{
		{name: "empty selector", mutate: func(c *SiteConfig) { c.Nav.Selector = " " }},
		{name: "bad selector", mutate: func(c *SiteConfig) { c.Nav.Selector = "a[href" }},
		{name: "empty class", mutate: func(c *SiteConfig) { c.Nav.ActiveClass = "" }},
		{name: "class with space", mutate: func(c *SiteConfig) { c.Nav.ActiveClass = "is active" }},
		{name: "fallback path", mutate: func(c *SiteConfig) { c.Nav.Fallback = "docs/index.html" }},
		{name: "alias missing to", mutate: func(c *SiteConfig) { c.Nav.Aliases = []AliasRule{{From: "a.html"}} }},
		{name: "alias path", mutate: func(c *SiteConfig) { c.Nav.Aliases = []AliasRule{{From: "x/a.html", To: "b.html"}} }},
		{name: "duplicate alias", mutate: func(c *SiteConfig) {
			c.Nav.Aliases = []AliasRule{{From: "a.html", To: "b.html"}, {From: "a.html", To: "c.html"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestMarkerOptionsEmptyAliases(t *testing.T) {
	nav := Default().Nav
	nav.Aliases = []AliasRule{}
	opts := nav.MarkerOptions()
	assert.NotNil(t, opts.Aliases)
	assert.Empty(t, opts.Aliases)
}
