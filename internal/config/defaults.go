package config

import (
	"cmp"
	"slices"

	"navmark/internal/navmark"
)

// DefaultTemplate is the template directory used when none is configured.
const DefaultTemplate = "simple"

// Default returns a SiteConfig with every field that has a sensible default
// filled in.
func Default() SiteConfig {
	cfg := SiteConfig{}
	cfg.applyDefaults()
	return cfg
}

// DefaultAliases returns the alias rules used when site.yaml doesn't list
// any. An explicitly empty list in site.yaml disables aliasing.
func DefaultAliases() []AliasRule {
	aliases := navmark.DefaultAliases()
	rules := make([]AliasRule, 0, len(aliases))
	for from, to := range aliases {
		rules = append(rules, AliasRule{From: from, To: to})
	}
	slices.SortFunc(rules, func(a, b AliasRule) int {
		return cmp.Compare(a.From, b.From)
	})
	return rules
}

func (c *SiteConfig) applyDefaults() {
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Nav.Selector == "" {
		c.Nav.Selector = navmark.DefaultSelector
	}
	if c.Nav.ActiveClass == "" {
		c.Nav.ActiveClass = navmark.DefaultActiveClass
	}
	if c.Nav.Fallback == "" {
		c.Nav.Fallback = navmark.DefaultFallback
	}
	if c.Nav.Aliases == nil {
		c.Nav.Aliases = DefaultAliases()
	}
}
