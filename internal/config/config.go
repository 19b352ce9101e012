// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"navmark/internal/navmark"
)

// EnvPrefix is the prefix of environment variables that override site.yaml.
const EnvPrefix = "NAVMARK_"

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid config")

// SiteConfig holds the configuration from the site.yaml file.
type SiteConfig struct {
	Title       string    `yaml:"title" koanf:"title"`
	Author      string    `yaml:"author" koanf:"author"`
	BaseURL     string    `yaml:"baseurl" koanf:"baseurl"`
	Description string    `yaml:"description" koanf:"description"`
	Template    string    `yaml:"template" koanf:"template"`
	Nav         NavConfig `yaml:"nav" koanf:"nav"`
}

// NavConfig controls how the active navigation link is found and marked.
type NavConfig struct {
	Selector    string      `yaml:"selector" koanf:"selector"`
	ActiveClass string      `yaml:"active_class" koanf:"active_class"`
	Fallback    string      `yaml:"fallback" koanf:"fallback"`
	Aliases     []AliasRule `yaml:"aliases" koanf:"aliases"`
}

// AliasRule makes the page From highlight the navbar link for To.
type AliasRule struct {
	From string `yaml:"from" koanf:"from"`
	To   string `yaml:"to" koanf:"to"`
}

// LoadSiteConfig reads path, then overlays NAVMARK_* environment variables,
// then fills in defaults for anything left unset. A missing file is not an
// error; the defaults and environment are used on their own.
func LoadSiteConfig(path string) (SiteConfig, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return SiteConfig{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	// NAVMARK_TITLE -> title, NAVMARK_NAV_ACTIVE_CLASS -> nav.active_class
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return SiteConfig{}, fmt.Errorf("could not load environment overrides: %w", err)
	}

	cfg := SiteConfig{}
	if err := k.Unmarshal("", &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "nav_"); ok {
		return "nav." + rest
	}
	return key
}

// Save writes the configuration to path as YAML.
func (c SiteConfig) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write config to %s: %w", path, err)
	}
	return nil
}

// Validate checks the values that can't be fixed by defaulting.
func (c SiteConfig) Validate() error {
	nav := c.Nav
	if strings.TrimSpace(nav.Selector) == "" {
		return fmt.Errorf("%w: nav.selector is required", ErrInvalidConfig)
	}
	if nav.ActiveClass == "" {
		return fmt.Errorf("%w: nav.active_class is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(nav.ActiveClass, " \t\n\f\r") {
		return fmt.Errorf("%w: nav.active_class %q must be a single class name", ErrInvalidConfig, nav.ActiveClass)
	}
	if strings.Contains(nav.Fallback, "/") {
		return fmt.Errorf("%w: nav.fallback %q must be a page name, not a path", ErrInvalidConfig, nav.Fallback)
	}
	seen := make(map[string]struct{}, len(nav.Aliases))
	for i, rule := range nav.Aliases {
		if rule.From == "" || rule.To == "" {
			return fmt.Errorf("%w: nav.aliases[%d] needs both from and to", ErrInvalidConfig, i)
		}
		if strings.Contains(rule.From, "/") || strings.Contains(rule.To, "/") {
			return fmt.Errorf("%w: nav.aliases[%d] must map page names, not paths", ErrInvalidConfig, i)
		}
		if _, dup := seen[rule.From]; dup {
			return fmt.Errorf("%w: nav.aliases has more than one rule for %q", ErrInvalidConfig, rule.From)
		}
		seen[rule.From] = struct{}{}
	}
	if _, err := navmark.NewMarker(nav.MarkerOptions()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MarkerOptions converts the nav settings to navmark.Options.
func (n NavConfig) MarkerOptions() navmark.Options {
	aliases := navmark.Aliases{}
	for _, rule := range n.Aliases {
		aliases[rule.From] = rule.To
	}
	return navmark.Options{
		Selector:    n.Selector,
		ActiveClass: n.ActiveClass,
		Fallback:    n.Fallback,
		Aliases:     aliases,
	}
}

// NewMarker builds the navmark.Marker described by the nav settings.
func (n NavConfig) NewMarker() (*navmark.Marker, error) {
	return navmark.NewMarker(n.MarkerOptions())
}
