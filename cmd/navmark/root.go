// cmd/navmark/root.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"navmark/internal/builder"
	"navmark/internal/config"
	"navmark/internal/navmark"
)

const (
	contentDir  = "content"
	templateDir = "templates"
	staticDir   = "static"
	outputDir   = "public"
	configFile  = "site.yaml"
)

var (
	cfgFile string
	debug   bool
	unsafe  bool
	quiet   bool

	log = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "navmark",
	Short: "Static site builder that marks the active navbar link",
	Long: `navmark builds a site from Markdown content and highlights the navbar
link of the page being viewed. It can also mark the navbar of an existing
directory of HTML pages, serve a site with live reload, and fill in missing
DOI links in a publications list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		switch {
		case debug:
			level = slog.LevelDebug
		case quiet:
			level = slog.LevelWarn
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", configFile, "site config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&unsafe, "unsafe", false, "disable HTML sanitization of content")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")
}

// loadSite reads and validates the site config and builds its marker.
func loadSite() (config.SiteConfig, *navmark.Marker, error) {
	site, err := config.LoadSiteConfig(cfgFile)
	if err != nil {
		return config.SiteConfig{}, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := site.Validate(); err != nil {
		return config.SiteConfig{}, nil, err
	}
	marker, err := site.Nav.NewMarker()
	if err != nil {
		return config.SiteConfig{}, nil, err
	}
	return site, marker, nil
}

func buildOptions() builder.BuildOptions {
	return builder.BuildOptions{
		Unsafe: unsafe,
		Debug:  debug,
		Logger: log,
	}
}

// runFullBuild builds the site into outputDir.
var runFullBuild = siteBuilder(outputDir)

// siteBuilder returns a build func writing the site into outDir. It rereads
// the config on every call so serve picks up edits to site.yaml.
func siteBuilder(outDir string) func(builder.BuildOptions) error {
	return func(opts builder.BuildOptions) error {
		site, marker, err := loadSite()
		if err != nil {
			return err
		}
		opts.Marker = marker

		tmpl, err := builder.LoadTemplates(templateDir, site.Template)
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}
		pageCount, err := builder.BuildSite(outDir, contentDir, staticDir, site, tmpl, opts)
		if err != nil {
			return fmt.Errorf("site generation failed: %w", err)
		}
		log.Info("site built", "pages", pageCount, "dir", outDir)
		return nil
	}
}
