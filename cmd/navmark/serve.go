// cmd/navmark/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"navmark/internal/server"
)

var (
	servePort     int
	serveDir      string
	serveWatch    bool
	serveNoBuild  bool
	serveNoReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build and serve the site with live reload",
	Long: `Builds the site, serves it on localhost and rebuilds whenever content,
templates, static files or the config change. Every HTML page is served with
its navbar link marked for the path it was requested at.

The site is built into --dir. With --no-build an existing directory is served
as it is, which is handy for checking a hand-written site.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, marker, err := loadSite()
		if err != nil {
			return err
		}

		cfg, err := serveConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(cfg, marker, log)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

// serveConfig turns the serve flags into a server config. Unless --no-build is
// set the site is built into the served directory, which is emptied first.
func serveConfig() (server.Config, error) {
	cfg := server.Config{
		Port:         servePort,
		Dir:          serveDir,
		LiveReload:   !serveNoReload,
		BuildOptions: buildOptions(),
	}
	if serveNoBuild {
		return cfg, nil
	}
	if err := checkBuildDir(serveDir); err != nil {
		return server.Config{}, err
	}
	cfg.Build = siteBuilder(serveDir)
	if serveWatch {
		cfg.WatchPaths = []string{contentDir, templateDir, staticDir, cfgFile}
	}
	return cfg, nil
}

// checkBuildDir rejects an output directory that is, or holds, the project or
// one of its source directories.
func checkBuildDir(dir string) error {
	out, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, src := range []string{".", contentDir, templateDir, staticDir} {
		abs, err := filepath.Abs(src)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(out, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("cannot build into %s: it holds %s; use --no-build to serve it as it is", dir, src)
		}
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 1313, "port to listen on")
	serveCmd.Flags().StringVar(&serveDir, "dir", outputDir, "directory to serve")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "rebuild when sources change")
	serveCmd.Flags().BoolVar(&serveNoBuild, "no-build", false, "serve dir as it is without building")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "don't inject the live-reload script")
	rootCmd.AddCommand(serveCmd)
}
