// cmd/navmark/doi.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"navmark/internal/pubs"
)

var (
	doiUserAgent string
	doiDelay     time.Duration
	doiDryRun    bool
)

var doiCmd = &cobra.Command{
	Use:   "doi [file]",
	Short: "Fill in missing publication links from Crossref",
	Long: `Looks up every entry of a publications list that has no url on Crossref
and links it to its DOI. The file is a JSON array of objects with "citation",
"year" and "url" keys.

Crossref asks clients to identify themselves; pass a contact address with
--user-agent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(staticDir, "data", "publications.json")
		if len(args) == 1 {
			path = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		stats, err := pubs.Fill(ctx, path, pubs.FillOptions{
			Resolver: pubs.NewClient(doiUserAgent),
			Delay:    doiDelay,
			DryRun:   doiDryRun,
			Logger:   log,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d missing links. Still missing %d.\n", stats.Updated, stats.StillMissing())
		return nil
	},
}

func init() {
	doiCmd.Flags().StringVar(&doiUserAgent, "user-agent", pubs.DefaultUserAgent, "User-Agent sent to Crossref")
	doiCmd.Flags().DurationVar(&doiDelay, "delay", time.Second, "pause between lookups")
	doiCmd.Flags().BoolVarP(&doiDryRun, "dry-run", "n", false, "look up links without writing the file")
	rootCmd.AddCommand(doiCmd)
}
