// cmd/navmark/mark.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"navmark/internal/builder"
	"navmark/internal/progress"
)

var (
	markInclude []string
	markExclude []string
	markDryRun  bool
)

var markCmd = &cobra.Command{
	Use:   "mark [dir]",
	Short: "Mark the active navbar link in existing HTML pages",
	Long: `Rewrites every HTML page under dir (default "public") so the navbar link
pointing at the page itself carries the active class. Pages whose navbar has
no link to them are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := outputDir
		if len(args) == 1 {
			dir = args[0]
		}
		_, marker, err := loadSite()
		if err != nil {
			return err
		}

		reporter := progress.NewReporter("Marking")
		if quiet {
			reporter = progress.Discard
		}
		stats, err := builder.MarkDir(dir, builder.MarkOptions{
			Include:  markInclude,
			Exclude:  markExclude,
			DryRun:   markDryRun,
			Marker:   marker,
			Logger:   log,
			Reporter: reporter,
		})
		if err != nil {
			return err
		}

		for _, page := range stats.Unmatched {
			log.Debug("no navbar link for page", "page", page)
		}
		verb := "updated"
		if markDryRun {
			verb = "would update"
		}
		if !quiet {
			fmt.Printf("%d pages scanned, %d matched a navbar link, %s %d.\n", stats.Scanned, stats.Matched, verb, stats.Updated)
		}
		return nil
	},
}

func init() {
	markCmd.Flags().StringSliceVar(&markInclude, "include", builder.DefaultMarkInclude, "glob of pages to mark, relative to dir")
	markCmd.Flags().StringSliceVar(&markExclude, "exclude", nil, "glob of pages to skip")
	markCmd.Flags().BoolVarP(&markDryRun, "dry-run", "n", false, "report what would change without writing")
	rootCmd.AddCommand(markCmd)
}
