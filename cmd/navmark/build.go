// cmd/navmark/build.go
package main

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site into " + outputDir,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := buildOptions()
		opts.CleanDestination = true
		return runFullBuild(opts)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
