// cmd/navmark/resolve.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve <path>",
	Short:   "Print the navbar link a URL path activates",
	Example: "  navmark resolve /site/publications.html",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, marker, err := loadSite()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), marker.Current(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
