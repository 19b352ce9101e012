// cmd/navmark/new.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"navmark/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new site <name> | new <type> <title>",
	Short: "Create a new site or a new content page",
	Example: `  navmark new site mygroup
  navmark new posts "First results"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "site" {
			return scaffold.CreateNewSite(args[1], log)
		}
		path, err := scaffold.CreateNewContent(args[0], args[1], cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
