package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the citecheck version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			fmt.Printf("citecheck %s\n", Version)
			return nil
		}
		return outputJSON(map[string]string{"version": Version})
	},
}
