package main

import (
	"fmt"

	"github.com/aretw0/ouvidoria"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ouvidoria",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ouvidoria version %s\n", ouvidoria.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
