package main

import (
	"fmt"

	"github.com/aretw0/ouvidoria/internal/presentation/graph"
	"github.com/aretw0/ouvidoria/internal/runtime"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the conversation flow as a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(runtime.Edges()))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
