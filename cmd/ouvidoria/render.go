package main

import (
	"fmt"

	"github.com/aretw0/ouvidoria/internal/cli"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <record.yaml>",
	Short: "Render a complaint record to a report document",
	Long: `Renders a YAML complaint record offline, using the configured letterhead.

Example record:
  name: Alice
  neighborhood: Downtown
  problem_type: 3        # or "Infrastructure"
  location: Main St
  details: Pothole
  additional_details: ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		contact, _ := cmd.Flags().GetString("contact")
		outDir, _ := cmd.Flags().GetString("out")

		path, err := cli.RenderFile(cmd.Context(), cfg.Report, args[0], contact, outDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("contact", "N/A", "Complainant contact printed on the report")
	renderCmd.Flags().StringP("out", "o", ".", "Output directory")
}
