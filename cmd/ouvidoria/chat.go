package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ouvidoria"
	"github.com/aretw0/ouvidoria/internal/cli"
	"github.com/aretw0/ouvidoria/internal/presentation/tui"
	"github.com/aretw0/ouvidoria/pkg/adapters/console"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	Long: `Starts a local conversation on stdin/stdout using the configured store.
Reports are written to console.output_dir (or --out).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if id, _ := cmd.Flags().GetString("as"); id != "" {
			app.Config.Console.ConversantID = id
		}
		if contact, _ := cmd.Flags().GetString("contact"); contact != "" {
			app.Config.Console.Contact = contact
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			app.Config.Console.OutputDir = out
		}

		if console.IsTerminal(os.Stdin) {
			tui.PrintBanner(os.Stdout, ouvidoria.Version)
			fmt.Println("Say hello to start. Press Ctrl+D to leave.")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunChat(ctx, app, cli.NewConsole(app.Config, app.Logger, os.Stdin, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("as", "", "Conversant ID to chat as (resumes an existing session)")
	chatCmd.Flags().String("contact", "", "Contact printed on the report")
	chatCmd.Flags().StringP("out", "o", "", "Directory for report documents")
}
