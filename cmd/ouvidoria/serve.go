package main

import (
	"os"

	"github.com/aretw0/ouvidoria"
	"github.com/aretw0/ouvidoria/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot on the configured transport",
	Long: `Connects to the configured transport (console, slack, discord or http) and
handles conversations until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if err := app.Ping(ctx); err != nil {
			return err
		}

		app.Logger.Info("Starting ouvidoria", "version", ouvidoria.Version, "transport", app.Config.Transport, "store", app.Config.Store.Driver)
		err = cli.Serve(ctx, app, os.Stdin, os.Stdout, ouvidoria.Version)
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Info("Shutdown complete", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
