package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/ouvidoria/internal/cli"
	"github.com/aretw0/ouvidoria/internal/config"
	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ouvidoria",
	Short: "Ouvidoria is a conversational complaint intake bot",
	Long: `Ouvidoria collects citizen complaints through a guided chat and delivers a
formal report document once the complainant confirms.

Configuration is read from --config (YAML) and OUVIDORIA_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log_level (debug, info, warn, error)")
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(level), nil
}

// loadApp builds the wired application. Callers must Close it.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, logger)
}
