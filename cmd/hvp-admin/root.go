package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp/config"
)

var (
	outputFmt string
	envPrefix string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "hvp-admin",
	Short: "Administer hvp content instances and libraries",
	Long: `hvp-admin works directly against the hvp database and package storage.

Connections are configured with the same environment variables as the server
(DATABASE_URL, STORAGE_URL, WWWROOT, MODULE_PATH), optionally with a prefix.
A .env file in the current directory is loaded first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "", "Prefix for configuration environment variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log service activity to stderr")

	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(instanceCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pingCmd)
}

// loadConfig reads the configuration from the environment.
var loadConfig = func(cmd *cobra.Command) (*config.ServerConfig, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return config.Load(config.WithEnv(envPrefix), config.WithLogger(logger))
}

// openComponents wires the service for one command run.
var openComponents = func(ctx context.Context, cmd *cobra.Command) (*config.Components, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cfg.BuildService(ctx)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
