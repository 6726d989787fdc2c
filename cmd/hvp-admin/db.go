package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-hvp/pkg/hvp/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the hvp tables in the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := config.WithAutoMigrate(true)(cfg); err != nil {
			return err
		}

		components, err := cfg.BuildService(cmd.Context())
		if err != nil {
			return err
		}
		components.Close()

		fmt.Fprintf(out(cmd), "Migrated %s database\n", cfg.DatabaseType)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		switch cfg.DatabaseType {
		case config.DatabasePostgres:
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := config.PingPostgres(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
		case config.DatabaseMemory:
			fmt.Fprintln(out(cmd), "Using in-memory database")
			return nil
		default:
			// gorm-backed databases are checked by opening them.
			if err := config.WithAutoMigrate(false)(cfg); err != nil {
				return err
			}
			components, err := cfg.BuildService(cmd.Context())
			if err != nil {
				return err
			}
			components.Close()
		}

		fmt.Fprintf(out(cmd), "%s database is reachable\n", cfg.DatabaseType)
		return nil
	},
}
