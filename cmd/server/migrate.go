package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/medscore/internal/config"
	"github.com/soaringjerry/medscore/internal/db"
)

func migrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
				cfg.MigrationsDir = dir
			}
			out := cmd.OutOrStdout()
			ctx := context.Background()

			var count int
			switch cfg.Store {
			case "memory":
				fmt.Fprintln(out, "memory store has no schema; nothing to migrate")
				return nil
			case "postgres":
				pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
				if err != nil {
					return err
				}
				defer pool.Close()
				count, err = db.RunPostgresMigrations(ctx, pool, cfg.MigrationsDir)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			default:
				sqlDB, err := openSQLiteFile(cfg.SQLitePath)
				if err != nil {
					return err
				}
				defer sqlDB.Close()
				count, err = db.RunMigrations(sqlDB, cfg.MigrationsDir)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
			}
			color.New(color.FgGreen).Fprintf(out, "Applied %d migration(s) to the %s store.\n", count, cfg.Store)
			return nil
		},
	}
	cmd.Flags().String("dir", "", "migrations directory with sqlite/ and postgres/ subdirectories (embedded files when empty)")
	return cmd
}
