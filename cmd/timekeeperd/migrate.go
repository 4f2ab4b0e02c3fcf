package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timekeeping-backend/internal/db"
	"timekeeping-backend/internal/logging"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, 0)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return runMigrate(opts, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

// runMigrate applies migrations, or rolls back rollback steps when positive.
func runMigrate(opts *rootOptions, rollback int) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gormDB, err := db.Open(&cfg.Database, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if rollback == 0 {
		return db.Migrate(gormDB, cfg.Database.Driver, logger)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("rollback is only supported on postgres, not %q", cfg.Database.Driver)
	}
	logger.Info("rolling back migrations", zap.Int("steps", rollback))
	return db.RollbackMigrations(sqlDB, rollback, logger)
}
