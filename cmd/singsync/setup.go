package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
//
// A missing config file is created from the embedded template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err := shared.LoadConfig(configPath); err == nil {
				if err := config.ApplyEnv(); err != nil {
					return err
				}
				r.config = config
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return err
	}

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
	for _, s := range states {
		r.writePlain("  %s %04d %s\n", checkmark(s.Applied), s.Version, s.Name)
	}
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db := r.db
	if db == nil {
		var err error
		if db, err = shared.OpenConfigured(r.config.Database); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return r.writePlain("✓ Rolled back the last migration\n")
}

func checkmark(ok bool) string {
	if ok {
		return "✓"
	}
	return "·"
}
