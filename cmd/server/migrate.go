package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpipe/internal/platform/postgres"
	"github.com/spf13/cobra"
)

const migrationTimeout = 2 * time.Minute

var migrateCommands = []string{"up", "down", "status", "version"}

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), *configFile, args[0])
		},
	}
}

func runMigrate(ctx context.Context, configFile, command string) error {
	cfg, log, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}
	log = log.With("component", "migrations", "correlation_id", uuid.NewString(), "command", command)

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("failed to close database", "error", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	start := time.Now()
	if err := postgres.Migrate(ctx, db, command, log); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	log.Info("migration command completed", "duration", time.Since(start))
	return nil
}
