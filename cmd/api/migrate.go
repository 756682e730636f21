package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bizdash/bizdash/internal/config"
	"github.com/bizdash/bizdash/internal/repository"
)

// migrations is the set of migration runners, replaceable in tests.
var migrations = map[string]func(ctx context.Context, databaseURL string) error{
	"up":     repository.MigrateUp,
	"down":   repository.MigrateDown,
	"status": repository.MigrateStatus,
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded goose migrations against DATABASE_URL.`,
	}

	cmd.AddCommand(newMigrateStepCmd("up", "Apply all pending migrations"))
	cmd.AddCommand(newMigrateStepCmd("down", "Roll back the most recent migration"))
	cmd.AddCommand(newMigrateStepCmd("status", "Print the applied state of every migration"))

	return cmd
}

func newMigrateStepCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			return runMigration(cmd, direction, cfg.DatabaseURL)
		},
	}
}

func runMigration(cmd *cobra.Command, direction, databaseURL string) error {
	run, ok := migrations[direction]
	if !ok {
		return oops.Code("MIGRATION_FAILED").Errorf("unknown migration direction %q", direction)
	}

	cmd.Printf("Running migrate %s against %s\n", direction, redactURL(databaseURL))
	if err := run(cmd.Context(), databaseURL); err != nil {
		return oops.Code("MIGRATION_FAILED").
			With("direction", direction).
			Errorf("%s", sanitizeError(err, databaseURL))
	}

	cmd.Printf("migrate %s completed\n", direction)
	return nil
}
