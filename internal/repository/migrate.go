package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver used by goose
	"github.com/pressly/goose/v3"

	"github.com/bizdash/bizdash/migrations"
)

// Goose entry points, swapped out in tests.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
	openDB = func(databaseURL string) (*sql.DB, error) {
		return sql.Open("postgres", databaseURL)
	}
)

// MigrateUp applies all pending embedded migrations.
func MigrateUp(ctx context.Context, databaseURL string) error {
	return runMigration(ctx, databaseURL, "up", gooseUpContext)
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, databaseURL string) error {
	return runMigration(ctx, databaseURL, "down", gooseDownContext)
}

// MigrateStatus logs the applied state of every migration.
func MigrateStatus(ctx context.Context, databaseURL string) error {
	return runMigration(ctx, databaseURL, "status", gooseStatusContext)
}

func runMigration(
	ctx context.Context,
	databaseURL, direction string,
	run func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error,
) error {
	db, err := openDB(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := run(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
