package repositories

import (
	"context"
	_ "embed"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/logger"
)

//go:embed migrations/schema.sql
var schema string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)

	logger.Log.Infow(
		"migration", "schema.sql",
		"error", err,
	)

	return err
}
