package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/logger"
)

// Repository level sentinels. Services translate them into their own taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// DuplicateError names the unique constraint a write collided with.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s: %v", e.Constraint, e.Err)
}

func (e *DuplicateError) Unwrap() []error {
	return []error{ErrDuplicate, e.Err}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// executor picks the request transaction when one is attached to the context.
func executor(ctx context.Context, db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) sqlx.ExtContext {
	var ex sqlx.ExtContext = db
	if txGetter != nil {
		if tx := txGetter(ctx); tx != nil {
			ex = tx
		}
	}
	return ex
}

// logQuery writes a query with its arguments in a single line.
func logQuery(query string, args []any, result any, err error) {
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", result,
		"error", err,
	)
}
