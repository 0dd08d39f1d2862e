package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EdgeRepository toggles a presence row keyed by (recipe, user).
// Likes and favorites share the implementation and differ only by table.
type EdgeRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
	table    string
}

func NewLikeRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *EdgeRepository {
	return &EdgeRepository{db: db, txGetter: txGetter, table: "likes"}
}

func NewFavoriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *EdgeRepository {
	return &EdgeRepository{db: db, txGetter: txGetter, table: "favorites"}
}

// Toggle deletes the edge when present and inserts it otherwise.
// An insert that loses the race to a concurrent toggle of the same pair
// still reports added, since the edge exists once the statement returns.
// The total is counted afterwards so it includes rows the toggle statement
// could not see in its snapshot.
func (r *EdgeRepository) Toggle(ctx context.Context, recipeID, userID uuid.UUID) (bool, int, error) {
	query := fmt.Sprintf(`
		WITH del AS (
			DELETE FROM %[1]s
			WHERE recipe_id = $1 AND user_id = $2
			RETURNING 1
		), ins AS (
			INSERT INTO %[1]s (recipe_id, user_id, created_at)
			SELECT $1::uuid, $2::uuid, NOW()
			WHERE NOT EXISTS (SELECT 1 FROM del)
			ON CONFLICT DO NOTHING
			RETURNING 1
		)
		SELECT EXISTS (SELECT 1 FROM ins) OR NOT EXISTS (SELECT 1 FROM del) AS added
	`, r.table)
	args := []any{recipeID, userID}

	var added bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &added, query, args...)

	logQuery(query, args, added, err)

	if err != nil {
		return false, 0, translate(err)
	}

	total, err := r.Count(ctx, recipeID)
	if err != nil {
		return false, 0, err
	}
	return added, total, nil
}

// Count returns how many edges point at the recipe.
func (r *EdgeRepository) Count(ctx context.Context, recipeID uuid.UUID) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE recipe_id = $1`, r.table)

	var total int
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &total, query, recipeID)

	logQuery(query, []any{recipeID}, total, err)

	return total, err
}

// Reset removes every edge of the recipe.
func (r *EdgeRepository) Reset(ctx context.Context, recipeID uuid.UUID) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, r.table)

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, recipeID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(query, []any{recipeID}, rowsAffected, err)

	return rowsAffected, err
}
