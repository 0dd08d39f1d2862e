package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

const commentSelect = `
	SELECT c.comment_id, c.recipe_id, c.author_id, c.text, c.created_at, c.updated_at,
	       u.username AS author_username, u.first_name AS author_first_name, u.last_name AS author_last_name,
	       r.slug AS recipe_slug
	FROM comments c
	JOIN users u ON u.user_id = c.author_id
	JOIN recipes r ON r.recipe_id = c.recipe_id
`

// CommentRepository handles comment reads and writes
type CommentRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewCommentRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *CommentRepository {
	return &CommentRepository{db: db, txGetter: txGetter}
}

// ListByRecipe returns the comments of a recipe, newest first.
func (r *CommentRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]models.Comment, error) {
	query := commentSelect + `
		WHERE c.recipe_id = $1
		ORDER BY c.created_at DESC, c.comment_id
	`

	comments := []models.Comment{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &comments, query, recipeID)

	logQuery(query, []any{recipeID}, len(comments), err)

	return comments, err
}

// GetByID returns a comment or ErrNotFound.
func (r *CommentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (models.Comment, error) {
	query := commentSelect + `WHERE c.comment_id = $1`

	var comment models.Comment
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &comment, query, commentID)

	logQuery(query, []any{commentID}, comment.CommentID, err)

	return comment, translate(err)
}

// Create inserts a comment and fills its id and timestamps.
func (r *CommentRepository) Create(ctx context.Context, comment *models.CommentDB) error {
	query := `
		INSERT INTO comments (comment_id, recipe_id, author_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if comment.CommentID == uuid.Nil {
		comment.CommentID = uuid.New()
	}
	args := []any{comment.CommentID, comment.RecipeID, comment.AuthorID, comment.Text}

	err := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...).Scan(&comment.CreatedAt, &comment.UpdatedAt)

	logQuery(query, args, comment.CreatedAt, err)

	return translate(err)
}

// Delete removes a comment or reports ErrNotFound.
func (r *CommentRepository) Delete(ctx context.Context, commentID uuid.UUID) error {
	query := `DELETE FROM comments WHERE comment_id = $1`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, commentID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(query, []any{commentID}, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
