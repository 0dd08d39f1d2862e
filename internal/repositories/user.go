package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

const userColumns = `user_id, username, email, password_hash, first_name, last_name, bio,
	profile_picture, is_staff, created_at, updated_at`

// UserReadRepository handles user lookups
type UserReadRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewUserReadRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *UserReadRepository {
	return &UserReadRepository{db: db, txGetter: txGetter}
}

// GetByID returns the user with the given id or ErrNotFound.
func (r *UserReadRepository) GetByID(ctx context.Context, userID uuid.UUID) (models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.get(ctx, query, userID)
}

// GetByUsername returns the user with the exact username or ErrNotFound.
func (r *UserReadRepository) GetByUsername(ctx context.Context, username string) (models.UserDB, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.get(ctx, query, username)
}

// GetByLogin resolves a login that is either a username or an email.
// Emails compare case-insensitively.
func (r *UserReadRepository) GetByLogin(ctx context.Context, login string) (models.UserDB, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR LOWER(email) = LOWER($1)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`
	return r.get(ctx, query, strings.TrimSpace(login))
}

func (r *UserReadRepository) get(ctx context.Context, query string, args ...any) (models.UserDB, error) {
	var user models.UserDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, args...)

	logQuery(query, args, user.UserID, err)

	return user, translate(err)
}

// UserWriteRepository handles user writes
type UserWriteRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewUserWriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *UserWriteRepository {
	return &UserWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts a user. Username or email collisions come back as *DuplicateError.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.UserDB) error {
	query := `
		INSERT INTO users (user_id, username, email, password_hash, first_name, last_name, bio, is_staff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}
	args := []any{user.UserID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Bio, user.IsStaff}

	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&user.CreatedAt, &user.UpdatedAt)

	// password hash stays out of the log
	logQuery(query, []any{user.UserID, user.Username, user.Email}, user.CreatedAt, err)

	return translate(err)
}

// UpdateProfile rewrites the editable profile fields. A nil picture keeps the current one.
func (r *UserWriteRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, in models.ProfileInput, picture *string) (models.UserDB, error) {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, bio = $5,
		    profile_picture = COALESCE($6, profile_picture), updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + userColumns

	args := []any{userID, in.FirstName, in.LastName, in.Email, in.Bio, picture}

	var user models.UserDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, args...)

	logQuery(query, args, user.UpdatedAt, err)

	return user, translate(err)
}

// SetStaff flips the operator flag of a user.
func (r *UserWriteRepository) SetStaff(ctx context.Context, username string, staff bool) error {
	query := `UPDATE users SET is_staff = $2, updated_at = NOW() WHERE username = $1`
	args := []any{username, staff}

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
