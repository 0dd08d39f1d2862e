package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBy(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "r.created_at DESC"},
		{"title", "r.title ASC"},
		{"-cooking_time", "r.cooking_time DESC"},
		{"-created_at", "r.created_at DESC"},
		{"password_hash", "r.created_at DESC"},
		{"-r.title; DROP TABLE users", "r.created_at DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.in))
		})
	}
}

func TestApplyFilter_Visibility(t *testing.T) {
	b, err := applyFilter(psql.Select("COUNT(*)").From("recipes r"), models.RecipeFilter{})
	require.NoError(t, err)
	query, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM recipes r WHERE r.status = $1", query)
	assert.Equal(t, []any{"published"}, args)

	viewer := uuid.New()
	b, err = applyFilter(psql.Select("COUNT(*)").From("recipes r"), models.RecipeFilter{ViewerID: viewer})
	require.NoError(t, err)
	query, args, err = b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM recipes r WHERE (r.status = $1 OR r.author_id = $2)", query)
	assert.Equal(t, []any{"published", viewer}, args)
}

func TestApplyFilter_TagsNumbering(t *testing.T) {
	b, err := applyFilter(psql.Select("COUNT(*)").From("recipes r"), models.RecipeFilter{
		Tags:           []string{"soup", "vegan"},
		MaxCookingTime: 30,
	})
	require.NoError(t, err)
	query, args, err := b.ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "r.cooking_time <= $2")
	assert.Contains(t, query, "t.name IN ($3,$4)")
	assert.Equal(t, []any{"published", 30, "soup", "vegan"}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_off\\`, escapeLike(`100%_off\`))
}

func TestEdgeRepository_ToggleUsesTransaction(t *testing.T) {
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer rawDB.Close()
	db := sqlx.NewDb(rawDB, "sqlmock")

	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	recipeID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("WITH del AS ( DELETE FROM likes")).
		WithArgs(recipeID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"added"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM likes WHERE recipe_id = $1")).
		WithArgs(recipeID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewLikeRepository(db, func(ctx context.Context) *sqlx.Tx { return tx })
	added, total, err := repo.Toggle(context.Background(), recipeID, userID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeWriteRepository_DeleteMissing(t *testing.T) {
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer rawDB.Close()
	db := sqlx.NewDb(rawDB, "sqlmock")

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes WHERE recipe_id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewRecipeWriteRepository(db, nil).Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
}
