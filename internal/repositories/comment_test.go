package repositories

import (
	"context"
	"testing"

	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	recipe := createRecipe(t, db, alice.UserID, "Soup", "soup", models.StatusPublished)

	repo := NewCommentRepository(db, nil)

	first := models.CommentDB{RecipeID: recipe.RecipeID, AuthorID: bob.UserID, Text: "first"}
	require.NoError(t, repo.Create(ctx, &first))
	second := models.CommentDB{RecipeID: recipe.RecipeID, AuthorID: alice.UserID, Text: "second"}
	require.NoError(t, repo.Create(ctx, &second))

	comments, err := repo.ListByRecipe(ctx, recipe.RecipeID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "alice", comments[0].AuthorUsername)
	assert.Equal(t, "soup", comments[0].RecipeSlug)

	got, err := repo.GetByID(ctx, first.CommentID)
	require.NoError(t, err)
	assert.Equal(t, bob.UserID, got.AuthorID)

	require.NoError(t, repo.Delete(ctx, first.CommentID))
	assert.ErrorIs(t, repo.Delete(ctx, first.CommentID), ErrNotFound)
	_, err = repo.GetByID(ctx, first.CommentID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Tomato Soup: publish, like twice, comment, delete. Nothing is left behind.
func TestRecipeLifecycleCascade(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	recipe := createRecipe(t, db, a.UserID, "Tomato Soup", "tomato-soup", models.StatusDraft, "soup")

	writer := NewRecipeWriteRepository(db, nil)
	likes := NewLikeRepository(db, nil)
	comments := NewCommentRepository(db, nil)

	n, err := writer.SetStatus(ctx, []string{"tomato-soup"}, models.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, total, err := likes.Toggle(ctx, recipe.RecipeID, b.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	_, total, err = likes.Toggle(ctx, recipe.RecipeID, b.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	_, _, err = likes.Toggle(ctx, recipe.RecipeID, b.UserID)
	require.NoError(t, err)

	require.NoError(t, comments.Create(ctx, &models.CommentDB{RecipeID: recipe.RecipeID, AuthorID: b.UserID, Text: "Yum"}))

	require.NoError(t, writer.Delete(ctx, recipe.RecipeID))

	for _, table := range []string{"comments", "likes", "favorites", "recipe_tags"} {
		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM `+table+` WHERE recipe_id = $1`, recipe.RecipeID))
		assert.Zero(t, count, table)
	}
}
