package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeRepository_Toggle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	recipe := createRecipe(t, db, alice.UserID, "Soup", "soup", models.StatusPublished)

	likes := NewLikeRepository(db, nil)

	added, total, err := likes.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, total)

	added, total, err = likes.Toggle(ctx, recipe.RecipeID, alice.UserID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 2, total)

	added, total, err = likes.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, total)

	count, err := likes.Count(ctx, recipe.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	favorites := NewFavoriteRepository(db, nil)
	added, total, err = favorites.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, total)

	n, err := likes.Reset(ctx, recipe.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// --- Concurrency Tests ---
func TestEdgeRepository_ToggleConcurrency(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	recipe := createRecipe(t, db, alice.UserID, "Soup", "soup", models.StatusPublished)

	likes := NewLikeRepository(db, nil)

	const numGoroutines = 200
	type toggleResult struct {
		added bool
		total int
		err   error
	}
	results := make([]toggleResult, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			added, total, err := likes.Toggle(ctx, recipe.RecipeID, bob.UserID)
			results[i] = toggleResult{added: added, total: total, err: err}
		}(i)
	}
	wg.Wait()

	var adds, removes int
	for _, res := range results {
		require.NoError(t, res.err)
		assert.GreaterOrEqual(t, res.total, 0)
		assert.LessOrEqual(t, res.total, 1)
		if res.added {
			adds++
		} else {
			removes++
		}
	}

	var rows int
	require.NoError(t, db.Get(&rows, `SELECT COUNT(*) FROM likes WHERE recipe_id = $1 AND user_id = $2`, recipe.RecipeID, bob.UserID))
	assert.LessOrEqual(t, rows, 1)
	// Every removal deletes a row some earlier call added.
	assert.GreaterOrEqual(t, adds-removes, rows)
	assert.GreaterOrEqual(t, adds, removes)

	// Sequential toggles from a settled state alternate and carry the fresh count.
	added, total, err := likes.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, rows == 0, added)
	if added {
		assert.Equal(t, 1, total)
	} else {
		assert.Equal(t, 0, total)
	}

	again, total, err := likes.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, !added, again)
	assert.Equal(t, rows, total)
}

func TestEdgeRepository_ToggleLosingInsertReportsAdded(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	recipe := createRecipe(t, db, alice.UserID, "Soup", "soup", models.StatusPublished)

	// The first transaction holds an uncommitted like while the second toggles.
	first, err := db.Beginx()
	require.NoError(t, err)
	firstLikes := NewLikeRepository(db, func(context.Context) *sqlx.Tx { return first })
	added, _, err := firstLikes.Toggle(ctx, recipe.RecipeID, bob.UserID)
	require.NoError(t, err)
	require.True(t, added)

	type toggleResult struct {
		added bool
		total int
		err   error
	}
	done := make(chan toggleResult, 1)
	go func() {
		added, total, err := NewLikeRepository(db, nil).Toggle(ctx, recipe.RecipeID, bob.UserID)
		done <- toggleResult{added: added, total: total, err: err}
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, first.Commit())

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.added)
	assert.Equal(t, 1, res.total)

	count, err := NewLikeRepository(db, nil).Count(ctx, recipe.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
