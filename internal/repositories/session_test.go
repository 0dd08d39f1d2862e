package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	repo := NewSessionRepository(rdb, 2*time.Second)
	userID := uuid.New()

	t.Run("CreateGetDelete", func(t *testing.T) {
		id, err := repo.Create(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, id, 32)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, userID, got)

		require.NoError(t, repo.Delete(ctx, id))
		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, repo.Delete(ctx, id))
	})

	t.Run("Expiration", func(t *testing.T) {
		id, err := repo.Create(ctx, userID)
		require.NoError(t, err)

		time.Sleep(3 * time.Second)

		_, err = repo.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("FlashesArePoppedOnce", func(t *testing.T) {
		key := NewID()
		require.NoError(t, repo.AddFlash(ctx, key, models.Flash{Level: models.FlashSuccess, Message: "Saved"}))
		require.NoError(t, repo.AddFlash(ctx, key, models.Flash{Level: models.FlashError, Message: "Oops"}))

		flashes, err := repo.PopFlashes(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []models.Flash{
			{Level: models.FlashSuccess, Message: "Saved"},
			{Level: models.FlashError, Message: "Oops"},
		}, flashes)

		flashes, err = repo.PopFlashes(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, flashes)
	})
}
