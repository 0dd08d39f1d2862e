package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

const flashTTL = 10 * time.Minute

// SessionRepository keeps login sessions and flash messages in Redis
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration // lifetime of a login session
}

// NewSessionRepository creates a repository whose sessions expire after ttl
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }

func flashKey(id string) string { return fmt.Sprintf("flash:%s", id) }

// NewID returns a fresh opaque identifier usable as a session or flash key.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create stores a session for the user and returns its id.
func (r *SessionRepository) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	id := NewID()
	key := sessionKey(id)
	err := r.client.Set(ctx, key, userID.String(), r.ttl).Err()

	logger.Log.Infow(
		"key", key,
		"user_id", userID,
		"error", err,
	)

	if err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a session id to its user. Unknown or expired sessions return ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (uuid.UUID, error) {
	key := sessionKey(id)
	val, err := r.client.Get(ctx, key).Result()

	logger.Log.Infow(
		"key", key,
		"result", val,
		"error", err,
	)

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session %s: %w", key, err)
	}
	return userID, nil
}

// Delete ends a session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	key := sessionKey(id)
	err := r.client.Del(ctx, key).Err()

	logger.Log.Infow(
		"key", key,
		"error", err,
	)

	return err
}

// AddFlash queues a message for the next page rendered for id.
func (r *SessionRepository) AddFlash(ctx context.Context, id string, flash models.Flash) error {
	payload, err := json.Marshal(flash)
	if err != nil {
		return err
	}

	key := flashKey(id)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, flashTTL)
		return nil
	})

	logger.Log.Infow(
		"key", key,
		"flash", flash,
		"error", err,
	)

	return err
}

// PopFlashes returns and clears the queued messages for id.
func (r *SessionRepository) PopFlashes(ctx context.Context, id string) ([]models.Flash, error) {
	key := flashKey(id)

	var lrange *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})

	logger.Log.Infow(
		"key", key,
		"error", err,
	)

	if err != nil {
		return nil, err
	}

	flashes := make([]models.Flash, 0, len(lrange.Val()))
	for _, raw := range lrange.Val() {
		var f models.Flash
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
