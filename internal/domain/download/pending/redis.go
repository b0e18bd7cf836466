package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

const keyPrefix = "pending:"

// RedisStore is the Redis backing for multi-instance deployments.
// Store failures degrade to a miss, which callers already treat as a
// stale selection; they are never surfaced to the user as a distinct error.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
	}
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

// Put stores a selection, overwriting any existing entry for the user
func (s *RedisStore) Put(ctx context.Context, sel *entities.PendingSelection) {
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}

	data, err := json.Marshal(sel)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", sel.UserID).Msg("Failed to encode pending selection")
		return
	}

	if err := s.client.Set(ctx, key(sel.UserID), data, 0).Err(); err != nil {
		s.logger.Error().Err(err).Int64("user_id", sel.UserID).Msg("Failed to store pending selection")
	}
}

// Get returns the selection for a user without consuming it
func (s *RedisStore) Get(ctx context.Context, userID int64) (*entities.PendingSelection, bool) {
	data, err := s.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read pending selection")
		}
		return nil, false
	}

	return s.decode(data, userID)
}

// Pop consumes and returns the selection for a user
func (s *RedisStore) Pop(ctx context.Context, userID int64) (*entities.PendingSelection, bool) {
	data, err := s.client.GetDel(ctx, key(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to pop pending selection")
		}
		return nil, false
	}

	return s.decode(data, userID)
}

func (s *RedisStore) decode(data []byte, userID int64) (*entities.PendingSelection, bool) {
	var sel entities.PendingSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to decode pending selection")
		return nil, false
	}
	return &sel, true
}
