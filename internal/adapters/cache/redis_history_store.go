package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
)

const historyKeyPrefix = "history:accepted:"

// RedisHistoryStore keeps each bank's accepted-request aggregate as a single
// JSON document.
type RedisHistoryStore struct {
	client *redisclient.Client
}

// NewRedisHistoryStore creates a new Redis-backed history store
func NewRedisHistoryStore(client *redisclient.Client) repositories.AcceptedHistoryRepository {
	return &RedisHistoryStore{client: client}
}

// Get returns the aggregate for bankKey
func (s *RedisHistoryStore) Get(ctx context.Context, bankKey string) (*entities.AcceptedHistory, error) {
	payload, err := s.client.Client().Get(ctx, historyKeyPrefix+bankKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return entities.EmptyHistory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var history entities.AcceptedHistory
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history.Normalize(), nil
}

// Save replaces the aggregate for bankKey
func (s *RedisHistoryStore) Save(ctx context.Context, bankKey string, history *entities.AcceptedHistory) error {
	payload, err := json.Marshal(history.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.client.Client().Set(ctx, historyKeyPrefix+bankKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
