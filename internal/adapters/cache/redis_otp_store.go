package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
)

const otpKeyPrefix = "otp:"

// RedisOTPStore keeps outstanding codes in Redis so several OTP instances
// can share them. Entries expire on their own after the TTL passed to Save.
type RedisOTPStore struct {
	client *redisclient.Client
}

// NewRedisOTPStore creates a new Redis-backed OTP store
func NewRedisOTPStore(client *redisclient.Client) repositories.OTPRepository {
	return &RedisOTPStore{client: client}
}

// Get returns nil, nil when no code is outstanding
func (s *RedisOTPStore) Get(ctx context.Context, identifier string) (*entities.OTPEntry, error) {
	payload, err := s.client.Client().Get(ctx, otpKeyPrefix+identifier).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read otp entry: %w", err)
	}

	var entry entities.OTPEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode otp entry: %w", err)
	}
	return &entry, nil
}

// Save stores entry for ttl
func (s *RedisOTPStore) Save(ctx context.Context, identifier string, entry *entities.OTPEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode otp entry: %w", err)
	}
	if err := s.client.Client().Set(ctx, otpKeyPrefix+identifier, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write otp entry: %w", err)
	}
	return nil
}

// Delete removes the entry for identifier
func (s *RedisOTPStore) Delete(ctx context.Context, identifier string) error {
	if err := s.client.Client().Del(ctx, otpKeyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("failed to delete otp entry: %w", err)
	}
	return nil
}
