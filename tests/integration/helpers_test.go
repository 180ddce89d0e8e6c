//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/adapters/database"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/config"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Enabled:  true,
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func testDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "bloodconnect_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// newTestPostgresClient connects to the test database and applies the migrations
func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := testDatabaseConfig()
	require.NoError(t, database.Migrate(cfg.DatabaseURL(), 0, false, observability.ComponentLogger("migrate")))

	client, err := postgres.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}
