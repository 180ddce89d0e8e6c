package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/adapters/cache"
	"github.com/bloodconnect/backend/internal/adapters/events"
	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/pkg/config"
)

const directory = `{
  "Telangana": [
    {"name": "Chiranjeevi Blood Bank", "district": "Hyderabad", "location": "Jubilee Hills, Hyderabad",
     "blood_groups_available": ["O+"], "availability": "Available", "last_updated": "2025-01-10"}
  ]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blood_banks.json")
	require.NoError(t, os.WriteFile(path, []byte(directory), 0o600))

	return &config.Config{
		Environment: "test",
		Geocoding: config.GeocodingConfig{
			Provider:       "mock",
			CountryCode:    "in",
			DefaultCountry: "India",
			CacheBackend:   "memory",
			CacheSize:      16,
		},
		Routing: config.RoutingConfig{Provider: "mock"},
		Matcher: config.MatcherConfig{
			MaxDistanceMeters:   10000,
			PrefilterFactor:     1.5,
			MaxCandidates:       30,
			EarlyExitMeters:     2000,
			ColdStartStopMeters: 5000,
			BatchSize:           5,
		},
		Delivery: config.DeliveryConfig{
			DefaultLatitude:     17.3850,
			DefaultLongitude:    78.4867,
			RouteTimeoutSeconds: 5,
			HistoryKey:          "default",
		},
		Facilities: config.FacilitiesConfig{Source: "json", DirectoryPath: path},
		History:    config.HistoryConfig{Backend: "memory"},
		Identity:   config.IdentityConfig{Provider: "mock", SessionTTLSeconds: 60},
	}
}

func TestBuild_InMemory(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Postgres)
	assert.IsType(t, &events.MemoryEventBus{}, c.EventBus)
	assert.IsType(t, &memory.HistoryStore{}, c.History)

	facilities, err := c.Facilities.List(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 1)

	match, err := c.Matcher.FindNearest(ctx, entities.Coordinate{Latitude: 17.4399, Longitude: 78.4983}, "O+")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Chiranjeevi Blood Bank", match.Facility.Name)

	plan, err := c.Planner.Plan(ctx,
		entities.Coordinate{Latitude: 17.4399, Longitude: 78.4983},
		entities.Coordinate{Latitude: 17.3850, Longitude: 78.4867},
	)
	require.NoError(t, err)
	assert.Greater(t, plan.Car.DistanceMeters, 0.0)
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Redis = config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
	cfg.History.Backend = "redis"
	cfg.Geocoding.CacheBackend = "redis"

	c, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Redis)
	assert.IsType(t, &events.RedisEventBus{}, c.EventBus)
	assert.IsType(t, &cache.RedisAdapter{}, c.Cache)
	assert.IsType(t, &cache.RedisHistoryStore{}, c.History)

	session, err := c.Sessions.Start(context.Background(), "agent-1", "Ravi")
	require.NoError(t, err)
	assert.True(t, mr.Exists(sessionKeyFor(t, mr, session.ID)))
}

// sessionKeyFor finds the Redis key holding session id
func sessionKeyFor(t *testing.T, mr *miniredis.Miniredis, id string) string {
	t.Helper()
	for _, key := range mr.Keys() {
		if strings.HasSuffix(key, id) {
			return key
		}
	}
	t.Fatalf("no key for session %s in %v", id, mr.Keys())
	return ""
}

func TestBuild_RejectsInvalidSelections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown facility source", func(c *config.Config) { c.Facilities.Source = "csv" }},
		{"unknown history backend", func(c *config.Config) { c.History.Backend = "sqlite" }},
		{"unknown geocode cache", func(c *config.Config) { c.Geocoding.CacheBackend = "disk" }},
		{"redis history without redis", func(c *config.Config) { c.History.Backend = "redis" }},
		{"redis geocode cache without redis", func(c *config.Config) { c.Geocoding.CacheBackend = "redis" }},
		{"missing directory", func(c *config.Config) { c.Facilities.DirectoryPath = "/nonexistent/blood_banks.json" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			c, err := Build(context.Background(), cfg, nil)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}
