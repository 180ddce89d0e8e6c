package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
)

func newRedisClient(t *testing.T) (*redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisclient.Wrap(client), mr
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := newRedisClient(t)
	adapter := NewRedisAdapter(client)

	_, err := adapter.Get(ctx, "session:1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "session:1", []byte("agent"), 60))
	got, err := adapter.Get(ctx, "session:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("agent"), got)

	exists, err := adapter.Exists(ctx, "session:1")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(61 * time.Second)
	exists, err = adapter.Exists(ctx, "session:1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, adapter.Delete(ctx, "k"))
	_, err = adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	adapter, err := NewMemoryAdapterWithClock(8, func() time.Time { return now })
	require.NoError(t, err)

	require.NoError(t, adapter.Set(ctx, "a", []byte("1"), 10))
	require.NoError(t, adapter.Set(ctx, "b", []byte("2"), 0))

	got, err := adapter.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	now = now.Add(10 * time.Second)
	_, err = adapter.Get(ctx, "a")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	exists, err := adapter.Exists(ctx, "b")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryAdapter_Evicts(t *testing.T) {
	ctx := context.Background()
	adapter, err := NewMemoryAdapter(2)
	require.NoError(t, err)

	require.NoError(t, adapter.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, adapter.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, adapter.Set(ctx, "c", []byte("3"), 0))

	exists, _ := adapter.Exists(ctx, "a")
	assert.False(t, exists)
}

func TestGeocodeCaches(t *testing.T) {
	ctx := context.Background()
	client, _ := newRedisClient(t)
	lruCache, err := NewLRUGeocodeCache(16)
	require.NoError(t, err)

	caches := map[string]providers.GeocodeCache{
		"map":      NewMapGeocodeCache(),
		"lru":      lruCache,
		"provider": NewProviderGeocodeCache(NewRedisAdapter(client), 0),
	}

	coord := entities.Coordinate{Latitude: 17.385, Longitude: 78.4867, DisplayAddress: "Hyderabad, Telangana, India"}
	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			_, ok := c.Get(ctx, "hyderabad")
			assert.False(t, ok)

			c.Put(ctx, "hyderabad", coord)
			got, ok := c.Get(ctx, "hyderabad")
			require.True(t, ok)
			assert.Equal(t, coord, got)
		})
	}
}

func TestLRUGeocodeCache_Bounded(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUGeocodeCache(1)
	require.NoError(t, err)

	c.Put(ctx, "a", entities.Coordinate{Latitude: 1})
	c.Put(ctx, "b", entities.Coordinate{Latitude: 2})

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}
