package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

// MapGeocodeCache is an unbounded, mutex-guarded geocode cache that lives
// for the process lifetime.
type MapGeocodeCache struct {
	mu      sync.RWMutex
	entries map[string]entities.Coordinate
}

// NewMapGeocodeCache creates an empty unbounded cache
func NewMapGeocodeCache() *MapGeocodeCache {
	return &MapGeocodeCache{entries: make(map[string]entities.Coordinate)}
}

// Get implements providers.GeocodeCache
func (c *MapGeocodeCache) Get(_ context.Context, key string) (entities.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coord, ok := c.entries[key]
	return coord, ok
}

// Put implements providers.GeocodeCache
func (c *MapGeocodeCache) Put(_ context.Context, key string, coord entities.Coordinate) {
	c.mu.Lock()
	c.entries[key] = coord
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *MapGeocodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LRUGeocodeCache is a bounded geocode cache
type LRUGeocodeCache struct {
	entries *lru.Cache[string, entities.Coordinate]
}

// NewLRUGeocodeCache creates a cache holding at most size coordinates
func NewLRUGeocodeCache(size int) (*LRUGeocodeCache, error) {
	entries, err := lru.New[string, entities.Coordinate](size)
	if err != nil {
		return nil, err
	}
	return &LRUGeocodeCache{entries: entries}, nil
}

// Get implements providers.GeocodeCache
func (c *LRUGeocodeCache) Get(_ context.Context, key string) (entities.Coordinate, bool) {
	return c.entries.Get(key)
}

// Put implements providers.GeocodeCache
func (c *LRUGeocodeCache) Put(_ context.Context, key string, coord entities.Coordinate) {
	c.entries.Add(key, coord)
}

// ProviderGeocodeCache stores coordinates in a shared CacheProvider such as
// Redis so several API instances reuse each other's lookups.
type ProviderGeocodeCache struct {
	cache      providers.CacheProvider
	ttlSeconds int
}

// NewProviderGeocodeCache wraps cache; ttlSeconds of zero keeps entries forever
func NewProviderGeocodeCache(cache providers.CacheProvider, ttlSeconds int) *ProviderGeocodeCache {
	return &ProviderGeocodeCache{cache: cache, ttlSeconds: ttlSeconds}
}

// Get implements providers.GeocodeCache
func (c *ProviderGeocodeCache) Get(ctx context.Context, key string) (entities.Coordinate, bool) {
	payload, err := c.cache.Get(ctx, geocodeKey(key))
	if err != nil || len(payload) == 0 {
		return entities.Coordinate{}, false
	}
	var coord entities.Coordinate
	if err := json.Unmarshal(payload, &coord); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable geocode cache entry")
		return entities.Coordinate{}, false
	}
	return coord, true
}

// Put implements providers.GeocodeCache
func (c *ProviderGeocodeCache) Put(ctx context.Context, key string, coord entities.Coordinate) {
	payload, err := json.Marshal(coord)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, geocodeKey(key), payload, c.ttlSeconds); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to store geocode cache entry")
	}
}

func geocodeKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return "geo:v1:geocode:" + hex.EncodeToString(sum[:])
}

var (
	_ providers.GeocodeCache = (*MapGeocodeCache)(nil)
	_ providers.GeocodeCache = (*LRUGeocodeCache)(nil)
	_ providers.GeocodeCache = (*ProviderGeocodeCache)(nil)
)
