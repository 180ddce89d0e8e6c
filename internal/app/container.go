package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bloodconnect/backend/internal/adapters/cache"
	"github.com/bloodconnect/backend/internal/adapters/database"
	"github.com/bloodconnect/backend/internal/adapters/events"
	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/adapters/providers/geolocation"
	"github.com/bloodconnect/backend/internal/adapters/providers/identity"
	"github.com/bloodconnect/backend/internal/adapters/providers/routing"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/config"
)

// Container holds the wired adapters and services of the delivery API
type Container struct {
	Config *config.Config

	Redis    *redisclient.Client
	Postgres *postgres.Client

	Cache      providers.CacheProvider
	Facilities repositories.FacilityRepository
	History    repositories.AcceptedHistoryRepository
	EventBus   providers.EventBus
	Metrics    *observability.Metrics

	Resolver   *services.LocationResolver
	Matcher    *services.FacilityMatcher
	Planner    *services.RoutePlanner
	Deliveries *services.DeliveryService
	Histories  *services.HistoryService
	Identity   *services.IdentityService
	Sessions   *services.SessionService
}

// Build connects the backends selected by cfg and wires every service.
// Close must be called once the container is no longer used.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Container, error) {
	logger := observability.ComponentLogger("bootstrap")
	c := &Container{Config: cfg, Metrics: metrics}

	if cfg.Redis.Enabled {
		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		c.Redis = client
		logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
	}

	if cfg.Facilities.Source == "postgres" || cfg.History.Backend == "postgres" {
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Postgres = client
	}

	var err error
	if c.Cache, err = c.buildCache(); err != nil {
		c.Close()
		return nil, err
	}
	if c.Facilities, err = c.buildFacilities(); err != nil {
		c.Close()
		return nil, err
	}
	if c.History, err = c.buildHistory(); err != nil {
		c.Close()
		return nil, err
	}
	geocodeCache, err := c.buildGeocodeCache()
	if err != nil {
		c.Close()
		return nil, err
	}

	if c.Redis != nil {
		c.EventBus = events.NewRedisEventBus(c.Redis)
	} else {
		c.EventBus = events.NewMemoryEventBus()
	}

	c.Resolver = services.NewLocationResolver(c.geolocationProvider(), geocodeCache, services.LocationResolverConfig{
		CountryCode:    cfg.Geocoding.CountryCode,
		DefaultCountry: cfg.Geocoding.DefaultCountry,
		DefaultCoordinate: entities.Coordinate{
			Latitude:  cfg.Delivery.DefaultLatitude,
			Longitude: cfg.Delivery.DefaultLongitude,
		},
	}, metrics)

	c.Matcher = services.NewFacilityMatcher(c.Facilities, c.Resolver, services.NewCoordinateMemo(), services.MatcherConfig{
		MaxDistanceMeters:   cfg.Matcher.MaxDistanceMeters,
		PrefilterFactor:     cfg.Matcher.PrefilterFactor,
		MaxCandidates:       cfg.Matcher.MaxCandidates,
		EarlyExitMeters:     cfg.Matcher.EarlyExitMeters,
		ColdStartStopMeters: cfg.Matcher.ColdStartStopMeters,
		BatchSize:           cfg.Matcher.BatchSize,
	})
	c.Planner = services.NewRoutePlanner(c.routingProvider(), metrics)
	c.Deliveries = services.NewDeliveryService(c.History, c.Resolver, c.Matcher, c.Planner, c.EventBus, metrics, services.DeliveryConfig{
		HistoryKey:   cfg.Delivery.HistoryKey,
		RegionHint:   cfg.Delivery.RegionHint,
		RouteTimeout: time.Duration(cfg.Delivery.RouteTimeoutSeconds) * time.Second,
	})
	c.Histories = services.NewHistoryService(c.History)
	c.Identity = services.NewIdentityService(c.identityProvider())
	c.Sessions = services.NewSessionService(c.Cache, time.Duration(cfg.Identity.SessionTTLSeconds)*time.Second)

	logger.Info().
		Str("facilities", cfg.Facilities.Source).
		Str("history", cfg.History.Backend).
		Str("geocode_cache", cfg.Geocoding.CacheBackend).
		Bool("redis", c.Redis != nil).
		Msg("services wired")
	return c, nil
}

// Close releases every connection the container opened
func (c *Container) Close() {
	logger := observability.ComponentLogger("bootstrap")
	if c.EventBus != nil {
		if err := c.EventBus.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event bus")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close Redis client")
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close PostgreSQL client")
		}
	}
}

func (c *Container) buildCache() (providers.CacheProvider, error) {
	if c.Redis != nil {
		return cache.NewRedisAdapter(c.Redis), nil
	}
	return cache.NewMemoryAdapter(c.Config.Geocoding.CacheSize)
}

func (c *Container) buildGeocodeCache() (providers.GeocodeCache, error) {
	switch c.Config.Geocoding.CacheBackend {
	case "memory", "":
		return cache.NewMapGeocodeCache(), nil
	case "lru":
		return cache.NewLRUGeocodeCache(c.Config.Geocoding.CacheSize)
	case "redis":
		if c.Redis == nil {
			return nil, fmt.Errorf("GEOCODING_CACHE=redis requires REDIS_ENABLED=true")
		}
		return cache.NewProviderGeocodeCache(c.Cache, c.Config.Geocoding.CacheTTLSeconds), nil
	default:
		return nil, fmt.Errorf("unknown geocoding cache %q", c.Config.Geocoding.CacheBackend)
	}
}

func (c *Container) buildFacilities() (repositories.FacilityRepository, error) {
	switch c.Config.Facilities.Source {
	case "json", "":
		return database.LoadJSONFacilityDirectory(c.Config.Facilities.DirectoryPath)
	case "postgres":
		return database.NewFacilityAdapter(c.Postgres), nil
	default:
		return nil, fmt.Errorf("unknown facility source %q", c.Config.Facilities.Source)
	}
}

func (c *Container) buildHistory() (repositories.AcceptedHistoryRepository, error) {
	switch c.Config.History.Backend {
	case "memory", "":
		return memory.NewHistoryStore(), nil
	case "redis":
		if c.Redis == nil {
			return nil, fmt.Errorf("HISTORY_BACKEND=redis requires REDIS_ENABLED=true")
		}
		return cache.NewRedisHistoryStore(c.Redis), nil
	case "postgres":
		return database.NewHistoryAdapter(c.Postgres), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", c.Config.History.Backend)
	}
}

func (c *Container) geolocationProvider() providers.GeolocationProvider {
	if c.Config.Geocoding.Provider == "mock" {
		return geolocation.NewMockGeolocationProvider()
	}
	return geolocation.NewNominatimProviderWithOptions(c.Config.Geocoding.BaseURL, c.Config.Geocoding.UserAgent, nil)
}

func (c *Container) routingProvider() providers.RoutingProvider {
	if c.Config.Routing.Provider == "mock" || c.Config.Routing.APIKey == "" {
		if c.Config.Routing.Provider != "mock" {
			observability.ComponentLogger("bootstrap").Warn().Msg("ROUTING_API_KEY is not set; using mock routing provider")
		}
		return routing.NewMockRoutingProvider()
	}
	return routing.NewGraphHopperProviderWithOptions(c.Config.Routing.APIKey, c.Config.Routing.BaseURL, nil)
}

func (c *Container) identityProvider() providers.IdentityProvider {
	if c.Config.Identity.Provider == "firebase" && c.Config.Identity.APIKey != "" {
		return identity.NewFirebaseProviderWithOptions(c.Config.Identity.APIKey, c.Config.Identity.BaseURL, nil)
	}
	return identity.NewMockProvider()
}
