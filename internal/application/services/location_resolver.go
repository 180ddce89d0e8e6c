package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

// LocationResolverConfig controls how free text is turned into a query
type LocationResolverConfig struct {
	CountryCode       string
	DefaultCountry    string
	DefaultCoordinate entities.Coordinate
}

// LocationResolver turns free-text locations into coordinates, consulting the
// geocode cache before the geolocation provider.
type LocationResolver struct {
	provider providers.GeolocationProvider
	cache    providers.GeocodeCache
	cfg      LocationResolverConfig
	metrics  *observability.Metrics
}

// NewLocationResolver creates a new location resolver
func NewLocationResolver(provider providers.GeolocationProvider, cache providers.GeocodeCache, cfg LocationResolverConfig, metrics *observability.Metrics) *LocationResolver {
	return &LocationResolver{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// NormalizeLocationKey is the cache key for text
func NormalizeLocationKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Resolve returns the coordinate for text. Blank text is a validation error;
// anything the provider cannot answer is NOT_FOUND. Failures are never
// retried and never cached.
func (r *LocationResolver) Resolve(ctx context.Context, text string) (entities.Coordinate, error) {
	ctx, span := observability.StartSpan(ctx, "LocationResolver.Resolve")
	defer span.End()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return entities.Coordinate{}, apperrors.NewValidationError("location text is required")
	}

	key := NormalizeLocationKey(trimmed)
	if r.cache != nil {
		if c, ok := r.cache.Get(ctx, key); ok {
			observability.RecordGeocodeCache(ctx, r.metrics, true)
			observability.SetSpanAttributes(span, attribute.Bool("geocode.cache_hit", true))
			return c, nil
		}
		observability.RecordGeocodeCache(ctx, r.metrics, false)
	}

	query := r.query(trimmed)
	start := time.Now()
	c, err := r.provider.Geocode(ctx, query, r.cfg.CountryCode)
	observability.RecordUpstreamMetric(ctx, r.metrics, "geocoding", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("query", query).Msg("geocoding failed")
		return entities.Coordinate{}, &apperrors.AppError{
			Type:    apperrors.ErrorTypeNotFound,
			Message: "location not found: " + trimmed,
			Err:     err,
		}
	}
	if c == nil {
		return entities.Coordinate{}, apperrors.NewNotFoundError("location not found: " + trimmed)
	}

	if r.cache != nil {
		r.cache.Put(ctx, key, *c)
	}
	return *c, nil
}

// query appends the default country when the text names neither a region
// (no comma) nor the country itself.
func (r *LocationResolver) query(trimmed string) string {
	country := r.cfg.DefaultCountry
	if country == "" || strings.Contains(trimmed, ",") {
		return trimmed
	}
	if strings.Contains(strings.ToLower(trimmed), strings.ToLower(country)) {
		return trimmed
	}
	return trimmed + ", " + country
}

// ResolveWithFallback tries text, then text qualified with the default
// country, then each hint in order. When everything fails the default
// coordinate is returned as Defaulted.
func (r *LocationResolver) ResolveWithFallback(ctx context.Context, text string, hints ...string) entities.LocationResolution {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return entities.Defaulted(r.cfg.DefaultCoordinate, "no location given")
	}

	candidates := []string{trimmed}
	if r.cfg.DefaultCountry != "" && !strings.Contains(strings.ToLower(trimmed), strings.ToLower(r.cfg.DefaultCountry)) {
		// comma-free text is already qualified by query
		if qualified := trimmed + ", " + r.cfg.DefaultCountry; r.query(trimmed) != qualified {
			candidates = append(candidates, qualified)
		}
	}
	for _, hint := range hints {
		if hint = strings.TrimSpace(hint); hint != "" {
			candidates = append(candidates, hint)
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		c, err := r.Resolve(ctx, candidate)
		if err == nil {
			return entities.Resolved(c, candidate)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	reason := "location could not be resolved"
	if lastErr != nil {
		reason = apperrors.MessageOf(lastErr, reason)
	}
	observability.LoggerFromContext(ctx).Warn().
		Str("location", trimmed).
		Str("reason", reason).
		Msg("using default coordinate")
	return entities.Defaulted(r.cfg.DefaultCoordinate, reason)
}
