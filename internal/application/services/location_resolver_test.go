package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/adapters/cache"
	"github.com/bloodconnect/backend/internal/adapters/providers/geolocation"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

func resolverConfig() services.LocationResolverConfig {
	return services.LocationResolverConfig{
		CountryCode:       "in",
		DefaultCountry:    "India",
		DefaultCoordinate: hyderabad,
	}
}

func TestLocationResolver_BlankTextIsValidationError(t *testing.T) {
	provider := new(mockGeolocationProvider)
	resolver := services.NewLocationResolver(provider, cache.NewMapGeocodeCache(), resolverConfig(), nil)

	_, err := resolver.Resolve(context.Background(), "   ")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocationResolver_CachesByNormalizedText(t *testing.T) {
	provider := new(mockGeolocationProvider)
	guntur := &entities.Coordinate{Latitude: 16.3067, Longitude: 80.4365}
	provider.On("Geocode", mock.Anything, "Guntur, India", "in").Return(guntur, nil).Once()

	resolver := services.NewLocationResolver(provider, cache.NewMapGeocodeCache(), resolverConfig(), nil)

	first, err := resolver.Resolve(context.Background(), "Guntur")
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "  GUNTUR ")
	require.NoError(t, err)

	assert.Equal(t, *guntur, first)
	assert.Equal(t, first, second)
	provider.AssertExpectations(t)
}

func TestLocationResolver_QualifiedTextIsSentAsIs(t *testing.T) {
	provider := new(mockGeolocationProvider)
	c := &entities.Coordinate{Latitude: 16.5, Longitude: 80.6}
	provider.On("Geocode", mock.Anything, "Benz Circle, Vijayawada", "in").Return(c, nil).Once()
	provider.On("Geocode", mock.Anything, "Vijayawada India", "in").Return(c, nil).Once()

	resolver := services.NewLocationResolver(provider, nil, resolverConfig(), nil)

	_, err := resolver.Resolve(context.Background(), "Benz Circle, Vijayawada")
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), "Vijayawada India")
	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestLocationResolver_FailuresAreNotFoundAndNotCached(t *testing.T) {
	provider := new(mockGeolocationProvider)
	provider.On("Geocode", mock.Anything, "Atlantis, India", "in").
		Return(nil, providers.ErrNoGeocodeResults).Twice()

	resolver := services.NewLocationResolver(provider, cache.NewMapGeocodeCache(), resolverConfig(), nil)

	for i := 0; i < 2; i++ {
		_, err := resolver.Resolve(context.Background(), "Atlantis")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.True(t, errors.Is(err, providers.ErrNoGeocodeResults))
	}
	provider.AssertExpectations(t)
}

func TestLocationResolver_FallbackUsesHints(t *testing.T) {
	resolver := services.NewLocationResolver(geolocation.NewMockGeolocationProvider(), cache.NewMapGeocodeCache(), resolverConfig(), nil)

	res := resolver.ResolveWithFallback(context.Background(), "Plot 12, Unknown Colony", "Guntur, Andhra Pradesh")

	require.True(t, res.OK())
	assert.Equal(t, entities.ResolutionResolved, res.Kind)
	assert.Equal(t, "Guntur, Andhra Pradesh", res.Query)
	assert.InDelta(t, 16.3067, res.Coordinate.Latitude, 1e-9)
}

func TestLocationResolver_FallbackDefaultsWhenNothingResolves(t *testing.T) {
	resolver := services.NewLocationResolver(geolocation.NewMockGeolocationProvider(), nil, resolverConfig(), nil)

	res := resolver.ResolveWithFallback(context.Background(), "Unknown Colony")

	require.True(t, res.OK())
	assert.Equal(t, entities.ResolutionDefaulted, res.Kind)
	assert.Equal(t, hyderabad, *res.Coordinate)
	assert.Contains(t, res.Reason, "location not found")
}

func TestLocationResolver_FallbackQueriesCountryQualifiedTextOnce(t *testing.T) {
	provider := new(mockGeolocationProvider)
	guntur := &entities.Coordinate{Latitude: 16.3067, Longitude: 80.4365}
	provider.On("Geocode", mock.Anything, "Atlantis, India", "in").Return(nil, errors.New("no results"))
	provider.On("Geocode", mock.Anything, "Guntur, India", "in").Return(guntur, nil)
	resolver := services.NewLocationResolver(provider, nil, resolverConfig(), nil)

	res := resolver.ResolveWithFallback(context.Background(), "Atlantis", "Guntur")

	assert.Equal(t, entities.ResolutionResolved, res.Kind)
	assert.Equal(t, "Guntur", res.Query)
	provider.AssertNumberOfCalls(t, "Geocode", 2)
	provider.AssertExpectations(t)
}
