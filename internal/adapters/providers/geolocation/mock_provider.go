package geolocation

import (
	"context"
	"strings"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

// MockGeolocationProvider resolves a fixed set of Indian cities. It is used
// when GEOCODING_PROVIDER=mock and in tests.
type MockGeolocationProvider struct {
	places map[string]entities.Coordinate
}

var defaultMockPlaces = map[string]entities.Coordinate{
	"hyderabad":     {Latitude: 17.3850, Longitude: 78.4867, DisplayAddress: "Hyderabad, Telangana, India"},
	"secunderabad":  {Latitude: 17.4399, Longitude: 78.4983, DisplayAddress: "Secunderabad, Telangana, India"},
	"vijayawada":    {Latitude: 16.5062, Longitude: 80.6480, DisplayAddress: "Vijayawada, Andhra Pradesh, India"},
	"guntur":        {Latitude: 16.3067, Longitude: 80.4365, DisplayAddress: "Guntur, Andhra Pradesh, India"},
	"visakhapatnam": {Latitude: 17.6868, Longitude: 83.2185, DisplayAddress: "Visakhapatnam, Andhra Pradesh, India"},
	"tirupati":      {Latitude: 13.6288, Longitude: 79.4192, DisplayAddress: "Tirupati, Andhra Pradesh, India"},
	"chennai":       {Latitude: 13.0827, Longitude: 80.2707, DisplayAddress: "Chennai, Tamil Nadu, India"},
	"bengaluru":     {Latitude: 12.9716, Longitude: 77.5946, DisplayAddress: "Bengaluru, Karnataka, India"},
	"mumbai":        {Latitude: 19.0760, Longitude: 72.8777, DisplayAddress: "Mumbai, Maharashtra, India"},
	"delhi":         {Latitude: 28.7041, Longitude: 77.1025, DisplayAddress: "Delhi, India"},
}

// NewMockGeolocationProvider creates a mock provider with the default cities
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return NewMockGeolocationProviderWithPlaces(defaultMockPlaces)
}

// NewMockGeolocationProviderWithPlaces creates a mock provider resolving places
func NewMockGeolocationProviderWithPlaces(places map[string]entities.Coordinate) *MockGeolocationProvider {
	normalized := make(map[string]entities.Coordinate, len(places))
	for name, c := range places {
		normalized[strings.ToLower(name)] = c
	}
	return &MockGeolocationProvider{places: normalized}
}

var _ providers.GeolocationProvider = (*MockGeolocationProvider)(nil)

// Geocode matches the first known place name contained in query
func (m *MockGeolocationProvider) Geocode(ctx context.Context, query, _ string) (*entities.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(query)
	var best string
	for name := range m.places {
		// longest name wins, ties by name, so map order never matters
		if !strings.Contains(lower, name) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best == "" {
		return nil, providers.ErrNoGeocodeResults
	}
	c := m.places[best]
	return &c, nil
}
