package routing

import (
	"context"
	"fmt"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/pkg/geo"
)

// MockRoutingProvider fabricates straight-line routes with a detour factor.
// It is used when ROUTING_PROVIDER=mock.
type MockRoutingProvider struct {
	// DetourFactor multiplies the great-circle distance
	DetourFactor float64
	// SpeedKmh per mode
	SpeedKmh map[entities.TravelMode]float64
}

// NewMockRoutingProvider creates a mock with city-traffic speeds
func NewMockRoutingProvider() *MockRoutingProvider {
	return &MockRoutingProvider{
		DetourFactor: 1.3,
		SpeedKmh: map[entities.TravelMode]float64{
			entities.TravelModeCar:  30,
			entities.TravelModeBike: 15,
		},
	}
}

var _ providers.RoutingProvider = (*MockRoutingProvider)(nil)

// Route implements providers.RoutingProvider
func (m *MockRoutingProvider) Route(ctx context.Context, from, to entities.Coordinate, mode entities.TravelMode) (*providers.RoutePath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	speed, ok := m.SpeedKmh[mode]
	if !ok || speed <= 0 {
		return nil, fmt.Errorf("travel mode %q is not routable", mode)
	}

	distance := geo.HaversineMeters(from.Latitude, from.Longitude, to.Latitude, to.Longitude) * m.DetourFactor
	return &providers.RoutePath{
		DistanceMeters: distance,
		DurationMillis: distance / 1000 / speed * 3600 * 1000,
		Points: []entities.Coordinate{
			{Latitude: from.Latitude, Longitude: from.Longitude},
			{Latitude: to.Latitude, Longitude: to.Longitude},
		},
	}, nil
}
