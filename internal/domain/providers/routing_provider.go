package providers

import (
	"context"
	"errors"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// ErrNoPath is returned when the routing service has no path between two points
var ErrNoPath = errors.New("no route found")

// RoutePath is a single path returned by a routing service
type RoutePath struct {
	DistanceMeters float64
	DurationMillis float64
	Points         []entities.Coordinate
}

// RoutingProvider defines the interface for routing services
type RoutingProvider interface {
	// Route returns the path between from and to for mode (car or bike)
	Route(ctx context.Context, from, to entities.Coordinate, mode entities.TravelMode) (*RoutePath, error)
}
