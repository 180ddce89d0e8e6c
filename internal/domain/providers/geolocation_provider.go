package providers

import (
	"context"
	"errors"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// ErrNoGeocodeResults is returned when the geocoding service answered but
// found nothing for the query
var ErrNoGeocodeResults = errors.New("no geocoding results")

// GeolocationProvider defines the interface for geocoding services
type GeolocationProvider interface {
	// Geocode resolves free text to the first matching coordinate, restricted
	// to countryCode when it is not empty
	Geocode(ctx context.Context, query, countryCode string) (*entities.Coordinate, error)
}

// GeocodeCache stores resolved coordinates by normalized location text
type GeocodeCache interface {
	Get(ctx context.Context, key string) (entities.Coordinate, bool)
	Put(ctx context.Context, key string, c entities.Coordinate)
}
