package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

type mockGeolocationProvider struct {
	mock.Mock
}

func (m *mockGeolocationProvider) Geocode(ctx context.Context, query, countryCode string) (*entities.Coordinate, error) {
	args := m.Called(ctx, query, countryCode)
	c, _ := args.Get(0).(*entities.Coordinate)
	return c, args.Error(1)
}

type mockRoutingProvider struct {
	mock.Mock
}

func (m *mockRoutingProvider) Route(ctx context.Context, from, to entities.Coordinate, mode entities.TravelMode) (*providers.RoutePath, error) {
	args := m.Called(ctx, from, to, mode)
	p, _ := args.Get(0).(*providers.RoutePath)
	return p, args.Error(1)
}

// staticFacilities is a fixed facility directory
type staticFacilities []*entities.Facility

func (s staticFacilities) List(context.Context) ([]*entities.Facility, error) {
	return s, nil
}

func (s staticFacilities) ListEligible(_ context.Context, category string) ([]*entities.Facility, error) {
	var out []*entities.Facility
	for _, f := range s {
		if f.Eligible(category) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s staticFacilities) GetByID(_ context.Context, id string) (*entities.Facility, error) {
	for _, f := range s {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, apperrors.NewNotFoundError("facility not found")
}

// countingGeocoder resolves facility queries from a fixed table
type countingGeocoder struct {
	mu     sync.Mutex
	coords map[string]entities.Coordinate
	calls  int
}

func (g *countingGeocoder) Resolve(_ context.Context, text string) (entities.Coordinate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	c, ok := g.coords[text]
	if !ok {
		return entities.Coordinate{}, apperrors.NewNotFoundError("location not found: " + text)
	}
	return c, nil
}

func (g *countingGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recordingSender captures the codes it is asked to send
type recordingSender struct {
	mu      sync.Mutex
	channel entities.OTPChannel
	codes   map[string]string
	err     error
}

func newRecordingSender(channel entities.OTPChannel) *recordingSender {
	return &recordingSender{channel: channel, codes: make(map[string]string)}
}

func (s *recordingSender) Channel() entities.OTPChannel { return s.channel }

func (s *recordingSender) Supports(string) bool { return true }

func (s *recordingSender) Send(_ context.Context, identifier, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.codes[identifier] = code
	return nil
}

func (s *recordingSender) Code(identifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[identifier]
}

// offset returns a coordinate north of origin by about meters
func offset(origin entities.Coordinate, meters float64) entities.Coordinate {
	return entities.Coordinate{
		Latitude:  origin.Latitude + meters/111194.93,
		Longitude: origin.Longitude,
	}
}

var hyderabad = entities.Coordinate{Latitude: 17.3850, Longitude: 78.4867}

func facility(id string, categories ...string) *entities.Facility {
	return &entities.Facility{
		ID:                id,
		Name:              "Blood Bank " + id,
		Address:           "address-" + id,
		OfferedCategories: categories,
		Availability:      entities.AvailabilityAvailable,
	}
}
