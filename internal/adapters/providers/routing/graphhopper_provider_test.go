package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

var (
	origin      = entities.Coordinate{Latitude: 17.385, Longitude: 78.4867}
	destination = entities.Coordinate{Latitude: 17.4399, Longitude: 78.4983}
)

func TestGraphHopperProvider_Route(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/route", r.URL.Path)
		assert.Equal(t, []string{"17.385000,78.486700", "17.439900,78.498300"}, q["point"])
		assert.Equal(t, "bike", q.Get("vehicle"))
		assert.Equal(t, "en", q.Get("locale"))
		assert.Equal(t, "false", q.Get("points_encoded"))
		assert.Equal(t, "secret", q.Get("key"))

		_, _ = w.Write([]byte(`{"paths":[{"distance":7421.5,"time":1780000,"points":{"coordinates":[[78.4867,17.385],[78.4983,17.4399]]}}]}`))
	}))
	defer server.Close()

	provider := NewGraphHopperProviderWithOptions("secret", server.URL, server.Client())
	path, err := provider.Route(context.Background(), origin, destination, entities.TravelModeBike)
	require.NoError(t, err)

	assert.Equal(t, 7421.5, path.DistanceMeters)
	assert.Equal(t, 1780000.0, path.DurationMillis)
	require.Len(t, path.Points, 2)
	assert.Equal(t, 17.385, path.Points[0].Latitude)
	assert.Equal(t, 78.4867, path.Points[0].Longitude)
}

func TestGraphHopperProvider_NoPath(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty paths", http.StatusOK, `{"paths":[]}`},
		{"connection not found", http.StatusBadRequest, `{"message":"Connection between locations not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewGraphHopperProviderWithOptions("", server.URL, server.Client())
			_, err := provider.Route(context.Background(), origin, destination, entities.TravelModeCar)
			assert.ErrorIs(t, err, providers.ErrNoPath)
		})
	}
}

func TestGraphHopperProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal"}`))
	}))
	defer server.Close()

	provider := NewGraphHopperProviderWithOptions("", server.URL, server.Client())
	_, err := provider.Route(context.Background(), origin, destination, entities.TravelModeCar)
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrNoPath)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGraphHopperProvider_AirIsNotRoutable(t *testing.T) {
	provider := NewGraphHopperProviderWithOptions("", "http://127.0.0.1:0", nil)
	_, err := provider.Route(context.Background(), origin, destination, entities.TravelModeAir)
	assert.Error(t, err)
}

func TestMockRoutingProvider(t *testing.T) {
	provider := NewMockRoutingProvider()

	car, err := provider.Route(context.Background(), origin, destination, entities.TravelModeCar)
	require.NoError(t, err)
	bike, err := provider.Route(context.Background(), origin, destination, entities.TravelModeBike)
	require.NoError(t, err)

	assert.Equal(t, car.DistanceMeters, bike.DistanceMeters)
	assert.InDelta(t, car.DurationMillis*2, bike.DurationMillis, 1e-6)
}
