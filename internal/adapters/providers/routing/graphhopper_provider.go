package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/resilience"
)

const (
	graphHopperBaseURL = "https://graphhopper.com/api/1"
	defaultHTTPTimeout = 15 * time.Second
)

// GraphHopperProvider implements RoutingProvider using the GraphHopper
// Routing API.
type GraphHopperProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type graphHopperResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		Time     float64 `json:"time"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
	} `json:"paths"`
	Message string `json:"message"`
}

// NewGraphHopperProvider creates a new GraphHopper routing provider
func NewGraphHopperProvider(apiKey string) providers.RoutingProvider {
	return NewGraphHopperProviderWithOptions(apiKey, graphHopperBaseURL, nil)
}

// NewGraphHopperProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGraphHopperProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.RoutingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = graphHopperBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GraphHopperProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    resilience.NewBreaker("graphhopper", resilience.DefaultBreakerSettings()),
	}
}

// Route returns the first path GraphHopper computes for mode. A response
// without paths is reported as providers.ErrNoPath.
func (p *GraphHopperProvider) Route(ctx context.Context, from, to entities.Coordinate, mode entities.TravelMode) (*providers.RoutePath, error) {
	vehicle, err := vehicleFor(mode)
	if err != nil {
		return nil, err
	}

	resp, err := resilience.Call(p.breaker, func() (*graphHopperResponse, error) {
		return p.request(ctx, from, to, vehicle)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Paths) == 0 {
		return nil, providers.ErrNoPath
	}

	path := resp.Paths[0]
	points := make([]entities.Coordinate, 0, len(path.Points.Coordinates))
	for _, pt := range path.Points.Coordinates {
		if len(pt) < 2 {
			continue
		}
		// GeoJSON order is [lon, lat]
		points = append(points, entities.Coordinate{Latitude: pt[1], Longitude: pt[0]})
	}

	return &providers.RoutePath{
		DistanceMeters: path.Distance,
		DurationMillis: path.Time,
		Points:         points,
	}, nil
}

func (p *GraphHopperProvider) request(ctx context.Context, from, to entities.Coordinate, vehicle string) (*graphHopperResponse, error) {
	params := url.Values{}
	params.Add("point", fmt.Sprintf("%f,%f", from.Latitude, from.Longitude))
	params.Add("point", fmt.Sprintf("%f,%f", to.Latitude, to.Longitude))
	params.Set("vehicle", vehicle)
	params.Set("locale", "en")
	params.Set("points_encoded", "false")
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/route?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing request failed: %w", err)
	}
	defer httpResp.Body.Close()

	var body graphHopperResponse
	decodeErr := json.NewDecoder(httpResp.Body).Decode(&body)

	// GraphHopper answers 400 when no connection exists between the points
	if httpResp.StatusCode == http.StatusBadRequest && decodeErr == nil {
		return &graphHopperResponse{}, nil
	}
	if httpResp.StatusCode != http.StatusOK {
		if body.Message != "" {
			return nil, fmt.Errorf("routing API returned status %d: %s", httpResp.StatusCode, body.Message)
		}
		return nil, fmt.Errorf("routing API returned status %d", httpResp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode routing response: %w", decodeErr)
	}
	return &body, nil
}

func vehicleFor(mode entities.TravelMode) (string, error) {
	switch mode {
	case entities.TravelModeCar:
		return "car", nil
	case entities.TravelModeBike:
		return "bike", nil
	default:
		return "", fmt.Errorf("travel mode %q is not routable", mode)
	}
}
