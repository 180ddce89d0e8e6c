package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/resilience"
)

const (
	nominatimBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent   = "BloodBankDeliveryApp/1.0"
	defaultHTTPTimeout = 8 * time.Second
)

// NominatimProvider implements GeolocationProvider using the OpenStreetMap
// Nominatim search API.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// nominatimResult is one entry of the search response
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimProvider creates a new Nominatim geocoding provider
func NewNominatimProvider(userAgent string) providers.GeolocationProvider {
	return NewNominatimProviderWithOptions(nominatimBaseURL, userAgent, nil)
}

// NewNominatimProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewNominatimProviderWithOptions(baseURL, userAgent string, httpClient *http.Client) providers.GeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		breaker:    resilience.NewBreaker("nominatim", resilience.DefaultBreakerSettings()),
	}
}

// Geocode returns the first search result for query
func (p *NominatimProvider) Geocode(ctx context.Context, query, countryCode string) (*entities.Coordinate, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("query is required")
	}

	results, err := resilience.Call(p.breaker, func() ([]nominatimResult, error) {
		return p.search(ctx, trimmed, countryCode)
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, providers.ErrNoGeocodeResults
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", first.Lon, err)
	}

	return &entities.Coordinate{
		Latitude:       lat,
		Longitude:      lon,
		DisplayAddress: first.DisplayName,
	}, nil
}

func (p *NominatimProvider) search(ctx context.Context, query, countryCode string) ([]nominatimResult, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")
	if countryCode != "" {
		params.Set("countrycodes", countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	return results, nil
}
