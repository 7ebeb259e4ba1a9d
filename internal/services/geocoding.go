package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"local-events-aggregator/internal/models"
)

const mapboxBaseURL = "https://api.mapbox.com"

// MapboxClient resolves free-text addresses to coordinates and coordinates
// back to city names using the Mapbox Geocoding API.
type MapboxClient struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// Suggestion is one geocoding candidate. Center is [longitude, latitude],
// matching the upstream's GeoJSON ordering.
type Suggestion struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
	Text      string    `json:"text"`
	PlaceType []string  `json:"place_type"`
}

type mapboxResponse struct {
	Features []Suggestion `json:"features"`
}

// NewMapboxClient creates a client using the MAPBOX_TOKEN environment
// variable.
func NewMapboxClient() *MapboxClient {
	return &MapboxClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      os.Getenv("MAPBOX_TOKEN"),
		baseURL:    mapboxBaseURL,
	}
}

// NewMapboxClientWithConfig creates a client with an explicit token and base
// URL, used by tests to point at a fixture server.
func NewMapboxClientWithConfig(token, baseURL string) *MapboxClient {
	return &MapboxClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    baseURL,
	}
}

// SearchLocations returns geocoding candidates for a free-text query, best
// match first. An empty query returns no candidates.
func (m *MapboxClient) SearchLocations(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if m.token == "" {
		return nil, fmt.Errorf("mapbox: missing MAPBOX_TOKEN")
	}

	params := url.Values{}
	params.Set("access_token", m.token)
	params.Set("types", "place,locality,neighborhood,address,poi")

	requestURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		m.baseURL, url.PathEscape(query), params.Encode())

	features, err := m.fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	return features, nil
}

// Resolve geocodes a free-text address to coordinates using the first
// candidate. Returns nil (not an error) when nothing matches; callers drop
// events whose location cannot be resolved.
func (m *MapboxClient) Resolve(ctx context.Context, address string) (*models.Location, error) {
	suggestions, err := m.SearchLocations(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 || len(suggestions[0].Center) < 2 {
		return nil, nil
	}

	first := suggestions[0]
	return &models.Location{
		Address:   first.PlaceName,
		Latitude:  first.Center[1],
		Longitude: first.Center[0],
	}, nil
}

// ResolveCity reverse-geocodes a coordinate pair to a "City State" string for
// upstreams that want a text query. Falls back to "lat,lng" when no feature
// matches.
func (m *MapboxClient) ResolveCity(ctx context.Context, latitude, longitude float64) (string, error) {
	if m.token == "" {
		return "", fmt.Errorf("mapbox: missing MAPBOX_TOKEN")
	}

	params := url.Values{}
	params.Set("access_token", m.token)

	requestURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%g,%g.json?%s",
		m.baseURL, longitude, latitude, params.Encode())

	features, err := m.fetch(ctx, requestURL)
	if err != nil {
		return "", err
	}

	var city, state string
	for _, feature := range features {
		for _, placeType := range feature.PlaceType {
			switch placeType {
			case "place", "locality":
				if city == "" {
					city = feature.Text
				}
			case "region":
				if state == "" {
					state = feature.Text
				}
			}
		}
	}

	name := strings.TrimSpace(city + " " + state)
	if name == "" {
		return fmt.Sprintf("%g,%g", latitude, longitude), nil
	}
	return name, nil
}

func (m *MapboxClient) fetch(ctx context.Context, requestURL string) ([]Suggestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("mapbox: failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mapbox: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapbox: unexpected status %d", resp.StatusCode)
	}

	var parsed mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("mapbox: failed to decode response: %w", err)
	}

	return parsed.Features, nil
}
