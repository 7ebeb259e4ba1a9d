package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"local-events-aggregator/internal/models"
)

const realTimeBaseURL = "https://real-time-events-search.p.rapidapi.com"

// CityResolver reverse-geocodes a coordinate pair to a "City State" string.
// The real-time search upstream wants a text query, not raw coordinates.
type CityResolver interface {
	ResolveCity(ctx context.Context, latitude, longitude float64) (string, error)
}

// RealTimeAdapter searches the RapidAPI real-time events aggregator.
type RealTimeAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	resolver   CityResolver
}

// NewRealTimeAdapter creates an adapter using the RAPIDAPI_KEY environment
// variable. The resolver may be nil; the raw coordinates are used as the
// query text when it is.
func NewRealTimeAdapter(resolver CityResolver) *RealTimeAdapter {
	return &RealTimeAdapter{
		httpClient: newHTTPClient(),
		apiKey:     os.Getenv("RAPIDAPI_KEY"),
		baseURL:    realTimeBaseURL,
		resolver:   resolver,
	}
}

// NewRealTimeAdapterWithConfig creates an adapter with an explicit key and
// base URL, used by tests to point at a fixture server.
func NewRealTimeAdapterWithConfig(apiKey, baseURL string, resolver CityResolver) *RealTimeAdapter {
	return &RealTimeAdapter{
		httpClient: newHTTPClient(),
		apiKey:     apiKey,
		baseURL:    baseURL,
		resolver:   resolver,
	}
}

// Name returns the provenance tag this adapter stamps on events.
func (r *RealTimeAdapter) Name() string {
	return models.SourceRealTime
}

type realTimeResponse struct {
	Data []realTimeEvent `json:"data"`
}

type realTimeEvent struct {
	EventID     string   `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartTime   string   `json:"start_time"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
	Venue       struct {
		Name      string `json:"name"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		Address   string `json:"address"`
	} `json:"venue"`
	TicketLinks []struct {
		Link string `json:"link"`
	} `json:"ticket_links"`
}

// Search fetches events near the given coordinates, querying by the resolved
// city name.
func (r *RealTimeAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("realtime: missing RAPIDAPI_KEY")
	}

	radius := params.Radius
	if radius <= 0 {
		radius = 50
	}

	searchQuery := r.buildQuery(ctx, params)

	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("lat", fmt.Sprintf("%g", params.Latitude))
	query.Set("lon", fmt.Sprintf("%g", params.Longitude))
	query.Set("radius", fmt.Sprintf("%d", int(radius)))
	query.Set("unit", "mi")
	query.Set("date", "any")
	query.Set("is_virtual", "false")
	query.Set("start", "0")
	query.Set("size", "100")

	requestURL := fmt.Sprintf("%s/search-events?%s", r.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("realtime: failed to create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", r.apiKey)
	req.Header.Set("X-RapidAPI-Host", "real-time-events-search.p.rapidapi.com")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("realtime: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("realtime: unexpected status %d", resp.StatusCode)
	}

	var parsed realTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("realtime: failed to decode response: %w", err)
	}

	events := make([]models.Event, 0, len(parsed.Data))
	for _, record := range parsed.Data {
		if event := r.mapEvent(record); event != nil {
			events = append(events, *event)
		}
	}

	log.Printf("realtime: mapped %d of %d records (query %q)", len(events), len(parsed.Data), searchQuery)
	return events, nil
}

// buildQuery turns the coordinates into a text query, preferring the caller's
// keyword and falling back to the reverse-geocoded city. Resolver failures
// degrade to raw coordinates rather than failing the search.
func (r *RealTimeAdapter) buildQuery(ctx context.Context, params models.SearchParams) string {
	keyword := params.Keyword
	if keyword == "" {
		keyword = "Events"
	}

	if r.resolver == nil {
		return fmt.Sprintf("%s in %g,%g", keyword, params.Latitude, params.Longitude)
	}

	city, err := r.resolver.ResolveCity(ctx, params.Latitude, params.Longitude)
	if err != nil || city == "" {
		log.Printf("realtime: reverse geocode failed, using raw coordinates: %v", err)
		return fmt.Sprintf("%s in %g,%g", keyword, params.Latitude, params.Longitude)
	}

	return fmt.Sprintf("%s in %s", keyword, city)
}

func (r *RealTimeAdapter) mapEvent(record realTimeEvent) *models.Event {
	latitude, longitude, ok := parseCoordinatePair(record.Venue.Latitude, record.Venue.Longitude)
	if !ok {
		return nil
	}

	title := record.Name
	if title == "" {
		title = "Untitled Event"
	}

	date := "Date TBA"
	timeStr := "Time TBA"
	if start, err := time.Parse(time.RFC3339, record.StartTime); err == nil {
		date = start.Format(models.ISODateFormat)
		timeStr = start.Format("3:04 PM")
	} else if start, err := time.ParseInLocation("2006-01-02 15:04:05", record.StartTime, time.Local); err == nil {
		date = start.Format(models.ISODateFormat)
		timeStr = start.Format("3:04 PM")
	}

	categories := make([]string, 0, len(record.Tags))
	for _, tag := range record.Tags {
		if tag == "" {
			continue
		}
		categories = append(categories, strings.ToUpper(tag[:1])+tag[1:])
	}
	if len(categories) == 0 {
		categories = []string{"Other"}
	}

	id := record.EventID
	if id == "" {
		id = uuid.NewString()
	}

	ticketURL := ""
	if len(record.TicketLinks) > 0 {
		ticketURL = record.TicketLinks[0].Link
	}

	address := record.Venue.Address
	if address == "" {
		address = "Location TBA"
	}

	event := models.Event{
		ID:          "rt-" + id,
		Title:       title,
		Description: record.Description,
		Date:        date,
		Time:        timeStr,
		Venue:       record.Venue.Name,
		Location: models.Location{
			Address: address,
		},
		Categories: categories,
		Category:   InferCategory(title, record.Description+" "+strings.Join(record.Tags, " ")),
		Source:     models.SourceRealTime,
		Price:      nil, // this upstream never reports a usable price
		URL:        ticketURL,
		Image:      record.Thumbnail,
	}
	event.SetCoordinates(latitude, longitude)

	return &event
}
