package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"local-events-aggregator/internal/models"
)

const serpapiBaseURL = "https://serpapi.com"

// mapCoordinatesPattern extracts the !3d<lat>!4d<lon> pair embedded in the
// event's Google Maps link; it is the only coordinate source this upstream
// exposes.
var mapCoordinatesPattern = regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)

// GoogleEventsAdapter searches Google Events through the SerpAPI scraper.
type GoogleEventsAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewGoogleEventsAdapter creates an adapter using the SERPAPI_KEY environment
// variable.
func NewGoogleEventsAdapter() *GoogleEventsAdapter {
	return &GoogleEventsAdapter{
		httpClient: newHTTPClient(),
		apiKey:     os.Getenv("SERPAPI_KEY"),
		baseURL:    serpapiBaseURL,
	}
}

// NewGoogleEventsAdapterWithConfig creates an adapter with an explicit key and
// base URL, used by tests to point at a fixture server.
func NewGoogleEventsAdapterWithConfig(apiKey, baseURL string) *GoogleEventsAdapter {
	return &GoogleEventsAdapter{
		httpClient: newHTTPClient(),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Name returns the provenance tag this adapter stamps on events.
func (g *GoogleEventsAdapter) Name() string {
	return models.SourceGoogle
}

type googleEventsResponse struct {
	EventsResults []googleEvent `json:"events_results"`
	Error         string        `json:"error"`
}

type googleEvent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        struct {
		When string `json:"when"`
	} `json:"date"`
	Address          []string `json:"address"`
	Thumbnail        string   `json:"thumbnail"`
	EventLocationMap struct {
		SerpapiLink string `json:"serpapi_link"`
	} `json:"event_location_map"`
	TicketInfo []struct {
		Link string `json:"link"`
	} `json:"ticket_info"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
}

// Search fetches the Google Events SERP for the given coordinates.
func (g *GoogleEventsAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google-events: missing SERPAPI_KEY")
	}

	keyword := params.Keyword
	if keyword == "" {
		keyword = "events"
	}

	query := url.Values{}
	query.Set("engine", "google_events")
	query.Set("q", fmt.Sprintf("Events in %s", keyword))
	query.Set("hl", "en")
	query.Set("gl", "us")
	query.Set("api_key", g.apiKey)
	query.Set("location", fmt.Sprintf("%g,%g", params.Latitude, params.Longitude))
	query.Set("num", "20")

	requestURL := fmt.Sprintf("%s/search.json?%s", g.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google-events: failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google-events: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google-events: unexpected status %d", resp.StatusCode)
	}

	var parsed googleEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("google-events: failed to decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("google-events: upstream error: %s", parsed.Error)
	}

	events := make([]models.Event, 0, len(parsed.EventsResults))
	for _, record := range parsed.EventsResults {
		if event := g.mapEvent(record); event != nil {
			events = append(events, *event)
		}
	}

	log.Printf("google-events: mapped %d of %d records", len(events), len(parsed.EventsResults))
	return events, nil
}

func (g *GoogleEventsAdapter) mapEvent(record googleEvent) *models.Event {
	match := mapCoordinatesPattern.FindStringSubmatch(record.EventLocationMap.SerpapiLink)
	if match == nil {
		return nil
	}
	latitude, latErr := strconv.ParseFloat(match[1], 64)
	longitude, lonErr := strconv.ParseFloat(match[2], 64)
	if latErr != nil || lonErr != nil || (latitude == 0 && longitude == 0) {
		return nil
	}

	// The SERP "when" string looks like "Sat, Jun 14, 7 – 10 PM"; the first
	// comma-separated chunk after the weekday carries the calendar date.
	date, timeStr := splitGoogleWhen(record.Date.When)

	category := InferCategory(record.Title, record.Description)

	ticketURL := ""
	if len(record.TicketInfo) > 0 {
		ticketURL = record.TicketInfo[0].Link
	}

	venue := record.Venue.Name
	if venue == "" && len(record.Address) > 0 {
		venue = record.Address[0]
	}

	event := models.Event{
		ID:          "google-" + uuid.NewString(),
		Title:       record.Title,
		Description: record.Description,
		Date:        date,
		Time:        timeStr,
		Venue:       venue,
		Location: models.Location{
			Address: joinAddressParts(record.Address...),
		},
		Categories: []string{category},
		Category:   category,
		Source:     models.SourceGoogle,
		Price:      nil, // the SERP never carries a structured price
		URL:        ticketURL,
		Image:      record.Thumbnail,
	}
	event.SetCoordinates(latitude, longitude)

	return &event
}

// splitGoogleWhen separates a SERP "when" string into date and time parts,
// normalizing the date where it parses.
func splitGoogleWhen(when string) (string, string) {
	when = strings.TrimSpace(when)
	if when == "" {
		return "Date TBA", "Time TBA"
	}

	parts := strings.SplitN(when, ", ", 3)
	switch len(parts) {
	case 1:
		return models.NormalizeEventDate(parts[0]), "Time TBA"
	case 2:
		// "Jun 14, 7 PM"
		return models.NormalizeEventDate(parts[0]), parts[1]
	default:
		// "Sat, Jun 14, 7 – 10 PM": drop the weekday.
		return models.NormalizeEventDate(parts[1]), parts[2]
	}
}
