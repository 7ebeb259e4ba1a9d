package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"local-events-aggregator/internal/models"
)

const eventbriteBaseURL = "https://www.eventbriteapi.com/v3"

// EventbriteAdapter searches the Eventbrite events API.
type EventbriteAdapter struct {
	httpClient *http.Client
	token      string
	baseURL    string
	now        func() time.Time
}

// NewEventbriteAdapter creates an adapter using the EVENTBRITE_PRIVATE_TOKEN
// environment variable.
func NewEventbriteAdapter() *EventbriteAdapter {
	return &EventbriteAdapter{
		httpClient: newHTTPClient(),
		token:      os.Getenv("EVENTBRITE_PRIVATE_TOKEN"),
		baseURL:    eventbriteBaseURL,
		now:        time.Now,
	}
}

// NewEventbriteAdapterWithConfig creates an adapter with an explicit token and
// base URL, used by tests to point at a fixture server.
func NewEventbriteAdapterWithConfig(token, baseURL string) *EventbriteAdapter {
	return &EventbriteAdapter{
		httpClient: newHTTPClient(),
		token:      token,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

// Name returns the provenance tag this adapter stamps on events.
func (e *EventbriteAdapter) Name() string {
	return models.SourceEventbrite
}

type eventbriteResponse struct {
	Events []eventbriteEvent `json:"events"`
}

type eventbriteEvent struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Start struct {
		Local string `json:"local"`
	} `json:"start"`
	URL    string `json:"url"`
	IsFree bool   `json:"is_free"`
	Logo   struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue struct {
		Name      string `json:"name"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		Address   struct {
			Address1 string `json:"address_1"`
			City     string `json:"city"`
			Region   string `json:"region"`
		} `json:"address"`
	} `json:"venue"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Subcategory struct {
		Name string `json:"name"`
	} `json:"subcategory"`
}

// Search fetches upcoming events near the given coordinates.
func (e *EventbriteAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	if e.token == "" {
		return nil, fmt.Errorf("eventbrite: missing EVENTBRITE_PRIVATE_TOKEN")
	}

	radius := params.Radius
	if radius <= 0 {
		radius = 10
	}

	query := url.Values{}
	query.Set("location.latitude", fmt.Sprintf("%g", params.Latitude))
	query.Set("location.longitude", fmt.Sprintf("%g", params.Longitude))
	query.Set("location.within", fmt.Sprintf("%dmi", int(radius)))
	query.Set("start_date.range_start", e.now().Format("2006-01-02")+"T00:00:00")
	query.Set("expand", "venue,category,subcategory")
	if params.Keyword != "" {
		query.Set("q", params.Keyword)
	}

	requestURL := fmt.Sprintf("%s/events/search/?%s", e.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eventbrite: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eventbrite: unexpected status %d", resp.StatusCode)
	}

	var parsed eventbriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("eventbrite: failed to decode response: %w", err)
	}

	events := make([]models.Event, 0, len(parsed.Events))
	for _, record := range parsed.Events {
		if event := e.mapEvent(record); event != nil {
			events = append(events, *event)
		}
	}

	log.Printf("eventbrite: mapped %d of %d records", len(events), len(parsed.Events))
	return events, nil
}

func (e *EventbriteAdapter) mapEvent(record eventbriteEvent) *models.Event {
	latitude, longitude, ok := parseCoordinatePair(record.Venue.Latitude, record.Venue.Longitude)
	if !ok {
		return nil
	}

	date := "Date TBA"
	timeStr := "Time TBA"
	if record.Start.Local != "" {
		if start, err := time.ParseInLocation("2006-01-02T15:04:05", record.Start.Local, time.Local); err == nil {
			date = start.Format(models.ISODateFormat)
			timeStr = start.Format("3:04 PM")
		}
	}

	var categories []string
	if record.Category.Name != "" {
		categories = append(categories, record.Category.Name)
	}
	if record.Subcategory.Name != "" {
		categories = append(categories, record.Subcategory.Name)
	}
	if len(categories) == 0 {
		categories = []string{"Other"}
	}

	// Eventbrite only tells us whether the event is free; paid events carry
	// an unknown price.
	var price *float64
	if record.IsFree {
		free := 0.0
		price = &free
	}

	event := models.Event{
		ID:          "eb-" + record.ID,
		Title:       record.Name.Text,
		Description: record.Description.Text,
		Date:        date,
		Time:        timeStr,
		Venue:       record.Venue.Name,
		Location: models.Location{
			Address: joinAddressParts(record.Venue.Name, record.Venue.Address.Address1, record.Venue.Address.City, record.Venue.Address.Region),
		},
		Categories: categories,
		Category:   InferCategory(record.Name.Text, record.Category.Name+" "+record.Description.Text),
		Source:     models.SourceEventbrite,
		Price:      price,
		URL:        record.URL,
		Image:      record.Logo.URL,
	}
	event.SetCoordinates(latitude, longitude)

	return &event
}
