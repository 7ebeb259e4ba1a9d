package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"local-events-aggregator/internal/models"
)

const (
	ticketmasterBaseURL = "https://app.ticketmaster.com/discovery/v2"

	// Pagination bounds: the Discovery API caps page size at 200 but we page
	// conservatively and stop early once the upstream reports no more pages.
	ticketmasterPageSize  = 100
	ticketmasterMaxPages  = 4
	ticketmasterMaxEvents = 400
)

// TicketmasterAdapter searches the Ticketmaster Discovery API.
type TicketmasterAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewTicketmasterAdapter creates an adapter using the TICKETMASTER_API_KEY
// environment variable.
func NewTicketmasterAdapter() *TicketmasterAdapter {
	return &TicketmasterAdapter{
		httpClient: newHTTPClient(),
		apiKey:     os.Getenv("TICKETMASTER_API_KEY"),
		baseURL:    ticketmasterBaseURL,
	}
}

// NewTicketmasterAdapterWithConfig creates an adapter with an explicit key and
// base URL, used by tests to point at a fixture server.
func NewTicketmasterAdapterWithConfig(apiKey, baseURL string) *TicketmasterAdapter {
	return &TicketmasterAdapter{
		httpClient: newHTTPClient(),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Name returns the provenance tag this adapter stamps on events.
func (t *TicketmasterAdapter) Name() string {
	return models.SourceTicketmaster
}

// ticketmasterResponse is the slice of the Discovery API response we consume.
type ticketmasterResponse struct {
	Embedded struct {
		Events []ticketmasterEvent `json:"events"`
	} `json:"_embedded"`
	Page struct {
		TotalPages int `json:"totalPages"`
	} `json:"page"`
}

type ticketmasterEvent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Info        string `json:"info"`
	PleaseNote  string `json:"pleaseNote"`
	URL         string `json:"url"`
	PriceRanges []struct {
		Min float64 `json:"min"`
	} `json:"priceRanges"`
	Images []struct {
		Ratio string `json:"ratio"`
		Width int    `json:"width"`
		URL   string `json:"url"`
	} `json:"images"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
			LocalTime string `json:"localTime"`
		} `json:"start"`
	} `json:"dates"`
	Embedded struct {
		Venues []struct {
			Name     string `json:"name"`
			Location struct {
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"location"`
			Address struct {
				Line1 string `json:"line1"`
			} `json:"address"`
			City struct {
				Name string `json:"name"`
			} `json:"city"`
			State struct {
				StateCode string `json:"stateCode"`
			} `json:"state"`
		} `json:"venues"`
	} `json:"_embedded"`
	Classifications []struct {
		Segment  struct{ Name string } `json:"segment"`
		Genre    struct{ Name string } `json:"genre"`
		SubGenre struct{ Name string } `json:"subGenre"`
	} `json:"classifications"`
}

// segmentCategories maps Discovery API segment names onto the unified
// category vocabulary.
var segmentCategories = map[string]string{
	"music":          models.CategoryLiveMusic,
	"sports":         models.CategorySportsGames,
	"arts & theatre": models.CategoryPerformingArts,
	"film":           models.CategoryCultural,
	"miscellaneous":  models.CategorySpecial,
}

// Search fetches events near the given coordinates, paging through results up
// to the configured bounds.
func (t *TicketmasterAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("ticketmaster: missing TICKETMASTER_API_KEY")
	}

	radius := params.Radius
	if radius <= 0 {
		radius = defaultRadiusMiles
	}

	query := url.Values{}
	query.Set("apikey", t.apiKey)
	query.Set("unit", "miles")
	query.Set("sort", "date,asc")
	query.Set("includeTBA", "yes")
	query.Set("includeTest", "no")
	query.Set("latlong", fmt.Sprintf("%g,%g", params.Latitude, params.Longitude))
	query.Set("radius", strconv.Itoa(int(radius)))
	query.Set("startDateTime", time.Now().Truncate(24*time.Hour).UTC().Format("2006-01-02T15:04:05Z"))
	if params.Keyword != "" {
		query.Set("keyword", params.Keyword)
	}

	raw, err := t.fetchAllPages(ctx, query)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(raw))
	for _, record := range raw {
		if event := t.mapEvent(record); event != nil {
			events = append(events, *event)
		}
	}

	log.Printf("ticketmaster: mapped %d of %d records", len(events), len(raw))
	return events, nil
}

func (t *TicketmasterAdapter) fetchAllPages(ctx context.Context, baseQuery url.Values) ([]ticketmasterEvent, error) {
	var all []ticketmasterEvent

	for page := 0; page < ticketmasterMaxPages && len(all) < ticketmasterMaxEvents; page++ {
		query := url.Values{}
		for key, values := range baseQuery {
			query[key] = values
		}
		query.Set("page", strconv.Itoa(page))
		query.Set("size", strconv.Itoa(ticketmasterPageSize))

		requestURL := fmt.Sprintf("%s/events.json?%s", t.baseURL, query.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("ticketmaster: failed to create request: %w", err)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("ticketmaster: request failed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("ticketmaster: unexpected status %d", resp.StatusCode)
		}

		var parsed ticketmasterResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("ticketmaster: failed to decode response: %w", err)
		}

		if len(parsed.Embedded.Events) == 0 {
			break
		}

		all = append(all, parsed.Embedded.Events...)

		if parsed.Page.TotalPages <= page+1 {
			break
		}
	}

	if len(all) > ticketmasterMaxEvents {
		all = all[:ticketmasterMaxEvents]
	}
	return all, nil
}

// mapEvent converts one upstream record, returning nil when the record cannot
// be geolocated or is otherwise unusable. A nil here never fails the sibling
// records.
func (t *TicketmasterAdapter) mapEvent(record ticketmasterEvent) *models.Event {
	if len(record.Embedded.Venues) == 0 {
		return nil
	}
	venue := record.Embedded.Venues[0]

	latitude, longitude, ok := parseCoordinatePair(venue.Location.Latitude, venue.Location.Longitude)
	if !ok {
		return nil
	}

	var categories []string
	category := models.CategorySpecial
	if len(record.Classifications) > 0 {
		classification := record.Classifications[0]
		for _, name := range []string{classification.Segment.Name, classification.Genre.Name, classification.SubGenre.Name} {
			if name != "" {
				categories = append(categories, name)
			}
		}
		if unified, ok := segmentCategories[strings.ToLower(classification.Segment.Name)]; ok {
			category = unified
		}
	}
	if len(categories) == 0 {
		categories = []string{"Other"}
	}

	var price *float64
	if len(record.PriceRanges) > 0 {
		min := record.PriceRanges[0].Min
		price = &min
	}

	date := "Date TBA"
	if record.Dates.Start.LocalDate != "" {
		date = models.NormalizeEventDate(record.Dates.Start.LocalDate)
	}
	timeStr := record.Dates.Start.LocalTime
	if timeStr == "" {
		timeStr = "Time TBA"
	}

	description := record.Description
	if description == "" {
		description = record.Info
	}
	if description == "" {
		description = record.PleaseNote
	}

	event := models.Event{
		ID:          "tm-" + record.ID,
		Title:       record.Name,
		Description: description,
		Date:        date,
		Time:        timeStr,
		Venue:       venue.Name,
		Location: models.Location{
			Address: joinAddressParts(venue.Name, venue.Address.Line1, venue.City.Name, venue.State.StateCode),
		},
		Categories: categories,
		Category:   category,
		Source:     models.SourceTicketmaster,
		Price:      price,
		URL:        record.URL,
		Image:      t.pickImage(record),
	}
	event.SetCoordinates(latitude, longitude)

	return &event
}

// pickImage prefers a large 16:9 image, falling back to whatever is first.
func (t *TicketmasterAdapter) pickImage(record ticketmasterEvent) string {
	for _, image := range record.Images {
		if image.Ratio == "16_9" && image.Width > 1000 {
			return image.URL
		}
	}
	if len(record.Images) > 0 {
		return record.Images[0].URL
	}
	return ""
}
