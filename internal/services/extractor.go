package services

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"local-events-aggregator/internal/models"
)

// Geocoder resolves a free-form address into coordinates. A nil location
// with a nil error means the address could not be resolved.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*models.Location, error)
}

// AiEventExtractor parses structured event blocks out of assistant chat
// responses. Blocks are delimited by EVENT_START / EVENT_END marker lines
// with one "Field: value" pair per line in between.
type AiEventExtractor struct {
	geocoder Geocoder
}

// NewAiEventExtractor creates an extractor that geocodes event locations
// through the given geocoder.
func NewAiEventExtractor(geocoder Geocoder) *AiEventExtractor {
	return &AiEventExtractor{geocoder: geocoder}
}

const (
	eventBlockStart = "EVENT_START"
	eventBlockEnd   = "EVENT_END"
)

// Extract scans text for event blocks and returns the events that parse,
// validate, and geocode successfully. A malformed block or an unresolvable
// location drops that one event; it never fails the extraction.
func (x *AiEventExtractor) Extract(ctx context.Context, text string) []models.Event {
	var events []models.Event

	rest := text
	for {
		start := strings.Index(rest, eventBlockStart)
		if start == -1 {
			break
		}
		rest = rest[start+len(eventBlockStart):]

		end := strings.Index(rest, eventBlockEnd)
		if end == -1 {
			break
		}
		block := rest[:end]
		rest = rest[end+len(eventBlockEnd):]

		event, address, ok := x.parseBlock(block)
		if !ok {
			continue
		}

		location, err := x.geocoder.Resolve(ctx, address)
		if err != nil || location == nil {
			log.Printf("extractor: dropping %q, could not geocode %q: %v", event.Title, address, err)
			continue
		}
		event.Location = *location
		event.SetCoordinates(location.Latitude, location.Longitude)
		if event.Location.Address == "" {
			event.Location.Address = address
		}

		events = append(events, event)
	}

	return events
}

// parseBlock reads one block body into an event. Title and Location are
// required; every other field is optional, and a line that fails to parse
// is skipped on its own.
func (x *AiEventExtractor) parseBlock(block string) (models.Event, string, bool) {
	event := models.Event{
		ID:       "ai-" + uuid.New().String(),
		Source:   models.SourceAISuggested,
		Category: models.CategorySpecial,
	}
	var address string

	for _, line := range strings.Split(block, "\n") {
		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch field {
		case "Title":
			event.Title = value
		case "Date":
			event.Date = models.NormalizeEventDate(value)
		case "Time":
			event.Time = value
		case "Location":
			address = value
		case "Category":
			category := strings.ToLower(value)
			if models.ValidateCategory(category) {
				event.Category = category
			}
		case "Price":
			if price, ok := parsePriceValue(value); ok {
				event.Price = &price
			}
		case "Description":
			event.Description = value
		}
	}

	if event.Title == "" || address == "" {
		log.Printf("extractor: skipping block missing title or location")
		return models.Event{}, "", false
	}

	event.Categories = []string{event.Category}
	return event, address, true
}

// parsePriceValue reads a price answer like "Free", "$15", or "12.50".
func parsePriceValue(value string) (float64, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "free" {
		return 0, true
	}
	cleaned = strings.TrimPrefix(cleaned, "$")
	if i := strings.IndexAny(cleaned, " -"); i != -1 {
		cleaned = cleaned[:i]
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}
