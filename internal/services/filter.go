package services

import (
	"strings"
	"time"

	"local-events-aggregator/internal/geo"
	"local-events-aggregator/internal/models"
)

// FilterEngine applies the query-time predicates (category, date range, price
// range, distance) to a candidate set. Each predicate is independently
// optional; its zero value passes everything through.
type FilterEngine struct {
	now func() time.Time
}

// NewFilterEngine creates a filter engine using the wall clock.
func NewFilterEngine() *FilterEngine {
	return &FilterEngine{now: time.Now}
}

// NewFilterEngineAt creates a filter engine with an injected clock for tests.
func NewFilterEngineAt(now func() time.Time) *FilterEngine {
	return &FilterEngine{now: now}
}

// Apply returns the events passing every set predicate. The distance
// predicate requires a reference location and is skipped without one.
func (f *FilterEngine) Apply(events []models.Event, filter models.Filter, reference *models.Location) []models.Event {
	result := make([]models.Event, 0, len(events))
	for _, event := range events {
		if f.matches(event, filter, reference) {
			result = append(result, event)
		}
	}
	return result
}

func (f *FilterEngine) matches(event models.Event, filter models.Filter, reference *models.Location) bool {
	if !matchesCategory(event, filter.Category) {
		return false
	}
	if !f.matchesDateRange(event, filter.DateRange) {
		return false
	}
	if !matchesPriceRange(event, filter.PriceRange) {
		return false
	}
	if filter.Distance > 0 && reference != nil {
		distance := geo.DistanceMiles(reference.Latitude, reference.Longitude,
			event.Location.Latitude, event.Location.Longitude)
		if distance > filter.Distance {
			return false
		}
	}
	return true
}

// matchesCategory passes when no category is requested, the wildcard "all" is
// requested, or any of the event's category labels equals the requested one
// case-insensitively.
func matchesCategory(event models.Event, category string) bool {
	if category == "" || category == models.CategoryAll {
		return true
	}

	if strings.EqualFold(event.Category, category) {
		return true
	}
	for _, label := range event.Categories {
		if strings.EqualFold(label, category) {
			return true
		}
	}
	return false
}

func (f *FilterEngine) matchesDateRange(event models.Event, dateRange models.DateRange) bool {
	if dateRange == models.DateRangeAny {
		return true
	}

	eventDate, err := models.ParseEventDate(event.Date)
	if err != nil {
		// An unparseable date cannot satisfy a concrete window.
		return false
	}

	today := startOfDay(f.now())

	switch dateRange {
	case models.DateRangeToday:
		return eventDate.Equal(today)
	case models.DateRangeTomorrow:
		return eventDate.Equal(today.AddDate(0, 0, 1))
	case models.DateRangeWeek:
		return !eventDate.After(today.AddDate(0, 0, 7))
	case models.DateRangeWeekend:
		saturday, sunday := upcomingWeekend(today)
		return eventDate.Equal(saturday) || eventDate.Equal(sunday)
	case models.DateRangeMonth:
		return !eventDate.After(today.AddDate(0, 1, 0))
	default:
		return true
	}
}

// upcomingWeekend returns the Saturday and Sunday of the current week; on a
// weekend day the window starts today.
func upcomingWeekend(today time.Time) (time.Time, time.Time) {
	switch today.Weekday() {
	case time.Saturday:
		return today, today.AddDate(0, 0, 1)
	case time.Sunday:
		return today.AddDate(0, 0, -1), today
	default:
		daysUntilSaturday := int(time.Saturday - today.Weekday())
		saturday := today.AddDate(0, 0, daysUntilSaturday)
		return saturday, saturday.AddDate(0, 0, 1)
	}
}

// matchesPriceRange applies the price bucket. An event with unknown price
// fails every concrete bucket (conservative exclusion).
func matchesPriceRange(event models.Event, priceRange models.PriceRange) bool {
	if priceRange == models.PriceRangeAny {
		return true
	}
	if event.Price == nil {
		return false
	}

	price := *event.Price
	switch priceRange {
	case models.PriceRangeFree:
		return price == 0
	case models.PriceRangeUnder25:
		return price > 0 && price < 25
	case models.PriceRange25To50:
		return price >= 25 && price <= 50
	case models.PriceRange50To100:
		return price > 50 && price <= 100
	case models.PriceRangeOver100:
		return price > 100
	default:
		return false
	}
}
