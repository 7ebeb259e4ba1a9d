package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateEventID creates a stable ID for an event from its core attributes.
// Adapters prefer the upstream's native ID; this is the fallback for sources
// without one (user-entered events, some aggregators).
func GenerateEventID(title, date, address string) string {
	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	normalizedDate := strings.ToLower(strings.TrimSpace(date))
	normalizedAddress := strings.ToLower(strings.TrimSpace(address))

	input := fmt.Sprintf("%s|%s|%s", normalizedTitle, normalizedDate, normalizedAddress)
	hash := sha256.Sum256([]byte(input))

	return "evt_" + hex.EncodeToString(hash[:])[:8]
}

// DedupeKey is the tuple that identifies the same real-world event across
// providers: title (as-is), date, and exact coordinates.
func (e Event) DedupeKey() string {
	return fmt.Sprintf("%s|%s|%g|%g", e.Title, e.Date, e.Location.Latitude, e.Location.Longitude)
}

// ISODateFormat is the normalized calendar-date layout for Event.Date.
const ISODateFormat = "2006-01-02"

// eventDateLayouts are the layouts ParseEventDate tries, most common first.
// Upstream adapters normalize to ISO; the lenient tail covers AI-extracted
// and Google "when" strings.
var eventDateLayouts = []string{
	ISODateFormat,
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
	time.RFC3339,
}

// yearlessDateLayouts cover upstream strings like "Jun 14"; the current year
// is assumed for these.
var yearlessDateLayouts = []string{
	"Jan 2",
	"January 2",
}

// ParseEventDate parses an event date string back into a comparable instant
// (midnight local time on that calendar day).
func ParseEventDate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}

	for _, layout := range yearlessDateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			now := time.Now()
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", trimmed)
}

// NormalizeEventDate rewrites a parseable date string into ISO form. Strings
// it cannot parse come back unchanged so the record is not lost.
func NormalizeEventDate(date string) string {
	t, err := ParseEventDate(date)
	if err != nil {
		return strings.TrimSpace(date)
	}
	return t.Format(ISODateFormat)
}

// ValidateCategory checks if the category is one of the unified buckets.
func ValidateCategory(category string) bool {
	validCategories := []string{
		CategoryLiveMusic,
		CategoryComedy,
		CategorySportsGames,
		CategoryPerformingArts,
		CategoryFoodDrink,
		CategoryCultural,
		CategorySocial,
		CategoryEducational,
		CategoryOutdoor,
		CategorySpecial,
	}

	for _, validCategory := range validCategories {
		if category == validCategory {
			return true
		}
	}
	return false
}

// ValidateSource checks if the source tag is a known provenance value.
func ValidateSource(source string) bool {
	validSources := []string{
		SourceTicketmaster,
		SourceEventbrite,
		SourceRealTime,
		SourceGoogle,
		SourceAISuggested,
		SourceUser,
	}

	for _, validSource := range validSources {
		if source == validSource {
			return true
		}
	}
	return false
}

// ParsePriceRange maps both enum values and the legacy display labels
// ("under $25", "$25-$50", ...) onto a PriceRange. Unknown strings and "all"
// mean no price filtering.
func ParsePriceRange(s string) PriceRange {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PriceRangeFree):
		return PriceRangeFree
	case string(PriceRangeUnder25), "under $25":
		return PriceRangeUnder25
	case string(PriceRange25To50), "$25-$50":
		return PriceRange25To50
	case string(PriceRange50To100), "$50-$100":
		return PriceRange50To100
	case string(PriceRangeOver100), "$100+":
		return PriceRangeOver100
	default:
		return PriceRangeAny
	}
}

// ParseDateRange maps query strings (including the legacy "this week" style
// labels) onto a DateRange. Unknown strings and "all" mean no date filtering.
func ParseDateRange(s string) DateRange {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DateRangeToday):
		return DateRangeToday
	case string(DateRangeTomorrow):
		return DateRangeTomorrow
	case string(DateRangeWeek), "this week":
		return DateRangeWeek
	case string(DateRangeWeekend), "this weekend":
		return DateRangeWeekend
	case string(DateRangeMonth), "this month":
		return DateRangeMonth
	default:
		return DateRangeAny
	}
}

// GetCategoryDisplayName returns a human-readable name for a unified category.
func GetCategoryDisplayName(category string) string {
	displayNames := map[string]string{
		CategoryAll:            "All Events",
		CategoryLiveMusic:      "Live Music",
		CategoryComedy:         "Comedy",
		CategorySportsGames:    "Sports & Games",
		CategoryPerformingArts: "Performing Arts",
		CategoryFoodDrink:      "Food & Drink",
		CategoryCultural:       "Cultural",
		CategorySocial:         "Social",
		CategoryEducational:    "Educational",
		CategoryOutdoor:        "Outdoor",
		CategorySpecial:        "Special Events",
	}

	if displayName, exists := displayNames[category]; exists {
		return displayName
	}

	return category
}

// IsValidURL performs basic URL validation.
func IsValidURL(url string) bool {
	if url == "" {
		return false
	}

	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
