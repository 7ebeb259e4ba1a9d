// Package providers contains one adapter per upstream event-search API. Each
// adapter translates the common SearchParams into its provider's wire format
// and maps the response into the unified models.Event shape. Adapters report
// failures as errors; the aggregator absorbs them so one bad upstream never
// sinks a search.
package providers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"local-events-aggregator/internal/models"
)

// Adapter is the contract every upstream event source implements.
type Adapter interface {
	Name() string
	Search(ctx context.Context, params models.SearchParams) ([]models.Event, error)
}

// requestTimeout bounds every upstream call; a timeout is treated by the
// aggregator like any other provider failure.
const requestTimeout = 30 * time.Second

// defaultRadiusMiles is used when the caller does not constrain the search.
const defaultRadiusMiles = 100

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// categoryKeywords drives best-effort single-category inference for providers
// whose payloads carry no structured taxonomy (RealTime, Google Events).
// Order matters: first match wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{models.CategoryLiveMusic, []string{"music", "concert", "band", "dj"}},
	{models.CategoryComedy, []string{"comedy", "stand-up", "standup", "improv"}},
	{models.CategorySportsGames, []string{"sport", "game", "match", "tournament"}},
	{models.CategoryPerformingArts, []string{"art", "theatre", "theater", "dance", "performance", "ballet"}},
	{models.CategoryFoodDrink, []string{"food", "dining", "tasting", "brunch", "dinner", "wine", "beer"}},
	{models.CategoryCultural, []string{"culture", "cultural", "museum", "heritage", "festival"}},
	{models.CategorySocial, []string{"social", "meetup", "networking", "singles"}},
	{models.CategoryEducational, []string{"education", "workshop", "class", "lecture", "seminar"}},
	{models.CategoryOutdoor, []string{"outdoor", "hike", "hiking", "park", "trail"}},
}

// InferCategory assigns a unified category from free text, falling back to
// the generic "special" bucket when nothing matches.
func InferCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)

	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(text, keyword) {
				return entry.category
			}
		}
	}

	return models.CategorySpecial
}

// parseCoordinatePair parses the stringly-typed latitude/longitude pairs
// several upstreams return. Reports false for malformed or zero coordinates,
// which callers treat as "cannot be geolocated, skip the record".
func parseCoordinatePair(latitude, longitude string) (float64, float64, bool) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	if latErr != nil || lonErr != nil || (lat == 0 && lon == 0) {
		return 0, 0, false
	}
	return lat, lon, true
}

// joinAddressParts builds a display address from whatever venue fields the
// upstream populated.
func joinAddressParts(parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			filtered = append(filtered, strings.TrimSpace(part))
		}
	}
	if len(filtered) == 0 {
		return "Location TBA"
	}
	return strings.Join(filtered, ", ")
}
