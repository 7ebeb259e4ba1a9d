package models

// Event is the unified shape every upstream provider is normalized into.
// Location is the source of truth for coordinates; the top-level
// Latitude/Longitude fields mirror it for consumers that want a flat record.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Scheduling: Date is normalized to ISO (YYYY-MM-DD) where the upstream
	// gives us something parseable; Time is best-effort display text.
	Date string `json:"date"`
	Time string `json:"time"`

	Venue    string   `json:"venue,omitempty"`
	Location Location `json:"location"`

	// Denormalized mirror of Location.Latitude/Longitude.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Categories holds the provider's own vocabulary; Category is the single
	// unified bucket (see the Category* constants).
	Categories []string `json:"categories"`
	Category   string   `json:"category,omitempty"`

	Source string `json:"source"`

	// Price is nil when unknown and 0 when free. PriceRange carries display
	// text when the upstream only reports a range.
	Price      *float64 `json:"price"`
	PriceRange string   `json:"priceRange,omitempty"`

	Image string `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`

	// Distance in miles from the query's reference point, rounded to one
	// decimal. Populated by the aggregator, never by adapters.
	Distance *float64 `json:"distance,omitempty"`
}

// Location is a resolved venue position with its display address.
type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SetCoordinates writes coordinates to Location and keeps the top-level
// mirror fields in agreement.
func (e *Event) SetCoordinates(latitude, longitude float64) {
	e.Location.Latitude = latitude
	e.Location.Longitude = longitude
	e.Latitude = latitude
	e.Longitude = longitude
}

// Source constants
const (
	SourceTicketmaster = "ticketmaster"
	SourceEventbrite   = "eventbrite"
	SourceRealTime     = "realtime"
	SourceGoogle       = "google"
	SourceAISuggested  = "ai-suggested"
	SourceUser         = "user"
)

// Unified category constants
const (
	CategoryAll            = "all"
	CategoryLiveMusic      = "live-music"
	CategoryComedy         = "comedy"
	CategorySportsGames    = "sports-games"
	CategoryPerformingArts = "performing-arts"
	CategoryFoodDrink      = "food-drink"
	CategoryCultural       = "cultural"
	CategorySocial         = "social"
	CategoryEducational    = "educational"
	CategoryOutdoor        = "outdoor"
	CategorySpecial        = "special"
)

// DateRange restricts results to a window relative to the query time.
type DateRange string

// DateRange constants
const (
	DateRangeAny      DateRange = ""
	DateRangeToday    DateRange = "today"
	DateRangeTomorrow DateRange = "tomorrow"
	DateRangeWeek     DateRange = "week"
	DateRangeWeekend  DateRange = "weekend"
	DateRangeMonth    DateRange = "month"
)

// PriceRange restricts results to a price bucket. It replaces the display
// labels the legacy filter panel compared against; ParsePriceRange accepts
// those labels for callers still sending them.
type PriceRange string

// PriceRange constants
const (
	PriceRangeAny      PriceRange = ""
	PriceRangeFree     PriceRange = "free"
	PriceRangeUnder25  PriceRange = "under-25"
	PriceRange25To50   PriceRange = "25-50"
	PriceRange50To100  PriceRange = "50-100"
	PriceRangeOver100  PriceRange = "over-100"
)

// Filter holds the optional query-time predicates. Zero values pass through.
type Filter struct {
	Category   string     `json:"category,omitempty"`
	DateRange  DateRange  `json:"dateRange,omitempty"`
	PriceRange PriceRange `json:"priceRange,omitempty"`
	Distance   float64    `json:"distance,omitempty"` // miles, 0 = no limit
}

// SearchParams is the common query every provider adapter accepts.
type SearchParams struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius,omitempty"` // miles
	Keyword   string  `json:"keyword,omitempty"`
}
