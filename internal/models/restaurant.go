package models

// Restaurant represents a dining option near the queried location, normalized
// from the Yelp business search response.
type Restaurant struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	ImageURL    string               `json:"image_url,omitempty"`
	URL         string               `json:"url,omitempty"`
	ReviewCount int                  `json:"review_count"`
	Rating      float64              `json:"rating"`
	Coordinates Location             `json:"coordinates"`
	Price       string               `json:"price,omitempty"` // $, $$, $$$, $$$$
	Categories  []RestaurantCategory `json:"categories"`
	Phone       string               `json:"phone,omitempty"`
	Distance    float64              `json:"distance"` // meters, as reported by Yelp
	IsClosed    bool                 `json:"is_closed"`
}

// RestaurantCategory is a Yelp category pair (machine alias + display title).
type RestaurantCategory struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// RestaurantFilter holds the optional query-time predicates for restaurant
// search. Zero values pass through.
type RestaurantFilter struct {
	Rating     float64  `json:"rating,omitempty"`     // minimum rating
	Prices     []string `json:"prices,omitempty"`     // allowed price tiers ($..$$$$)
	Categories []string `json:"categories,omitempty"` // Yelp category aliases
	Distance   float64  `json:"distance,omitempty"`   // miles, 0 = no limit
	OpenNow    bool     `json:"openNow,omitempty"`
}
