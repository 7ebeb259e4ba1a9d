package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"local-events-aggregator/internal/models"
)

const (
	yelpBaseURL          = "https://api.yelp.com/v3"
	restaurantCacheTTL   = 5 * time.Minute
	restaurantPageSize   = 20
	restaurantFetchLimit = 50
	restaurantRadiusM    = 40000 // Yelp caps radius at 40km
)

// RestaurantService searches for dining options near a point through the
// Yelp Fusion business search API. Full result sets are cached per
// location+filter for a short window and paginated locally.
type RestaurantService struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string

	mu      sync.RWMutex
	cache   map[string]restaurantCacheEntry
	now     func() time.Time
}

type restaurantCacheEntry struct {
	restaurants []models.Restaurant
	createdAt   time.Time
}

// RestaurantPage is one page of restaurant results.
type RestaurantPage struct {
	Restaurants []models.Restaurant `json:"restaurants"`
	TotalCount  int                 `json:"total_count"`
	HasMore     bool                `json:"has_more"`
}

// NewRestaurantService creates a service using the YELP_API_KEY environment
// variable.
func NewRestaurantService() *RestaurantService {
	return NewRestaurantServiceWithConfig(os.Getenv("YELP_API_KEY"), yelpBaseURL)
}

// NewRestaurantServiceWithConfig creates a service with explicit credentials
// and endpoint, mainly for tests.
func NewRestaurantServiceWithConfig(apiKey, baseURL string) *RestaurantService {
	return &RestaurantService{
		httpClient: &http.Client{Timeout: requestCeiling},
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      make(map[string]restaurantCacheEntry),
		now:        time.Now,
	}
}

// yelpBusiness mirrors one business object in the Yelp search response.
type yelpBusiness struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ImageURL    string  `json:"image_url"`
	URL         string  `json:"url"`
	ReviewCount int     `json:"review_count"`
	Rating      float64 `json:"rating"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Price      string `json:"price"`
	Categories []struct {
		Alias string `json:"alias"`
		Title string `json:"title"`
	} `json:"categories"`
	Phone    string  `json:"phone"`
	Distance float64 `json:"distance"`
	IsClosed bool    `json:"is_closed"`
}

type yelpSearchResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
	Total      int            `json:"total"`
}

// SearchRestaurants fetches restaurants near the given point, applies the
// filter, and returns the requested page. Page numbers start at 1.
func (r *RestaurantService) SearchRestaurants(ctx context.Context, latitude, longitude float64, page int, filter models.RestaurantFilter) (*RestaurantPage, error) {
	if r.apiKey == "" {
		return nil, fmt.Errorf("YELP_API_KEY environment variable is required")
	}
	if latitude == 0 && longitude == 0 {
		return nil, fmt.Errorf("restaurant search requires latitude and longitude")
	}
	if page < 1 {
		page = 1
	}

	key := r.cacheKey(latitude, longitude, filter)

	if cached, ok := r.cachedRestaurants(key); ok {
		return paginate(cached, page), nil
	}

	businesses, err := r.fetchBusinesses(ctx, latitude, longitude)
	if err != nil {
		return nil, err
	}

	restaurants := make([]models.Restaurant, 0, len(businesses))
	for _, b := range businesses {
		restaurant := mapBusiness(b, latitude, longitude)
		if matchesRestaurantFilter(restaurant, filter) {
			restaurants = append(restaurants, restaurant)
		}
	}

	r.mu.Lock()
	r.cache[key] = restaurantCacheEntry{restaurants: restaurants, createdAt: r.now()}
	r.mu.Unlock()

	log.Printf("restaurants: %d matches near %.4f,%.4f", len(restaurants), latitude, longitude)
	return paginate(restaurants, page), nil
}

func (r *RestaurantService) fetchBusinesses(ctx context.Context, latitude, longitude float64) ([]yelpBusiness, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", latitude))
	params.Set("longitude", fmt.Sprintf("%g", longitude))
	params.Set("limit", fmt.Sprintf("%d", restaurantFetchLimit))
	params.Set("sort_by", "distance")
	params.Set("radius", fmt.Sprintf("%d", restaurantRadiusM))

	requestURL := fmt.Sprintf("%s/businesses/search?%s", r.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Yelp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yelp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yelp returned status %d", resp.StatusCode)
	}

	var parsed yelpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode Yelp response: %w", err)
	}
	return parsed.Businesses, nil
}

func (r *RestaurantService) cacheKey(latitude, longitude float64, filter models.RestaurantFilter) string {
	encoded, _ := json.Marshal(filter)
	return fmt.Sprintf("%.4f,%.4f|%s", latitude, longitude, encoded)
}

func (r *RestaurantService) cachedRestaurants(key string) ([]models.Restaurant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[key]
	if !ok || r.now().Sub(entry.createdAt) >= restaurantCacheTTL {
		return nil, false
	}
	return entry.restaurants, true
}

func mapBusiness(b yelpBusiness, fallbackLat, fallbackLng float64) models.Restaurant {
	latitude := b.Coordinates.Latitude
	longitude := b.Coordinates.Longitude
	if latitude == 0 && longitude == 0 {
		latitude, longitude = fallbackLat, fallbackLng
	}

	price := b.Price
	if price == "" {
		price = "$$"
	}

	restaurant := models.Restaurant{
		ID:          b.ID,
		Name:        b.Name,
		ImageURL:    b.ImageURL,
		URL:         b.URL,
		ReviewCount: b.ReviewCount,
		Rating:      b.Rating,
		Coordinates: models.Location{Latitude: latitude, Longitude: longitude},
		Price:       price,
		Phone:       b.Phone,
		Distance:    b.Distance,
		IsClosed:    b.IsClosed,
	}
	for _, c := range b.Categories {
		restaurant.Categories = append(restaurant.Categories, models.RestaurantCategory{
			Alias: c.Alias,
			Title: c.Title,
		})
	}
	return restaurant
}

func matchesRestaurantFilter(restaurant models.Restaurant, filter models.RestaurantFilter) bool {
	if filter.Rating > 0 && restaurant.Rating < filter.Rating {
		return false
	}
	if len(filter.Prices) > 0 {
		found := false
		for _, p := range filter.Prices {
			if p == restaurant.Price {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Categories) > 0 {
		found := false
		for _, want := range filter.Categories {
			for _, c := range restaurant.Categories {
				if strings.EqualFold(c.Alias, want) {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	// Yelp reports distance in meters; the filter is in miles.
	if filter.Distance > 0 && restaurant.Distance > filter.Distance*1609.34 {
		return false
	}
	if filter.OpenNow && restaurant.IsClosed {
		return false
	}
	return true
}

func paginate(restaurants []models.Restaurant, page int) *RestaurantPage {
	start := (page - 1) * restaurantPageSize
	if start >= len(restaurants) {
		return &RestaurantPage{Restaurants: []models.Restaurant{}, TotalCount: len(restaurants)}
	}
	end := start + restaurantPageSize
	if end > len(restaurants) {
		end = len(restaurants)
	}
	return &RestaurantPage{
		Restaurants: restaurants[start:end],
		TotalCount:  len(restaurants),
		HasMore:     end < len(restaurants),
	}
}
