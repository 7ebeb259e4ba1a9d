package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"local-events-aggregator/internal/models"
)

const yelpFixture = `{
  "total": 3,
  "businesses": [
    {
      "id": "blue-sushi",
      "name": "Blue Sushi",
      "image_url": "https://img/sushi.jpg",
      "url": "https://yelp.com/biz/blue-sushi",
      "review_count": 812,
      "rating": 4.5,
      "coordinates": {"latitude": 39.748, "longitude": -104.999},
      "price": "$$",
      "categories": [{"alias": "sushi", "title": "Sushi Bars"}],
      "phone": "+13035551234",
      "distance": 850.3,
      "is_closed": false
    },
    {
      "id": "cheap-tacos",
      "name": "Cheap Tacos",
      "rating": 3.5,
      "coordinates": {"latitude": 39.75, "longitude": -105.0},
      "price": "$",
      "categories": [{"alias": "mexican", "title": "Mexican"}],
      "distance": 400.0,
      "is_closed": true
    },
    {
      "id": "far-steakhouse",
      "name": "Far Steakhouse",
      "rating": 4.8,
      "coordinates": {"latitude": 39.9, "longitude": -105.2},
      "price": "$$$$",
      "categories": [{"alias": "steak", "title": "Steakhouses"}],
      "distance": 30000.0,
      "is_closed": false
    }
  ]
}`

func newYelpTestServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("sort_by") != "distance" {
			t.Errorf("sort_by = %q", r.URL.Query().Get("sort_by"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(yelpFixture))
	}))
}

func TestSearchRestaurants(t *testing.T) {
	calls := 0
	server := newYelpTestServer(t, &calls)
	defer server.Close()

	svc := NewRestaurantServiceWithConfig("test-key", server.URL)

	page, err := svc.SearchRestaurants(context.Background(), 39.7392, -104.9903, 1, models.RestaurantFilter{})
	if err != nil {
		t.Fatalf("SearchRestaurants failed: %v", err)
	}

	if page.TotalCount != 3 || len(page.Restaurants) != 3 || page.HasMore {
		t.Errorf("page = %d/%d hasMore=%v", len(page.Restaurants), page.TotalCount, page.HasMore)
	}

	sushi := page.Restaurants[0]
	if sushi.ID != "blue-sushi" || sushi.Rating != 4.5 || sushi.Price != "$$" {
		t.Errorf("Unexpected first restaurant: %+v", sushi)
	}
	if len(sushi.Categories) != 1 || sushi.Categories[0].Alias != "sushi" {
		t.Errorf("Categories = %v", sushi.Categories)
	}
}

func TestSearchRestaurantsFilters(t *testing.T) {
	calls := 0
	server := newYelpTestServer(t, &calls)
	defer server.Close()

	svc := NewRestaurantServiceWithConfig("test-key", server.URL)
	ctx := context.Background()

	// Minimum rating
	page, err := svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{Rating: 4.0})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 2 {
		t.Errorf("Rating filter: expected 2, got %d", page.TotalCount)
	}

	// Price tiers
	page, _ = svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{Prices: []string{"$"}})
	if page.TotalCount != 1 || page.Restaurants[0].ID != "cheap-tacos" {
		t.Errorf("Price filter: got %d", page.TotalCount)
	}

	// Category aliases
	page, _ = svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{Categories: []string{"sushi"}})
	if page.TotalCount != 1 || page.Restaurants[0].ID != "blue-sushi" {
		t.Errorf("Category filter: got %d", page.TotalCount)
	}

	// Distance in miles against Yelp's meters (30000m is ~18.6mi)
	page, _ = svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{Distance: 10})
	if page.TotalCount != 2 {
		t.Errorf("Distance filter: expected 2 within 10 miles, got %d", page.TotalCount)
	}

	// Open now excludes closed businesses
	page, _ = svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{OpenNow: true})
	if page.TotalCount != 2 {
		t.Errorf("OpenNow filter: expected 2, got %d", page.TotalCount)
	}
	for _, r := range page.Restaurants {
		if r.IsClosed {
			t.Errorf("OpenNow filter kept closed restaurant %s", r.ID)
		}
	}
}

func TestSearchRestaurantsCache(t *testing.T) {
	calls := 0
	server := newYelpTestServer(t, &calls)
	defer server.Close()

	svc := NewRestaurantServiceWithConfig("test-key", server.URL)
	ctx := context.Background()
	filter := models.RestaurantFilter{}

	if _, err := svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, filter); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, filter); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Expected one upstream call for identical searches, got %d", calls)
	}

	// A different filter is a different cache entry
	if _, err := svc.SearchRestaurants(ctx, 39.7392, -104.9903, 1, models.RestaurantFilter{Rating: 4}); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("Expected second upstream call for new filter, got %d", calls)
	}
}

func TestSearchRestaurantsPagination(t *testing.T) {
	// 45 businesses: page 1 and 2 full, page 3 holds the remaining 5.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"businesses": [`)
		for i := 0; i < 45; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id": "r%d", "name": "R%d", "rating": 4, "coordinates": {"latitude": 39.7, "longitude": -105.0}, "distance": %d}`, i, i, i*100)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	svc := NewRestaurantServiceWithConfig("test-key", server.URL)
	ctx := context.Background()

	page1, err := svc.SearchRestaurants(ctx, 39.7, -105.0, 1, models.RestaurantFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1.Restaurants) != 20 || !page1.HasMore || page1.TotalCount != 45 {
		t.Errorf("page1 = %d/%d hasMore=%v", len(page1.Restaurants), page1.TotalCount, page1.HasMore)
	}

	page3, _ := svc.SearchRestaurants(ctx, 39.7, -105.0, 3, models.RestaurantFilter{})
	if len(page3.Restaurants) != 5 || page3.HasMore {
		t.Errorf("page3 = %d hasMore=%v", len(page3.Restaurants), page3.HasMore)
	}
	if page3.Restaurants[0].ID != "r40" {
		t.Errorf("page3 starts at %s", page3.Restaurants[0].ID)
	}

	// Past the end: empty page, not an error
	page9, _ := svc.SearchRestaurants(ctx, 39.7, -105.0, 9, models.RestaurantFilter{})
	if len(page9.Restaurants) != 0 || page9.HasMore {
		t.Errorf("page9 = %d hasMore=%v", len(page9.Restaurants), page9.HasMore)
	}
}

func TestSearchRestaurantsRequiresKeyAndCoords(t *testing.T) {
	svc := NewRestaurantServiceWithConfig("", "http://unused")
	if _, err := svc.SearchRestaurants(context.Background(), 39.7, -105.0, 1, models.RestaurantFilter{}); err == nil {
		t.Error("Expected error without an API key")
	}

	svc = NewRestaurantServiceWithConfig("test-key", "http://unused")
	if _, err := svc.SearchRestaurants(context.Background(), 0, 0, 1, models.RestaurantFilter{}); err == nil {
		t.Error("Expected error without coordinates")
	}
}
