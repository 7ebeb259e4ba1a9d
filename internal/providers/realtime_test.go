package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"local-events-aggregator/internal/models"
)

// fixedResolver always answers the same city.
type fixedResolver struct {
	city string
	err  error
}

func (f *fixedResolver) ResolveCity(ctx context.Context, latitude, longitude float64) (string, error) {
	return f.city, f.err
}

const realTimeFixture = `{
  "data": [
    {
      "event_id": "rt123",
      "name": "Food Truck Festival",
      "description": "Fifty trucks, one park",
      "start_time": "2025-06-14 11:00:00",
      "tags": ["food", "festival"],
      "thumbnail": "https://img/thumb.jpg",
      "venue": {
        "name": "City Park",
        "latitude": "39.7475",
        "longitude": "-104.9503",
        "address": "2001 Colorado Blvd, Denver, CO"
      },
      "ticket_links": [{"link": "https://tickets.example.com/rt123"}]
    },
    {
      "name": "",
      "start_time": "2025-06-15T09:00:00Z",
      "venue": {"name": "Lakeside", "latitude": "39.78", "longitude": "-105.05", "address": ""}
    },
    {
      "event_id": "bad",
      "name": "No Coordinates",
      "venue": {"latitude": "not-a-number", "longitude": "-105"}
    }
  ]
}`

func TestRealTimeSearch(t *testing.T) {
	var gotQuery map[string][]string
	var gotKey, gotHost string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("X-RapidAPI-Key")
		gotHost = r.Header.Get("X-RapidAPI-Host")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(realTimeFixture))
	}))
	defer server.Close()

	adapter := NewRealTimeAdapterWithConfig("test-key", server.URL, &fixedResolver{city: "Denver Colorado"})
	events, err := adapter.Search(context.Background(), models.SearchParams{
		Latitude:  39.7392,
		Longitude: -104.9903,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("X-RapidAPI-Key = %q", gotKey)
	}
	if gotHost != "real-time-events-search.p.rapidapi.com" {
		t.Errorf("X-RapidAPI-Host = %q", gotHost)
	}
	if got := gotQuery["query"]; len(got) != 1 || got[0] != "Events in Denver Colorado" {
		t.Errorf("query = %v", got)
	}
	if got := gotQuery["is_virtual"]; len(got) != 1 || got[0] != "false" {
		t.Errorf("is_virtual = %v", got)
	}

	// The unparseable-coordinate record is dropped
	if len(events) != 2 {
		t.Fatalf("Expected 2 mapped events, got %d", len(events))
	}

	e := events[0]
	if e.ID != "rt-rt123" {
		t.Errorf("ID = %q", e.ID)
	}
	if e.Date != "2025-06-14" || e.Time != "11:00 AM" {
		t.Errorf("Date/Time = %q / %q", e.Date, e.Time)
	}
	if len(e.Categories) != 2 || e.Categories[0] != "Food" || e.Categories[1] != "Festival" {
		t.Errorf("Categories = %v", e.Categories)
	}
	if e.Price != nil {
		t.Errorf("Expected price always unknown from this upstream, got %v", *e.Price)
	}
	if e.URL != "https://tickets.example.com/rt123" {
		t.Errorf("URL = %q", e.URL)
	}
	if e.Source != models.SourceRealTime {
		t.Errorf("Source = %q", e.Source)
	}

	// Nameless records get a placeholder title and a generated ID
	anon := events[1]
	if anon.Title != "Untitled Event" {
		t.Errorf("Title = %q", anon.Title)
	}
	if !strings.HasPrefix(anon.ID, "rt-") || len(anon.ID) <= len("rt-") {
		t.Errorf("Expected generated rt- ID, got %q", anon.ID)
	}
	if anon.Location.Address != "Location TBA" {
		t.Errorf("Address = %q", anon.Location.Address)
	}
}

func TestRealTimeResolverFallback(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	// Resolver failures degrade to raw coordinates rather than failing
	adapter := NewRealTimeAdapterWithConfig("test-key", server.URL, &fixedResolver{err: fmt.Errorf("mapbox down")})
	if _, err := adapter.Search(context.Background(), models.SearchParams{Latitude: 39.74, Longitude: -104.99, Keyword: "music"}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotQuery != "music in 39.74,-104.99" {
		t.Errorf("query = %q", gotQuery)
	}

	// Nil resolver behaves the same way
	adapter = NewRealTimeAdapterWithConfig("test-key", server.URL, nil)
	if _, err := adapter.Search(context.Background(), models.SearchParams{Latitude: 39.74, Longitude: -104.99}); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotQuery != "Events in 39.74,-104.99" {
		t.Errorf("query = %q", gotQuery)
	}
}
