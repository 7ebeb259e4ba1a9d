package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"local-events-aggregator/internal/models"
	"local-events-aggregator/internal/providers"
)

// stubAdapter is a canned provider for aggregator tests.
type stubAdapter struct {
	name   string
	events []models.Event
	err    error
	calls  int32
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func futureEvent(id, title string, daysAhead int, lat, lng float64) models.Event {
	e := models.Event{
		ID:    id,
		Title: title,
		Date:  time.Now().AddDate(0, 0, daysAhead).Format(models.ISODateFormat),
	}
	e.SetCoordinates(lat, lng)
	return e
}

func TestSearchAllEventsPartialFailure(t *testing.T) {
	good1 := &stubAdapter{name: "good1", events: []models.Event{
		futureEvent("e1", "Jazz Night", 2, 39.75, -104.99),
	}}
	good2 := &stubAdapter{name: "good2", events: []models.Event{
		futureEvent("e2", "Comedy Hour", 3, 39.76, -104.98),
	}}
	broken := &stubAdapter{name: "broken", err: fmt.Errorf("upstream 500")}

	agg := NewEventAggregator([]providers.Adapter{good1, broken, good2})

	events, summary, err := agg.SearchAllEvents(context.Background(), SearchRequest{
		Latitude:  39.7392,
		Longitude: -104.9903,
	})
	if err != nil {
		t.Fatalf("Expected partial failure to succeed, got error: %v", err)
	}

	if len(events) != 2 {
		t.Errorf("Expected 2 events from the healthy providers, got %d", len(events))
	}
	if summary.FailedProviders != 1 {
		t.Errorf("Expected 1 failed provider, got %d", summary.FailedProviders)
	}
	if summary.TotalProviders != 3 {
		t.Errorf("Expected 3 total providers, got %d", summary.TotalProviders)
	}

	// Distance is annotated relative to the query point
	for _, e := range events {
		if e.Distance == nil {
			t.Errorf("Expected event %s to carry a distance", e.ID)
		}
	}
}

func TestSearchAllEventsDedupesAcrossProviders(t *testing.T) {
	// Same concert from two providers: identical title, date, coordinates.
	date := 2
	a := &stubAdapter{name: "a", events: []models.Event{
		futureEvent("tm-1", "Jazz Night", date, 40.0, -73.0),
	}}
	b := &stubAdapter{name: "b", events: []models.Event{
		futureEvent("eb-1", "Jazz Night", date, 40.0, -73.0),
	}}

	agg := NewEventAggregator([]providers.Adapter{a, b})

	events, summary, err := agg.SearchAllEvents(context.Background(), SearchRequest{
		Latitude:  40.0,
		Longitude: -73.0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Errorf("Expected cross-provider duplicate collapsed to 1, got %d", len(events))
	}
	if summary.DuplicatesRemoved != 1 {
		t.Errorf("Expected 1 duplicate removed, got %d", summary.DuplicatesRemoved)
	}
}

func TestSearchAllEventsUsesCache(t *testing.T) {
	adapter := &stubAdapter{name: "a", events: []models.Event{
		futureEvent("e1", "Jazz Night", 2, 40.0, -73.0),
	}}

	agg := NewEventAggregator([]providers.Adapter{adapter})
	req := SearchRequest{Latitude: 40.0, Longitude: -73.0}

	if _, summary, err := agg.SearchAllEvents(context.Background(), req); err != nil {
		t.Fatal(err)
	} else if summary.FromCache {
		t.Error("Expected first search to miss the cache")
	}

	_, summary, err := agg.SearchAllEvents(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.FromCache {
		t.Error("Expected second identical search to hit the cache")
	}
	if calls := atomic.LoadInt32(&adapter.calls); calls != 1 {
		t.Errorf("Expected provider called once, got %d", calls)
	}

	// A different radius is a different cache entry
	if _, _, err := agg.SearchAllEvents(context.Background(), SearchRequest{Latitude: 40.0, Longitude: -73.0, Radius: 25}); err != nil {
		t.Fatal(err)
	}
	if calls := atomic.LoadInt32(&adapter.calls); calls != 2 {
		t.Errorf("Expected second fan-out for new radius, got %d calls", calls)
	}
}

func TestSearchAllEventsRequiresCoordinates(t *testing.T) {
	agg := NewEventAggregator(nil)
	if _, _, err := agg.SearchAllEvents(context.Background(), SearchRequest{}); err == nil {
		t.Error("Expected error for request without coordinates")
	}
}

func TestSearchAllEventsFiltersAndTruncates(t *testing.T) {
	var canned []models.Event
	for i := 0; i < 5; i++ {
		e := futureEvent(fmt.Sprintf("e%d", i), fmt.Sprintf("Event %d", i), 2+i, 40.0, -73.0)
		if i%2 == 0 {
			e.Category = models.CategoryLiveMusic
		} else {
			e.Category = models.CategoryComedy
		}
		canned = append(canned, e)
	}
	adapter := &stubAdapter{name: "a", events: canned}
	agg := NewEventAggregator([]providers.Adapter{adapter})

	events, _, err := agg.SearchAllEvents(context.Background(), SearchRequest{
		Latitude:  40.0,
		Longitude: -73.0,
		Filters:   models.Filter{Category: models.CategoryLiveMusic},
		Size:      2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 3 live-music events truncated to 2, got %d", len(events))
	}
	for _, e := range events {
		if e.Category != models.CategoryLiveMusic {
			t.Errorf("Expected only live-music events, got %s", e.Category)
		}
	}
	// Date-ascending within the truncated page
	if events[0].ID != "e0" || events[1].ID != "e2" {
		t.Errorf("Expected [e0 e2], got [%s %s]", events[0].ID, events[1].ID)
	}
}

func TestSearchAllEventsDropsInvalid(t *testing.T) {
	stale := models.Event{ID: "old", Title: "Last Year", Date: "2020-01-01"}
	stale.SetCoordinates(40.0, -73.0)
	nowhere := models.Event{ID: "nowhere", Title: "No Venue", Date: time.Now().AddDate(0, 0, 2).Format(models.ISODateFormat)}

	adapter := &stubAdapter{name: "a", events: []models.Event{
		stale,
		nowhere,
		futureEvent("ok", "Keeper", 2, 40.0, -73.0),
	}}
	agg := NewEventAggregator([]providers.Adapter{adapter})

	events, _, err := agg.SearchAllEvents(context.Background(), SearchRequest{Latitude: 40.0, Longitude: -73.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != "ok" {
		t.Errorf("Expected only the valid event, got %d", len(events))
	}
}
