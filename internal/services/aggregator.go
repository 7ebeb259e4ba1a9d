package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"local-events-aggregator/internal/geo"
	"local-events-aggregator/internal/models"
	"local-events-aggregator/internal/providers"
)

// SearchRequest is a full aggregated-search query.
type SearchRequest struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Radius    float64       `json:"radius,omitempty"`
	Keyword   string        `json:"keyword,omitempty"`
	Filters   models.Filter `json:"filters,omitempty"`
	Size      int           `json:"size,omitempty"`
}

// ProviderResult records one adapter's contribution to an aggregation run.
type ProviderResult struct {
	Name        string        `json:"name"`
	EventsFound int           `json:"events_found"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunSummary describes a completed fan-out for logging and publishing.
type RunSummary struct {
	TotalProviders    int              `json:"total_providers"`
	FailedProviders   int              `json:"failed_providers"`
	TotalEvents       int              `json:"total_events"`
	DuplicatesRemoved int              `json:"duplicates_removed"`
	FromCache         bool             `json:"from_cache"`
	ProviderResults   []ProviderResult `json:"provider_results,omitempty"`
}

// EventAggregator fans a search out to every provider adapter concurrently,
// tolerates partial upstream failure, and pipes the union through
// validation, deduplication, caching, filtering, and sorting.
type EventAggregator struct {
	adapters  []providers.Adapter
	cache     Cache
	validator *Validator
	filters   *FilterEngine
	sorter    *SortEngine
}

// NewEventAggregator creates an aggregator over the given adapters with its
// own in-memory cache.
func NewEventAggregator(adapters []providers.Adapter) *EventAggregator {
	return NewEventAggregatorWithCache(adapters, NewMemoryCache())
}

// NewEventAggregatorWithCache creates an aggregator with an injected cache.
func NewEventAggregatorWithCache(adapters []providers.Adapter, cache Cache) *EventAggregator {
	return &EventAggregator{
		adapters:  adapters,
		cache:     cache,
		validator: NewValidator(),
		filters:   NewFilterEngine(),
		sorter:    NewSortEngine(),
	}
}

// SearchAllEvents runs the full aggregation pipeline. The only fatal failure
// is a request without coordinates; every upstream failure degrades result
// completeness, never correctness.
func (a *EventAggregator) SearchAllEvents(ctx context.Context, req SearchRequest) ([]models.Event, *RunSummary, error) {
	if req.Latitude == 0 && req.Longitude == 0 {
		return nil, nil, fmt.Errorf("search request requires latitude and longitude")
	}

	key := CacheKey(req.Latitude, req.Longitude, req.Radius)

	events, ok := a.cache.Get(key)
	summary := &RunSummary{TotalProviders: len(a.adapters), FromCache: ok}
	if ok {
		log.Printf("aggregator: cache hit for %s (%d events)", key, len(events))
	} else {
		log.Printf("aggregator: cache miss for %s, fanning out to %d providers", key, len(a.adapters))
		events, summary = a.fetchAllEvents(ctx, req)
		a.cache.Put(key, events)
	}

	// Annotate distance relative to the query point before filtering so the
	// cached copy stays reference-free.
	reference := &models.Location{Latitude: req.Latitude, Longitude: req.Longitude}
	annotated := make([]models.Event, len(events))
	for i, event := range events {
		distance := geo.RoundMiles(geo.DistanceMiles(
			reference.Latitude, reference.Longitude,
			event.Location.Latitude, event.Location.Longitude))
		event.Distance = &distance
		annotated[i] = event
	}

	filtered := a.filters.Apply(annotated, req.Filters, reference)
	a.sorter.SortDefault(filtered)

	if req.Size > 0 && len(filtered) > req.Size {
		filtered = filtered[:req.Size]
	}

	summary.TotalEvents = len(filtered)
	log.Printf("aggregator: returning %d events", len(filtered))
	return filtered, summary, nil
}

// fetchAllEvents issues every adapter search concurrently and joins them
// all-settled: a slow or failing provider contributes zero events and an
// error note, never an aborted batch.
func (a *EventAggregator) fetchAllEvents(ctx context.Context, req SearchRequest) ([]models.Event, *RunSummary) {
	params := models.SearchParams{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		Keyword:   req.Keyword,
	}

	type settled struct {
		events []models.Event
		result ProviderResult
	}

	var wg sync.WaitGroup
	results := make([]settled, len(a.adapters))

	for i, adapter := range a.adapters {
		wg.Add(1)
		go func(index int, adapter providers.Adapter) {
			defer wg.Done()

			start := time.Now()
			callCtx, cancel := context.WithTimeout(ctx, requestCeiling)
			defer cancel()

			events, err := adapter.Search(callCtx, params)
			result := ProviderResult{
				Name:        adapter.Name(),
				EventsFound: len(events),
				Duration:    time.Since(start),
			}
			if err != nil {
				result.Error = err.Error()
				result.EventsFound = 0
				events = nil
				log.Printf("aggregator: provider %s failed: %v", adapter.Name(), err)
			}

			results[index] = settled{events: events, result: result}
		}(i, adapter)
	}

	wg.Wait()

	summary := &RunSummary{TotalProviders: len(a.adapters)}
	var all []models.Event
	for _, r := range results {
		summary.ProviderResults = append(summary.ProviderResults, r.result)
		if r.result.Error != "" {
			summary.FailedProviders++
			continue
		}
		all = append(all, r.events...)
		log.Printf("aggregator: %s contributed %d events", r.result.Name, len(r.events))
	}

	valid := a.validator.FilterValid(all)
	unique := DedupeEvents(valid)
	summary.DuplicatesRemoved = len(valid) - len(unique)

	log.Printf("aggregator: %d events from %d/%d providers (%d duplicates removed)",
		len(unique), summary.TotalProviders-summary.FailedProviders,
		summary.TotalProviders, summary.DuplicatesRemoved)

	return unique, summary
}

// requestCeiling bounds each provider call independently; a timeout for one
// provider is indistinguishable from any of its other failures.
const requestCeiling = 30 * time.Second
