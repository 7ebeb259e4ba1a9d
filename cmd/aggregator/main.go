package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"local-events-aggregator/internal/providers"
	"local-events-aggregator/internal/services"
)

// AggregatorEvent triggers a full aggregation run, either on a schedule or
// via an async invoke from the search API. Coordinates default to the
// DEFAULT_LATITUDE / DEFAULT_LONGITUDE environment variables when omitted.
type AggregatorEvent struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
	Keyword   string  `json:"keyword,omitempty"`
	Backup    bool    `json:"backup,omitempty"`
}

// AggregatorResponse reports the outcome of a run.
type AggregatorResponse struct {
	Success        bool                 `json:"success"`
	Message        string               `json:"message"`
	TotalEvents    int                  `json:"total_events"`
	ProcessingTime int64                `json:"processing_time_ms"`
	Summary        *services.RunSummary `json:"summary,omitempty"`
	PublishedKey   string               `json:"published_key,omitempty"`
}

func handleRequest(ctx context.Context, event AggregatorEvent) (AggregatorResponse, error) {
	startTime := time.Now()

	latitude, longitude := event.Latitude, event.Longitude
	if latitude == 0 && longitude == 0 {
		latitude = envFloat("DEFAULT_LATITUDE")
		longitude = envFloat("DEFAULT_LONGITUDE")
	}
	if latitude == 0 && longitude == 0 {
		return AggregatorResponse{Success: false, Message: "no coordinates in event or environment"},
			fmt.Errorf("aggregation requires coordinates")
	}

	log.Printf("Starting aggregation run for %.4f,%.4f", latitude, longitude)

	geocoder := services.NewMapboxClient()
	aggregator := services.NewEventAggregator(buildAdapters(geocoder))

	eventsFound, summary, err := aggregator.SearchAllEvents(ctx, services.SearchRequest{
		Latitude:  latitude,
		Longitude: longitude,
		Radius:    event.Radius,
		Keyword:   event.Keyword,
	})
	if err != nil {
		return AggregatorResponse{Success: false, Message: err.Error()}, err
	}

	response := AggregatorResponse{
		Success:     true,
		TotalEvents: len(eventsFound),
		Summary:     summary,
	}

	publisher, err := services.NewEventPublisher(ctx)
	if err != nil {
		// A publish failure downgrades the run, it does not fail it: the
		// events were still aggregated.
		log.Printf("Failed to create publisher: %v", err)
		response.Message = fmt.Sprintf("aggregated %d events, publish skipped: %v", len(eventsFound), err)
	} else {
		result, err := publisher.PublishLatestEvents(ctx, eventsFound, summary)
		if err != nil {
			log.Printf("Failed to publish events: %v", err)
			response.Message = fmt.Sprintf("aggregated %d events, publish failed: %v", len(eventsFound), err)
		} else {
			response.PublishedKey = result.Key
			response.Message = fmt.Sprintf("aggregated %d events, published to %s", len(eventsFound), result.Key)
		}

		if event.Backup {
			if _, err := publisher.BackupEvents(ctx, eventsFound, summary); err != nil {
				log.Printf("Failed to back up events: %v", err)
			}
		}
	}

	response.ProcessingTime = time.Since(startTime).Milliseconds()
	log.Printf("Aggregation run complete: %s (%dms)", response.Message, response.ProcessingTime)
	return response, nil
}

// buildAdapters wires every provider that has credentials configured.
func buildAdapters(geocoder *services.MapboxClient) []providers.Adapter {
	var adapters []providers.Adapter

	if os.Getenv("TICKETMASTER_API_KEY") != "" {
		adapters = append(adapters, providers.NewTicketmasterAdapter())
	}
	if os.Getenv("EVENTBRITE_PRIVATE_TOKEN") != "" {
		adapters = append(adapters, providers.NewEventbriteAdapter())
	}
	if os.Getenv("RAPIDAPI_KEY") != "" {
		adapters = append(adapters, providers.NewRealTimeAdapter(geocoder))
	}
	if os.Getenv("SERPAPI_KEY") != "" {
		adapters = append(adapters, providers.NewGoogleEventsAdapter())
	}

	if len(adapters) == 0 {
		log.Printf("WARNING: no provider credentials configured, runs will return zero events")
	}
	return adapters
}

func envFloat(name string) float64 {
	value, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return 0
	}
	return value
}

func main() {
	lambda.Start(handleRequest)
}
