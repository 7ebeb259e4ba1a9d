package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdaclient "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"local-events-aggregator/internal/models"
	"local-events-aggregator/internal/providers"
	"local-events-aggregator/internal/services"
)

// APIResponse represents the Lambda proxy response
type APIResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// ResponseBody represents the response body structure
type ResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []services.ChatMessage `json:"messages"`
	Location string                 `json:"location,omitempty"`
}

// RestaurantSearchRequest is the body of POST /api/restaurants/search.
type RestaurantSearchRequest struct {
	Latitude  float64                 `json:"latitude"`
	Longitude float64                 `json:"longitude"`
	Page      int                     `json:"page,omitempty"`
	Filters   models.RestaurantFilter `json:"filters,omitempty"`
}

// SaveEventRequest is the body of POST /api/events/saved.
type SaveEventRequest struct {
	UserID string       `json:"user_id"`
	Event  models.Event `json:"event"`
}

var (
	aggregator             *services.EventAggregator
	geocoder               *services.MapboxClient
	chatService            *services.ChatService
	restaurantService      *services.RestaurantService
	savedEvents            *services.SavedEventStore
	lambdaClient           *lambdaclient.Client
	aggregatorFunctionName string
)

func init() {
	geocoder = services.NewMapboxClient()

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
	aggregator = services.NewEventAggregator(adapters)

	restaurantService = services.NewRestaurantService()

	if os.Getenv("OPENAI_API_KEY") != "" {
		chatService = services.NewChatService(geocoder)
	}

	if os.Getenv("SAVED_EVENTS_TABLE") != "" {
		store, err := services.NewSavedEventStore(context.TODO())
		if err != nil {
			log.Printf("Saved events disabled: %v", err)
		} else {
			savedEvents = store
		}
	}

	aggregatorFunctionName = os.Getenv("AGGREGATOR_FUNCTION_NAME")
	if aggregatorFunctionName != "" {
		cfg, err := config.LoadDefaultConfig(context.TODO())
		if err != nil {
			log.Printf("Refresh endpoint disabled, failed to load AWS config: %v", err)
		} else {
			lambdaClient = lambdaclient.NewFromConfig(cfg)
		}
	}
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (APIResponse, error) {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,DELETE,OPTIONS",
		"Content-Type":                 "application/json",
	}

	if request.HTTPMethod == "OPTIONS" {
		return APIResponse{StatusCode: 200, Headers: headers, Body: ""}, nil
	}

	path := request.Path
	method := request.HTTPMethod
	log.Printf("Search API request: %s %s", method, path)

	var responseBody ResponseBody
	var statusCode int

	switch {
	case method == "POST" && path == "/api/events/search":
		responseBody, statusCode = handleEventSearch(ctx, request.Body)

	case method == "POST" && path == "/api/events/refresh":
		responseBody, statusCode = handleRefresh(ctx, request.Body)

	case method == "POST" && path == "/api/chat":
		responseBody, statusCode = handleChat(ctx, request.Body)

	case method == "POST" && path == "/api/restaurants/search":
		responseBody, statusCode = handleRestaurantSearch(ctx, request.Body)

	case method == "GET" && path == "/api/locations/suggest":
		responseBody, statusCode = handleLocationSuggest(ctx, request.QueryStringParameters)

	case method == "POST" && path == "/api/events/saved":
		responseBody, statusCode = handleSaveEvent(ctx, request.Body)

	case method == "GET" && path == "/api/events/saved":
		responseBody, statusCode = handleListSavedEvents(ctx, request.QueryStringParameters)

	case method == "DELETE" && strings.HasPrefix(path, "/api/events/saved/"):
		eventID := strings.TrimPrefix(path, "/api/events/saved/")
		responseBody, statusCode = handleDeleteSavedEvent(ctx, eventID, request.QueryStringParameters)

	default:
		responseBody = ResponseBody{Success: false, Error: "Not found"}
		statusCode = 404
	}

	bodyJSON, err := json.Marshal(responseBody)
	if err != nil {
		log.Printf("Error marshaling response body: %v", err)
		return APIResponse{
			StatusCode: 500,
			Headers:    headers,
			Body:       `{"success":false,"error":"Internal server error"}`,
		}, nil
	}

	return APIResponse{StatusCode: statusCode, Headers: headers, Body: string(bodyJSON)}, nil
}

// handleEventSearch handles POST /api/events/search
func handleEventSearch(ctx context.Context, body string) (ResponseBody, int) {
	var req services.SearchRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return ResponseBody{Success: false, Error: "Invalid request body: " + err.Error()}, 400
	}

	// Older clients send display labels like "under $25" and "this weekend".
	req.Filters.PriceRange = models.ParsePriceRange(string(req.Filters.PriceRange))
	req.Filters.DateRange = models.ParseDateRange(string(req.Filters.DateRange))

	results, summary, err := aggregator.SearchAllEvents(ctx, req)
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 400
	}

	return ResponseBody{
		Success: true,
		Data: map[string]interface{}{
			"events":  results,
			"summary": summary,
		},
	}, 200
}

// handleRefresh handles POST /api/events/refresh by asynchronously invoking
// the aggregator function.
func handleRefresh(ctx context.Context, body string) (ResponseBody, int) {
	if lambdaClient == nil || aggregatorFunctionName == "" {
		return ResponseBody{Success: false, Error: "Refresh is not configured"}, 503
	}

	payload := []byte(body)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := lambdaClient.Invoke(ctx, &lambdaclient.InvokeInput{
		FunctionName:   aws.String(aggregatorFunctionName),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		log.Printf("Failed to invoke aggregator: %v", err)
		return ResponseBody{Success: false, Error: "Failed to trigger refresh"}, 502
	}

	return ResponseBody{Success: true, Message: "Refresh triggered"}, 202
}

// handleChat handles POST /api/chat
func handleChat(ctx context.Context, body string) (ResponseBody, int) {
	if chatService == nil {
		return ResponseBody{Success: false, Error: "Chat is not configured"}, 503
	}

	var req ChatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return ResponseBody{Success: false, Error: "Invalid request body: " + err.Error()}, 400
	}
	if len(req.Messages) == 0 {
		return ResponseBody{Success: false, Error: "messages is required"}, 400
	}

	reply, err := chatService.Chat(ctx, req.Messages, req.Location)
	if err != nil {
		log.Printf("Chat failed: %v", err)
		return ResponseBody{Success: false, Error: "Chat request failed"}, 502
	}

	return ResponseBody{Success: true, Data: reply}, 200
}

// handleRestaurantSearch handles POST /api/restaurants/search
func handleRestaurantSearch(ctx context.Context, body string) (ResponseBody, int) {
	var req RestaurantSearchRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return ResponseBody{Success: false, Error: "Invalid request body: " + err.Error()}, 400
	}

	page, err := restaurantService.SearchRestaurants(ctx, req.Latitude, req.Longitude, req.Page, req.Filters)
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 400
	}

	return ResponseBody{Success: true, Data: page}, 200
}

// handleLocationSuggest handles GET /api/locations/suggest?q=...
func handleLocationSuggest(ctx context.Context, query map[string]string) (ResponseBody, int) {
	q := query["q"]
	if q == "" {
		return ResponseBody{Success: false, Error: "q query parameter is required"}, 400
	}

	suggestions, err := geocoder.SearchLocations(ctx, q)
	if err != nil {
		log.Printf("Location suggest failed: %v", err)
		return ResponseBody{Success: false, Error: "Location lookup failed"}, 502
	}

	return ResponseBody{Success: true, Data: suggestions}, 200
}

// handleSaveEvent handles POST /api/events/saved
func handleSaveEvent(ctx context.Context, body string) (ResponseBody, int) {
	if savedEvents == nil {
		return ResponseBody{Success: false, Error: "Saved events are not configured"}, 503
	}

	var req SaveEventRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return ResponseBody{Success: false, Error: "Invalid request body: " + err.Error()}, 400
	}
	if req.UserID == "" || req.Event.ID == "" {
		return ResponseBody{Success: false, Error: "user_id and event.id are required"}, 400
	}

	if err := savedEvents.SaveEvent(ctx, req.UserID, req.Event); err != nil {
		log.Printf("Failed to save event: %v", err)
		return ResponseBody{Success: false, Error: "Failed to save event"}, 500
	}

	return ResponseBody{Success: true, Message: fmt.Sprintf("Saved event %s", req.Event.ID)}, 201
}

// handleListSavedEvents handles GET /api/events/saved?user_id=...
func handleListSavedEvents(ctx context.Context, query map[string]string) (ResponseBody, int) {
	if savedEvents == nil {
		return ResponseBody{Success: false, Error: "Saved events are not configured"}, 503
	}

	userID := query["user_id"]
	if userID == "" {
		return ResponseBody{Success: false, Error: "user_id query parameter is required"}, 400
	}

	saved, err := savedEvents.ListSavedEvents(ctx, userID)
	if err != nil {
		log.Printf("Failed to list saved events: %v", err)
		return ResponseBody{Success: false, Error: "Failed to list saved events"}, 500
	}

	return ResponseBody{Success: true, Data: saved}, 200
}

// handleDeleteSavedEvent handles DELETE /api/events/saved/{eventID}?user_id=...
func handleDeleteSavedEvent(ctx context.Context, eventID string, query map[string]string) (ResponseBody, int) {
	if savedEvents == nil {
		return ResponseBody{Success: false, Error: "Saved events are not configured"}, 503
	}

	userID := query["user_id"]
	if userID == "" || eventID == "" {
		return ResponseBody{Success: false, Error: "user_id and event ID are required"}, 400
	}

	if err := savedEvents.DeleteSavedEvent(ctx, userID, eventID); err != nil {
		log.Printf("Failed to delete saved event: %v", err)
		return ResponseBody{Success: false, Error: "Failed to delete saved event"}, 500
	}

	return ResponseBody{Success: true, Message: "Deleted"}, 200
}

func main() {
	lambda.Start(handleRequest)
}
