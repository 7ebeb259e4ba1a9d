package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"local-events-aggregator/internal/models"
)

// SavedEventStore persists per-user saved events in DynamoDB. The table is
// keyed by UserID (partition) and EventID (sort).
type SavedEventStore struct {
	client    *dynamodb.Client
	tableName string
}

// SavedEvent is one user's bookmark of an event.
type SavedEvent struct {
	UserID  string       `json:"user_id" dynamodbav:"UserID"`
	EventID string       `json:"event_id" dynamodbav:"EventID"`
	Event   models.Event `json:"event" dynamodbav:"Event"`
	SavedAt time.Time    `json:"saved_at" dynamodbav:"SavedAt"`
}

// NewSavedEventStore creates a store against the table named by
// SAVED_EVENTS_TABLE.
func NewSavedEventStore(ctx context.Context) (*SavedEventStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	tableName := os.Getenv("SAVED_EVENTS_TABLE")
	if tableName == "" {
		return nil, fmt.Errorf("SAVED_EVENTS_TABLE environment variable is required")
	}

	return &SavedEventStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
	}, nil
}

// NewSavedEventStoreWithClient creates a store with an injected client.
func NewSavedEventStoreWithClient(client *dynamodb.Client, tableName string) *SavedEventStore {
	return &SavedEventStore{client: client, tableName: tableName}
}

// SaveEvent stores (or re-stores) an event for a user.
func (s *SavedEventStore) SaveEvent(ctx context.Context, userID string, event models.Event) error {
	if userID == "" || event.ID == "" {
		return fmt.Errorf("user ID and event ID are required")
	}

	saved := SavedEvent{
		UserID:  userID,
		EventID: event.ID,
		Event:   event,
		SavedAt: time.Now().UTC(),
	}

	item, err := attributevalue.MarshalMap(saved)
	if err != nil {
		return fmt.Errorf("failed to marshal saved event: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	return nil
}

// GetSavedEvent retrieves one saved event, or nil when the user has not
// saved it.
func (s *SavedEventStore) GetSavedEvent(ctx context.Context, userID, eventID string) (*SavedEvent, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"UserID":  &types.AttributeValueMemberS{Value: userID},
			"EventID": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get saved event: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var saved SavedEvent
	if err := attributevalue.UnmarshalMap(result.Item, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved event: %w", err)
	}
	return &saved, nil
}

// DeleteSavedEvent removes a user's bookmark. Deleting a bookmark that does
// not exist is not an error.
func (s *SavedEventStore) DeleteSavedEvent(ctx context.Context, userID, eventID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"UserID":  &types.AttributeValueMemberS{Value: userID},
			"EventID": &types.AttributeValueMemberS{Value: eventID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete saved event: %w", err)
	}
	return nil
}

// ListSavedEvents returns all events a user has saved, most recent first.
func (s *SavedEventStore) ListSavedEvents(ctx context.Context, userID string) ([]SavedEvent, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("UserID = :userID"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userID": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query saved events: %w", err)
	}

	var saved []SavedEvent
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &saved); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved events: %w", err)
	}

	sort.Slice(saved, func(i, j int) bool {
		return saved[i].SavedAt.After(saved[j].SavedAt)
	})

	return saved, nil
}
