package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"local-events-aggregator/internal/models"
)

// EventPublisher writes aggregated event data to S3 for frontend consumption
type EventPublisher struct {
	client     *s3.Client
	bucketName string
	region     string
}

// EventsOutput is the JSON document published after each aggregation run.
type EventsOutput struct {
	Metadata EventsMetadata `json:"metadata"`
	Events   []models.Event `json:"events"`
}

// EventsMetadata describes an events document.
type EventsMetadata struct {
	GeneratedAt time.Time   `json:"generated_at"`
	TotalEvents int         `json:"total_events"`
	Sources     []string    `json:"sources"`
	Summary     *RunSummary `json:"summary,omitempty"`
}

// PublishResult represents the result of an S3 upload operation
type PublishResult struct {
	Key        string    `json:"key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	PublicURL  string    `json:"public_url"`
}

// NewEventPublisher creates a publisher against the bucket named by
// S3_BUCKET_NAME.
func NewEventPublisher(ctx context.Context) (*EventPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	bucketName := os.Getenv("S3_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME environment variable is required")
	}

	return &EventPublisher{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		region:     cfg.Region,
	}, nil
}

// PublishLatestEvents uploads events as the "latest" version the frontend reads.
func (p *EventPublisher) PublishLatestEvents(ctx context.Context, events []models.Event, summary *RunSummary) (*PublishResult, error) {
	return p.publishEvents(ctx, events, summary, "events/latest.json")
}

// BackupEvents snapshots the run under a timestamped key.
func (p *EventPublisher) BackupEvents(ctx context.Context, events []models.Event, summary *RunSummary) (*PublishResult, error) {
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	key := fmt.Sprintf("events/backups/%s.json", timestamp)
	return p.publishEvents(ctx, events, summary, key)
}

// DownloadLatestEvents fetches and parses the most recently published document.
func (p *EventPublisher) DownloadLatestEvents(ctx context.Context) (*EventsOutput, error) {
	result, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String("events/latest.json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	var output EventsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events JSON: %w", err)
	}
	return &output, nil
}

func (p *EventPublisher) publishEvents(ctx context.Context, events []models.Event, summary *RunSummary, key string) (*PublishResult, error) {
	sources := map[string]bool{}
	for _, e := range events {
		sources[e.Source] = true
	}
	sourceNames := make([]string, 0, len(sources))
	for s := range sources {
		sourceNames = append(sourceNames, s)
	}

	output := EventsOutput{
		Metadata: EventsMetadata{
			GeneratedAt: time.Now().UTC(),
			TotalEvents: len(events),
			Sources:     sourceNames,
			Summary:     summary,
		},
		Events: events,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal events to JSON: %w", err)
	}

	key = strings.TrimPrefix(key, "/")
	result, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucketName),
		Key:          aws.String(key),
		Body:         bytes.NewReader(jsonData),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("public, max-age=300"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &PublishResult{
		Key:        key,
		ETag:       strings.Trim(aws.ToString(result.ETag), `"`),
		Size:       int64(len(jsonData)),
		UploadedAt: time.Now(),
		PublicURL:  fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucketName, p.region, key),
	}, nil
}
