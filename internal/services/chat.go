package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"local-events-aggregator/internal/models"
)

// ChatService handles conversational event discovery using OpenAI
type ChatService struct {
	client      *openai.Client
	extractor   *AiEventExtractor
	model       string
	temperature float32
	maxTokens   int
}

// ChatMessage is one turn of a conversation as sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse carries the assistant reply plus any events it suggested.
type ChatResponse struct {
	Response     string         `json:"response"`
	Events       []models.Event `json:"events"`
	ProcessingMS int64          `json:"processing_ms"`
	TokensUsed   int            `json:"tokens_used"`
}

// NewChatService creates a new chat service
func NewChatService(geocoder Geocoder) *ChatService {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	return &ChatService{
		client:      openai.NewClient(apiKey),
		extractor:   NewAiEventExtractor(geocoder),
		model:       "gpt-4o-mini",
		temperature: 0.7,
		maxTokens:   2000,
	}
}

// NewChatServiceWithClient creates a chat service with an injected client,
// mainly for tests against a stub server.
func NewChatServiceWithClient(client *openai.Client, geocoder Geocoder) *ChatService {
	return &ChatService{
		client:      client,
		extractor:   NewAiEventExtractor(geocoder),
		model:       "gpt-4o-mini",
		temperature: 0.7,
		maxTokens:   2000,
	}
}

// Chat sends the conversation to the model and extracts any suggested
// events from the reply. The location string scopes suggestions to where
// the user is searching.
func (s *ChatService) Chat(ctx context.Context, messages []ChatMessage, location string) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat requires at least one message")
	}

	startTime := time.Now()

	chatMessages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: s.buildSystemPrompt(location),
		},
	}
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages:    chatMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices from model")
	}

	content := resp.Choices[0].Message.Content
	events := s.extractor.Extract(ctx, content)

	log.Printf("chat: reply with %d suggested events (%d tokens)", len(events), resp.Usage.TotalTokens)

	return &ChatResponse{
		Response:     content,
		Events:       events,
		ProcessingMS: time.Since(startTime).Milliseconds(),
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}

// buildSystemPrompt instructs the model to embed suggestions in parseable
// event blocks.
func (s *ChatService) buildSystemPrompt(location string) string {
	if location == "" {
		location = "the user's area"
	}

	return fmt.Sprintf(`You are a friendly local events concierge helping people find things to do near %s.

When you recommend a specific event, embed it in your reply as a structured block so it can be shown as a card:

EVENT_START
Title: <event name>
Date: <date, e.g. 2025-06-14 or June 14, 2025>
Time: <start time, e.g. 7:00 PM>
Location: <venue name and address>
Category: <one of: live-music, comedy, sports-games, performing-arts, food-drink, cultural, social, educational, outdoor, special>
Price: <Free, or a dollar amount like $25>
Description: <one or two sentences>
EVENT_END

Rules:
- Title and Location are required in every block. Omit other lines you are not sure about.
- Use a real street address or well-known venue name in Location so it can be placed on a map.
- Keep conversational text outside the blocks. Suggest at most 5 events per reply.
- Only suggest events that plausibly exist; never invent exact dates you are not confident about.`, location)
}
