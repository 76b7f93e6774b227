package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// Source produces candidate events for a batch of posts, ordered by
// descending score. The remote summarization service and the deterministic
// fallback both implement it, so callers select between them by
// availability rather than configuration.
type Source interface {
	Acquire(ctx context.Context, batch models.Batch) ([]models.CandidateEvent, error)
}

// Config holds settings for the remote summarization call.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// DefaultConfig returns settings tuned for deterministic clustering output.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		Temperature: 0.2,
		Timeout:     120 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.APIKey = os.Getenv("SUMMARIZER_API_KEY")
	if model := os.Getenv("SUMMARIZER_MODEL"); model != "" {
		cfg.Model = model
	}
	if raw := os.Getenv("SUMMARIZER_TEMPERATURE"); raw != "" {
		if temp, err := strconv.ParseFloat(raw, 32); err == nil {
			cfg.Temperature = float32(temp)
		}
	}
	if raw := os.Getenv("SUMMARIZER_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

// OpenAIClient acquires event clusters from the remote summarization
// service. A failed or unusable response is returned as an error; the
// ingestion pipeline treats that as zero candidates and substitutes the
// fallback clusterer — acquisition failures never abort a batch.
type OpenAIClient struct {
	client *openai.Client
	config Config
	logger *slog.Logger
}

// NewOpenAIClient creates a summarization-backed cluster source.
func NewOpenAIClient(cfg Config, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
		logger: logger,
	}
}

// Acquire serializes the batch, appends it to the fixed instruction
// template, and parses the service's response into candidate events.
func (c *OpenAIClient) Acquire(ctx context.Context, batch models.Batch) ([]models.CandidateEvent, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("serialize batch: %w", err)
	}

	prompt := instructionTemplate + "\n\nPOST DATA:\n" + string(payload)

	apiCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(apiCtx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarization call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned from model %s", c.config.Model)
	}

	c.logger.Info("summarization call complete",
		"query", batch.Query,
		"posts", len(batch.Results),
		"duration_ms", time.Since(start).Milliseconds())

	events, err := ParseEventsResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Info("candidate events acquired",
		"query", batch.Query,
		"events", len(events))

	return events, nil
}

// ParseEventsResponse extracts and decodes the {"events": [...]} object from
// free-form response text. Surrounding prose and markdown fencing are
// tolerated; a response with no JSON object or no events key is an error.
func ParseEventsResponse(text string) ([]models.CandidateEvent, error) {
	jsonStr, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Events *[]models.CandidateEvent `json:"events"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("decode events payload: %w", err)
	}
	if parsed.Events == nil {
		return nil, fmt.Errorf("response JSON has no events key")
	}

	return *parsed.Events, nil
}
