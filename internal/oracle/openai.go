package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the Gemini API's OpenAI compatibility endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// ClientConfig configures the chat completion backend.
type ClientConfig struct {
	// BaseURL overrides the API endpoint. Empty selects DefaultBaseURL.
	BaseURL string
	// Model names the model to use, for example "gemini-2.5-flash".
	Model string
	// APIKey authenticates requests. Must not be empty.
	APIKey string
	// Temperature is the sampling temperature passed on each request.
	Temperature float32
	// Timeout bounds each HTTP request. Zero means no client timeout.
	Timeout time.Duration
}

// Client corrects batches through an OpenAI-compatible chat completion API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewClient validates cfg and builds the API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("oracle: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("oracle: model is required")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// CorrectBatch sends one batch as a JSON payload and decodes the model's
// reply. Every failure is reported as transient.
func (c *Client) CorrectBatch(ctx context.Context, items []Item) ([]Correction, error) {
	if len(items) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return nil, &TransientError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &TransientError{Op: "chat completion", Err: errors.New("response carries no choices")}
	}

	corrections, err := ParseCorrections(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &TransientError{Op: "decode reply", Err: err}
	}
	return corrections, nil
}
