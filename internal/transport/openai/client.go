// Package openai is the OpenAI-compatible chat and embedding provider.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lognlook/lognlook/internal/domain"
)

const (
	defaultChatModel      = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// Config holds the provider settings.
type Config struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	ChatModel      string
	EmbeddingModel string
	Dimensions     int
	Timeout        time.Duration
	User           string
}

// Client talks to an OpenAI-compatible API (OpenAI, Azure-compatible gateways, Nebius).
type Client struct {
	client         *openai.Client
	cfg            Config
	chatModel      string
	embeddingModel openai.EmbeddingModel
}

// New creates an OpenAI-compatible provider.
func New(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	embModel := cfg.EmbeddingModel
	if embModel == "" {
		embModel = defaultEmbeddingModel
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		cfg:            cfg,
		chatModel:      chatModel,
		embeddingModel: openai.EmbeddingModel(embModel),
	}
}

// Kind implements domain.LLMProvider.
func (c *Client) Kind() domain.ProviderKind { return domain.ProviderOpenAI }

// ValidateConfig requires an API key for the public endpoint. Self-hosted
// compatible servers behind BaseURL may run without one.
func (c *Client) ValidateConfig() error {
	if c.cfg.APIKey == "" && c.cfg.BaseURL == "" {
		return domain.NewValidationError("llm.api_key", "is required for openai")
	}
	if c.cfg.Dimensions < 0 {
		return domain.NewValidationError("llm.dimensions", "must not be negative")
	}
	return nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response and
// wraps it with the given provider sentinel. 429 additionally wraps
// domain.ErrRateLimited.
func parseAPIError(err error, wrap error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return statusError(reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("openai request failed: %w: %w", wrap, err)
}

func statusError(status int, detail string, wrap error) error {
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("openai API error %d: %s: %w: %w", status, detail, wrap, domain.ErrRateLimited)
	}
	return fmt.Errorf("openai API error %d: %s: %w", status, detail, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
