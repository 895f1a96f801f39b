// Package anthropic is the Anthropic Messages API provider. Anthropic has no
// embedding endpoint, so embeddings are delegated to a separate embedder.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/transport/httpx"
)

// Anthropic API constants.
const (
	DefaultBaseURL    = "https://api.anthropic.com/v1"
	DefaultModel      = "claude-3-5-haiku-latest"
	DefaultMaxTokens  = 1024
	DefaultAPIVersion = "2023-06-01"
)

const jsonInstruction = "Respond with a single JSON object and nothing else."

// Config holds provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements domain.LLMProvider on top of the Messages API.
type Client struct {
	http      *httpx.Client
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	embedder  domain.Embedder
}

// New creates an Anthropic provider; embedder serves Embed.
func New(cfg Config, embedder domain.Embedder) *Client {
	c := &Client{
		http: httpx.New(cfg.Timeout, map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": DefaultAPIVersion,
		}),
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		embedder:  embedder,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c
}

// Kind implements domain.LLMProvider.
func (c *Client) Kind() domain.ProviderKind { return domain.ProviderAnthropic }

// ValidateConfig requires the API key and an embedder.
func (c *Client) ValidateConfig() error {
	if c.apiKey == "" {
		return domain.NewValidationError("llm.api_key", "is required for anthropic")
	}
	if c.embedder == nil {
		return domain.NewValidationError("llm.embedding", "anthropic needs an embedding provider")
	}
	return nil
}

// Embed delegates to the configured embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if c.embedder == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("anthropic: no embedder: %w", domain.ErrEmbeddingProviderError)
	}
	return c.embedder.Embed(ctx, text)
}

// HealthCheck delegates to the embedder when it can check itself.
func (c *Client) HealthCheck(ctx context.Context) error {
	if hc, ok := c.embedder.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// ChatCompletion implements domain.ChatCompleter. System messages are lifted
// into the top-level system prompt.
func (c *Client) ChatCompletion(
	ctx context.Context, messages []domain.Message, opts domain.ChatOptions,
) (string, error) {
	req := messagesRequest{Model: c.model, MaxTokens: c.maxTokens}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}

	var system []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	if opts.JSON {
		system = append(system, jsonInstruction)
	}
	req.System = strings.Join(system, "\n\n")

	var resp messagesResponse
	if err := c.http.PostJSON(ctx, httpx.JoinURL(c.baseURL, "messages"), req, &resp,
		domain.ErrLLMProviderError); err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic messages: empty response: %w", domain.ErrLLMProviderError)
	}
	return sb.String(), nil
}
