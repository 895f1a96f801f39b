// Package ollama is the local Ollama provider.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/transport/httpx"
)

const (
	DefaultBaseURL        = "http://localhost:11434"
	DefaultChatModel      = "llama3.1"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// Config holds provider settings.
type Config struct {
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// Client implements domain.LLMProvider against /api/chat and /api/embed.
type Client struct {
	http           *httpx.Client
	baseURL        string
	chatModel      string
	embeddingModel string
}

// New creates an Ollama provider.
func New(cfg Config) *Client {
	c := &Client{
		http:           httpx.New(cfg.Timeout, nil),
		baseURL:        cfg.BaseURL,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	return c
}

// Kind implements domain.LLMProvider.
func (c *Client) Kind() domain.ProviderKind { return domain.ProviderOllama }

// ValidateConfig always succeeds: Ollama needs no credentials and
// reachability is checked on use.
func (c *Client) ValidateConfig() error { return nil }

// HealthCheck lists local models.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.http.GetJSON(ctx, httpx.JoinURL(c.baseURL, "api/tags"), nil, domain.ErrLLMProviderError); err != nil {
		return fmt.Errorf("ollama tags: %w", err)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// ChatCompletion implements domain.ChatCompleter.
func (c *Client) ChatCompletion(
	ctx context.Context, messages []domain.Message, opts domain.ChatOptions,
) (string, error) {
	req := chatRequest{Model: c.chatModel, Stream: false}
	if opts.JSON {
		req.Format = "json"
	}
	options := map[string]any{}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		req.Options = options
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var resp chatResponse
	if err := c.http.PostJSON(ctx, httpx.JoinURL(c.baseURL, "api/chat"), req, &resp,
		domain.ErrLLMProviderError); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama chat: empty response: %w", domain.ErrLLMProviderError)
	}
	return resp.Message.Content, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var resp embedResponse
	if err := c.http.PostJSON(ctx, httpx.JoinURL(c.baseURL, "api/embed"),
		embedRequest{Model: c.embeddingModel, Input: text}, &resp, domain.ErrEmbeddingProviderError); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("ollama embed: empty response: %w", domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{
		Embedding:    resp.Embeddings[0],
		PromptTokens: resp.PromptEvalCount,
		TotalTokens:  resp.PromptEvalCount,
	}, nil
}
