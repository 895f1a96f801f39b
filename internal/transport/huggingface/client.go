package huggingface

import (
	"context"
	"fmt"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/transport/httpx"
)

// Config holds provider settings.
type Config struct {
	Token          string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// Client is the Hugging Face chat and embedding provider.
type Client struct {
	*Embedder
	http      *httpx.Client
	baseURL   string
	chatModel string
}

// New creates a Hugging Face provider.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}
	return &Client{
		Embedder: NewEmbedder(EmbedderConfig{
			Token: cfg.Token, BaseURL: base, Model: cfg.EmbeddingModel, Timeout: cfg.Timeout,
		}),
		http:      httpx.New(cfg.Timeout, headers),
		baseURL:   base,
		chatModel: cfg.ChatModel,
	}
}

// Kind implements domain.LLMProvider.
func (c *Client) Kind() domain.ProviderKind { return domain.ProviderHuggingFace }

// ValidateConfig needs a chat model; the token is optional for public models.
func (c *Client) ValidateConfig() error {
	if c.chatModel == "" {
		return domain.NewValidationError("llm.chat_model", "is required for huggingface")
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompletion implements domain.ChatCompleter via the OpenAI-compatible
// chat-completions route.
func (c *Client) ChatCompletion(
	ctx context.Context, messages []domain.Message, opts domain.ChatOptions,
) (string, error) {
	req := chatRequest{Model: c.chatModel, MaxTokens: opts.MaxTokens}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}
	if opts.JSON {
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var resp chatResponse
	if err := c.http.PostJSON(ctx, httpx.JoinURL(c.baseURL, "v1/chat/completions"), req, &resp,
		domain.ErrLLMProviderError); err != nil {
		return "", fmt.Errorf("huggingface chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("huggingface chat: empty response: %w", domain.ErrLLMProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}
