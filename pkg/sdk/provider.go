package lognlook

import (
	"context"
	"errors"
	"fmt"

	"github.com/lognlook/lognlook/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Role of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    Role
	Content string
}

// ChatOptions tune one completion. JSON asks for a JSON object answer.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// ChatModel produces a single assistant reply.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck embeds a probe string.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if _, err := a.Embed(ctx, "health"); err != nil {
		return err
	}
	return nil
}

// chatAdapter wraps public ChatModel to satisfy domain.ChatCompleter.
type chatAdapter struct {
	inner ChatModel
}

func (a *chatAdapter) ChatCompletion(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (string, error) {
	msgs := make([]Message, len(messages))
	for i, m := range messages {
		msgs[i] = Message{Role: Role(m.Role), Content: m.Content}
	}
	out, err := a.inner.Complete(ctx, msgs, ChatOptions{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		JSON:        opts.JSON,
	})
	if err != nil {
		return "", fmt.Errorf("chat: %w: %w", domain.ErrLLMProviderError, err)
	}
	return out, nil
}

var errNoEmbedder = errors.New("lognlook: embedder not configured (use WithEmbedder)")

var errNoChatModel = errors.New("lognlook: chat model not configured (use WithChatModel)")
