// Package llm selects the configured LLM backend and builds the
// classification and troubleshooting calls on top of it.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lognlook/lognlook/internal/config"
	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/metrics"
	"github.com/lognlook/lognlook/internal/transport/anthropic"
	"github.com/lognlook/lognlook/internal/transport/huggingface"
	"github.com/lognlook/lognlook/internal/transport/ollama"
	"github.com/lognlook/lognlook/internal/transport/openai"
)

// NewProvider builds the backend named by cfg.Provider, validates its
// configuration and wraps it with rate limiting and chat metrics.
func NewProvider(cfg config.LLMConfig, logger *zap.Logger) (*Provider, error) {
	kind, err := domain.ParseProviderKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	var inner domain.LLMProvider
	switch kind {
	case domain.ProviderOpenAI:
		inner = openai.New(openai.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			Timeout:        timeout,
		})
	case domain.ProviderAnthropic:
		emb := huggingface.NewEmbedder(huggingface.EmbedderConfig{
			Token:   cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   firstNonEmpty(cfg.Embedding.Model, cfg.EmbeddingModel),
			Timeout: timeout,
		})
		inner = anthropic.New(anthropic.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.ChatModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   timeout,
		}, emb)
	case domain.ProviderOllama:
		inner = ollama.New(ollama.Config{
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        timeout,
		})
	case domain.ProviderHuggingFace:
		inner = huggingface.New(huggingface.Config{
			Token:          cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        timeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, cfg.Provider)
	}

	if err := inner.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("%s provider: %w", kind, err)
	}

	logger.Info("LLM provider configured",
		zap.String("provider", string(kind)),
		zap.String("chat_model", cfg.ChatModel),
		zap.String("embedding_model", cfg.EmbeddingModel),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
	)
	return Wrap(inner, cfg.RequestsPerSecond, cfg.Burst, logger), nil
}

// Provider decorates a backend with a shared client-side rate limit and
// chat completion metrics. Embedding metrics live in the embedding chain.
type Provider struct {
	inner   domain.LLMProvider
	limiter *rate.Limiter
	label   string
	logger  *zap.Logger
}

// Wrap decorates inner. rps <= 0 disables rate limiting.
func Wrap(inner domain.LLMProvider, rps float64, burst int, logger *zap.Logger) *Provider {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Provider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		label:   string(inner.Kind()),
		logger:  logger,
	}
}

// Kind implements domain.LLMProvider.
func (p *Provider) Kind() domain.ProviderKind { return p.inner.Kind() }

// ValidateConfig implements domain.LLMProvider.
func (p *Provider) ValidateConfig() error { return p.inner.ValidateConfig() }

// ChatCompletion waits for the limiter, then delegates.
func (p *Provider) ChatCompletion(
	ctx context.Context, messages []domain.Message, opts domain.ChatOptions,
) (string, error) {
	if err := p.wait(ctx); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(p.label, "rate_limited").Inc()
		return "", err
	}

	start := time.Now()
	out, err := p.inner.ChatCompletion(ctx, messages, opts)
	duration := time.Since(start)
	metrics.LLMRequestDuration.WithLabelValues(p.label).Observe(duration.Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(p.label, "error").Inc()
		p.logger.Error("Chat completion failed",
			zap.String("provider", p.label),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", err
	}
	metrics.LLMRequestsTotal.WithLabelValues(p.label, "ok").Inc()
	p.logger.Debug("Chat completion completed",
		zap.String("provider", p.label),
		zap.Duration("duration", duration),
		zap.Int("response_len", len(out)),
	)
	return out, nil
}

// Embed waits for the limiter, then delegates.
func (p *Provider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.wait(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return p.inner.Embed(ctx, text)
}

// HealthCheck delegates when the backend can check itself.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (p *Provider) wait(ctx context.Context) error {
	start := time.Now()
	err := p.limiter.Wait(ctx)
	metrics.LLMRateLimitWait.WithLabelValues(p.label).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w: %w", p.label, domain.ErrRateLimited, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
