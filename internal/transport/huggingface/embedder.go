// Package huggingface talks to the Hugging Face Inference API.
package huggingface

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/transport/httpx"
)

const (
	// DefaultBaseURL is the Inference Providers router.
	DefaultBaseURL = "https://router.huggingface.co"
	// DefaultEmbeddingModel is used when no model, or an OpenAI model name, is configured.
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
)

// EmbedderConfig holds feature-extraction settings.
type EmbedderConfig struct {
	Token   string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder computes sentence embeddings with the feature-extraction pipeline.
type Embedder struct {
	http    *httpx.Client
	baseURL string
	model   string
}

// NewEmbedder creates a feature-extraction embedder.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	headers := map[string]string{}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}
	return &Embedder{
		http:    httpx.New(cfg.Timeout, headers),
		baseURL: base,
		model:   EmbeddingModel(cfg.Model),
	}
}

// EmbeddingModel maps empty and OpenAI-style names onto the default
// sentence-transformers model.
func EmbeddingModel(name string) string {
	if name == "" || strings.HasPrefix(name, "text-embedding-") {
		return DefaultEmbeddingModel
	}
	return name
}

// Model returns the effective model name.
func (e *Embedder) Model() string { return e.model }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	endpoint := httpx.JoinURL(e.baseURL,
		"hf-inference/models/"+escapeModel(e.model)+"/pipeline/feature-extraction")

	var raw any
	req := map[string]any{"inputs": text, "normalize": true}
	if err := e.http.PostJSON(ctx, endpoint, req, &raw, domain.ErrEmbeddingProviderError); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("huggingface embed: %w", err)
	}

	vec, err := pooledVector(raw)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("huggingface embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// pooledVector accepts a flat vector or a single-row matrix.
func pooledVector(raw any) ([]float32, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("unexpected feature-extraction response")
	}
	if inner, nested := arr[0].([]any); nested {
		if len(arr) != 1 {
			return nil, fmt.Errorf("token-level output (%d rows) is not supported", len(arr))
		}
		arr = inner
	}
	out := make([]float32, len(arr))
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("non-numeric value at %d", i)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func escapeModel(model string) string {
	parts := strings.Split(model, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
