package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lognlook/lognlook/internal/domain"
)

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{1, 2}}, nil
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ant-key" || r.Header.Get("anthropic-version") != DefaultAPIVersion {
			t.Errorf("headers = %v", r.Header)
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if !strings.HasPrefix(req.System, "be brief") || !strings.Contains(req.System, jsonInstruction) {
			t.Errorf("system = %q", req.System)
		}
		if req.MaxTokens != DefaultMaxTokens {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"{\"title\":"},{"type":"text","text":"\"t\"}"}],"stop_reason":"end_turn"}`)
	}))
	defer server.Close()

	c := New(Config{APIKey: "ant-key", BaseURL: server.URL}, &stubEmbedder{})
	out, err := c.ChatCompletion(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
	}, domain.ChatOptions{JSON: true})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if out != `{"title":"t"}` {
		t.Errorf("out = %q", out)
	}
}

func TestChatCompletion_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error"}}`)
	}))
	defer server.Close()

	c := New(Config{APIKey: "k", BaseURL: server.URL}, &stubEmbedder{})
	_, err := c.ChatCompletion(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, domain.ChatOptions{})
	if !errors.Is(err, domain.ErrLLMProviderError) || !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limited provider error, got %v", err)
	}
}

func TestEmbedDelegates(t *testing.T) {
	emb := &stubEmbedder{}
	c := New(Config{APIKey: "k"}, emb)

	res, err := c.Embed(context.Background(), "x")
	if err != nil || len(res.Embedding) != 2 || emb.calls != 1 {
		t.Fatalf("Embed = %v, %v (calls %d)", res, err, emb.calls)
	}

	if _, err := New(Config{APIKey: "k"}, nil).Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := New(Config{}, &stubEmbedder{}).ValidateConfig(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing key: %v", err)
	}
	if err := New(Config{APIKey: "k"}, nil).ValidateConfig(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing embedder: %v", err)
	}
	if err := New(Config{APIKey: "k"}, &stubEmbedder{}).ValidateConfig(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
