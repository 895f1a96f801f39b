package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lognlook/lognlook/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	if c.baseURL != DefaultBaseURL || c.chatModel != DefaultChatModel || c.embeddingModel != DefaultEmbeddingModel {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.ValidateConfig(); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Stream || req.Format != "json" || req.Model != "mistral" {
			t.Errorf("request = %+v", req)
		}
		if req.Options["num_predict"] != float64(256) {
			t.Errorf("options = %v", req.Options)
		}
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"{\"keyword\":\"db\"}"},"done":true}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, ChatModel: "mistral"})
	out, err := c.ChatCompletion(context.Background(),
		[]domain.Message{{Role: domain.RoleUser, Content: "classify"}},
		domain.ChatOptions{JSON: true, MaxTokens: 256})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if out != `{"keyword":"db"}` {
		t.Errorf("out = %q", out)
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != DefaultEmbeddingModel || req.Input != "hello" {
			t.Errorf("request = %+v", req)
		}
		_, _ = io.WriteString(w, `{"embeddings":[[0.1,0.2,0.3]],"prompt_eval_count":2}`)
	}))
	defer server.Close()

	res, err := New(Config{BaseURL: server.URL}).Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestEmbed_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"embeddings":[]}`)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"models":[]}`)
	}))
	defer server.Close()

	if err := New(Config{BaseURL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
