// Package httpx holds the JSON-over-HTTP plumbing shared by the LLM providers
// that have no Go SDK.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
)

// maxErrorBody bounds how much of an error body ends up in messages.
const maxErrorBody = 512

// Client posts JSON and decodes JSON.
type Client struct {
	http    *http.Client
	headers http.Header
}

// New creates a client with the given timeout and default headers.
func New(timeout time.Duration, headers map[string]string) *Client {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		if v != "" {
			h.Set(k, v)
		}
	}
	return &Client{http: &http.Client{Timeout: timeout}, headers: h}
}

// PostJSON sends in as JSON to url and decodes the answer into out. Failures
// wrap sentinel; HTTP 429 also wraps domain.ErrRateLimited.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any, sentinel error) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, sentinel)
}

// GetJSON fetches url and decodes the answer into out (nil discards it).
func (c *Client) GetJSON(ctx context.Context, url string, out any, sentinel error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out, sentinel)
}

func (c *Client) do(req *http.Request, out any, sentinel error) error {
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, sentinel, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w: %w", sentinel, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("API error %d: %s: %w: %w", resp.StatusCode, detail, sentinel, domain.ErrRateLimited)
		}
		return fmt.Errorf("API error %d: %s: %w", resp.StatusCode, detail, sentinel)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w: %w", sentinel, err)
	}
	return nil
}

// JoinURL joins a base URL and a path with exactly one slash.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
