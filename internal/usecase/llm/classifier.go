package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
)

// Classification is the enrichment answer for one log line.
type Classification struct {
	Comment string `json:"comment"`
	Keyword string `json:"keyword"`
}

// Troubleshooting is a generated analysis of related logs.
type Troubleshooting struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Classifier renders the enrichment and troubleshooting prompts and parses
// the structured answers.
type Classifier struct {
	chat        domain.ChatCompleter
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewClassifier creates a classifier on top of chat.
func NewClassifier(chat domain.ChatCompleter, temperature float32, maxTokens int, logger *zap.Logger) *Classifier {
	return &Classifier{chat: chat, temperature: temperature, maxTokens: maxTokens, logger: logger}
}

// Classify asks the model for a one-sentence comment and a keyword. With a
// non-empty vocabulary the keyword is forced into it, falling back to the
// language's "others" label; with an empty vocabulary the model's own label
// is kept.
func (c *Classifier) Classify(
	ctx context.Context, message string, vocabulary []string, lang domain.Language,
) (Classification, error) {
	prompt, err := render(commentTemplate, commentData{
		Language:   lang.DisplayName(),
		Categories: strings.Join(vocabulary, ", "),
		Other:      lang.OtherKeyword(),
		Message:    message,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("render comment prompt: %w", err)
	}

	raw, err := c.chat.ChatCompletion(ctx, []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		domain.ChatOptions{Temperature: c.temperature, MaxTokens: c.maxTokens, JSON: true})
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}

	var out Classification
	if err := decodeAnswer(raw, &out); err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	out.Comment = strings.TrimSpace(out.Comment)
	if out.Comment == "" {
		return Classification{}, fmt.Errorf("classify: empty comment: %w", domain.ErrLLMProviderError)
	}
	out.Keyword = normalizeKeyword(out.Keyword, vocabulary, lang)
	return out, nil
}

// Troubleshoot asks the model for a titled analysis of logs in answer to query.
func (c *Classifier) Troubleshoot(
	ctx context.Context, query string, logs []logdoc.Document, lang domain.Language,
) (Troubleshooting, error) {
	stripped := make([]logdoc.Document, len(logs))
	for i, d := range logs {
		stripped[i] = d.WithoutVector()
	}
	logJSON, err := json.Marshal(stripped)
	if err != nil {
		return Troubleshooting{}, fmt.Errorf("encode logs: %w", err)
	}

	prompt, err := render(troubleshootingTemplate, troubleshootingData{
		Language: lang.DisplayName(),
		Query:    query,
		Logs:     string(logJSON),
	})
	if err != nil {
		return Troubleshooting{}, fmt.Errorf("render troubleshooting prompt: %w", err)
	}

	raw, err := c.chat.ChatCompletion(ctx, []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		domain.ChatOptions{Temperature: c.temperature, JSON: true})
	if err != nil {
		return Troubleshooting{}, fmt.Errorf("troubleshoot: %w", err)
	}

	var out Troubleshooting
	if err := decodeAnswer(raw, &out); err != nil {
		return Troubleshooting{}, fmt.Errorf("troubleshoot: %w", err)
	}
	if strings.TrimSpace(out.Content) == "" {
		return Troubleshooting{}, fmt.Errorf("troubleshoot: empty content: %w", domain.ErrLLMProviderError)
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = query
	}
	return out, nil
}

// decodeAnswer extracts the outermost JSON object of a model answer, which
// may be wrapped in a fenced code block or surrounded by prose.
func decodeAnswer(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in answer: %w", domain.ErrLLMProviderError)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("decode answer: %w: %w", domain.ErrLLMProviderError, err)
	}
	return nil
}

func normalizeKeyword(keyword string, vocabulary []string, lang domain.Language) string {
	keyword = strings.TrimSpace(keyword)
	if len(vocabulary) == 0 {
		if keyword == "" {
			return lang.OtherKeyword()
		}
		return keyword
	}
	for _, v := range vocabulary {
		if strings.EqualFold(v, keyword) {
			return v
		}
	}
	return lang.OtherKeyword()
}
