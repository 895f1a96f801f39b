package domain

import (
	"context"
	"fmt"
	"strings"
)

// ProviderKind names an LLM backend.
type ProviderKind string

const (
	ProviderOpenAI      ProviderKind = "openai"
	ProviderAnthropic   ProviderKind = "anthropic"
	ProviderOllama      ProviderKind = "ollama"
	ProviderHuggingFace ProviderKind = "huggingface"
)

// ParseProviderKind maps a configuration string to a ProviderKind.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch k := ProviderKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderHuggingFace:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Role of a chat message.
type Role string

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

// ChatOptions tune a single completion call. Zero values use provider defaults.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON object answer where supported.
	JSON bool
}

// ChatCompleter produces a single assistant reply.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// LLMProvider is the capability set every backend offers.
type LLMProvider interface {
	ChatCompleter
	Embedder
	ValidateConfig() error
	Kind() ProviderKind
}

// Language selects the language generated comments are written in.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageKorean  Language = "ko"
)

// ParseLanguage accepts "en"/"english" and "ko"/"korean"; empty means English.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return LanguageEnglish, nil
	case "ko", "korean":
		return LanguageKorean, nil
	default:
		return "", NewValidationError("language", fmt.Sprintf("unsupported language %q", s))
	}
}

// DisplayName is the human-readable name used inside prompts.
func (l Language) DisplayName() string {
	if l == LanguageKorean {
		return "Korean"
	}
	return "English"
}

// OtherKeyword is the sentinel label used when no vocabulary entry fits.
func (l Language) OtherKeyword() string {
	if l == LanguageKorean {
		return "기타"
	}
	return "others"
}
