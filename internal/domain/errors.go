package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed caller input. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrIndexNotFound signals that the targeted document-store index does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexAlreadyExists signals an index-creation collision.
	ErrIndexAlreadyExists = errors.New("index already exists")
	// ErrStore signals a transport, timeout or engine-side failure of the document store.
	ErrStore = errors.New("document store error")
	// ErrEnrichment signals that classification or embedding failed during ingestion.
	ErrEnrichment = errors.New("log enrichment failed")

	// ErrProjectNotFound signals a missing project in the project directory.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectAlreadyExists signals a duplicate project name.
	ErrProjectAlreadyExists = errors.New("project already exists")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrUnsupportedProvider signals an unknown LLM provider name.
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IndexError attaches the index name to an index-level failure.
type IndexError struct {
	Index string
	Err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %q: %s", e.Index, e.Err.Error())
}

func (e *IndexError) Unwrap() error { return e.Err }

// NewIndexError wraps err with the index name.
func NewIndexError(index string, err error) error {
	return &IndexError{Index: index, Err: err}
}
