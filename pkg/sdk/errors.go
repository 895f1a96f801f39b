package lognlook

import "github.com/lognlook/lognlook/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrProjectNotFound        = domain.ErrProjectNotFound
	ErrProjectAlreadyExists   = domain.ErrProjectAlreadyExists
	ErrIndexNotFound          = domain.ErrIndexNotFound
	ErrIndexAlreadyExists     = domain.ErrIndexAlreadyExists
	ErrStore                  = domain.ErrStore
	ErrEnrichment             = domain.ErrEnrichment
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMProviderError       = domain.ErrLLMProviderError
)
