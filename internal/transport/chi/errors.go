package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	logpkg "github.com/lognlook/lognlook/internal/logger"
)

// ErrorCode is the machine-readable error code of an API error response.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeIndexNotFound    ErrorCode = "index_not_found"
	ErrorCodeProjectNotFound  ErrorCode = "project_not_found"
	ErrorCodeAlreadyExists    ErrorCode = "already_exists"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeProviderError    ErrorCode = "provider_error"
	ErrorCodeEnrichmentFailed ErrorCode = "enrichment_failed"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorMapping maps a domain sentinel onto an HTTP status and code.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

// errorMappings is scanned in order. Rate limiting precedes the provider
// sentinels because provider 429s wrap both.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed},
	{domain.ErrIndexNotFound, http.StatusNotFound, ErrorCodeIndexNotFound},
	{domain.ErrProjectNotFound, http.StatusNotFound, ErrorCodeProjectNotFound},
	{domain.ErrIndexAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists},
	{domain.ErrProjectAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists},
	{domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited},
	{domain.ErrEnrichment, http.StatusBadGateway, ErrorCodeEnrichmentFailed},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeProviderError},
	{domain.ErrLLMProviderError, http.StatusBadGateway, ErrorCodeProviderError},
	{domain.ErrStore, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable},
}

// classifyError returns the status and code for err. ok is false for
// errors no sentinel covers.
func classifyError(err error) (status int, code ErrorCode, ok bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.status, m.code, true
		}
	}
	return http.StatusInternalServerError, ErrorCodeInternalError, false
}

// errorCode is the code the response for err would carry.
func errorCode(err error) ErrorCode {
	_, code, _ := classifyError(err)
	return code
}

var safeSentinels = []error{
	domain.ErrIndexNotFound,
	domain.ErrProjectNotFound,
	domain.ErrIndexAlreadyExists,
	domain.ErrProjectAlreadyExists,
	domain.ErrRateLimited,
	domain.ErrEnrichment,
	domain.ErrEmbeddingProviderError,
	domain.ErrLLMProviderError,
	domain.ErrStore,
}

// safeDomainMessage returns a client-facing message without exposing
// internals. Validation errors keep their field and reason.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, s := range safeSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	status, code, ok := classifyError(err)
	if !ok {
		log.Error("internal error", zap.Error(err))
		writeError(w, status, code, "internal error")
		return
	}
	log.Warn("domain error", zap.Error(err), zap.String("code", string(code)))
	writeError(w, status, code, safeDomainMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
