package chi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	logpkg "github.com/lognlook/lognlook/internal/logger"
)

// ProjectKeyHeader carries the per-project ingestion key.
const ProjectKeyHeader = "X-API-Key"

// exemptPaths bypass bearer authentication. Ingestion routes authenticate
// with the project key instead.
var exemptPaths = map[string]struct{}{
	"/health":        {},
	"/metrics":       {},
	"/v1/logs":       {},
	"/v1/logs/batch": {},
}

// BearerAuthMiddleware guards the admin API (projects, search, browsing,
// troubleshooting) with static operator keys. No keys disables it.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, err)
				return
			}
			if !knownKey(keys, token) {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The second result is a client-facing reason on failure.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	found := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, t) == 1 {
			found = true
		}
	}
	return found
}

type projectCtxKey struct{}

// projectFromContext returns the project resolved by projectKeyMiddleware.
func projectFromContext(ctx context.Context) (domproject.Project, bool) {
	p, ok := ctx.Value(projectCtxKey{}).(domproject.Project)
	return p, ok
}

// projectKeyMiddleware resolves the calling project from its ingestion key.
func (s *Server) projectKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(ProjectKeyHeader))
		if key == "" {
			writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing "+ProjectKeyHeader+" header")
			return
		}

		p, err := s.projects.Authenticate(r.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrProjectNotFound) {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid project api key")
				return
			}
			s.handleDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), projectCtxKey{}, p)
		ctx = logpkg.With(ctx, zap.String("project_id", p.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
