// Package chi is the HTTP API: project administration, log ingestion,
// retrieval and troubleshooting over a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/metrics"
	healthuc "github.com/lognlook/lognlook/internal/usecase/health"
)

// maxBodyBytes caps request bodies. A full ingestion batch fits comfortably.
const maxBodyBytes = 4 << 20

// Services bundles the use cases the API exposes. Health may be nil.
type Services struct {
	Projects       Projects
	Ingester       Ingester
	Retriever      Retriever
	Browser        Browser
	Troubleshooter Troubleshooter
	Health         HealthChecker
}

// Options configure request defaults and admin authentication.
type Options struct {
	// APIKeys guard the admin and query routes. Empty disables bearer auth.
	APIKeys  []string
	DefaultK int
	HybridK  int
}

// Server implements the HTTP handlers.
type Server struct {
	projects       Projects
	ingester       Ingester
	retriever      Retriever
	browser        Browser
	troubleshooter Troubleshooter
	health         HealthChecker
	opts           Options
	logger         *zap.Logger
}

// NewServer creates a Server.
func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 10
	}
	if opts.HybridK <= 0 {
		opts.HybridK = 5
	}
	return &Server{
		projects:       svc.Projects,
		ingester:       svc.Ingester,
		retriever:      svc.Retriever,
		browser:        svc.Browser,
		troubleshooter: svc.Troubleshooter,
		health:         svc.Health,
		opts:           opts,
		logger:         logger,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.projectKeyMiddleware)
			r.Post("/logs", s.IngestLog)
			r.Post("/logs/batch", s.IngestBatch)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.CreateProject)
			r.Get("/", s.ListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.GetProject)
				r.Delete("/", s.DeleteProject)
				r.Put("/keywords", s.UpdateKeywords)
				r.Post("/troubleshoot", s.Troubleshoot)
				r.Route("/logs", func(r chi.Router) {
					r.Get("/search", s.SearchLogs)
					r.Get("/hybrid", s.HybridSearch)
					r.Get("/mainboard", s.Mainboard)
					r.Get("/recent", s.RecentLogs)
					r.Get("/detail", s.LogDetail)
				})
			})
		})
	})
	return r
}

// HealthCheck returns 200 when every component is up and 503 otherwise.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy)})
		return
	}
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics serves the Prometheus exposition.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody decodes a JSON body into dst, rejecting unknown fields so
// typos surface as 400s.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "request body is required")
		default:
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
		}
		return false
	}
	return true
}
