// Package retrieval answers filtered vector queries and hybrid lexical plus
// vector queries over a project index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/filter"
	"github.com/lognlook/lognlook/internal/domain/search/mode"
	"github.com/lognlook/lognlook/internal/domain/search/request"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/metrics"
)

// Defaults used when Config leaves a knob at zero.
const (
	DefaultCandidateMultiplier = 10
	DefaultMinCandidates       = 100
	DefaultSubcallTimeout      = 5 * time.Second
	DefaultTextField           = logdoc.FieldComment
)

// Config tunes candidate pools, timeouts and fusion.
type Config struct {
	CandidateMultiplier int
	MinCandidates       int
	SubcallTimeout      time.Duration
	// RRFK overrides the fusion constant; 0 reuses the request K.
	RRFK      int
	TextField string
}

// Query is a filtered retrieval request. Nil or empty optional fields do
// not restrict the search.
type Query struct {
	Text      string
	Keyword   *string
	LogLevel  *string
	StartTime *time.Time
	EndTime   *time.Time
	K         int
}

// Service is the hybrid retriever.
type Service struct {
	store  Store
	cfg    Config
	logger *zap.Logger
}

// New creates a retrieval service.
func New(store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = DefaultCandidateMultiplier
	}
	if cfg.MinCandidates <= 0 {
		cfg.MinCandidates = DefaultMinCandidates
	}
	if cfg.SubcallTimeout <= 0 {
		cfg.SubcallTimeout = DefaultSubcallTimeout
	}
	if cfg.TextField == "" {
		cfg.TextField = DefaultTextField
	}
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Retrieve runs a filtered kNN search for q. Zero hits is a valid answer.
func (s *Service) Retrieve(ctx context.Context, index string, q Query) ([]result.Result, error) {
	req, err := request.New(q.Text, q.Keyword, q.LogLevel, q.StartTime, q.EndTime, q.K)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SubcallTimeout)
	defer cancel()

	pool := s.CandidatePool(req.K())
	results, err := s.store.SearchByVector(
		ctx, index, req.Text(), logdoc.FieldVector, req.Filters(), req.K(), pool,
	)
	s.observe(mode.Vector, start, len(results), err)
	if err != nil {
		return nil, fmt.Errorf("search by vector: %w", err)
	}

	s.logger.Debug("Retrieve completed",
		zap.String("index", index),
		zap.Int("k", req.K()),
		zap.Int("candidate_pool", pool),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// HybridSearch runs BM25 over the text field and unfiltered kNN
// concurrently, each under its own timeout, and fuses the two rankings with
// RRF. Any sub-search failure fails the call.
func (s *Service) HybridSearch(ctx context.Context, index, text string, k int) ([]result.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("query_text", "is required")
	}
	if len(text) > request.MaxQueryLength {
		return nil, domain.NewValidationError("query_text",
			fmt.Sprintf("too long (max %d chars)", request.MaxQueryLength))
	}
	if err := request.ValidateK(k); err != nil {
		return nil, err
	}

	start := time.Now()
	var textHits, vectorHits []result.Result

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subCtx, cancel := context.WithTimeout(gCtx, s.cfg.SubcallTimeout)
		defer cancel()
		hits, err := s.store.SearchByText(subCtx, index, text, s.cfg.TextField, k)
		if err != nil {
			return fmt.Errorf("search by text: %w", err)
		}
		textHits = hits
		return nil
	})
	g.Go(func() error {
		subCtx, cancel := context.WithTimeout(gCtx, s.cfg.SubcallTimeout)
		defer cancel()
		hits, err := s.store.SearchByVector(
			subCtx, index, text, logdoc.FieldVector, filter.Expression{}, k, s.CandidatePool(k),
		)
		if err != nil {
			return fmt.Errorf("search by vector: %w", err)
		}
		vectorHits = hits
		return nil
	})

	if err := g.Wait(); err != nil {
		s.observe(mode.Hybrid, start, 0, err)
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("Hybrid sub-search timed out",
				zap.String("index", index),
				zap.Duration("timeout", s.cfg.SubcallTimeout),
			)
		}
		return nil, err
	}

	fused := FuseRRF(s.rrfK(k), textHits, vectorHits)
	s.observe(mode.Hybrid, start, len(fused), nil)

	s.logger.Debug("Hybrid search completed",
		zap.String("index", index),
		zap.Int("k", k),
		zap.Int("text_hits", len(textHits)),
		zap.Int("vector_hits", len(vectorHits)),
		zap.Int("fused", len(fused)),
		zap.Duration("duration", time.Since(start)),
	)
	return fused, nil
}

// CandidatePool is the kNN candidate pool for k: k times the multiplier,
// floored at the configured minimum and always strictly greater than k.
func (s *Service) CandidatePool(k int) int {
	pool := max(k*s.cfg.CandidateMultiplier, s.cfg.MinCandidates)
	if pool <= k {
		pool = k + 1
	}
	return pool
}

func (s *Service) rrfK(k int) int {
	if s.cfg.RRFK > 0 {
		return s.cfg.RRFK
	}
	return k
}

func (s *Service) observe(m mode.Mode, start time.Time, hits int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RetrievalDuration.WithLabelValues(string(m), status).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.RetrievalResults.WithLabelValues(string(m)).Observe(float64(hits))
	}
}
