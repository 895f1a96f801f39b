// Package logs serves the log browsing views: time presets, an infinite
// scroll of recent lines and by-id detail.
package logs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/result"
)

// Preset is a named look-back window ending now.
type Preset string

// Supported presets.
const (
	PresetDay   Preset = "day"
	PresetWeek  Preset = "week"
	PresetMonth Preset = "month"
)

// Paging defaults.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
	MaxDetailIDs    = 100
)

// ParsePreset accepts day, week or month, case-insensitively.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetDay, PresetWeek, PresetMonth:
		return p, nil
	default:
		return "", domain.NewValidationError("log_time", fmt.Sprintf("unknown preset %q (day, week, month)", s))
	}
}

// Window returns [now - span, now] for the preset.
func (p Preset) Window(now time.Time) (start, end time.Time) {
	days := 1
	switch p {
	case PresetWeek:
		days = 7
	case PresetMonth:
		days = 30
	}
	return now.AddDate(0, 0, -days), now
}

// Options tunes paging.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service serves log browsing queries.
type Service struct {
	projects ProjectReader
	store    Store
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a browsing service.
func New(projects ProjectReader, store Store, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	return &Service{projects: projects, store: store, opts: opts, now: time.Now, logger: logger}
}

// ListByPreset returns up to limit logs inside the preset window, newest first.
func (s *Service) ListByPreset(ctx context.Context, projectID string, preset Preset, limit int) ([]logdoc.Document, error) {
	limit, err := s.pageSize(limit)
	if err != nil {
		return nil, err
	}
	index, err := s.index(ctx, projectID)
	if err != nil {
		return nil, err
	}

	start, end := preset.Window(s.now().UTC())
	hits, err := s.store.SearchByDatetime(ctx, index, logdoc.FieldMessageTimestamp, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("search by datetime: %w", err)
	}
	s.logger.Debug("Preset listing",
		zap.String("project_id", projectID),
		zap.String("preset", string(preset)),
		zap.Int("results", len(hits)),
	)
	return documents(hits), nil
}

// Recent returns one page of logs, newest first. Pages start at 1.
func (s *Service) Recent(ctx context.Context, projectID string, page, pageSize int) ([]logdoc.Document, error) {
	if page < 1 {
		return nil, domain.NewValidationError("page", "must be at least 1")
	}
	size, err := s.pageSize(pageSize)
	if err != nil {
		return nil, err
	}
	index, err := s.index(ctx, projectID)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.SearchRecent(ctx, index, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("search recent: %w", err)
	}
	return documents(hits), nil
}

// Detail returns the logs with the given ids, vectors stripped. Missing ids
// are skipped.
func (s *Service) Detail(ctx context.Context, projectID string, ids []string) ([]logdoc.Document, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("ids", "must not be empty")
	}
	if len(ids) > MaxDetailIDs {
		return nil, domain.NewValidationError("ids", fmt.Sprintf("at most %d ids", MaxDetailIDs))
	}
	index, err := s.index(ctx, projectID)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.SearchByID(ctx, index, ids)
	if err != nil {
		return nil, fmt.Errorf("search by id: %w", err)
	}
	for i := range docs {
		docs[i] = docs[i].WithoutVector()
	}
	return docs, nil
}

func (s *Service) index(ctx context.Context, projectID string) (string, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("get project: %w", err)
	}
	return p.IndexName, nil
}

func (s *Service) pageSize(n int) (int, error) {
	if n == 0 {
		return s.opts.DefaultPageSize, nil
	}
	if n < 0 || n > s.opts.MaxPageSize {
		return 0, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", s.opts.MaxPageSize))
	}
	return n, nil
}

func documents(hits []result.Result) []logdoc.Document {
	out := make([]logdoc.Document, 0, len(hits))
	for i := range hits {
		if d := hits[i].Document(); d != nil {
			out = append(out, d.WithoutVector())
		}
	}
	return out
}
