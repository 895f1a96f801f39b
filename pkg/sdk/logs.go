package lognlook

import (
	"context"
	"fmt"
	"time"

	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
)

// LogService ingests and browses the logs of one project.
type LogService struct {
	projectID string
	projects  projectUseCase
	ingest    ingestUseCase
	browse    browseUseCase
	obs       *observer
}

// Ingest enriches and stores one log line. extras are stored next to the
// line and returned with it; reserved names are ignored.
func (s *LogService) Ingest(ctx context.Context, message string, extras map[string]any) (_ Log, err error) {
	start := time.Now()
	defer func() { s.obs.observe("log.ingest", start, err) }()

	raw, err := toInternalExtras(extras)
	if err != nil {
		return Log{}, fmt.Errorf("ingest: encode extras: %w", err)
	}
	p, err := s.projects.Get(ctx, s.projectID)
	if err != nil {
		return Log{}, fmt.Errorf("ingest: %w", err)
	}

	doc, err := s.ingest.Ingest(ctx, p, pipeline.Entry{Message: message, Extras: raw})
	if err != nil {
		return Log{}, fmt.Errorf("ingest: %w", err)
	}
	return fromInternalLog(doc), nil
}

// IngestBatch ingests up to 100 lines concurrently. A failed line is
// reported in its IngestResult and does not stop the rest.
func (s *LogService) IngestBatch(ctx context.Context, messages []string) (_ []IngestResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("log.ingest_batch", start, err) }()

	p, err := s.projects.Get(ctx, s.projectID)
	if err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	entries := make([]pipeline.Entry, len(messages))
	for i, m := range messages {
		entries[i] = pipeline.Entry{Message: m}
	}
	results, err := s.ingest.IngestBatch(ctx, p, entries)
	if err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	out := make([]IngestResult, len(results))
	for i, r := range results {
		out[i] = IngestResult{Index: r.Index, Err: r.Err}
		if r.Err == nil {
			out[i].Log = fromInternalLog(r.Document)
		}
	}
	return out, nil
}

// Window lists the logs of the last day, week or month, newest first.
// limit 0 uses the default page size.
func (s *LogService) Window(ctx context.Context, w Window, limit int) (_ []Log, err error) {
	start := time.Now()
	defer func() { s.obs.observe("log.window", start, err) }()

	preset, err := logsuc.ParsePreset(string(w))
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	docs, err := s.browse.ListByPreset(ctx, s.projectID, preset, limit)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	return fromInternalLogs(docs), nil
}

// Recent pages through logs newest first. page starts at 1.
func (s *LogService) Recent(ctx context.Context, page, pageSize int) (_ []Log, err error) {
	start := time.Now()
	defer func() { s.obs.observe("log.recent", start, err) }()

	docs, err := s.browse.Recent(ctx, s.projectID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	return fromInternalLogs(docs), nil
}

// Get fetches logs by id. Unknown ids are skipped.
func (s *LogService) Get(ctx context.Context, ids ...string) (_ []Log, err error) {
	start := time.Now()
	defer func() { s.obs.observe("log.get", start, err) }()

	docs, err := s.browse.Detail(ctx, s.projectID, ids)
	if err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	return fromInternalLogs(docs), nil
}
