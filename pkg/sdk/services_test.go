package lognlook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	logsuc "github.com/lognlook/lognlook/internal/usecase/logs"
	"github.com/lognlook/lognlook/internal/usecase/pipeline"
	"github.com/lognlook/lognlook/internal/usecase/retrieval"
	"github.com/lognlook/lognlook/internal/usecase/troubleshoot"
)

// --- ProjectService ---

func TestProjectService_Create(t *testing.T) {
	mock := &mockProjectUC{
		createFn: func(_ context.Context, name string, keywords []string, language string) (domproject.Project, error) {
			if name != "checkout" || language != "ko" || len(keywords) != 2 {
				t.Errorf("unexpected args: %q %v %q", name, keywords, language)
			}
			return domproject.Project{ID: "p1", Name: name, IndexName: "idx", APIKey: "key", Keywords: keywords}, nil
		},
	}

	svc := &ProjectService{svc: mock}
	p, err := svc.Create(context.Background(), "checkout", []string{"db", "auth"}, "ko")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" || p.APIKey != "key" || p.IndexName != "idx" {
		t.Errorf("unexpected project: %+v", p)
	}
}

func TestProjectService_Create_Error(t *testing.T) {
	mock := &mockProjectUC{
		createFn: func(_ context.Context, _ string, _ []string, _ string) (domproject.Project, error) {
			return domproject.Project{}, domain.ErrProjectAlreadyExists
		},
	}

	svc := &ProjectService{svc: mock}
	_, err := svc.Create(context.Background(), "checkout", nil, "")
	if !errors.Is(err, ErrProjectAlreadyExists) {
		t.Fatalf("expected ErrProjectAlreadyExists, got %v", err)
	}
}

func TestProjectService_Ensure_Existing(t *testing.T) {
	mock := &mockProjectUC{
		createFn: func(_ context.Context, _ string, _ []string, _ string) (domproject.Project, error) {
			return domproject.Project{}, domain.ErrProjectAlreadyExists
		},
		listFn: func(_ context.Context) ([]domproject.Project, error) {
			return []domproject.Project{{ID: "p0", Name: "other"}, {ID: "p1", Name: "checkout"}}, nil
		},
	}

	svc := &ProjectService{svc: mock}
	p, err := svc.Ensure(context.Background(), "checkout", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("ID = %q, want p1", p.ID)
	}
}

func TestProjectService_Ensure_OtherError(t *testing.T) {
	mock := &mockProjectUC{
		createFn: func(_ context.Context, _ string, _ []string, _ string) (domproject.Project, error) {
			return domproject.Project{}, errors.New("db down")
		},
	}

	svc := &ProjectService{svc: mock}
	if _, err := svc.Ensure(context.Background(), "checkout", nil, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestProjectService_List(t *testing.T) {
	mock := &mockProjectUC{
		listFn: func(_ context.Context) ([]domproject.Project, error) {
			return []domproject.Project{{ID: "a"}, {ID: "b"}}, nil
		},
	}

	svc := &ProjectService{svc: mock}
	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].ID != "b" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestProjectService_UpdateKeywordsAndDelete(t *testing.T) {
	deleted := ""
	mock := &mockProjectUC{
		keywordsFn: func(_ context.Context, id string, keywords []string) (domproject.Project, error) {
			return domproject.Project{ID: id, Keywords: keywords}, nil
		},
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	svc := &ProjectService{svc: mock}
	p, err := svc.UpdateKeywords(context.Background(), "p1", []string{"payment"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Keywords) != 1 || p.Keywords[0] != "payment" {
		t.Errorf("Keywords = %v", p.Keywords)
	}
	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "p1" {
		t.Errorf("deleted = %q, want p1", deleted)
	}
}

// --- LogService ---

func TestLogService_Ingest(t *testing.T) {
	ingest := &mockIngestUC{
		ingestFn: func(_ context.Context, p domproject.Project, e pipeline.Entry) (logdoc.Document, error) {
			if p.IndexName != "idx" {
				t.Errorf("IndexName = %q, want idx", p.IndexName)
			}
			if string(e.Extras["host"]) != `"web-1"` {
				t.Errorf("extras not encoded: %s", e.Extras["host"])
			}
			return logdoc.Document{
				ID:       "log1",
				Message:  e.Message,
				LogLevel: "ERROR",
				Keyword:  "db",
				Comment:  "Database connection refused.",
				Vector:   []float32{1, 2},
				Extras:   e.Extras,
			}, nil
		},
	}

	svc := &LogService{
		projectID: "p1",
		projects:  &mockProjectUC{getFn: projectWithIndex("idx")},
		ingest:    ingest,
	}
	l, err := svc.Ingest(context.Background(), "ERROR connection refused", map[string]any{"host": "web-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID != "log1" || l.Keyword != "db" || l.Level != "ERROR" {
		t.Errorf("unexpected log: %+v", l)
	}
	if l.Extras["host"] != "web-1" {
		t.Errorf("Extras = %v", l.Extras)
	}
}

func TestLogService_Ingest_UnknownProject(t *testing.T) {
	svc := &LogService{
		projectID: "missing",
		projects: &mockProjectUC{getFn: func(_ context.Context, _ string) (domproject.Project, error) {
			return domproject.Project{}, domain.ErrProjectNotFound
		}},
		ingest: &mockIngestUC{},
	}

	_, err := svc.Ingest(context.Background(), "line", nil)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestLogService_Ingest_BadExtras(t *testing.T) {
	svc := &LogService{projectID: "p1", projects: &mockProjectUC{}, ingest: &mockIngestUC{}}

	_, err := svc.Ingest(context.Background(), "line", map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected error for unencodable extras")
	}
}

func TestLogService_IngestBatch(t *testing.T) {
	ingest := &mockIngestUC{
		batchFn: func(_ context.Context, _ domproject.Project, entries []pipeline.Entry) ([]pipeline.ItemResult, error) {
			if len(entries) != 2 {
				t.Errorf("entries = %d, want 2", len(entries))
			}
			return []pipeline.ItemResult{
				{Index: 0, Document: logdoc.Document{ID: "a", Message: entries[0].Message}},
				{Index: 1, Err: domain.ErrEnrichment},
			}, nil
		},
	}

	svc := &LogService{
		projectID: "p1",
		projects:  &mockProjectUC{getFn: projectWithIndex("idx")},
		ingest:    ingest,
	}
	results, err := svc.IngestBatch(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Err != nil || results[0].Log.ID != "a" {
		t.Errorf("first result: %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrEnrichment) {
		t.Errorf("second result error = %v", results[1].Err)
	}
}

func TestLogService_Window(t *testing.T) {
	browse := &mockBrowseUC{
		presetFn: func(_ context.Context, projectID string, preset logsuc.Preset, limit int) ([]logdoc.Document, error) {
			if projectID != "p1" || string(preset) != "week" || limit != 20 {
				t.Errorf("unexpected args: %q %q %d", projectID, preset, limit)
			}
			return []logdoc.Document{{ID: "a"}}, nil
		},
	}

	svc := &LogService{projectID: "p1", browse: browse}
	logs, err := svc.Window(context.Background(), WindowWeek, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("len = %d, want 1", len(logs))
	}
}

func TestLogService_Window_Invalid(t *testing.T) {
	svc := &LogService{projectID: "p1", browse: &mockBrowseUC{}}

	_, err := svc.Window(context.Background(), Window("year"), 0)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLogService_RecentAndGet(t *testing.T) {
	browse := &mockBrowseUC{
		recentFn: func(_ context.Context, _ string, page, pageSize int) ([]logdoc.Document, error) {
			if page != 2 || pageSize != 5 {
				t.Errorf("page = %d, size = %d", page, pageSize)
			}
			return []logdoc.Document{{ID: "x"}}, nil
		},
		detailFn: func(_ context.Context, _ string, ids []string) ([]logdoc.Document, error) {
			out := make([]logdoc.Document, len(ids))
			for i, id := range ids {
				out[i] = logdoc.Document{ID: id}
			}
			return out, nil
		},
	}

	svc := &LogService{projectID: "p1", browse: browse}
	recent, err := svc.Recent(context.Background(), 2, 5)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent: %v %v", recent, err)
	}
	logs, err := svc.Get(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(logs) != 2 || logs[1].ID != "b" {
		t.Errorf("unexpected logs: %+v", logs)
	}
}

// --- SearchService ---

func TestSearchService_Semantic_MapsFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	retrieve := &mockRetrievalUC{
		retrieveFn: func(_ context.Context, index string, q retrieval.Query) ([]result.Result, error) {
			if index != "idx" {
				t.Errorf("index = %q, want idx", index)
			}
			if q.Keyword == nil || *q.Keyword != "db" {
				t.Errorf("Keyword = %v", q.Keyword)
			}
			if q.LogLevel != nil {
				t.Errorf("empty level should not filter, got %q", *q.LogLevel)
			}
			if q.StartTime == nil || !q.StartTime.Equal(from) {
				t.Errorf("StartTime = %v", q.StartTime)
			}
			if q.EndTime != nil {
				t.Errorf("zero To should not filter, got %v", q.EndTime)
			}
			doc := &logdoc.Document{ID: "a", Comment: "c"}
			return []result.Result{result.New("a", 0.9, doc), result.New("b", 0.5, nil)}, nil
		},
	}

	svc := &SearchService{
		projectID: "p1",
		projects:  &mockProjectUC{getFn: projectWithIndex("idx")},
		svc:       retrieve,
	}
	hits, err := svc.Semantic(context.Background(), Query{Text: "timeouts", Keyword: "db", From: from, K: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len = %d, want 2", len(hits))
	}
	if hits[0].Log == nil || hits[0].Log.Comment != "c" || hits[0].Score != 0.9 {
		t.Errorf("first hit: %+v", hits[0])
	}
	if hits[1].Log != nil {
		t.Errorf("second hit should carry no log: %+v", hits[1])
	}
}

func TestSearchService_Hybrid(t *testing.T) {
	retrieve := &mockRetrievalUC{
		hybridFn: func(_ context.Context, index, text string, k int) ([]result.Result, error) {
			if index != "idx" || text != "disk full" || k != 3 {
				t.Errorf("unexpected args: %q %q %d", index, text, k)
			}
			return []result.Result{result.New("a", 1.0/3, nil)}, nil
		},
	}

	svc := &SearchService{
		projectID: "p1",
		projects:  &mockProjectUC{getFn: projectWithIndex("idx")},
		svc:       retrieve,
	}
	hits, err := svc.Hybrid(context.Background(), "disk full", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestSearchService_StoreError(t *testing.T) {
	retrieve := &mockRetrievalUC{
		hybridFn: func(_ context.Context, _, _ string, _ int) ([]result.Result, error) {
			return nil, domain.ErrStore
		},
	}

	svc := &SearchService{
		projectID: "p1",
		projects:  &mockProjectUC{getFn: projectWithIndex("idx")},
		svc:       retrieve,
	}
	if _, err := svc.Hybrid(context.Background(), "x", 1); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

// --- TroubleshootService ---

func TestTroubleshootService_Analyze(t *testing.T) {
	mock := &mockTroubleshootUC{
		analyzeFn: func(_ context.Context, projectID, query string, logIDs []string) (troubleshoot.Analysis, error) {
			if projectID != "p1" || query != "why?" || len(logIDs) != 2 {
				t.Errorf("unexpected args: %q %q %v", projectID, query, logIDs)
			}
			return troubleshoot.Analysis{
				Title:   "Pool exhausted",
				Content: "Raise the pool size.",
				Logs:    []logdoc.Document{{ID: "a"}, {ID: "b"}},
			}, nil
		},
	}

	svc := &TroubleshootService{projectID: "p1", svc: mock}
	a, err := svc.Analyze(context.Background(), "why?", "a", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "Pool exhausted" || len(a.Logs) != 2 || a.Fallback {
		t.Errorf("unexpected analysis: %+v", a)
	}
}

func TestTroubleshootService_Ask(t *testing.T) {
	mock := &mockTroubleshootUC{
		askFn: func(_ context.Context, _ string, q retrieval.Query) (troubleshoot.Analysis, error) {
			if q.Text != "slow checkout" || q.K != 4 || q.LogLevel == nil || *q.LogLevel != "WARN" {
				t.Errorf("unexpected query: %+v", q)
			}
			return troubleshoot.Analysis{Title: "t", Content: "c", Fallback: true}, nil
		},
	}

	svc := &TroubleshootService{projectID: "p1", svc: mock}
	a, err := svc.Ask(context.Background(), Query{Text: "slow checkout", Level: "WARN", K: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Fallback {
		t.Error("expected Fallback to pass through")
	}
}

// --- converters ---

func TestFromInternalLog_DropsUndecodableExtras(t *testing.T) {
	l := fromInternalLog(logdoc.Document{
		ID: "a",
		Extras: map[string]json.RawMessage{
			"ok":  json.RawMessage(`{"n":1}`),
			"bad": json.RawMessage(`{`),
		},
	})
	if _, ok := l.Extras["bad"]; ok {
		t.Error("undecodable extra should be dropped")
	}
	m, ok := l.Extras["ok"].(map[string]any)
	if !ok || m["n"] != float64(1) {
		t.Errorf("Extras[ok] = %#v", l.Extras["ok"])
	}
}

func TestToInternalExtras_Empty(t *testing.T) {
	raw, err := toInternalExtras(nil)
	if err != nil || raw != nil {
		t.Errorf("expected nil, nil; got %v, %v", raw, err)
	}
}
