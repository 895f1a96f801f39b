package retrieval

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	"github.com/lognlook/lognlook/internal/domain/logdoc"
	"github.com/lognlook/lognlook/internal/domain/search/filter"
	"github.com/lognlook/lognlook/internal/domain/search/result"
	"github.com/lognlook/lognlook/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockStore struct {
	vectorResults []result.Result
	vectorErr     error
	vectorDelay   time.Duration
	textResults   []result.Result
	textErr       error
	textDelay     time.Duration

	lastExpr  filter.Expression
	lastK     int
	lastPool  int
	lastField string
	textCalls atomic.Int32
}

func (m *mockStore) SearchByVector(
	ctx context.Context, _, _, vectorField string,
	expr filter.Expression, k, candidatePool int,
) ([]result.Result, error) {
	m.lastExpr = expr
	m.lastK = k
	m.lastPool = candidatePool
	if vectorField != logdoc.FieldVector {
		return nil, errors.New("unexpected vector field")
	}
	if err := sleep(ctx, m.vectorDelay); err != nil {
		return nil, err
	}
	return m.vectorResults, m.vectorErr
}

func (m *mockStore) SearchByText(ctx context.Context, _, _, field string, _ int) ([]result.Result, error) {
	m.textCalls.Add(1)
	m.lastField = field
	if err := sleep(ctx, m.textDelay); err != nil {
		return nil, err
	}
	return m.textResults, m.textErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d == 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newService(store Store, cfg Config) *Service {
	return New(store, cfg, zap.NewNop())
}

func strPtr(s string) *string { return &s }

// --- Retrieve ---

func TestRetrieve_BuildsFilter(t *testing.T) {
	store := &mockStore{vectorResults: makeResults("a", "b")}
	svc := newService(store, Config{})

	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	results, err := svc.Retrieve(context.Background(), "logs_x", Query{
		Text:      "disk full",
		Keyword:   strPtr("storage"),
		LogLevel:  strPtr("error"),
		StartTime: &start,
		EndTime:   &end,
		K:         10,
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	must := store.lastExpr.Must()
	if len(must) != 3 {
		t.Fatalf("expected 3 conditions, got %d", len(must))
	}
	var sawLevel, sawKeyword, sawRange bool
	for _, c := range must {
		switch {
		case c.Key() == logdoc.FieldLogLevel && c.Match() == "ERROR":
			sawLevel = true
		case c.Key() == logdoc.FieldKeyword && c.Match() == "storage":
			sawKeyword = true
		case c.Key() == logdoc.FieldMessageTimestamp && c.IsRange():
			sawRange = true
		}
	}
	if !sawLevel || !sawKeyword || !sawRange {
		t.Errorf("unexpected conditions: level=%v keyword=%v range=%v", sawLevel, sawKeyword, sawRange)
	}
	if store.lastK != 10 || store.lastPool != 100 {
		t.Errorf("k=%d pool=%d, want 10/100", store.lastK, store.lastPool)
	}
}

func TestRetrieve_EmptyIsNotAnError(t *testing.T) {
	svc := newService(&mockStore{}, Config{})

	results, err := svc.Retrieve(context.Background(), "logs_x", Query{Text: "anything", K: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestRetrieve_Validation(t *testing.T) {
	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	tests := []struct {
		name string
		q    Query
	}{
		{"empty text", Query{Text: "  ", K: 5}},
		{"zero k", Query{Text: "q", K: 0}},
		{"negative k", Query{Text: "q", K: -1}},
		{"start without end", Query{Text: "q", K: 5, StartTime: &start}},
		{"end without start", Query{Text: "q", K: 5, EndTime: &start}},
		{"start after end", Query{Text: "q", K: 5, StartTime: &start, EndTime: &before}},
		{"unknown level", Query{Text: "q", K: 5, LogLevel: strPtr("FATAL")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			_, err := newService(store, Config{}).Retrieve(context.Background(), "logs_x", tt.q)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if store.lastK != 0 {
				t.Error("store must not be called on invalid input")
			}
		})
	}
}

func TestRetrieve_StoreError(t *testing.T) {
	store := &mockStore{vectorErr: domain.ErrStore}
	_, err := newService(store, Config{}).Retrieve(context.Background(), "logs_x", Query{Text: "q", K: 5})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestCandidatePool(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		k    int
		want int
	}{
		{"floor", Config{}, 5, 100},
		{"multiplier", Config{}, 20, 200},
		{"custom", Config{CandidateMultiplier: 4, MinCandidates: 1}, 10, 40},
		{"strictly greater than k", Config{CandidateMultiplier: 1, MinCandidates: 1}, 7, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newService(&mockStore{}, tt.cfg).CandidatePool(tt.k); got != tt.want {
				t.Errorf("CandidatePool(%d) = %d, want %d", tt.k, got, tt.want)
			}
		})
	}
}

// --- HybridSearch ---

func TestHybridSearch_Fuses(t *testing.T) {
	store := &mockStore{
		textResults:   makeResults("doc1", "doc2", "doc3"),
		vectorResults: makeResults("doc3", "doc1", "doc4"),
	}
	svc := newService(store, Config{})

	fused, err := svc.HybridSearch(context.Background(), "logs_x", "disk full", 5)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}

	got := ids(fused)
	want := []string{"doc1", "doc3", "doc2", "doc4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if store.lastField != logdoc.FieldComment {
		t.Errorf("text field = %q", store.lastField)
	}
	if !store.lastExpr.IsEmpty() {
		t.Error("hybrid vector search must not be filtered")
	}
}

func TestHybridSearch_RRFOverride(t *testing.T) {
	store := &mockStore{textResults: makeResults("a"), vectorResults: makeResults("b")}
	svc := newService(store, Config{RRFK: 60, TextField: "message"})

	fused, err := svc.HybridSearch(context.Background(), "logs_x", "q", 5)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if fused[0].Score() != 1.0/60 {
		t.Errorf("score = %v, want 1/60", fused[0].Score())
	}
	if store.lastField != "message" {
		t.Errorf("text field = %q", store.lastField)
	}
}

func TestHybridSearch_FailFast(t *testing.T) {
	tests := []struct {
		name  string
		store *mockStore
	}{
		{"text error", &mockStore{textErr: domain.ErrStore, vectorResults: makeResults("a")}},
		{"vector error", &mockStore{vectorErr: domain.ErrStore, textResults: makeResults("a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(tt.store, Config{}).HybridSearch(context.Background(), "logs_x", "q", 5)
			if !errors.Is(err, domain.ErrStore) {
				t.Fatalf("expected ErrStore, got %v", err)
			}
		})
	}
}

func TestHybridSearch_SubcallTimeout(t *testing.T) {
	store := &mockStore{
		textResults:   makeResults("a"),
		vectorResults: makeResults("b"),
		vectorDelay:   time.Second,
	}
	svc := newService(store, Config{SubcallTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := svc.HybridSearch(context.Background(), "logs_x", "q", 5)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestHybridSearch_Validation(t *testing.T) {
	store := &mockStore{}
	svc := newService(store, Config{})

	if _, err := svc.HybridSearch(context.Background(), "logs_x", "", 5); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty text: %v", err)
	}
	if _, err := svc.HybridSearch(context.Background(), "logs_x", "q", 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("zero k: %v", err)
	}
	if store.textCalls.Load() != 0 {
		t.Error("store must not be called on invalid input")
	}
}
