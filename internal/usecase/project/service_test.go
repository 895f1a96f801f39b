package project

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
)

// --- Mocks ---

type mockRepo struct {
	projects  map[string]domproject.Project
	createErr error
	deleted   []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{projects: map[string]domproject.Project{}}
}

func (m *mockRepo) Create(_ context.Context, p domproject.Project) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domproject.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return domproject.Project{}, domain.ErrProjectNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByAPIKey(_ context.Context, key string) (domproject.Project, error) {
	for _, p := range m.projects {
		if p.APIKey == key {
			return p, nil
		}
	}
	return domproject.Project{}, domain.ErrProjectNotFound
}

func (m *mockRepo) List(_ context.Context) ([]domproject.Project, error) {
	out := make([]domproject.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepo) UpdateKeywords(_ context.Context, id string, kw []string) error {
	p, ok := m.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	p.Keywords = kw
	m.projects[id] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(m.projects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockIndexes struct {
	created   []string
	dropped   []string
	ensureErr error
	deleteErr error
}

func (m *mockIndexes) CreateDefaultIndex(_ context.Context, index string) error {
	if m.ensureErr != nil {
		return m.ensureErr
	}
	m.created = append(m.created, index)
	return nil
}

func (m *mockIndexes) DeleteIndex(_ context.Context, index string) error {
	m.dropped = append(m.dropped, index)
	return m.deleteErr
}

func newTestService() (*Service, *mockRepo, *mockIndexes) {
	repo := newMockRepo()
	idx := &mockIndexes{}
	return New(repo, idx, zap.NewNop()), repo, idx
}

// --- Tests ---

func TestCreate_ProvisionsIndex(t *testing.T) {
	svc, repo, idx := newTestService()

	p, err := svc.Create(context.Background(), " payments ", []string{"database", " database", "auth"}, "ko")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "payments" || p.Language != domain.LanguageKorean {
		t.Errorf("unexpected project: %+v", p)
	}
	if len(p.Keywords) != 2 {
		t.Errorf("keywords = %v", p.Keywords)
	}
	if !strings.HasPrefix(p.IndexName, "logs_") || strings.Contains(p.IndexName, "-") {
		t.Errorf("index name = %q", p.IndexName)
	}
	if !strings.HasPrefix(p.APIKey, "lnl_") {
		t.Errorf("api key = %q", p.APIKey)
	}
	if len(idx.created) != 1 || idx.created[0] != p.IndexName {
		t.Errorf("created indexes = %v", idx.created)
	}
	if _, ok := repo.projects[p.ID]; !ok {
		t.Error("project row not stored")
	}
}

func TestCreate_IndexIsDecoupledFromName(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.Create(context.Background(), "a", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := svc.Create(context.Background(), "b", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IndexName == b.IndexName || a.IndexName == "logs_a" {
		t.Errorf("index names must be random tokens: %q %q", a.IndexName, b.IndexName)
	}
}

func TestCreate_RollsBackOnIndexFailure(t *testing.T) {
	svc, repo, idx := newTestService()
	idx.ensureErr = domain.ErrStore

	_, err := svc.Create(context.Background(), "payments", nil, "en")
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if len(repo.projects) != 0 || len(repo.deleted) != 1 {
		t.Errorf("row not rolled back: %v", repo.projects)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService()

	tests := []struct {
		name, projectName, lang string
	}{
		{"empty name", "", "en"},
		{"unknown language", "p", "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.projectName, nil, tt.lang)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if len(repo.projects) != 0 {
		t.Error("invalid input must not write")
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc, repo, idx := newTestService()
	repo.createErr = domain.ErrProjectAlreadyExists

	_, err := svc.Create(context.Background(), "payments", nil, "en")
	if !errors.Is(err, domain.ErrProjectAlreadyExists) {
		t.Fatalf("expected ErrProjectAlreadyExists, got %v", err)
	}
	if len(idx.created) != 0 {
		t.Error("index created for a rejected project")
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	p, err := svc.Create(context.Background(), "payments", nil, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), p.APIKey)
	if err != nil || got.ID != p.ID {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}
	if _, err := svc.Authenticate(context.Background(), "wrong"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateKeywords(t *testing.T) {
	svc, _, _ := newTestService()
	p, _ := svc.Create(context.Background(), "payments", []string{"a"}, "en")

	got, err := svc.UpdateKeywords(context.Background(), p.ID, []string{"db", "", "net"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "db" {
		t.Errorf("keywords = %v", got.Keywords)
	}

	if _, err := svc.UpdateKeywords(context.Background(), "missing", nil); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestDelete_DropsIndex(t *testing.T) {
	svc, repo, idx := newTestService()
	p, _ := svc.Create(context.Background(), "payments", nil, "en")

	if err := svc.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.dropped) != 1 || idx.dropped[0] != p.IndexName {
		t.Errorf("dropped = %v", idx.dropped)
	}
	if len(repo.projects) != 0 {
		t.Error("row not deleted")
	}
}

func TestDelete_MissingIndexIsTolerated(t *testing.T) {
	svc, _, idx := newTestService()
	p, _ := svc.Create(context.Background(), "payments", nil, "en")
	idx.deleteErr = domain.NewIndexError(p.IndexName, domain.ErrIndexNotFound)

	if err := svc.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_StoreErrorKeepsRow(t *testing.T) {
	svc, repo, idx := newTestService()
	p, _ := svc.Create(context.Background(), "payments", nil, "en")
	idx.deleteErr = domain.ErrStore

	if err := svc.Delete(context.Background(), p.ID); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if _, ok := repo.projects[p.ID]; !ok {
		t.Error("row must survive a failed index drop")
	}
}
