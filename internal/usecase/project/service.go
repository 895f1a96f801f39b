// Package project manages projects and their log indexes.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lognlook/lognlook/internal/domain"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
)

// Service handles project lifecycle.
type Service struct {
	repo    Repository
	indexes IndexManager
	logger  *zap.Logger
	now     func() time.Time
	token   func() string
}

// New creates a project service.
func New(repo Repository, indexes IndexManager, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		indexes: indexes,
		logger:  logger,
		now:     time.Now,
		token:   func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Create stores a project and provisions its index. The row is removed again
// when the index cannot be created.
func (s *Service) Create(
	ctx context.Context, name string, keywords []string, language string,
) (domproject.Project, error) {
	name, err := domproject.ValidateName(name)
	if err != nil {
		return domproject.Project{}, err
	}
	kw, err := domproject.NormalizeKeywords(keywords)
	if err != nil {
		return domproject.Project{}, err
	}
	lang, err := domain.ParseLanguage(language)
	if err != nil {
		return domproject.Project{}, err
	}

	p := domproject.Project{
		ID:        uuid.NewString(),
		Name:      name,
		IndexName: "logs_" + s.token(),
		APIKey:    "lnl_" + s.token(),
		Language:  lang,
		Keywords:  kw,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return domproject.Project{}, fmt.Errorf("create project: %w", err)
	}

	if err := s.indexes.CreateDefaultIndex(ctx, p.IndexName); err != nil {
		if delErr := s.repo.Delete(ctx, p.ID); delErr != nil {
			s.logger.Error("Failed to roll back project row",
				zap.String("project_id", p.ID), zap.Error(delErr))
		}
		return domproject.Project{}, fmt.Errorf("create project index: %w", err)
	}

	s.logger.Info("Project created",
		zap.String("project_id", p.ID), zap.String("index", p.IndexName))
	return p, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id string) (domproject.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Authenticate resolves the project owning an ingestion API key.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (domproject.Project, error) {
	if apiKey == "" {
		return domproject.Project{}, domain.NewValidationError("api_key", "is required")
	}
	p, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return domproject.Project{}, fmt.Errorf("resolve api key: %w", err)
	}
	return p, nil
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]domproject.Project, error) {
	ps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return ps, nil
}

// UpdateKeywords replaces the classification vocabulary and returns the
// updated project.
func (s *Service) UpdateKeywords(ctx context.Context, id string, keywords []string) (domproject.Project, error) {
	kw, err := domproject.NormalizeKeywords(keywords)
	if err != nil {
		return domproject.Project{}, err
	}
	if err := s.repo.UpdateKeywords(ctx, id, kw); err != nil {
		return domproject.Project{}, fmt.Errorf("update keywords: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete drops the project's index and removes the project.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.indexes.DeleteIndex(ctx, p.IndexName); err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		return fmt.Errorf("delete project index: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
