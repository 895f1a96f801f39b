package lognlook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lognlook/lognlook/internal/domain"
)

// ProjectService manages projects.
type ProjectService struct {
	svc projectUseCase
	obs *observer
}

// Create registers a project and creates its index. language is "en" or
// "ko"; empty means English.
func (s *ProjectService) Create(
	ctx context.Context, name string, keywords []string, language string,
) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.create", start, err) }()

	p, err := s.svc.Create(ctx, name, keywords, language)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return fromInternalProject(p), nil
}

// Ensure returns the project named name, creating it when absent.
func (s *ProjectService) Ensure(
	ctx context.Context, name string, keywords []string, language string,
) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.ensure", start, err) }()

	p, err := s.svc.Create(ctx, name, keywords, language)
	if err == nil {
		return fromInternalProject(p), nil
	}
	if !errors.Is(err, domain.ErrProjectAlreadyExists) {
		return Project{}, fmt.Errorf("ensure project: %w", err)
	}

	list, err := s.svc.List(ctx)
	if err != nil {
		return Project{}, fmt.Errorf("ensure project: %w", err)
	}
	for _, p := range list {
		if p.Name == name {
			return fromInternalProject(p), nil
		}
	}
	return Project{}, fmt.Errorf("ensure project %q: %w", name, domain.ErrProjectNotFound)
}

// Get retrieves a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.get", start, err) }()

	p, err := s.svc.Get(ctx, id)
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return fromInternalProject(p), nil
}

// List returns every project.
func (s *ProjectService) List(ctx context.Context) (_ []Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.list", start, err) }()

	list, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]Project, len(list))
	for i, p := range list {
		out[i] = fromInternalProject(p)
	}
	return out, nil
}

// UpdateKeywords replaces the classification vocabulary. Stored logs keep
// their keyword.
func (s *ProjectService) UpdateKeywords(
	ctx context.Context, id string, keywords []string,
) (_ Project, err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.update_keywords", start, err) }()

	p, err := s.svc.UpdateKeywords(ctx, id, keywords)
	if err != nil {
		return Project{}, fmt.Errorf("update keywords: %w", err)
	}
	return fromInternalProject(p), nil
}

// Delete removes a project and its index.
func (s *ProjectService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("project.delete", start, err) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
