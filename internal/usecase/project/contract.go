package project

import (
	"context"

	domproject "github.com/lognlook/lognlook/internal/domain/project"
)

// Repository defines the storage contract for the project directory.
type Repository interface {
	Create(ctx context.Context, p domproject.Project) error
	Get(ctx context.Context, id string) (domproject.Project, error)
	GetByAPIKey(ctx context.Context, apiKey string) (domproject.Project, error)
	List(ctx context.Context) ([]domproject.Project, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string) error
	Delete(ctx context.Context, id string) error
}

// IndexManager owns the per-project document-store index.
type IndexManager interface {
	CreateDefaultIndex(ctx context.Context, index string) error
	DeleteIndex(ctx context.Context, index string) error
}
