package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lognlook/lognlook/internal/domain"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
)

func setupTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(context.Background(), Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sample(id, name string) domproject.Project {
	return domproject.Project{
		ID:        id,
		Name:      name,
		IndexName: "idx" + id,
		APIKey:    "key-" + id,
		Language:  domain.LanguageEnglish,
		Keywords:  []string{"database", "auth"},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	p := sample("p1", "payments")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	byKey, err := repo.GetByAPIKey(ctx, "key-p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", byKey.ID)
}

func TestCreate_Duplicate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sample("p1", "payments")))
	err := repo.Create(ctx, sample("p2", "payments"))
	assert.ErrorIs(t, err, domain.ErrProjectAlreadyExists)
}

func TestGet_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = repo.GetByAPIKey(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestList_OldestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	later := sample("p2", "search")
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, sample("p1", "payments")))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p2", all[1].ID)
}

func TestUpdateKeywords(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sample("p1", "payments")))

	require.NoError(t, repo.UpdateKeywords(ctx, "p1", nil))
	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Keywords)

	assert.ErrorIs(t, repo.UpdateKeywords(ctx, "missing", []string{"x"}), domain.ErrProjectNotFound)
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sample("p1", "payments")))

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err := repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "p1"), domain.ErrProjectNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: projects.name (2067)")))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
}
