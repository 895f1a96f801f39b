// Package project is the relational project directory.
package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/lognlook/lognlook/internal/domain"
	domproject "github.com/lognlook/lognlook/internal/domain/project"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	index_name  TEXT NOT NULL UNIQUE,
	api_key     TEXT NOT NULL UNIQUE,
	language    TEXT NOT NULL,
	keywords    TEXT NOT NULL,
	created_at  BIGINT NOT NULL
)`

// Options configure the connection pool.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Repo stores projects in postgres or sqlite through sqlx.
type Repo struct {
	db *sqlx.DB
}

type row struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	IndexName string `db:"index_name"`
	APIKey    string `db:"api_key"`
	Language  string `db:"language"`
	Keywords  string `db:"keywords"`
	CreatedAt int64  `db:"created_at"`
}

// Open connects and applies the schema.
func Open(ctx context.Context, opts Options) (*Repo, error) {
	switch opts.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", opts.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// sqlite allows one writer; a single connection also keeps
		// ":memory:" databases shared across calls.
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	r := &Repo{db: db}
	if err := r.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Migrate creates the projects table if needed.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate projects: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the pool.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Create inserts p. Duplicate name, index or key fails with ErrProjectAlreadyExists.
func (r *Repo) Create(ctx context.Context, p domproject.Project) error {
	kw, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}

	q := r.db.Rebind(`INSERT INTO projects (id, name, index_name, api_key, language, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.IndexName, p.APIKey, string(p.Language), string(kw), p.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrProjectAlreadyExists, p.Name)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Get returns the project by id.
func (r *Repo) Get(ctx context.Context, id string) (domproject.Project, error) {
	return r.getBy(ctx, "id", id)
}

// GetByAPIKey resolves the project owning an ingestion key.
func (r *Repo) GetByAPIKey(ctx context.Context, apiKey string) (domproject.Project, error) {
	return r.getBy(ctx, "api_key", apiKey)
}

func (r *Repo) getBy(ctx context.Context, column, value string) (domproject.Project, error) {
	var rw row
	q := r.db.Rebind(`SELECT * FROM projects WHERE ` + column + ` = ?`)
	if err := r.db.GetContext(ctx, &rw, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domproject.Project{}, domain.ErrProjectNotFound
		}
		return domproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return rw.toDomain()
}

// List returns all projects, oldest first.
func (r *Repo) List(ctx context.Context) ([]domproject.Project, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM projects ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]domproject.Project, 0, len(rows))
	for _, rw := range rows {
		p, err := rw.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateKeywords replaces the classification vocabulary.
func (r *Repo) UpdateKeywords(ctx context.Context, id string, keywords []string) error {
	kw, err := json.Marshal(nonNil(keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE projects SET keywords = ? WHERE id = ?`), string(kw), id)
	if err != nil {
		return fmt.Errorf("update keywords: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the project row.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (rw row) toDomain() (domproject.Project, error) {
	var kw []string
	if err := json.Unmarshal([]byte(rw.Keywords), &kw); err != nil {
		return domproject.Project{}, fmt.Errorf("decode keywords of %s: %w", rw.ID, err)
	}
	return domproject.Project{
		ID:        rw.ID,
		Name:      rw.Name,
		IndexName: rw.IndexName,
		APIKey:    rw.APIKey,
		Language:  domain.Language(rw.Language),
		Keywords:  kw,
		CreatedAt: time.UnixMilli(rw.CreatedAt).UTC(),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isUniqueViolation recognizes postgres 23505 and sqlite UNIQUE failures.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
