package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shortlink-service/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// EnsureSchema creates both tables if they do not exist. The usages.slug
// column carries no foreign key: the relation is advisory and a reset may
// leave orphan usage rows behind.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	const urls = `
		CREATE TABLE IF NOT EXISTS urls (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			url TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`
	const usages = `
		CREATE TABLE IF NOT EXISTS usages (
			id BIGSERIAL PRIMARY KEY,
			accessed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			slug TEXT NOT NULL
		)`

	if _, err := r.DB.ExecContext(ctx, urls); err != nil {
		return fmt.Errorf("create urls table: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, usages); err != nil {
		return fmt.Errorf("create usages table: %w", err)
	}
	return nil
}

// InsertMapping stores a new slug/url association. A unique-constraint
// violation on slug is reported as model.ErrSlugTaken; callers must treat it
// as "slug exists", not as a server error.
func (r *Repo) InsertMapping(ctx context.Context, url, slug, description string) (*model.UrlMapping, error) {
	const q = `INSERT INTO urls (url, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`

	m := &model.UrlMapping{URL: url, Slug: slug, Description: description}
	err := r.DB.QueryRowContext(ctx, q, url, slug, description).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, model.ErrSlugTaken
		}
		return nil, fmt.Errorf("insert mapping: %w", err)
	}
	return m, nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*model.UrlMapping, error) {
	const q = `
		SELECT u.id, u.created_at, u.url, u.slug, u.description, COUNT(g.id)
		FROM urls u
		LEFT JOIN usages g ON g.slug = u.slug
		WHERE u.slug = $1
		GROUP BY u.id`

	var m model.UrlMapping
	err := r.DB.QueryRowContext(ctx, q, slug).
		Scan(&m.ID, &m.CreatedAt, &m.URL, &m.Slug, &m.Description, &m.UseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return &m, nil
}

// List returns every mapping with its derived use count, newest first.
func (r *Repo) List(ctx context.Context) ([]model.UrlMapping, error) {
	const q = `
		SELECT u.id, u.created_at, u.url, u.slug, u.description, COUNT(g.id)
		FROM urls u
		LEFT JOIN usages g ON g.slug = u.slug
		GROUP BY u.id
		ORDER BY u.created_at DESC, u.id DESC`

	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	res := make([]model.UrlMapping, 0)
	for rows.Next() {
		var m model.UrlMapping
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.URL, &m.Slug, &m.Description, &m.UseCount); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM urls`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return n, nil
}

// InsertUsage appends a usage event. It does not check that the slug still
// maps to anything.
func (r *Repo) InsertUsage(ctx context.Context, slug string) (*model.UsageEvent, error) {
	const q = `INSERT INTO usages (slug) VALUES ($1) RETURNING id, accessed_at`

	e := &model.UsageEvent{Slug: slug}
	if err := r.DB.QueryRowContext(ctx, q, slug).Scan(&e.ID, &e.AccessedAt); err != nil {
		return nil, fmt.Errorf("insert usage: %w", err)
	}
	return e, nil
}

func (r *Repo) ListUsages(ctx context.Context) ([]model.UsageEvent, error) {
	return r.queryUsages(ctx, `SELECT id, accessed_at, slug FROM usages ORDER BY id`)
}

func (r *Repo) ListUsagesBySlug(ctx context.Context, slug string) ([]model.UsageEvent, error) {
	return r.queryUsages(ctx, `SELECT id, accessed_at, slug FROM usages WHERE slug = $1 ORDER BY id`, slug)
}

func (r *Repo) queryUsages(ctx context.Context, q string, args ...any) ([]model.UsageEvent, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list usages: %w", err)
	}
	defer rows.Close()

	res := make([]model.UsageEvent, 0)
	for rows.Next() {
		var e model.UsageEvent
		if err := rows.Scan(&e.ID, &e.AccessedAt, &e.Slug); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ResetAll erases every row from both tables. Usages go first so there is no
// window where a usage row points at a mapping that was just deleted.
func (r *Repo) ResetAll(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM usages`); err != nil {
		return fmt.Errorf("reset usages: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM urls`); err != nil {
		return fmt.Errorf("reset urls: %w", err)
	}
	return nil
}
