package model

import (
	"errors"
	"time"
)

// UrlMapping is the durable association between a slug and its destination URL.
// UseCount is derived from the usages table and only populated by queries that
// join against it; it is never stored.
type UrlMapping struct {
	ID          int64     `db:"id" json:"id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	URL         string    `db:"url" json:"url"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	UseCount    int64     `db:"use_count" json:"use_count"`
}

// UsageEvent records one successful resolution of a slug. The slug reference
// is advisory: a reset may orphan historical rows.
type UsageEvent struct {
	ID         int64     `db:"id" json:"id"`
	AccessedAt time.Time `db:"accessed_at" json:"accessed_at"`
	Slug       string    `db:"slug" json:"slug"`
}

var (
	ErrNotFound    = errors.New("not found")
	ErrSlugTaken   = errors.New("slug already taken")
	ErrInvalidURL  = errors.New("invalid url")
	ErrInvalidSlug = errors.New("invalid slug")
)
