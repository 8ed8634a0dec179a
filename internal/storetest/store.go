// Package storetest provides an in-memory service.Store for tests, enforcing
// the same slug uniqueness and not-found semantics as the Postgres repository.
package storetest

import (
	"context"
	"sync"
	"time"

	"shortlink-service/internal/model"
)

type Store struct {
	mu       sync.Mutex
	mappings []model.UrlMapping
	usages   []model.UsageEvent
	nextID   int64

	// FailUsageInsert makes InsertUsage return this error, to exercise the
	// no-redirect-without-usage rule.
	FailUsageInsert error
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) InsertMapping(_ context.Context, url, slug, description string) (*model.UrlMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.mappings {
		if m.Slug == slug {
			return nil, model.ErrSlugTaken
		}
	}
	m := model.UrlMapping{
		ID:          s.nextID,
		CreatedAt:   time.Now().UTC(),
		URL:         url,
		Slug:        slug,
		Description: description,
	}
	s.nextID++
	s.mappings = append(s.mappings, m)
	return &m, nil
}

func (s *Store) GetBySlug(_ context.Context, slug string) (*model.UrlMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.mappings {
		if m.Slug == slug {
			m.UseCount = s.countLocked(slug)
			return &m, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]model.UrlMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.UrlMapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		m.UseCount = s.countLocked(m.Slug)
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.mappings)), nil
}

func (s *Store) InsertUsage(_ context.Context, slug string) (*model.UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUsageInsert != nil {
		return nil, s.FailUsageInsert
	}
	e := model.UsageEvent{
		ID:         s.nextID,
		AccessedAt: time.Now().UTC(),
		Slug:       slug,
	}
	s.nextID++
	s.usages = append(s.usages, e)
	return &e, nil
}

func (s *Store) ListUsages(_ context.Context) ([]model.UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]model.UsageEvent, 0, len(s.usages)), s.usages...), nil
}

func (s *Store) ListUsagesBySlug(_ context.Context, slug string) ([]model.UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.UsageEvent, 0)
	for _, e := range s.usages {
		if e.Slug == slug {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = nil
	s.mappings = nil
	return nil
}

func (s *Store) countLocked(slug string) int64 {
	var n int64
	for _, e := range s.usages {
		if e.Slug == slug {
			n++
		}
	}
	return n
}
