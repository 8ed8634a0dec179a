package service

import (
	"context"
	"errors"
	"time"

	"shortlink-service/internal/model"
	"shortlink-service/internal/util"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "slug:"

// Store is the persistence contract the orchestration runs against. The
// Postgres repository implements it; tests inject an in-memory fake.
type Store interface {
	InsertMapping(ctx context.Context, url, slug, description string) (*model.UrlMapping, error)
	GetBySlug(ctx context.Context, slug string) (*model.UrlMapping, error)
	List(ctx context.Context) ([]model.UrlMapping, error)
	Count(ctx context.Context) (int64, error)
	InsertUsage(ctx context.Context, slug string) (*model.UsageEvent, error)
	ListUsages(ctx context.Context) ([]model.UsageEvent, error)
	ListUsagesBySlug(ctx context.Context, slug string) ([]model.UsageEvent, error)
	ResetAll(ctx context.Context) error
}

type Service struct {
	Store     Store
	Redis     *redis.Client // may be nil if disabled
	ShortHost string
}

func NewService(store Store, rc *redis.Client, shortHost string) *Service {
	return &Service{Store: store, Redis: rc, ShortHost: shortHost}
}

// Create allocates a mapping and returns the full short link. An empty slug
// means "generate one"; a supplied slug that is already taken yields
// model.ErrSlugTaken whether caught by the pre-check or by the database
// constraint during the insert race.
func (s *Service) Create(ctx context.Context, rawURL, slug, description string) (string, error) {
	if !util.IsValidURL(rawURL) {
		return "", model.ErrInvalidURL
	}
	if slug != "" && !util.IsValidSlug(slug) {
		return "", model.ErrInvalidSlug
	}
	dest := util.NormalizeURL(rawURL)

	if slug != "" {
		_, err := s.Store.GetBySlug(ctx, slug)
		if err == nil {
			return "", model.ErrSlugTaken
		}
		if !errors.Is(err, model.ErrNotFound) {
			return "", err
		}
	} else {
		slug = util.GenerateSlug()
	}

	// The pre-check above is only an optimization; the unique constraint is
	// the authoritative guard and surfaces here as ErrSlugTaken on a race.
	if _, err := s.Store.InsertMapping(ctx, dest, slug, description); err != nil {
		return "", err
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, cachePrefix+slug, dest, 24*time.Hour).Err()
	}
	return s.ShortHost + "/" + slug, nil
}

// Resolve returns the destination URL for a slug, recording a usage event.
// The redirect must not happen unless the usage row was durably written, so
// any usage-insert failure aborts the resolve.
func (s *Service) Resolve(ctx context.Context, slug string) (string, error) {
	if !util.IsValidSlug(slug) {
		return "", model.ErrInvalidSlug
	}

	dest := ""
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, cachePrefix+slug).Result(); err == nil {
			dest = val
		}
	}
	if dest == "" {
		m, err := s.Store.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		dest = m.URL
		if s.Redis != nil {
			_ = s.Redis.Set(ctx, cachePrefix+slug, dest, 24*time.Hour).Err()
		}
	}

	if _, err := s.Store.InsertUsage(ctx, slug); err != nil {
		return "", err
	}
	return dest, nil
}

// Detail returns a mapping together with its usage events.
func (s *Service) Detail(ctx context.Context, slug string) (*model.UrlMapping, []model.UsageEvent, error) {
	if !util.IsValidSlug(slug) {
		return nil, nil, model.ErrInvalidSlug
	}
	m, err := s.Store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	usages, err := s.Store.ListUsagesBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	return m, usages, nil
}

func (s *Service) List(ctx context.Context) ([]model.UrlMapping, error) {
	return s.Store.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Store.Count(ctx)
}

func (s *Service) Usages(ctx context.Context) ([]model.UsageEvent, error) {
	return s.Store.ListUsages(ctx)
}

// Reset erases both tables and purges cached slugs so a stale cache entry
// cannot keep resolving after the mapping is gone.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.Store.ResetAll(ctx); err != nil {
		return err
	}
	if s.Redis != nil {
		iter := s.Redis.Scan(ctx, 0, cachePrefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			_ = s.Redis.Del(ctx, iter.Val()).Err()
		}
	}
	return nil
}
