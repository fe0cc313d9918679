// Package category keeps the list of catalog categories and resolves the ids
// and URL slugs the UI refers to them by.
package category

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

type Fetcher interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Directory struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	sfg     singleflight.Group // one fetch for concurrent misses

	mu         sync.RWMutex
	categories []domain.Category
	loadedAt   time.Time
}

func NewDirectory(fetcher Fetcher, ttl time.Duration, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// List returns the cached categories, fetching them when the cache is empty
// or older than the TTL. A failed refetch falls back to the stale list.
func (d *Directory) List(ctx context.Context) ([]domain.Category, error) {
	d.mu.RLock()
	cached, fresh := d.categories, d.loadedAt.Add(d.ttl).After(d.now())
	d.mu.RUnlock()
	if cached != nil && fresh {
		return append([]domain.Category(nil), cached...), nil
	}

	v, err, _ := d.sfg.Do("categories", func() (interface{}, error) {
		categories, err := d.fetcher.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.categories = categories
		d.loadedAt = d.now()
		d.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		if cached != nil {
			d.logger.Warn("category refresh failed, serving stale list", zap.Error(err))
			return append([]domain.Category(nil), cached...), nil
		}
		return nil, err
	}
	return append([]domain.Category(nil), v.([]domain.Category)...), nil
}

// Lookup finds a category by id among the categories loaded so far.
func (d *Directory) Lookup(id string) (domain.Category, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.categories {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

// BySlug resolves a route segment produced by Category.Slug. Names compare
// case-insensitively; "all" resolves to the zero Category.
func (d *Directory) BySlug(slug string) (domain.Category, bool) {
	name, err := domain.NameFromSlug(slug)
	if err != nil {
		return domain.Category{}, false
	}
	if name == "" {
		return domain.Category{}, true
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return domain.Category{}, false
}
