package admin

import (
	"context"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/feed"
	"github.com/fjod/storefront/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeStore struct {
	product *domain.Product
	err     error
	deleted []string
}

func (s *fakeStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.product, s.err
}

func (s *fakeStore) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	return s.product, s.err
}

func (s *fakeStore) UpdateProduct(ctx context.Context, id string, fields domain.ProductFields) (*domain.Product, error) {
	return s.product, s.err
}

func (s *fakeStore) DeleteProduct(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeCatalog struct {
	filter   feed.Filter
	known    map[string]domain.Category
	calls    []string
	selected domain.Category
}

func (c *fakeCatalog) Filter() feed.Filter { return c.filter }

func (c *fakeCatalog) SetCategory(ctx context.Context, cat domain.Category) {
	c.calls = append(c.calls, "set")
	c.selected = cat
}

func (c *fakeCatalog) SelectCategory(ctx context.Context, id string) bool {
	c.calls = append(c.calls, "select")
	cat, ok := c.known[id]
	if ok {
		c.selected = cat
	}
	return ok
}

func (c *fakeCatalog) Reload(ctx context.Context) {
	c.calls = append(c.calls, "reload")
}

type recorder struct {
	notices []notify.Notice
	paths   []string
}

func (r *recorder) Notify(n notify.Notice) { r.notices = append(r.notices, n) }

func (r *recorder) Navigate(path string) { r.paths = append(r.paths, path) }

var (
	phones = domain.Category{ID: "1", Name: "phones"}
	garden = domain.Category{ID: "3", Name: "home & garden"}
)

func TestCreate_OtherCategorySwitchesFeed(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1", Category: garden}}
	catalog := &fakeCatalog{filter: feed.Filter{Category: phones}}
	rec := &recorder{}

	p, err := New(store, catalog, rec, rec, nil).Create(context.Background(), domain.ProductFields{Title: "Hose"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, []string{"set"}, catalog.calls)
	assert.Equal(t, garden, catalog.selected)
	require.Len(t, rec.notices, 1)
	assert.Equal(t, notify.SeveritySuccess, rec.notices[0].Severity)
	assert.Equal(t, msgCreated, rec.notices[0].Message)
}

func TestCreate_SameCategoryReloads(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1", Category: phones}}
	catalog := &fakeCatalog{filter: feed.Filter{Category: phones}}

	_, err := New(store, catalog, nil, nil, nil).Create(context.Background(), domain.ProductFields{})
	require.NoError(t, err)
	assert.Equal(t, []string{"reload"}, catalog.calls)
}

func TestCreate_CategoryIDOnlyIsSelectedByID(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1", Category: domain.Category{ID: "3"}}}
	catalog := &fakeCatalog{known: map[string]domain.Category{"3": garden}}

	_, err := New(store, catalog, nil, nil, nil).Create(context.Background(), domain.ProductFields{})
	require.NoError(t, err)
	assert.Equal(t, []string{"select"}, catalog.calls)
	assert.Equal(t, garden, catalog.selected)
}

func TestCreate_UnknownCategoryIDReloads(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1", Category: domain.Category{ID: "9"}}}
	catalog := &fakeCatalog{}

	_, err := New(store, catalog, nil, nil, nil).Create(context.Background(), domain.ProductFields{})
	require.NoError(t, err)
	assert.Equal(t, []string{"select", "reload"}, catalog.calls)
}

func TestCreate_FailureIsNoticeAndError(t *testing.T) {
	store := &fakeStore{err: status.Error(codes.InvalidArgument, "title is required")}
	catalog := &fakeCatalog{}
	rec := &recorder{}

	_, err := New(store, catalog, rec, rec, nil).Create(context.Background(), domain.ProductFields{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, catalog.calls)
	require.Len(t, rec.notices, 1)
	assert.Equal(t, notify.SeverityError, rec.notices[0].Severity)
	assert.Equal(t, "title is required", rec.notices[0].Message)
}

func TestUpdate(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1", Title: "New"}}
	rec := &recorder{}

	p, err := New(store, &fakeCatalog{}, rec, rec, nil).Update(context.Background(), "p1", domain.ProductFields{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Title)
	require.Len(t, rec.notices, 1)
	assert.Equal(t, msgUpdated, rec.notices[0].Message)
}

func TestDelete_NavigatesToCurrentCategory(t *testing.T) {
	tests := []struct {
		name    string
		current domain.Category
		want    string
	}{
		{"all", domain.Category{}, "/all"},
		{"phones", phones, "/phones"},
		{"escaped", garden, "/home%20&%20garden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			rec := &recorder{}
			catalog := &fakeCatalog{filter: feed.Filter{Category: tt.current}}

			require.NoError(t, New(store, catalog, rec, rec, nil).Delete(context.Background(), "p1"))
			assert.Equal(t, []string{"p1"}, store.deleted)
			assert.Equal(t, []string{tt.want}, rec.paths)
			require.Len(t, rec.notices, 1)
			assert.Equal(t, msgDeleted, rec.notices[0].Message)
		})
	}
}

func TestDelete_FailureDoesNotNavigate(t *testing.T) {
	store := &fakeStore{err: status.Error(codes.NotFound, "product not found")}
	rec := &recorder{}

	err := New(store, &fakeCatalog{}, rec, rec, nil).Delete(context.Background(), "p1")
	require.Error(t, err)
	assert.Empty(t, rec.paths)
	require.Len(t, rec.notices, 1)
	assert.Equal(t, notify.SeverityError, rec.notices[0].Severity)
}

func TestProduct(t *testing.T) {
	store := &fakeStore{product: &domain.Product{ID: "p1"}}
	p, err := New(store, nil, nil, nil, nil).Product(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	store.err = status.Error(codes.NotFound, "product not found")
	_, err = New(store, nil, nil, nil, nil).Product(context.Background(), "p1")
	assert.Equal(t, codes.NotFound, status.Code(err))
}
