// Package admin implements catalog administration on top of a user's session:
// product create, update and delete with the feed kept in step.
package admin

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/feed"
	"github.com/fjod/storefront/internal/notify"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

const (
	msgCreated = "The product was successfully added"
	msgUpdated = "The product has been updated successfully"
	msgDeleted = "The product has been removed successfully"
)

// ProductStore is the slice of the catalog service administration writes to.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, fields domain.ProductFields) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Catalog is the part of the feed administration steers after a write.
type Catalog interface {
	Filter() feed.Filter
	SetCategory(ctx context.Context, c domain.Category)
	SelectCategory(ctx context.Context, id string) bool
	Reload(ctx context.Context)
}

type Admin struct {
	store   ProductStore
	catalog Catalog
	notices notify.Sink
	nav     notify.Navigator
	logger  *zap.Logger
}

func New(store ProductStore, catalog Catalog, notices notify.Sink, nav notify.Navigator, logger *zap.Logger) *Admin {
	if notices == nil {
		notices = notify.Discard{}
	}
	if nav == nil {
		nav = notify.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Admin{store: store, catalog: catalog, notices: notices, nav: nav, logger: logger}
}

// Product looks up one product for the detail view.
func (a *Admin) Product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := a.store.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Create adds a product and shows it: the feed switches to the product's
// category, or reloads when it is already there.
func (a *Admin) Create(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	p, err := a.store.CreateProduct(ctx, fields)
	if err != nil {
		return nil, a.failed("create product", err)
	}
	a.notices.Notify(notify.NewNotice(notify.SeveritySuccess, msgCreated))
	a.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("category", p.Category.Name))

	if a.catalog == nil {
		return p, nil
	}
	current := a.catalog.Filter().Category
	switch {
	case p.Category.ID == current.ID:
		a.catalog.Reload(ctx)
	case p.Category.Name != "":
		a.catalog.SetCategory(ctx, p.Category)
	case !a.catalog.SelectCategory(ctx, p.Category.ID):
		a.catalog.Reload(ctx)
	}
	return p, nil
}

func (a *Admin) Update(ctx context.Context, id string, fields domain.ProductFields) (*domain.Product, error) {
	p, err := a.store.UpdateProduct(ctx, id, fields)
	if err != nil {
		return nil, a.failed("update product", err)
	}
	a.notices.Notify(notify.NewNotice(notify.SeveritySuccess, msgUpdated))
	a.logger.Info("Product updated", zap.String("product_id", p.ID))
	return p, nil
}

// Delete removes a product and navigates back to the current category.
func (a *Admin) Delete(ctx context.Context, id string) error {
	if err := a.store.DeleteProduct(ctx, id); err != nil {
		return a.failed("delete product", err)
	}
	a.notices.Notify(notify.NewNotice(notify.SeveritySuccess, msgDeleted))
	a.logger.Info("Product deleted", zap.String("product_id", id))

	var current domain.Category
	if a.catalog != nil {
		current = a.catalog.Filter().Category
	}
	a.nav.Navigate("/" + current.Slug())
	return nil
}

func (a *Admin) failed(op string, err error) error {
	a.logger.Warn("Catalog write failed", zap.String("op", op), zap.Error(err))
	a.notices.Notify(notify.NewNotice(notify.SeverityError, status.Convert(err).Message()))
	return fmt.Errorf("%s: %w", op, err)
}
