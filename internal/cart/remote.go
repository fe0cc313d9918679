package cart

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

// Remote is the slice of the catalog service the cart session calls.
type Remote interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error)
	CreateCart(ctx context.Context, userID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, cartID string) error
	AddItem(ctx context.Context, cartID, productID string) error
	RemoveItem(ctx context.Context, cartID, productID string) error
}
