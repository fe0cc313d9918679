package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeRemote struct {
	mu       sync.Mutex
	products map[string]domain.Product
	carts    map[string]*domain.Cart
	byUser   map[string]string
	nextID   int

	getErr       error
	getByUserErr error
	createErr    error
	deleteErr    error
	addErr       error
	removeErr    error

	// afterSnapshot runs after GetCart copied the cart and before it returns.
	afterSnapshot func(call int)

	getCalls    int
	createCalls int
	addCalls    int
	deleteCalls int
}

func newFakeRemote(products ...domain.Product) *fakeRemote {
	f := &fakeRemote{
		products: make(map[string]domain.Product),
		carts:    make(map[string]*domain.Cart),
		byUser:   make(map[string]string),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func product(id, price string) domain.Product {
	return domain.Product{ID: id, Title: "product " + id, Price: decimal.RequireFromString(price)}
}

func (f *fakeRemote) seed(userID, cartID string, items ...domain.CartItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cartID] = &domain.Cart{ID: cartID, UserID: userID, Items: items}
	if userID != "" {
		f.byUser[userID] = cartID
	}
}

func (f *fakeRemote) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	f.mu.Lock()
	f.getCalls++
	call := f.getCalls
	if f.getErr != nil {
		f.mu.Unlock()
		return nil, f.getErr
	}
	c, ok := f.carts[cartID]
	if !ok {
		f.mu.Unlock()
		return nil, status.Error(codes.NotFound, "cart not found")
	}
	snapshot := &domain.Cart{ID: c.ID, UserID: c.UserID, Items: append([]domain.CartItem(nil), c.Items...)}
	hook := f.afterSnapshot
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return snapshot, nil
}

func (f *fakeRemote) GetCartByUser(_ context.Context, userID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByUserErr != nil {
		return nil, f.getByUserErr
	}
	id, ok := f.byUser[userID]
	if !ok {
		return nil, status.Error(codes.NotFound, "cart not found")
	}
	return &domain.Cart{ID: id, UserID: userID, Items: f.carts[id].Items}, nil
}

func (f *fakeRemote) CreateCart(_ context.Context, userID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("cart-%d", f.nextID)
	f.carts[id] = &domain.Cart{ID: id, UserID: userID}
	f.byUser[userID] = id
	return &domain.Cart{ID: id}, nil
}

func (f *fakeRemote) DeleteCart(_ context.Context, cartID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.carts, cartID)
	return nil
}

func (f *fakeRemote) AddItem(_ context.Context, cartID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	c, ok := f.carts[cartID]
	if !ok {
		return status.Error(codes.NotFound, "cart not found")
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items[i].Quantity++
			return nil
		}
	}
	p, ok := f.products[productID]
	if !ok {
		return status.Error(codes.NotFound, "product not found")
	}
	c.Items = append(c.Items, domain.CartItem{Product: p, Quantity: 1})
	return nil
}

// RemoveItem decrements and leaves zero-quantity lines behind on purpose.
func (f *fakeRemote) RemoveItem(_ context.Context, cartID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	c, ok := f.carts[cartID]
	if !ok {
		return status.Error(codes.NotFound, "cart not found")
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == productID && c.Items[i].Quantity > 0 {
			c.Items[i].Quantity--
			return nil
		}
	}
	return status.Error(codes.NotFound, "item not found in cart")
}
