// Package cart keeps a local view of the user's cart reconciled with the
// remote cart resource and derives quantities and costs from it.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Session struct {
	remote  Remote
	notices notify.Sink
	pricing Pricing
	logger  *zap.Logger

	mu     sync.Mutex
	cartID string
	items  []domain.CartItem
	err    error
	// issued is handed out as a ticket when a refresh chain starts;
	// applied is the ticket of the state currently held.
	issued  uint64
	applied uint64
}

type Option func(*Session)

func WithPricing(p Pricing) Option {
	return func(s *Session) { s.pricing = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func NewSession(remote Remote, notices notify.Sink, opts ...Option) *Session {
	if notices == nil {
		notices = notify.Discard{}
	}
	s := &Session{
		remote:  remote,
		notices: notices,
		pricing: DefaultPricing(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveForUser finds the user's cart, creating one when the service has
// none (or fails looking it up). It only adopts the cart id.
func (s *Session) ResolveForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrAnonymous
	}

	cart, err := s.remote.GetCartByUser(ctx, userID)
	if err != nil {
		if !canCreateAfter(err) {
			return s.fail(fmt.Errorf("get cart for user %s: %w", userID, err))
		}
		s.logger.Info("no cart for user, creating one", zap.String("user_id", userID), zap.Error(err))
		cart, err = s.remote.CreateCart(ctx, userID)
		if err != nil {
			return s.fail(fmt.Errorf("create cart for user %s: %w", userID, err))
		}
	}
	if cart == nil || cart.ID == "" {
		return s.fail(fmt.Errorf("cart for user %s has no id", userID))
	}

	s.adopt(cart.ID)
	return nil
}

// Resume adopts a cart id known from an earlier session and loads it.
// On failure the session is left without a cart.
func (s *Session) Resume(ctx context.Context, cartID string) error {
	if cartID == "" {
		return ErrNoCart
	}
	ticket := s.adopt(cartID)
	if err := s.refresh(ctx, cartID, ticket); err != nil {
		s.mu.Lock()
		if s.cartID == cartID {
			s.cartID = ""
			s.items = nil
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// RefreshCart replaces the local items with the remote cart's items.
func (s *Session) RefreshCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return ErrNoCart
	}
	return s.refresh(ctx, cartID, s.nextTicket())
}

func (s *Session) AddItem(ctx context.Context, productID string) {
	s.mutate(ctx, productID, "add", s.remote.AddItem)
}

func (s *Session) RemoveItem(ctx context.Context, productID string) {
	s.mutate(ctx, productID, "remove", s.remote.RemoveItem)
}

// mutate takes its refresh ticket before the remote call, so of two
// overlapping mutations only the later-started one's refresh is applied.
// The earlier one's effect shows up on the next refresh.
func (s *Session) mutate(ctx context.Context, productID, op string, call func(ctx context.Context, cartID, productID string) error) {
	s.mu.Lock()
	cartID := s.cartID
	if cartID == "" || productID == "" {
		s.mu.Unlock()
		return
	}
	s.issued++
	ticket := s.issued
	s.mu.Unlock()

	if err := call(ctx, cartID, productID); err != nil {
		s.logger.Warn("cart mutation failed",
			zap.String("op", op),
			zap.String("cart_id", cartID),
			zap.String("product_id", productID),
			zap.Error(err))
		s.notices.Notify(notify.NewNotice(notify.SeverityInfo, status.Convert(err).Message()))
		return
	}

	// refresh failures are recorded on the session
	_ = s.refresh(ctx, cartID, ticket)
}

// Clear deletes the remote cart and forgets it locally even when the delete
// fails.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	cartID := s.cartID
	s.mu.Unlock()
	if cartID == "" {
		return
	}

	err := s.remote.DeleteCart(ctx, cartID)

	s.mu.Lock()
	if s.cartID == cartID {
		s.forget()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("delete cart failed", zap.String("cart_id", cartID), zap.Error(err))
		s.notices.Notify(notify.NewNotice(notify.SeverityError, status.Convert(err).Message()))
	}
}

// Reset forgets the cart locally without calling the service.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget()
	s.err = nil
}

func (s *Session) refresh(ctx context.Context, cartID string, ticket uint64) error {
	cart, err := s.remote.GetCart(ctx, cartID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.applied || cartID != s.cartID {
		s.logger.Debug("discarding stale cart refresh",
			zap.String("cart_id", cartID),
			zap.Uint64("ticket", ticket),
			zap.Uint64("applied", s.applied))
		return nil
	}
	if err != nil {
		s.err = fmt.Errorf("get cart %s: %w", cartID, err)
		return s.err
	}
	if cart == nil {
		cart = &domain.Cart{ID: cartID}
	}

	s.items = domain.Normalize(cart.Items)
	s.applied = ticket
	s.err = nil
	return nil
}

func (s *Session) adopt(cartID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cartID != cartID {
		s.items = nil
		s.applied = s.issued
	}
	s.cartID = cartID
	s.err = nil
	s.issued++
	return s.issued
}

func (s *Session) nextTicket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// forget must be called with mu held.
func (s *Session) forget() {
	s.cartID = ""
	s.items = nil
	s.issued++
	s.applied = s.issued
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget()
	s.err = err
	return err
}

// canCreateAfter reports whether a failed lookup by user should fall back to
// creating a cart.
func canCreateAfter(err error) bool {
	switch status.Code(err) {
	case codes.NotFound, codes.Internal:
		return true
	}
	return false
}

func (s *Session) CartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartID
}

// Err is the blocking error of the last resolve or refresh, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.items...)
}

func (s *Session) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemQuantity(s.items, productID)
}

func (s *Session) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalQuantity(s.items)
}

func (s *Session) ItemsCost() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemsCost(s.items)
}

func (s *Session) DeliveryCost() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pricing.delivery(totalQuantity(s.items))
}

func (s *Session) TotalCost() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemsCost(s.items).Add(s.pricing.delivery(totalQuantity(s.items)))
}

// IsOpen is true while the cart holds at least one unit.
func (s *Session) IsOpen() bool {
	return s.TotalQuantity() > 0
}

// Snapshot is a consistent read of the cart and everything derived from it.
type Snapshot struct {
	CartID        string
	Items         []domain.CartItem
	TotalQuantity int
	ItemsCost     decimal.Decimal
	DeliveryCost  decimal.Decimal
	TotalCost     decimal.Decimal
	Open          bool
	Err           error
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	quantity := totalQuantity(s.items)
	items := itemsCost(s.items)
	delivery := s.pricing.delivery(quantity)
	return Snapshot{
		CartID:        s.cartID,
		Items:         append([]domain.CartItem(nil), s.items...),
		TotalQuantity: quantity,
		ItemsCost:     items,
		DeliveryCost:  delivery,
		TotalCost:     items.Add(delivery),
		Open:          quantity > 0,
		Err:           s.err,
	}
}
