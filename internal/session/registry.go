// Package session keeps one cart session and one catalog feed per logged-in
// user and wires them to the catalog service under that user's credentials.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/admin"
	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/feed"
	"github.com/fjod/storefront/internal/notify"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrNoSession = errors.New("no session for user")

// Backend is everything a session calls on the catalog service.
type Backend interface {
	cart.Remote
	feed.Lister
	admin.ProductStore
}

// BackendFactory binds the catalog service to a user's bearer token.
type BackendFactory func(token string) Backend

type Session struct {
	UserID string
	Cart   *cart.Session
	Feed   *feed.Feed
	Admin  *admin.Admin
	Hub    *notify.Hub
}

type Registry struct {
	factory    BackendFactory
	cache      cache.CartCache
	categories feed.CategorySource
	pricing    cart.Pricing
	limit      int
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Registry)

func WithCategories(c feed.CategorySource) Option {
	return func(r *Registry) { r.categories = c }
}

func WithPricing(p cart.Pricing) Option {
	return func(r *Registry) { r.pricing = p }
}

func WithPageSize(limit int) Option {
	return func(r *Registry) { r.limit = limit }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(factory BackendFactory, c cache.CartCache, opts ...Option) *Registry {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	r := &Registry{
		factory:  factory,
		cache:    c,
		pricing:  cart.DefaultPricing(),
		limit:    feed.DefaultLimit,
		logger:   zap.NewNop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Login starts (or returns) the user's session. The cart is resumed from the
// cache when possible and resolved through the service otherwise. A cart
// failure does not fail the login; it is left on the cart session and the
// next Login or ResolveCart tries again.
func (r *Registry) Login(ctx context.Context, userID, token string) (*Session, error) {
	if userID == "" {
		return nil, cart.ErrAnonymous
	}

	r.mu.Lock()
	if s, ok := r.sessions[userID]; ok {
		r.mu.Unlock()
		if needsCart(s) {
			if err := r.attachCart(ctx, s); err != nil {
				r.logger.Warn("Cart still unavailable", zap.String("user_id", userID), zap.Error(err))
			}
		}
		return s, nil
	}
	s := r.newSession(userID, token)
	r.sessions[userID] = s
	r.mu.Unlock()

	logger := r.logger.With(zap.String("user_id", userID))
	if err := r.attachCart(ctx, s); err != nil {
		logger.Warn("Cart unavailable after login", zap.Error(err))
	}
	s.Feed.LoadNextPage(ctx)
	logger.Info("Session started", zap.String("cart_id", s.Cart.CartID()))
	return s, nil
}

func (r *Registry) newSession(userID, token string) *Session {
	backend := r.factory(token)
	logger := r.logger.With(zap.String("user_id", userID))
	hub := notify.NewHub(logger)

	feedOpts := []feed.Option{feed.WithLimit(r.limit), feed.WithLogger(logger)}
	if r.categories != nil {
		feedOpts = append(feedOpts, feed.WithCategories(r.categories))
	}
	f := feed.New(backend, hub, feedOpts...)

	return &Session{
		UserID: userID,
		Cart:   cart.NewSession(backend, hub, cart.WithPricing(r.pricing), cart.WithLogger(logger)),
		Feed:   f,
		Admin:  admin.New(backend, f, hub, hub, logger),
		Hub:    hub,
	}
}

func (r *Registry) attachCart(ctx context.Context, s *Session) error {
	ref, err := r.cache.Get(ctx, s.UserID)
	switch {
	case err == nil:
		if err := s.Cart.Resume(ctx, ref.CartID); err == nil {
			return nil
		}
		r.logger.Info("Cached cart is gone, resolving again",
			zap.String("user_id", s.UserID), zap.String("cart_id", ref.CartID))
	case !errors.Is(err, cache.ErrCacheMiss):
		r.logger.Warn("Cart cache read failed", zap.String("user_id", s.UserID), zap.Error(err))
	}

	if err := s.Cart.ResolveForUser(ctx, s.UserID); err != nil {
		return err
	}
	if !r.live(s) {
		// logged out while the cart was being resolved
		s.Cart.Reset()
		return ErrNoSession
	}
	cartID := s.Cart.CartID()
	if err := r.cache.Set(ctx, &cache.CartRef{UserID: s.UserID, CartID: cartID, SavedAt: time.Now()}); err != nil {
		r.logger.Warn("Cart cache write failed", zap.String("user_id", s.UserID), zap.Error(err))
	}
	return s.Cart.RefreshCart(ctx, cartID)
}

// ResolveCart retries attaching a cart to a live session that has none or
// whose last cart call failed. A healthy cart is left alone.
func (r *Registry) ResolveCart(ctx context.Context, userID string) (*Session, error) {
	s, ok := r.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	if !needsCart(s) {
		return s, nil
	}
	return s, r.attachCart(ctx, s)
}

func needsCart(s *Session) bool {
	return s.Cart.CartID() == "" || s.Cart.Err() != nil
}

func (r *Registry) live(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[s.UserID] == s
}

func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Logout tears the session down. The cached cart id is kept so the next
// login resumes the same cart.
func (r *Registry) Logout(userID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Feed.Close()
	s.Cart.Reset()
	r.logger.Info("Session ended", zap.String("user_id", userID))
	return true
}

// ClearCart deletes the user's cart remotely and locally and forgets the
// cached cart id.
func (r *Registry) ClearCart(ctx context.Context, userID string) error {
	s, ok := r.Get(userID)
	if !ok {
		return ErrNoSession
	}
	s.Cart.Clear(ctx)
	if err := r.cache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("forget cart of user %s: %w", userID, err)
	}
	return nil
}

// RefreshCart reloads the cart of a live session. It reports false when the
// user has no session or no cart. A cart the service no longer has is
// replaced by the user's current one.
func (r *Registry) RefreshCart(ctx context.Context, userID string) (bool, error) {
	s, ok := r.Get(userID)
	if !ok {
		return false, nil
	}
	cartID := s.Cart.CartID()
	if cartID == "" {
		return false, nil
	}
	err := s.Cart.RefreshCart(ctx, cartID)
	if status.Code(err) != codes.NotFound {
		return true, err
	}

	r.logger.Info("Cart is gone, resolving again", zap.String("user_id", userID), zap.String("cart_id", cartID))
	s.Cart.Reset()
	if err := r.cache.Delete(ctx, userID); err != nil {
		r.logger.Warn("Cart cache delete failed", zap.String("user_id", userID), zap.Error(err))
	}
	return true, r.attachCart(ctx, s)
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	users := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		users = append(users, id)
	}
	r.mu.Unlock()
	for _, id := range users {
		r.Logout(id)
	}
}
