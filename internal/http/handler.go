// Package http exposes user sessions (cart, catalog feed, administration and
// notices) as a JSON API for the storefront UI.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/money"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

// Categories lists the catalog's categories.
type Categories interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Handler struct {
	sessions   *session.Registry
	categories Categories
	money      *money.Formatter
	limiter    *RateLimiter
	timeout    time.Duration
	logger     *zap.Logger
}

func NewHandler(sessions *session.Registry, categories Categories, formatter *money.Formatter, timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		sessions:   sessions,
		categories: categories,
		money:      formatter,
		limiter:    NewRateLimiter(DefaultRate, DefaultBurst),
		timeout:    timeout,
		logger:     logger,
	}
}

// WithRateLimit replaces the per-user request limit.
func (h *Handler) WithRateLimit(rps float64, burst int) *Handler {
	h.limiter = NewRateLimiter(rps, burst)
	return h
}

// Routes builds the router with the global middleware and every API route.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", UserIDHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           600,
	}))
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)
		r.Use(h.limiter.Middleware)

		r.Post("/session", h.Login)
		r.Delete("/session", h.Logout)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Post("/resolve", h.ResolveCart)
			r.Delete("/items/{product_id}", h.RemoveItem)
			r.Delete("/", h.ClearCart)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.GetCatalog)
			r.Put("/filter", h.SetFilter)
			r.Post("/category/{category_id}", h.SelectCategory)
			r.Post("/next", h.LoadNextPage)
			r.Post("/scroll", h.Scroll)
			r.Post("/reload", h.Reload)
		})

		r.Get("/categories", h.ListCategories)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.CreateProduct)
			r.Get("/{product_id}", h.GetProduct)
			r.Put("/{product_id}", h.UpdateProduct)
			r.Delete("/{product_id}", h.DeleteProduct)
		})

		r.Route("/notices", func(r chi.Router) {
			r.Get("/", h.ListNotices)
			r.Delete("/{notice_id}", h.DismissNotice)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

// session returns the caller's live session or writes an error response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil, false
	}
	s, ok := h.sessions.Get(userID)
	if !ok {
		handleServiceError(w, session.ErrNoSession)
		return nil, false
	}
	return s, true
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}
