// Package feed drives the incrementally loaded product list: pagination,
// category filter, search and sort merged into one fetch sequence.
package feed

import (
	"context"
	"strings"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"go.uber.org/zap"
)

const (
	DefaultLimit           = 8
	DefaultScrollThreshold = 150
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateExhausted State = "exhausted"
	StateErrored   State = "errored"
)

// Lister is the slice of the catalog service the feed reads pages from.
type Lister interface {
	ListProducts(ctx context.Context, offset, limit int, sort domain.SortOrder) (*domain.Page, error)
	ListProductsByCategory(ctx context.Context, categoryName string, offset, limit int, sort domain.SortOrder) (*domain.Page, error)
	SearchProducts(ctx context.Context, query string, offset, limit int, sort domain.SortOrder) (*domain.Page, error)
}

// CategorySource resolves category ids the UI selects by.
type CategorySource interface {
	Lookup(id string) (domain.Category, bool)
}

// Filter is what the visible list is narrowed and ordered by. A non-empty
// Query wins over Category.
type Filter struct {
	Category domain.Category
	Query    string
	Sort     domain.SortOrder
}

type Feed struct {
	lister     Lister
	categories CategorySource
	notices    notify.Sink
	logger     *zap.Logger
	limit      int
	threshold  float64

	mu            sync.Mutex
	filter        Filter
	items         []domain.Product
	seen          map[string]struct{}
	offset        int
	quantity      int
	quantityKnown bool
	state         State
	err           error
	gen           uint64
	loading       bool
	cancel        context.CancelFunc
	watching      bool
	closed        bool
	done          chan struct{}
}

type Option func(*Feed)

func WithLimit(limit int) Option {
	return func(f *Feed) {
		if limit > 0 {
			f.limit = limit
		}
	}
}

func WithScrollThreshold(threshold float64) Option {
	return func(f *Feed) { f.threshold = threshold }
}

func WithCategories(c CategorySource) Option {
	return func(f *Feed) { f.categories = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Feed) { f.logger = l }
}

func New(lister Lister, notices notify.Sink, opts ...Option) *Feed {
	if notices == nil {
		notices = notify.Discard{}
	}
	f := &Feed{
		lister:    lister,
		notices:   notices,
		logger:    zap.NewNop(),
		limit:     DefaultLimit,
		threshold: DefaultScrollThreshold,
		seen:      make(map[string]struct{}),
		state:     StateIdle,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadNextPage fetches the page after the ones already held. It is a no-op
// while another fetch is in flight or once every product has been loaded.
func (f *Feed) LoadNextPage(ctx context.Context) {
	f.mu.Lock()
	if f.closed || f.loading || f.state == StateExhausted {
		f.mu.Unlock()
		return
	}
	if f.quantityKnown && (len(f.items) >= f.quantity || f.offset >= f.quantity) {
		f.state = StateExhausted
		f.mu.Unlock()
		return
	}
	req := domain.PageRequest{
		Offset:   f.offset,
		Limit:    f.limit,
		Category: f.filter.Category,
		Query:    f.filter.Query,
		Sort:     f.filter.Sort,
	}
	gen := f.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.loading = true
	f.state = StateLoading
	f.mu.Unlock()
	defer cancel()

	page, err := f.fetch(fetchCtx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen || f.closed {
		f.logger.Debug("discarding page of a superseded filter",
			zap.Int("offset", req.Offset),
			zap.String("query", req.Query),
			zap.String("category", req.Category.Name))
		return
	}
	f.loading = false
	f.cancel = nil

	if err != nil {
		f.logger.Warn("load products failed", zap.Int("offset", req.Offset), zap.Error(err))
		if len(f.items) == 0 {
			f.state = StateErrored
			f.err = err
			return
		}
		f.state = StateLoaded
		f.notices.Notify(notify.NewNotice(notify.SeverityError, "failed to load more products"))
		return
	}
	if page == nil {
		page = &domain.Page{}
	}
	f.appendPage(page)
}

// appendPage must be called with mu held.
func (f *Feed) appendPage(page *domain.Page) {
	for _, p := range page.Items {
		if len(f.items) >= page.Quantity {
			break
		}
		if _, dup := f.seen[p.ID]; dup {
			continue
		}
		f.seen[p.ID] = struct{}{}
		f.items = append(f.items, p)
	}
	f.quantity = page.Quantity
	f.quantityKnown = true
	f.offset += f.limit
	f.err = nil

	if len(page.Items) == 0 || len(f.items) >= f.quantity || f.offset >= f.quantity {
		f.state = StateExhausted
		return
	}
	f.state = StateLoaded
}

func (f *Feed) fetch(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	switch {
	case req.Query != "":
		return f.lister.SearchProducts(ctx, req.Query, req.Offset, req.Limit, req.Sort)
	case !req.Category.IsAll():
		return f.lister.ListProductsByCategory(ctx, req.Category.Name, req.Offset, req.Limit, req.Sort)
	default:
		return f.lister.ListProducts(ctx, req.Offset, req.Limit, req.Sort)
	}
}

// SetQuery searches by free text. A non-empty query drops the category
// filter; clearing the query does not bring it back.
func (f *Feed) SetQuery(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	f.apply(ctx, false, func(filter *Filter) {
		filter.Query = query
		if query != "" {
			filter.Category = domain.Category{}
		}
	})
}

// SetCategory browses one category, or every product for the zero Category.
// Browsing a category ends a running search.
func (f *Feed) SetCategory(ctx context.Context, c domain.Category) {
	f.apply(ctx, false, func(filter *Filter) {
		filter.Category = c
		if !c.IsAll() {
			filter.Query = ""
		}
	})
}

// SelectCategory sets the category with the given id. Unknown ids are
// ignored and leave the current filter in place.
func (f *Feed) SelectCategory(ctx context.Context, id string) bool {
	c, ok := f.ResolveCategory(id)
	if !ok {
		return false
	}
	f.SetCategory(ctx, c)
	return true
}

// ResolveCategory looks id up in the category source without touching the
// filter.
func (f *Feed) ResolveCategory(id string) (domain.Category, bool) {
	if f.categories == nil {
		return domain.Category{}, false
	}
	return f.categories.Lookup(id)
}

func (f *Feed) SetSort(ctx context.Context, sort domain.SortOrder) {
	f.apply(ctx, false, func(filter *Filter) { filter.Sort = sort })
}

// Apply changes several parts of the filter in one step. The feed resets
// and fetches once when the resulting filter differs from the current one.
func (f *Feed) Apply(ctx context.Context, change func(*Filter)) {
	f.apply(ctx, false, change)
}

// Reload restarts the current filter from the first page.
func (f *Feed) Reload(ctx context.Context) {
	f.apply(ctx, true, func(*Filter) {})
}

func (f *Feed) apply(ctx context.Context, force bool, change func(*Filter)) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	next := f.filter
	change(&next)
	if next == f.filter && !force && f.state != StateIdle {
		f.mu.Unlock()
		return
	}
	f.filter = next
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.items = nil
	f.seen = make(map[string]struct{})
	f.offset = 0
	f.quantity = 0
	f.quantityKnown = false
	f.err = nil
	f.loading = false
	f.state = StateLoading
	f.mu.Unlock()

	f.LoadNextPage(ctx)
}

// Close cancels any fetch in flight and turns further calls into no-ops.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.loading = false
	close(f.done)
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err is the blocking error of a failed first page.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) Items() []domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Product(nil), f.items...)
}

func (f *Feed) Filter() Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

type Snapshot struct {
	Items    []domain.Product
	State    State
	Filter   Filter
	Offset   int
	Quantity int
	Loading  bool
	Err      error
}

func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Items:    append([]domain.Product(nil), f.items...),
		State:    f.state,
		Filter:   f.filter,
		Offset:   f.offset,
		Quantity: f.quantity,
		Loading:  f.loading,
		Err:      f.err,
	}
}
