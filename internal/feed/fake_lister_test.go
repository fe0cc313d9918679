package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type listCall struct {
	kind   string
	arg    string
	offset int
	limit  int
	sort   domain.SortOrder
}

type fakeLister struct {
	mu       sync.Mutex
	products []domain.Product
	calls    []listCall
	// errs and gates are keyed by 1-based call number
	errs    map[int]error
	gates   map[int]chan struct{}
	started chan int
	ctxErrs map[int]error
	// extra is appended to every page, used to force duplicates
	extra []domain.Product
	// quantity, when set, is reported instead of the match count
	quantity int
}

func newFakeLister(products []domain.Product) *fakeLister {
	return &fakeLister{
		products: products,
		errs:     make(map[int]error),
		gates:    make(map[int]chan struct{}),
		started:  make(chan int, 16),
		ctxErrs:  make(map[int]error),
	}
}

func makeProducts(n int, category domain.Category, titlePrefix string) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = domain.Product{
			ID:       fmt.Sprintf("%s-%d", category.ID+titlePrefix, i),
			Title:    fmt.Sprintf("%s %d", titlePrefix, i),
			Price:    decimal.NewFromInt(int64(i + 1)),
			Category: category,
		}
	}
	return out
}

func (l *fakeLister) gate(call int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{})
	l.gates[call] = ch
	return ch
}

func (l *fakeLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *fakeLister) lastCall() listCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[len(l.calls)-1]
}

func (l *fakeLister) ctxErr(call int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctxErrs[call]
}

func (l *fakeLister) list(ctx context.Context, c listCall, match func(domain.Product) bool) (*domain.Page, error) {
	l.mu.Lock()
	l.calls = append(l.calls, c)
	n := len(l.calls)
	err := l.errs[n]
	gate := l.gates[n]
	var filtered []domain.Product
	for _, p := range l.products {
		if match(p) {
			filtered = append(filtered, p)
		}
	}
	extra := l.extra
	quantity := len(filtered)
	if l.quantity > 0 {
		quantity = l.quantity
	}
	l.mu.Unlock()

	l.started <- n
	if gate != nil {
		<-gate
		l.mu.Lock()
		l.ctxErrs[n] = ctx.Err()
		l.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}

	end := c.offset + c.limit
	if end > len(filtered) {
		end = len(filtered)
	}
	var items []domain.Product
	if c.offset < len(filtered) {
		items = append(items, filtered[c.offset:end]...)
	}
	items = append(items, extra...)
	return &domain.Page{Items: items, Quantity: quantity}, nil
}

func (l *fakeLister) ListProducts(ctx context.Context, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return l.list(ctx, listCall{kind: "all", offset: offset, limit: limit, sort: sort},
		func(domain.Product) bool { return true })
}

func (l *fakeLister) ListProductsByCategory(ctx context.Context, name string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return l.list(ctx, listCall{kind: "category", arg: name, offset: offset, limit: limit, sort: sort},
		func(p domain.Product) bool { return p.Category.Name == name })
}

func (l *fakeLister) SearchProducts(ctx context.Context, query string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return l.list(ctx, listCall{kind: "search", arg: query, offset: offset, limit: limit, sort: sort},
		func(p domain.Product) bool { return strings.Contains(p.Title, query) })
}

type categorySet map[string]domain.Category

func (c categorySet) Lookup(id string) (domain.Category, bool) {
	cat, ok := c[id]
	return cat, ok
}
