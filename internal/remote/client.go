// Package remote is the HTTP binding of the catalog and cart service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBodySize = 4 << 20 // 4MB

type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	token   string
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote url %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newBreaker(u.Host, logger),
		logger:  logger,
	}, nil
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, path("carts", cartID), nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, path("carts", "user", userID), nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	body := map[string]string{"user_id": userID}
	if err := c.do(ctx, http.MethodPost, path("carts"), nil, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	return c.do(ctx, http.MethodDelete, path("carts", cartID), nil, nil, nil)
}

func (c *Client) AddItem(ctx context.Context, cartID, productID string) error {
	return c.do(ctx, http.MethodPost, path("carts", cartID, "items", productID), nil, nil, nil)
}

func (c *Client) RemoveItem(ctx context.Context, cartID, productID string) error {
	return c.do(ctx, http.MethodDelete, path("carts", cartID, "items", productID), nil, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return c.page(ctx, path("products"), pageQuery(offset, limit, sort))
}

func (c *Client) ListProductsByCategory(ctx context.Context, categoryName string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return c.page(ctx, path("products", "category", categoryName), pageQuery(offset, limit, sort))
}

func (c *Client) SearchProducts(ctx context.Context, query string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	q := pageQuery(offset, limit, sort)
	q.Set("q", query)
	return c.page(ctx, path("products", "search"), q)
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, path("products", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodPost, path("products"), nil, fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, fields domain.ProductFields) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodPut, path("products", id), nil, fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, path("products", id), nil, nil, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodGet, path("categories"), nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) page(ctx context.Context, p string, q url.Values) (*domain.Page, error) {
	var page domain.Page
	if err := c.do(ctx, http.MethodGet, p, q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func pageQuery(offset, limit int, sort domain.SortOrder) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if sort != domain.SortNone {
		q.Set("sort", string(sort))
	}
	return q
}

// path joins escaped segments.
func path(segments ...string) string {
	var b bytes.Buffer
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, method, p string, query url.Values, in, out interface{}) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, p, query, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return status.Error(codes.Unavailable, "catalog service unavailable")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, p string, query url.Values, in, out interface{}) error {
	target := strings.TrimRight(c.baseURL.String(), "/") + p
	if enc := query.Encode(); enc != "" {
		target += "?" + enc
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote call failed", zap.String("method", method), zap.String("path", p), zap.Error(err))
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(err)
	}
	if resp.StatusCode >= 300 {
		c.logger.Debug("remote call rejected",
			zap.String("method", method),
			zap.String("path", p),
			zap.Int("status", resp.StatusCode))
		return responseError(resp, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}
