package devstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const productColumns = `p.id, p.title, p.price, p.description, p.image, p.vendor, c.id, c.name`

const productFrom = `FROM products p JOIN categories c ON c.id = p.category_id`

func (s *Store) ListProducts(ctx context.Context, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return s.page(ctx, "", nil, offset, limit, sort)
}

func (s *Store) ListProductsByCategory(ctx context.Context, categoryName string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return s.page(ctx, "c.name = ?", []interface{}{categoryName}, offset, limit, sort)
}

func (s *Store) SearchProducts(ctx context.Context, query string, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	return s.page(ctx, `p.title LIKE ? ESCAPE '\'`, []interface{}{"%" + escapeLike(query) + "%"}, offset, limit, sort)
}

func (s *Store) page(ctx context.Context, where string, args []interface{}, offset, limit int, sort domain.SortOrder) (*domain.Page, error) {
	if offset < 0 || limit <= 0 {
		return nil, status.Error(codes.InvalidArgument, "offset must be >= 0 and limit > 0")
	}
	cond := ""
	if where != "" {
		cond = " WHERE " + where
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) "+productFrom+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query := "SELECT " + productColumns + " " + productFrom + cond + orderBy(sort) + " LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return &domain.Page{Items: items, Quantity: total}, nil
}

func orderBy(sort domain.SortOrder) string {
	switch sort {
	case domain.SortAsc:
		return " ORDER BY CAST(p.price AS REAL) ASC, p.id"
	case domain.SortDesc:
		return " ORDER BY CAST(p.price AS REAL) DESC, p.id"
	}
	return " ORDER BY p.id"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p                 domain.Product
		id, categoryID    int64
		price, imagesJSON string
	)
	if err := row.Scan(&id, &p.Title, &price, &p.Description, &imagesJSON, &p.Vendor, &categoryID, &p.Category.Name); err != nil {
		return nil, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price %q for product %d: %w", price, id, err)
	}
	if err := json.Unmarshal([]byte(imagesJSON), &p.Image); err != nil {
		return nil, fmt.Errorf("invalid images for product %d: %w", id, err)
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Category.ID = strconv.FormatInt(categoryID, 10)
	return &p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	n, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	return s.product(ctx, s.db, n)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) product(ctx context.Context, q querier, id int64) (*domain.Product, error) {
	row := q.QueryRowContext(ctx, "SELECT "+productColumns+" "+productFrom+" WHERE p.id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	categoryID, images, err := s.checkFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (title, price, description, image, category_id, vendor) VALUES (?, ?, ?, ?, ?, ?)`,
		fields.Title, fields.Price.String(), fields.Description, images, categoryID, fields.Vendor)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read product id: %w", err)
	}
	return s.product(ctx, s.db, id)
}

func (s *Store) UpdateProduct(ctx context.Context, id string, fields domain.ProductFields) (*domain.Product, error) {
	n, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	categoryID, images, err := s.checkFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET title = ?, price = ?, description = ?, image = ?, category_id = ?, vendor = ? WHERE id = ?`,
		fields.Title, fields.Price.String(), fields.Description, images, categoryID, fields.Vendor, n)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, status.Error(codes.NotFound, "product not found")
	}
	return s.product(ctx, s.db, n)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	n, err := parseID(id, "product")
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = ?`, n); err != nil {
			return fmt.Errorf("failed to delete cart lines: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, n)
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return status.Error(codes.NotFound, "product not found")
		}
		return nil
	})
}

func (s *Store) checkFields(ctx context.Context, fields domain.ProductFields) (int64, string, error) {
	if err := fields.Validate(); err != nil {
		return 0, "", status.Error(codes.InvalidArgument, err.Error())
	}
	categoryID, err := strconv.ParseInt(fields.CategoryID, 10, 64)
	if err != nil {
		return 0, "", status.Errorf(codes.InvalidArgument, "unknown category %q", fields.CategoryID)
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, categoryID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", status.Errorf(codes.InvalidArgument, "unknown category %q", fields.CategoryID)
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to query category: %w", err)
	}

	images := fields.Image
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode images: %w", err)
	}
	return categoryID, string(data), nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var (
			id int64
			c  domain.Category
		)
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func parseID(id, what string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.NotFound, "%s not found", what)
	}
	return n, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
