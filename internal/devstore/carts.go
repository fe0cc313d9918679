package devstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errCartNotFound = status.Error(codes.NotFound, "cart not found")

func (s *Store) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.cart(ctx, `SELECT id, user_id FROM carts WHERE id = ?`, cartID)
}

func (s *Store) GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.cart(ctx, `SELECT id, user_id FROM carts WHERE user_id = ?`, userID)
}

// CreateCart returns the user's cart, creating it when the user has none.
func (s *Store) CreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		uuid.NewString(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return s.GetCartByUser(ctx, userID)
}

func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
			return fmt.Errorf("failed to delete cart lines: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, cartID)
		if err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return errCartNotFound
		}
		return nil
	})
}

// AddItem adds one unit of the product to the cart.
func (s *Store) AddItem(ctx context.Context, cartID, productID string) error {
	pid, err := parseID(productID, "product")
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, `SELECT 1 FROM carts WHERE id = ?`, cartID); err != nil {
			return orStatus(err, errCartNotFound)
		}
		if err := exists(ctx, tx, `SELECT 1 FROM products WHERE id = ?`, pid); err != nil {
			return orStatus(err, status.Error(codes.NotFound, "product not found"))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, 1)
			ON CONFLICT(cart_id, product_id) DO UPDATE SET quantity = quantity + 1`,
			cartID, pid)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		return nil
	})
}

// RemoveItem removes one unit of the product; the line goes away at zero.
func (s *Store) RemoveItem(ctx context.Context, cartID, productID string) error {
	pid, err := parseID(productID, "product")
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var qty int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, pid).Scan(&qty)
		if errors.Is(err, sql.ErrNoRows) {
			return status.Error(codes.NotFound, "item not in cart")
		}
		if err != nil {
			return fmt.Errorf("failed to query cart line: %w", err)
		}
		if qty <= 1 {
			_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, pid)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE cart_items SET quantity = quantity - 1 WHERE cart_id = ? AND product_id = ?`, cartID, pid)
		}
		if err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}
		return nil
	})
}

func (s *Store) cart(ctx context.Context, query string, arg string) (*domain.Cart, error) {
	var c domain.Cart
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+", ci.quantity "+productFrom+`
		JOIN cart_items ci ON ci.product_id = p.id
		WHERE ci.cart_id = ?
		ORDER BY ci.added_at, p.id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	c.Items = []domain.CartItem{}
	for rows.Next() {
		var qty int
		p, err := scanProduct(withQuantity{rows, &qty})
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		c.Items = append(c.Items, domain.CartItem{Product: *p, Quantity: qty})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return &c, nil
}

// withQuantity appends the line quantity column to a product scan.
type withQuantity struct {
	rows *sql.Rows
	qty  *int
}

func (w withQuantity) Scan(dest ...interface{}) error {
	return w.rows.Scan(append(dest, w.qty)...)
}

func exists(ctx context.Context, tx *sql.Tx, query string, arg interface{}) error {
	var one int
	return tx.QueryRowContext(ctx, query, arg).Scan(&one)
}

func orStatus(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("failed to query: %w", err)
}
