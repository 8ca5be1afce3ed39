package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TvixT/simple-mart/internal/db"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Availability reports whether a requested quantity can currently be served.
type Availability struct {
	ProductID    string `json:"productId"`
	Available    bool   `json:"available"`
	CurrentStock int    `json:"currentStock"`
	Requested    int    `json:"requested"`
}

// Store owns the products.stock counter. All stock mutations in the system
// go through Decrement and Increment; nothing else touches the column.
type Store struct {
	q db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

func (s *Store) CheckAvailability(ctx context.Context, productID string, requested int) (Availability, error) {
	var stock int
	err := s.q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Availability{}, ErrNotFound
		}
		return Availability{}, fmt.Errorf("select stock: %w", err)
	}

	return Availability{
		ProductID:    productID,
		Available:    stock >= requested,
		CurrentStock: stock,
		Requested:    requested,
	}, nil
}

// Decrement subtracts qty from the product's stock. The update is conditional
// on stock >= qty, so a concurrent over-decrement fails with
// ErrInsufficientStock instead of being clamped at zero; the row lock taken by
// UPDATE serializes concurrent checkouts on the same product.
func (s *Store) Decrement(ctx context.Context, productID string, qty int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the product is gone or the guard failed; distinguish for callers.
		var exists bool
		if err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// Increment adds qty back, compensating a prior Decrement on cancellation.
func (s *Store) Increment(ctx context.Context, productID string, qty int) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
