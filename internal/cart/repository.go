package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TvixT/simple-mart/internal/db"
)

var ErrLineNotFound = errors.New("cart line not found")

type Repository interface {
	// AddItem inserts a new line or adds qty onto an existing one.
	// Returns the resulting line with its live product snapshot.
	AddItem(ctx context.Context, userID, productID string, qty int) (Line, error)

	// UpdateQuantity sets a line's quantity; qty <= 0 removes the line.
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*Line, error)

	RemoveItem(ctx context.Context, userID, productID string) (bool, error)

	// Clear deletes every line for the user and reports how many went away.
	Clear(ctx context.Context, userID string) (int, error)

	GetView(ctx context.Context, userID string) (View, error)

	// ValidateStock compares every line against live stock without mutating anything.
	ValidateStock(ctx context.Context, userID string) (StockValidation, error)
}

type repo struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repo{q: q}
}

const lineColumns = `c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		p.name, p.price, p.stock, p.image_url`

func (r *repo) AddItem(ctx context.Context, userID, productID string, qty int) (Line, error) {
	// Single upsert keeps the add-or-bump atomic under concurrent adds
	// from the same user.
	_, err := r.q.Exec(ctx, `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity, updated_at = now()
	`, userID, productID, qty)
	if err != nil {
		return Line{}, fmt.Errorf("upsert cart line: %w", err)
	}

	line, err := r.getLine(ctx, userID, productID)
	if err != nil {
		return Line{}, err
	}
	return *line, nil
}

func (r *repo) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*Line, error) {
	if qty <= 0 {
		removed, err := r.RemoveItem(ctx, userID, productID)
		if err != nil {
			return nil, err
		}
		if !removed {
			return nil, ErrLineNotFound
		}
		return nil, nil
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE cart SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrLineNotFound
	}

	return r.getLine(ctx, userID, productID)
}

func (r *repo) RemoveItem(ctx context.Context, userID, productID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM cart WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Clear(ctx context.Context, userID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *repo) GetView(ctx context.Context, userID string) (View, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+lineColumns+`
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return View{}, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	lines, err := scanLines(rows)
	if err != nil {
		return View{}, err
	}

	return buildView(lines), nil
}

func (r *repo) ValidateStock(ctx context.Context, userID string) (StockValidation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT c.product_id, p.name, c.quantity, p.stock
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1
	`, userID)
	if err != nil {
		return StockValidation{}, fmt.Errorf("select cart for validation: %w", err)
	}
	defer rows.Close()

	var violations []StockViolation
	for rows.Next() {
		var v StockViolation
		var stock int
		if err := rows.Scan(&v.ProductID, &v.ProductName, &v.Requested, &stock); err != nil {
			return StockValidation{}, fmt.Errorf("scan cart validation row: %w", err)
		}
		if stock < v.Requested {
			v.Available = stock
			violations = append(violations, v)
		}
	}
	if err := rows.Err(); err != nil {
		return StockValidation{}, fmt.Errorf("rows: %w", err)
	}

	return StockValidation{Valid: len(violations) == 0, Violations: violations}, nil
}

func (r *repo) getLine(ctx context.Context, userID, productID string) (*Line, error) {
	var l Line
	err := r.q.QueryRow(ctx, `
		SELECT `+lineColumns+`
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = $1 AND c.product_id = $2
	`, userID, productID).
		Scan(&l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.UnitPrice, &l.ProductStock, &l.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("select cart line: %w", err)
	}
	return &l, nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
			&l.ProductName, &l.UnitPrice, &l.ProductStock, &l.ImageURL); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
