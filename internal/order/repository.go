package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TvixT/simple-mart/internal/db"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrInvalidTransition marks a status change the state machine forbids,
	// e.g. cancelling a delivered order.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type Repository interface {
	// Insert persists the order header. Items are inserted separately so the
	// checkout transaction can interleave inserts with stock decrements.
	Insert(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, item *Item) error

	GetByID(ctx context.Context, id string) (Order, error)
	GetWithItems(ctx context.Context, id string) (Order, error)

	// GetForUpdate locks the order row; only meaningful inside a transaction.
	GetForUpdate(ctx context.Context, id string) (Order, error)

	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Order, Page, error)
	List(ctx context.Context, filter Filter) ([]Order, Page, error)

	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateShippingAddress(ctx context.Context, id, address string) error

	Delete(ctx context.Context, id string) error

	Stats(ctx context.Context) (Stats, error)
	DailySales(ctx context.Context, days int) ([]DailySales, error)
}

type repo struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repo{q: q}
}

func (r *repo) Insert(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, status, total_price, shipping_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.Status, o.TotalPrice, o.ShippingAddress).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repo) InsertItem(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

const orderColumns = `o.id, o.user_id, o.status, o.total_price, o.shipping_address,
		o.created_at, o.updated_at, u.name, u.email`

func (r *repo) GetByID(ctx context.Context, id string) (Order, error) {
	return r.getOrder(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.id = $1
	`, id)
}

func (r *repo) getOrder(ctx context.Context, query string, args ...any) (Order, error) {
	var o Order
	err := r.q.QueryRow(ctx, query, args...).Scan(&o.ID, &o.UserID, &o.Status,
		&o.TotalPrice, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
		&o.UserName, &o.UserEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

// GetForUpdate takes a row lock so a concurrent cancel or status change
// serializes behind the caller's transaction. The users join is skipped on
// purpose: FOR UPDATE cannot lock the nullable side of a join.
func (r *repo) GetForUpdate(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, status, total_price, shipping_address, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ShippingAddress,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order for update: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *repo) GetWithItems(ctx context.Context, id string) (Order, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *repo) itemsFor(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price,
			&it.ProductName, &it.ProductImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Order, Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	var total int
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, Page{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, Page{}, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, Page{}, err
	}

	return orders, newPage(page, pageSize, total), nil
}

var orderSortFields = map[string]string{
	"id":          "o.id",
	"total_price": "o.total_price",
	"status":      "o.status",
	"created_at":  "o.created_at",
}

func (r *repo) List(ctx context.Context, filter Filter) ([]Order, Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	where := []string{"1=1"}
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		where = append(where, "o.status = "+addArg(filter.Status))
	}
	if filter.UserID != "" {
		where = append(where, "o.user_id = "+addArg(filter.UserID))
	}
	if filter.StartDate != nil {
		where = append(where, "o.created_at >= "+addArg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "o.created_at <= "+addArg(*filter.EndDate))
	}

	whereClause := strings.Join(where, " AND ")

	sortField, ok := orderSortFields[filter.SortBy]
	if !ok {
		sortField = "o.created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var total int
	countArgs := append([]any(nil), args...)
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders o WHERE `+whereClause, countArgs...,
	).Scan(&total); err != nil {
		return nil, Page{}, fmt.Errorf("count orders: %w", err)
	}

	limit := addArg(filter.PageSize)
	offset := addArg((filter.Page - 1) * filter.PageSize)

	rows, err := r.q.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE `+whereClause+`
		ORDER BY `+sortField+` `+direction+`
		LIMIT `+limit+` OFFSET `+offset,
		args...)
	if err != nil {
		return nil, Page{}, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, Page{}, err
	}

	return orders, newPage(filter.Page, filter.PageSize, total), nil
}

func (r *repo) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) UpdateShippingAddress(ctx context.Context, id, address string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET shipping_address = $2, updated_at = now() WHERE id = $1
	`, id, address)
	if err != nil {
		return fmt.Errorf("update shipping address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the order; order_items go with it via ON DELETE CASCADE.
func (r *repo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.q.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'shipped'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(total_price), 0),
			COALESCE(SUM(total_price), 0)
		FROM orders
	`).Scan(&s.TotalOrders, &s.PendingOrders, &s.ProcessingOrders, &s.ShippedOrders,
		&s.DeliveredOrders, &s.CancelledOrders, &s.AverageOrderValue, &s.TotalRevenue)
	if err != nil {
		return Stats{}, fmt.Errorf("select order stats: %w", err)
	}
	return s, nil
}

func (r *repo) DailySales(ctx context.Context, days int) ([]DailySales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*),
		       COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at >= now() - ($1 * INTERVAL '1 day')
		  AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day DESC
	`, days)
	if err != nil {
		return nil, fmt.Errorf("select daily sales: %w", err)
	}
	defer rows.Close()

	var sales []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Date, &d.OrderCount, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		sales = append(sales, d)
	}
	return sales, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ShippingAddress,
			&o.CreatedAt, &o.UpdatedAt, &o.UserName, &o.UserEmail); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
