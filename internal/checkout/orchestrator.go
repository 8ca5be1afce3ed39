package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/cart"
	"github.com/TvixT/simple-mart/internal/db"
	"github.com/TvixT/simple-mart/internal/events"
	"github.com/TvixT/simple-mart/internal/inventory"
	"github.com/TvixT/simple-mart/internal/order"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrForbidden = errors.New("not allowed to act on this order")
)

// InsufficientStockError carries the cart lines that cannot be served, so a
// client can adjust quantities and retry.
type InsufficientStockError struct {
	Violations []cart.StockViolation
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d cart item(s)", len(e.Violations))
}

// Orchestrator drives cart-to-order conversion and its reversal. Every
// multi-entity write runs in a single database transaction: one order header,
// its lines, the stock decrements and the cart deletion either all land or
// none do. Repositories are rebuilt over the transaction for each operation,
// so their code is identical inside and outside the boundary.
type Orchestrator struct {
	pool      db.Pool
	publisher events.Publisher
	logger    *zap.Logger
}

func New(pool db.Pool, publisher events.Publisher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{pool: pool, publisher: publisher, logger: logger}
}

// PlaceOrder converts the user's cart into a pending order.
//
// The empty-cart and stock checks run before the transaction so the common
// failure modes cost no transactional work. The decrement inside the
// transaction is conditional (stock >= qty), which closes the race between
// the pre-check and the commit: a concurrent checkout that drains stock makes
// this one fail and roll back instead of overselling.
func (oc *Orchestrator) PlaceOrder(ctx context.Context, userID, shippingAddress string) (order.Order, error) {
	carts := cart.NewRepository(oc.pool)

	view, err := carts.GetView(ctx, userID)
	if err != nil {
		return order.Order{}, fmt.Errorf("carts.GetView: %w", err)
	}
	if view.Empty() {
		return order.Order{}, ErrEmptyCart
	}

	validation, err := carts.ValidateStock(ctx, userID)
	if err != nil {
		return order.Order{}, fmt.Errorf("carts.ValidateStock: %w", err)
	}
	if !validation.Valid {
		return order.Order{}, &InsufficientStockError{Violations: validation.Violations}
	}

	tx, err := oc.pool.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txOrders := order.NewRepository(tx)
	txCarts := cart.NewRepository(tx)
	txStock := inventory.NewStore(tx)

	placed := order.Order{
		UserID:          userID,
		Status:          order.StatusPending,
		TotalPrice:      view.Summary.Subtotal,
		ShippingAddress: shippingAddress,
	}
	if err := txOrders.Insert(ctx, &placed); err != nil {
		return order.Order{}, err
	}

	for _, line := range view.Lines {
		item := order.Item{
			OrderID:   placed.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice, // frozen at this moment, never recomputed
		}
		if err := txOrders.InsertItem(ctx, &item); err != nil {
			return order.Order{}, err
		}

		if err := txStock.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, inventory.ErrNotFound) {
				return order.Order{}, &InsufficientStockError{Violations: []cart.StockViolation{{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Requested:   line.Quantity,
					Available:   currentStock(ctx, txStock, line.ProductID),
				}}}
			}
			return order.Order{}, err
		}
	}

	if _, err := txCarts.Clear(ctx, userID); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	result, err := order.NewRepository(oc.pool).GetWithItems(ctx, placed.ID)
	if err != nil {
		return order.Order{}, fmt.Errorf("reload order: %w", err)
	}

	if err := oc.publisher.OrderCreated(ctx, result); err != nil {
		oc.logger.Warn("publish OrderCreated failed",
			zap.String("order_id", result.ID), zap.Error(err))
	}

	return result, nil
}

// CancelOrder reverses a checkout: every order line's quantity goes back into
// stock and the order flips to cancelled, all in one transaction. The order
// row is locked first so a concurrent cancel or status update serializes
// behind this one; the second cancel then sees status=cancelled and fails
// without touching stock.
func (oc *Orchestrator) CancelOrder(ctx context.Context, orderID string, caller auth.Principal) (order.Order, error) {
	tx, err := oc.pool.Begin(ctx)
	if err != nil {
		return order.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txOrders := order.NewRepository(tx)

	o, err := txOrders.GetForUpdate(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	if o.UserID != caller.ID && !caller.IsAdmin() {
		return order.Order{}, ErrForbidden
	}

	if !o.Status.Cancellable() {
		return order.Order{}, fmt.Errorf("%w: order is %s", order.ErrInvalidTransition, o.Status)
	}

	txStock := inventory.NewStore(tx)
	for _, item := range o.Items {
		if err := txStock.Increment(ctx, item.ProductID, item.Quantity); err != nil {
			// A deleted product has no counter to restore; the order record
			// itself stays valid either way.
			if errors.Is(err, inventory.ErrNotFound) {
				continue
			}
			return order.Order{}, err
		}
	}

	if err := txOrders.UpdateStatus(ctx, orderID, order.StatusCancelled); err != nil {
		return order.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	result, err := order.NewRepository(oc.pool).GetWithItems(ctx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("reload order: %w", err)
	}

	if err := oc.publisher.OrderCancelled(ctx, result); err != nil {
		oc.logger.Warn("publish OrderCancelled failed",
			zap.String("order_id", result.ID), zap.Error(err))
	}

	return result, nil
}

// UpdateShippingAddress changes the delivery address while the order has not
// shipped. Ownership follows the same rule as cancellation.
func (oc *Orchestrator) UpdateShippingAddress(ctx context.Context, orderID, address string, caller auth.Principal) (order.Order, error) {
	orders := order.NewRepository(oc.pool)

	o, err := orders.GetByID(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}

	if o.UserID != caller.ID && !caller.IsAdmin() {
		return order.Order{}, ErrForbidden
	}

	if !o.Status.AddressMutable() {
		return order.Order{}, fmt.Errorf("%w: order is %s", order.ErrInvalidTransition, o.Status)
	}

	if err := orders.UpdateShippingAddress(ctx, orderID, address); err != nil {
		return order.Order{}, err
	}

	return orders.GetWithItems(ctx, orderID)
}

// UpdateStatus applies an admin-driven status change. Membership in the enum
// is the only check here; cancellation with its stock compensation must go
// through CancelOrder instead.
func (oc *Orchestrator) UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error) {
	orders := order.NewRepository(oc.pool)

	if err := orders.UpdateStatus(ctx, orderID, status); err != nil {
		return order.Order{}, err
	}

	return orders.GetWithItems(ctx, orderID)
}

func currentStock(ctx context.Context, store *inventory.Store, productID string) int {
	avail, err := store.CheckAvailability(ctx, productID, 0)
	if err != nil {
		return 0
	}
	return avail.CurrentStock
}
