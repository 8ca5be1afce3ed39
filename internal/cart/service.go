package cart

import (
	"context"
	"fmt"

	"github.com/TvixT/simple-mart/internal/inventory"
)

// StockChecker is the slice of the inventory store the cart service needs.
type StockChecker interface {
	CheckAvailability(ctx context.Context, productID string, requested int) (inventory.Availability, error)
}

// InsufficientStockError carries the availability snapshot that failed the check.
type InsufficientStockError struct {
	Availability inventory.Availability
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.Availability.ProductID, e.Availability.Requested, e.Availability.CurrentStock)
}

// Service wraps the repository with the stock pre-checks the repository
// itself deliberately does not perform.
type Service struct {
	repo  Repository
	stock StockChecker
}

func NewService(repo Repository, stock StockChecker) *Service {
	return &Service{repo: repo, stock: stock}
}

// AddItem verifies the product exists and can serve the requested quantity,
// then inserts or bumps the cart line. The check is advisory; checkout
// revalidates under its own transaction.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (Line, error) {
	avail, err := s.stock.CheckAvailability(ctx, productID, qty)
	if err != nil {
		return Line{}, err
	}
	if !avail.Available {
		return Line{}, &InsufficientStockError{Availability: avail}
	}

	return s.repo.AddItem(ctx, userID, productID, qty)
}

// UpdateQuantity sets the line quantity, checking stock for positive targets.
// A nil line with nil error means the line was removed (qty <= 0).
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*Line, error) {
	if qty > 0 {
		avail, err := s.stock.CheckAvailability(ctx, productID, qty)
		if err != nil {
			return nil, err
		}
		if !avail.Available {
			return nil, &InsufficientStockError{Availability: avail}
		}
	}

	return s.repo.UpdateQuantity(ctx, userID, productID, qty)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (bool, error) {
	return s.repo.RemoveItem(ctx, userID, productID)
}

func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	return s.repo.Clear(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	return s.repo.GetView(ctx, userID)
}

func (s *Service) ValidateStock(ctx context.Context, userID string) (StockValidation, error) {
	return s.repo.ValidateStock(ctx, userID)
}
