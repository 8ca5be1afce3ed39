package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is one (user, product) row of unchecked-out purchase intent.
type Line struct {
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Live product snapshot, joined at read time. Price here is the current
	// price, not a frozen one; freezing happens at checkout.
	ProductName  string          `json:"productName"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	ProductStock int             `json:"productStock"`
	ImageURL     string          `json:"imageUrl"`
}

func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) Available() bool { return l.ProductStock >= l.Quantity }

type Summary struct {
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// View is the cart as returned to clients: lines plus derived totals.
// Subtotal is a live quote at current prices, rounded to 2 decimal places.
type View struct {
	Lines   []Line  `json:"items"`
	Summary Summary `json:"summary"`
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

func buildView(lines []Line) View {
	subtotal := decimal.Zero
	totalItems := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
		totalItems += l.Quantity
	}

	return View{
		Lines: lines,
		Summary: Summary{
			TotalItems: totalItems,
			Subtotal:   subtotal.Round(2),
		},
	}
}

// StockViolation describes one cart line that cannot be served at current stock.
type StockViolation struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Requested   int    `json:"requestedQuantity"`
	Available   int    `json:"availableStock"`
}

type StockValidation struct {
	Valid      bool             `json:"valid"`
	Violations []StockViolation `json:"invalidItems,omitempty"`
}
