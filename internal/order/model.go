package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is an immutable snapshot of one ordered product. Price is the product
// price frozen at checkout time; it is never recomputed from the catalog.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`

	// Live catalog fields for display; empty if the product was deleted since.
	ProductName     string `json:"productName,omitempty"`
	ProductImageURL string `json:"productImageUrl,omitempty"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Status          Status          `json:"status"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	ShippingAddress string          `json:"shippingAddress"`
	Items           []Item          `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// Joined for admin listings.
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// Filter narrows admin listings; zero values mean "no constraint".
type Filter struct {
	Status    Status
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time

	SortBy   string // id, total_price, status, created_at
	SortDesc bool
	Page     int
	PageSize int
}

type Page struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalOrders int  `json:"totalOrders"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func newPage(page, pageSize, total int) Page {
	totalPages := (total + pageSize - 1) / pageSize
	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalOrders: total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

type Stats struct {
	TotalOrders       int             `json:"totalOrders"`
	PendingOrders     int             `json:"pendingOrders"`
	ProcessingOrders  int             `json:"processingOrders"`
	ShippedOrders     int             `json:"shippedOrders"`
	DeliveredOrders   int             `json:"deliveredOrders"`
	CancelledOrders   int             `json:"cancelledOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
}

type DailySales struct {
	Date       time.Time       `json:"date"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"dailyRevenue"`
}
