package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ImageURL     string          `json:"imageUrl"`
	CategoryID   *string         `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (p Product) InStock() bool { return p.Stock > 0 }

// ProductFilter narrows List; zero values mean "no constraint".
type ProductFilter struct {
	CategoryID  string
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool

	SortBy   string // name, price, stock, created_at
	SortDesc bool
	Page     int
	PageSize int
}

type Page struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func NewPage(page, pageSize, total int) Page {
	totalPages := (total + pageSize - 1) / pageSize
	return Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

type ProductStats struct {
	TotalProducts      int             `json:"totalProducts"`
	InStockProducts    int             `json:"inStockProducts"`
	OutOfStockProducts int             `json:"outOfStockProducts"`
	AveragePrice       decimal.Decimal `json:"averagePrice"`
	TotalStock         int             `json:"totalStock"`
}
