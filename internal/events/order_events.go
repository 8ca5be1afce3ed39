package events

import (
	"time"

	"github.com/TvixT/simple-mart/internal/order"
)

const (
	EventTypeOrderCreated   = "OrderCreated"
	EventTypeOrderCancelled = "OrderCancelled"
)

type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderCreated struct {
	EventType  string      `json:"eventType"`
	OrderID    string      `json:"orderId"`
	UserID     string      `json:"userId"`
	Items      []OrderLine `json:"items"`
	TotalPrice string      `json:"totalPrice"`
	Timestamp  time.Time   `json:"timestamp"`
}

type OrderCancelled struct {
	EventType string      `json:"eventType"`
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Items     []OrderLine `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}

func orderLines(items []order.Item) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return lines
}
