package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/TvixT/simple-mart/internal/order"
)

func TestOrderLines_FreezesPricesAsStrings(t *testing.T) {
	lines := orderLines([]order.Item{
		{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("49.9")},
		{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(7)},
	})

	require.Len(t, lines, 2)
	require.Equal(t, "49.90", lines[0].Price)
	require.Equal(t, "7.00", lines[1].Price)
}

func TestOrderLines_EmptyOrder(t *testing.T) {
	lines := orderLines(nil)
	require.NotNil(t, lines)
	require.Empty(t, lines)
}

// Consumers depend on these exact field names; changing them is a new event
// version, not an edit.
func TestOrderCreatedWireShape(t *testing.T) {
	ev := OrderCreated{
		EventType:  EventTypeOrderCreated,
		OrderID:    "order-1",
		UserID:     "user-1",
		Items:      []OrderLine{{ProductID: "p1", Quantity: 2, Price: "49.90"}},
		TotalPrice: "99.80",
	}

	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(body, &asMap))

	for _, field := range []string{"eventType", "orderId", "userId", "items", "totalPrice", "timestamp"} {
		require.Contains(t, asMap, field)
	}
	require.Equal(t, "OrderCreated", asMap["eventType"])

	items := asMap["items"].([]any)
	item := items[0].(map[string]any)
	require.Equal(t, "p1", item["productId"])
	require.Equal(t, "49.90", item["price"])
}

func TestOrderCancelledWireShape(t *testing.T) {
	ev := OrderCancelled{
		EventType: EventTypeOrderCancelled,
		OrderID:   "order-1",
		UserID:    "user-1",
		Items:     []OrderLine{{ProductID: "p1", Quantity: 2, Price: "49.90"}},
	}

	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(body, &asMap))

	for _, field := range []string{"eventType", "orderId", "userId", "items", "timestamp"} {
		require.Contains(t, asMap, field)
	}
	require.Equal(t, "OrderCancelled", asMap["eventType"])
}
