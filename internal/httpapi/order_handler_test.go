package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/cart"
	"github.com/TvixT/simple-mart/internal/checkout"
	"github.com/TvixT/simple-mart/internal/order"
)

type fakeCheckout struct {
	placeFunc   func(ctx context.Context, userID, addr string) (order.Order, error)
	cancelFunc  func(ctx context.Context, orderID string, caller auth.Principal) (order.Order, error)
	addressFunc func(ctx context.Context, orderID, addr string, caller auth.Principal) (order.Order, error)
	statusFunc  func(ctx context.Context, orderID string, status order.Status) (order.Order, error)
}

func (f *fakeCheckout) PlaceOrder(ctx context.Context, userID, addr string) (order.Order, error) {
	if f.placeFunc != nil {
		return f.placeFunc(ctx, userID, addr)
	}
	return order.Order{}, nil
}

func (f *fakeCheckout) CancelOrder(ctx context.Context, orderID string, caller auth.Principal) (order.Order, error) {
	if f.cancelFunc != nil {
		return f.cancelFunc(ctx, orderID, caller)
	}
	return order.Order{}, nil
}

func (f *fakeCheckout) UpdateShippingAddress(ctx context.Context, orderID, addr string, caller auth.Principal) (order.Order, error) {
	if f.addressFunc != nil {
		return f.addressFunc(ctx, orderID, addr, caller)
	}
	return order.Order{}, nil
}

func (f *fakeCheckout) UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error) {
	if f.statusFunc != nil {
		return f.statusFunc(ctx, orderID, status)
	}
	return order.Order{}, nil
}

type fakeOrderRepo struct {
	getWithItemsFunc func(ctx context.Context, id string) (order.Order, error)
	listByUserFunc   func(ctx context.Context, userID string, page, pageSize int) ([]order.Order, order.Page, error)
}

func (f *fakeOrderRepo) Insert(context.Context, *order.Order) error       { return nil }
func (f *fakeOrderRepo) InsertItem(context.Context, *order.Item) error    { return nil }
func (f *fakeOrderRepo) GetByID(context.Context, string) (order.Order, error) {
	return order.Order{}, nil
}
func (f *fakeOrderRepo) GetForUpdate(context.Context, string) (order.Order, error) {
	return order.Order{}, nil
}

func (f *fakeOrderRepo) GetWithItems(ctx context.Context, id string) (order.Order, error) {
	if f.getWithItemsFunc != nil {
		return f.getWithItemsFunc(ctx, id)
	}
	return order.Order{}, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]order.Order, order.Page, error) {
	if f.listByUserFunc != nil {
		return f.listByUserFunc(ctx, userID, page, pageSize)
	}
	return nil, order.Page{}, nil
}

func (f *fakeOrderRepo) List(context.Context, order.Filter) ([]order.Order, order.Page, error) {
	return nil, order.Page{}, nil
}
func (f *fakeOrderRepo) UpdateStatus(context.Context, string, order.Status) error { return nil }
func (f *fakeOrderRepo) UpdateShippingAddress(context.Context, string, string) error {
	return nil
}
func (f *fakeOrderRepo) Delete(context.Context, string) error { return nil }
func (f *fakeOrderRepo) Stats(context.Context) (order.Stats, error) {
	return order.Stats{}, nil
}
func (f *fakeOrderRepo) DailySales(context.Context, int) ([]order.DailySales, error) {
	return nil, nil
}

func authedRequest(method, target, body string, p auth.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), principalKey, p))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestPlaceOrderHandler(t *testing.T) {
	oc := &fakeCheckout{
		placeFunc: func(_ context.Context, userID, addr string) (order.Order, error) {
			require.Equal(t, "user-1", userID)
			require.Equal(t, "1 Main St", addr)
			return order.Order{
				ID:         "order-1",
				UserID:     userID,
				Status:     order.StatusPending,
				TotalPrice: decimal.RequireFromString("99.80"),
				CreatedAt:  time.Now(),
			}, nil
		},
	}
	h := NewOrderHandler(oc, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders", `{"shippingAddress":"1 Main St"}`,
		auth.Principal{ID: "user-1", Role: "customer"})
	rr := httptest.NewRecorder()
	h.Place(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success)
}

func TestPlaceOrderHandler_MissingAddress(t *testing.T) {
	h := NewOrderHandler(&fakeCheckout{}, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders", `{"shippingAddress":"   "}`,
		auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.Place(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceOrderHandler_EmptyCart(t *testing.T) {
	oc := &fakeCheckout{
		placeFunc: func(context.Context, string, string) (order.Order, error) {
			return order.Order{}, checkout.ErrEmptyCart
		},
	}
	h := NewOrderHandler(oc, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders", `{"shippingAddress":"1 Main St"}`,
		auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.Place(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	env := decodeEnvelope(t, rr)
	require.False(t, env.Success)
	require.Equal(t, "cart is empty", env.Message)
}

func TestPlaceOrderHandler_InsufficientStock(t *testing.T) {
	oc := &fakeCheckout{
		placeFunc: func(context.Context, string, string) (order.Order, error) {
			return order.Order{}, &checkout.InsufficientStockError{
				Violations: []cart.StockViolation{
					{ProductID: "p1", ProductName: "Keyboard", Requested: 5, Available: 2},
				},
			}
		},
	}
	h := NewOrderHandler(oc, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders", `{"shippingAddress":"1 Main St"}`,
		auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.Place(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	env := decodeEnvelope(t, rr)
	require.False(t, env.Success)

	data := env.Data.(map[string]any)
	items := data["invalidItems"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	require.Equal(t, "p1", item["productId"])
	require.Equal(t, float64(2), item["availableStock"])
}

func TestGetOrderHandler_OwnerOnly(t *testing.T) {
	repo := &fakeOrderRepo{
		getWithItemsFunc: func(_ context.Context, id string) (order.Order, error) {
			return order.Order{ID: id, UserID: "user-1"}, nil
		},
	}
	h := NewOrderHandler(&fakeCheckout{}, repo, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/orders/order-1", "",
		auth.Principal{ID: "someone-else", Role: "customer"})
	req = withURLParam(req, "id", "order-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetOrderHandler_StaffCanViewAny(t *testing.T) {
	repo := &fakeOrderRepo{
		getWithItemsFunc: func(_ context.Context, id string) (order.Order, error) {
			return order.Order{ID: id, UserID: "user-1"}, nil
		},
	}
	h := NewOrderHandler(&fakeCheckout{}, repo, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/orders/order-1", "",
		auth.Principal{ID: "staff-1", Role: "staff"})
	req = withURLParam(req, "id", "order-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	repo := &fakeOrderRepo{
		getWithItemsFunc: func(context.Context, string) (order.Order, error) {
			return order.Order{}, order.ErrNotFound
		},
	}
	h := NewOrderHandler(&fakeCheckout{}, repo, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/orders/missing", "",
		auth.Principal{ID: "user-1"})
	req = withURLParam(req, "id", "missing")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCancelOrderHandler_Forbidden(t *testing.T) {
	oc := &fakeCheckout{
		cancelFunc: func(context.Context, string, auth.Principal) (order.Order, error) {
			return order.Order{}, checkout.ErrForbidden
		},
	}
	h := NewOrderHandler(oc, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/order-1/cancel", "",
		auth.Principal{ID: "someone-else"})
	req = withURLParam(req, "id", "order-1")
	rr := httptest.NewRecorder()
	h.Cancel(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCancelOrderHandler_InvalidTransition(t *testing.T) {
	oc := &fakeCheckout{
		cancelFunc: func(context.Context, string, auth.Principal) (order.Order, error) {
			return order.Order{}, order.ErrInvalidTransition
		},
	}
	h := NewOrderHandler(oc, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPost, "/api/orders/order-1/cancel", "",
		auth.Principal{ID: "user-1"})
	req = withURLParam(req, "id", "order-1")
	rr := httptest.NewRecorder()
	h.Cancel(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestUpdateStatusHandler_BadStatus(t *testing.T) {
	h := NewOrderHandler(&fakeCheckout{}, &fakeOrderRepo{}, zap.NewNop())

	req := authedRequest(http.MethodPut, "/api/orders/order-1/status",
		`{"status":"teleported"}`, auth.Principal{ID: "admin-1", Role: "admin"})
	req = withURLParam(req, "id", "order-1")
	rr := httptest.NewRecorder()
	h.UpdateStatus(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListMineHandler(t *testing.T) {
	repo := &fakeOrderRepo{
		listByUserFunc: func(_ context.Context, userID string, _, _ int) ([]order.Order, order.Page, error) {
			require.Equal(t, "user-1", userID)
			return []order.Order{{ID: "order-1", UserID: userID}},
				order.Page{CurrentPage: 1, TotalPages: 1, TotalOrders: 1}, nil
		},
	}
	h := NewOrderHandler(&fakeCheckout{}, repo, zap.NewNop())

	req := authedRequest(http.MethodGet, "/api/orders", "", auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.ListMine(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success)
}
