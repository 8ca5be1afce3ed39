package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/cart"
	"github.com/TvixT/simple-mart/internal/inventory"
)

type fakeCartRepo struct {
	lines map[string]cart.Line // keyed by productID, single test user
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{lines: map[string]cart.Line{}}
}

func (f *fakeCartRepo) AddItem(_ context.Context, userID, productID string, qty int) (cart.Line, error) {
	l := f.lines[productID]
	l.UserID = userID
	l.ProductID = productID
	l.Quantity += qty
	f.lines[productID] = l
	return l, nil
}

func (f *fakeCartRepo) UpdateQuantity(_ context.Context, _, productID string, qty int) (*cart.Line, error) {
	l, ok := f.lines[productID]
	if !ok {
		return nil, cart.ErrLineNotFound
	}
	if qty <= 0 {
		delete(f.lines, productID)
		return nil, nil
	}
	l.Quantity = qty
	f.lines[productID] = l
	return &l, nil
}

func (f *fakeCartRepo) RemoveItem(_ context.Context, _, productID string) (bool, error) {
	_, ok := f.lines[productID]
	delete(f.lines, productID)
	return ok, nil
}

func (f *fakeCartRepo) Clear(context.Context, string) (int, error) {
	n := len(f.lines)
	f.lines = map[string]cart.Line{}
	return n, nil
}

func (f *fakeCartRepo) GetView(context.Context, string) (cart.View, error) {
	return cart.View{}, nil
}

func (f *fakeCartRepo) ValidateStock(context.Context, string) (cart.StockValidation, error) {
	return cart.StockValidation{Valid: true}, nil
}

type fixedStock struct {
	stock map[string]int
}

func (f *fixedStock) CheckAvailability(_ context.Context, productID string, requested int) (inventory.Availability, error) {
	current, ok := f.stock[productID]
	if !ok {
		return inventory.Availability{}, inventory.ErrNotFound
	}
	return inventory.Availability{
		ProductID:    productID,
		Available:    current >= requested,
		CurrentStock: current,
		Requested:    requested,
	}, nil
}

func newCartHandler(repo cart.Repository, stock cart.StockChecker) *CartHandler {
	return NewCartHandler(cart.NewService(repo, stock), zap.NewNop())
}

func TestAddItemHandler(t *testing.T) {
	h := newCartHandler(newFakeCartRepo(), &fixedStock{stock: map[string]int{"p1": 5}})

	req := authedRequest(http.MethodPost, "/api/cart/items",
		`{"productId":"p1","quantity":2}`, auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.AddItem(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestAddItemHandler_Validation(t *testing.T) {
	h := newCartHandler(newFakeCartRepo(), &fixedStock{stock: map[string]int{}})

	cases := []string{
		`{`,
		`{"quantity":2}`,
		`{"productId":"p1","quantity":0}`,
		`{"productId":"p1","quantity":-3}`,
	}
	for _, body := range cases {
		req := authedRequest(http.MethodPost, "/api/cart/items", body, auth.Principal{ID: "user-1"})
		rr := httptest.NewRecorder()
		h.AddItem(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestAddItemHandler_InsufficientStock(t *testing.T) {
	h := newCartHandler(newFakeCartRepo(), &fixedStock{stock: map[string]int{"p1": 1}})

	req := authedRequest(http.MethodPost, "/api/cart/items",
		`{"productId":"p1","quantity":5}`, auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.AddItem(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	env := decodeEnvelope(t, rr)
	data := env.Data.(map[string]any)
	require.Equal(t, float64(1), data["available"])
	require.Equal(t, float64(5), data["requested"])
}

func TestAddItemHandler_UnknownProduct(t *testing.T) {
	h := newCartHandler(newFakeCartRepo(), &fixedStock{stock: map[string]int{}})

	req := authedRequest(http.MethodPost, "/api/cart/items",
		`{"productId":"ghost","quantity":1}`, auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.AddItem(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateQuantityHandler_RemovesAtZero(t *testing.T) {
	repo := newFakeCartRepo()
	stock := &fixedStock{stock: map[string]int{"p1": 5}}
	h := newCartHandler(repo, stock)

	req := authedRequest(http.MethodPost, "/api/cart/items",
		`{"productId":"p1","quantity":2}`, auth.Principal{ID: "user-1"})
	rr := httptest.NewRecorder()
	h.AddItem(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = authedRequest(http.MethodPut, "/api/cart/items/p1",
		`{"quantity":0}`, auth.Principal{ID: "user-1"})
	req = withURLParam(req, "productId", "p1")
	rr = httptest.NewRecorder()
	h.UpdateQuantity(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, repo.lines)
}

func TestRemoveItemHandler_NotInCart(t *testing.T) {
	h := newCartHandler(newFakeCartRepo(), &fixedStock{stock: map[string]int{}})

	req := authedRequest(http.MethodDelete, "/api/cart/items/ghost", "", auth.Principal{ID: "user-1"})
	req = withURLParam(req, "productId", "ghost")
	rr := httptest.NewRecorder()
	h.RemoveItem(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}
