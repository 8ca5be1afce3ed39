package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/auth"
	"github.com/TvixT/simple-mart/internal/checkout"
	"github.com/TvixT/simple-mart/internal/order"
)

// CheckoutService is the slice of the checkout orchestrator the HTTP layer needs.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID, shippingAddress string) (order.Order, error)
	CancelOrder(ctx context.Context, orderID string, caller auth.Principal) (order.Order, error)
	UpdateShippingAddress(ctx context.Context, orderID, address string, caller auth.Principal) (order.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error)
}

type OrderHandler struct {
	orchestrator CheckoutService
	orders       order.Repository
	logger       *zap.Logger
}

func NewOrderHandler(oc CheckoutService, orders order.Repository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orchestrator: oc, orders: orders, logger: logger}
}

type placeOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		writeError(w, http.StatusBadRequest, "shippingAddress is required")
		return
	}

	o, err := h.orchestrator.PlaceOrder(r.Context(), p.ID, strings.TrimSpace(req.ShippingAddress))
	if err != nil {
		var stockErr *checkout.InsufficientStockError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &stockErr):
			writeErrorData(w, http.StatusConflict, "insufficient stock", map[string]any{
				"invalidItems": stockErr.Violations,
			})
		default:
			h.logger.Error("place order failed", zap.Error(err), zap.String("user_id", p.ID))
			writeError(w, http.StatusInternalServerError, "error placing order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, "order placed successfully", map[string]any{"order": o})
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, pagination, err := h.orders.ListByUser(r.Context(), p.ID, page, pageSize)
	if err != nil {
		h.logger.Error("list user orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, "orders retrieved successfully", map[string]any{
		"orders":     orders,
		"pagination": pagination,
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	o, err := h.orders.GetWithItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("get order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving order")
		return
	}

	if o.UserID != p.ID && !p.IsStaff() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	writeJSON(w, http.StatusOK, "order retrieved successfully", map[string]any{"order": o})
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	o, err := h.orchestrator.CancelOrder(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, checkout.ErrForbidden):
			writeError(w, http.StatusForbidden, "access denied")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("cancel order failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "error cancelling order")
		}
		return
	}

	writeJSON(w, http.StatusOK, "order cancelled successfully", map[string]any{"order": o})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orchestrator.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("update order status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error updating order status")
		return
	}

	writeJSON(w, http.StatusOK, "order status updated", map[string]any{"order": o})
}

type updateAddressRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

func (h *OrderHandler) UpdateShippingAddress(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req updateAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		writeError(w, http.StatusBadRequest, "shippingAddress is required")
		return
	}

	o, err := h.orchestrator.UpdateShippingAddress(r.Context(), chi.URLParam(r, "id"),
		strings.TrimSpace(req.ShippingAddress), p)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, checkout.ErrForbidden):
			writeError(w, http.StatusForbidden, "access denied")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("update shipping address failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "error updating shipping address")
		}
		return
	}

	writeJSON(w, http.StatusOK, "shipping address updated", map[string]any{"order": o})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := order.Filter{
		UserID:   q.Get("userId"),
		SortBy:   q.Get("sortBy"),
		SortDesc: strings.EqualFold(q.Get("order"), "desc"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("limit"))

	if raw := q.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
			return
		}
		filter.EndDate = &t
	}

	orders, pagination, err := h.orders.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, "orders retrieved successfully", map[string]any{
		"orders":     orders,
		"pagination": pagination,
	})
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("delete order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error deleting order")
		return
	}
	writeJSON(w, http.StatusOK, "order deleted successfully", nil)
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		h.logger.Error("order stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving order stats")
		return
	}
	writeJSON(w, http.StatusOK, "order stats retrieved successfully", map[string]any{"stats": stats})
}

func (h *OrderHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 1 || d > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = d
	}

	sales, err := h.orders.DailySales(r.Context(), days)
	if err != nil {
		h.logger.Error("daily sales failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving daily sales")
		return
	}
	if sales == nil {
		sales = []order.DailySales{}
	}

	writeJSON(w, http.StatusOK, "daily sales retrieved successfully", map[string]any{
		"days":  days,
		"sales": sales,
	})
}
