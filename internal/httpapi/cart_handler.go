package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/cart"
	"github.com/TvixT/simple-mart/internal/inventory"
)

type CartHandler struct {
	carts  *cart.Service
	logger *zap.Logger
}

func NewCartHandler(carts *cart.Service, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	view, err := h.carts.Get(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("get cart failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving cart")
		return
	}

	writeJSON(w, http.StatusOK, "cart retrieved successfully", map[string]any{"cart": view})
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	line, err := h.carts.AddItem(r.Context(), p.ID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, "error adding item to cart")
		return
	}

	writeJSON(w, http.StatusCreated, "item added to cart", map[string]any{"item": line})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	productID := chi.URLParam(r, "productId")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	line, err := h.carts.UpdateQuantity(r.Context(), p.ID, productID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, "error updating cart item")
		return
	}

	if line == nil {
		writeJSON(w, http.StatusOK, "item removed from cart", nil)
		return
	}
	writeJSON(w, http.StatusOK, "cart item updated", map[string]any{"item": line})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	removed, err := h.carts.RemoveItem(r.Context(), p.ID, chi.URLParam(r, "productId"))
	if err != nil {
		h.logger.Error("remove cart item failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error removing item from cart")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "item not found in cart")
		return
	}

	writeJSON(w, http.StatusOK, "item removed from cart", nil)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	removed, err := h.carts.Clear(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("clear cart failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error clearing cart")
		return
	}

	writeJSON(w, http.StatusOK, "cart cleared", map[string]any{"removedItems": removed})
}

func (h *CartHandler) ValidateStock(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	result, err := h.carts.ValidateStock(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("validate cart stock failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error validating cart")
		return
	}

	writeJSON(w, http.StatusOK, "cart validated", map[string]any{"validation": result})
}

func (h *CartHandler) writeCartError(w http.ResponseWriter, err error, fallback string) {
	var stockErr *cart.InsufficientStockError
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.As(err, &stockErr):
		writeErrorData(w, http.StatusConflict, "insufficient stock", map[string]any{
			"productId": stockErr.Availability.ProductID,
			"requested": stockErr.Availability.Requested,
			"available": stockErr.Availability.CurrentStock,
		})
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "item not found in cart")
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
