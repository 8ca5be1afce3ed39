package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/catalog"
)

type ProductHandler struct {
	catalog catalog.Repository
	logger  *zap.Logger
}

func NewProductHandler(repo catalog.Repository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: repo, logger: logger}
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"imageUrl"`
	CategoryID  *string `json:"categoryId"`
}

func (req productRequest) validate() (decimal.Decimal, error) {
	if strings.TrimSpace(req.Name) == "" {
		return decimal.Zero, errors.New("name is required")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return decimal.Zero, errors.New("price must be a decimal number")
	}
	if price.IsNegative() {
		return decimal.Zero, errors.New("price cannot be negative")
	}
	if req.Stock < 0 {
		return decimal.Zero, errors.New("stock cannot be negative")
	}
	return price, nil
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.ProductFilter{
		CategoryID:  q.Get("category"),
		Search:      q.Get("search"),
		InStockOnly: q.Get("inStock") == "true",
		SortBy:      q.Get("sortBy"),
		SortDesc:    strings.EqualFold(q.Get("order"), "desc"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("limit"))

	if raw := q.Get("minPrice"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minPrice must be a decimal number")
			return
		}
		filter.MinPrice = &p
	}
	if raw := q.Get("maxPrice"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "maxPrice must be a decimal number")
			return
		}
		filter.MaxPrice = &p
	}

	products, page, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, "products retrieved successfully", map[string]any{
		"products":   products,
		"pagination": page,
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving product")
		return
	}
	writeJSON(w, http.StatusOK, "product retrieved successfully", map[string]any{"product": p})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	price, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := catalog.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if err := h.catalog.Create(r.Context(), &p); err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error creating product")
		return
	}

	writeJSON(w, http.StatusCreated, "product created successfully", map[string]any{"product": p})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	price, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := catalog.Product{
		ID:          chi.URLParam(r, "id"),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if err := h.catalog.Update(r.Context(), &p); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("update product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error updating product")
		return
	}

	writeJSON(w, http.StatusOK, "product updated successfully", map[string]any{"product": p})
}

func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock int `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "stock cannot be negative")
		return
	}

	// Read-modify-write keeps the other columns intact. Staff stock
	// corrections are rare enough that the race with checkout is acceptable
	// here; checkout itself never relies on this path.
	p, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error updating stock")
		return
	}

	p.Stock = req.Stock
	if err := h.catalog.Update(r.Context(), &p); err != nil {
		h.logger.Error("update stock failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error updating stock")
		return
	}

	writeJSON(w, http.StatusOK, "stock updated successfully", map[string]any{"product": p})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("delete product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error deleting product")
		return
	}
	writeJSON(w, http.StatusOK, "product deleted successfully", nil)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := 10
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil || t < 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a non-negative integer")
			return
		}
		threshold = t
	}

	products, err := h.catalog.LowStock(r.Context(), threshold)
	if err != nil {
		h.logger.Error("low stock query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving low stock products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, "low stock products retrieved successfully", map[string]any{
		"products":  products,
		"threshold": threshold,
	})
}

func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.logger.Error("product stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving product stats")
		return
	}
	writeJSON(w, http.StatusOK, "product stats retrieved successfully", map[string]any{"stats": stats})
}
