package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TvixT/simple-mart/internal/catalog"
)

type CategoryHandler struct {
	catalog catalog.Repository
	logger  *zap.Logger
}

func NewCategoryHandler(repo catalog.Repository, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: repo, logger: logger}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving categories")
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	writeJSON(w, http.StatusOK, "categories retrieved successfully", map[string]any{"categories": categories})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("get category failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error retrieving category")
		return
	}
	writeJSON(w, http.StatusOK, "category retrieved successfully", map[string]any{"category": c})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := catalog.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.catalog.CreateCategory(r.Context(), &c); err != nil {
		h.logger.Error("create category failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error creating category")
		return
	}

	writeJSON(w, http.StatusCreated, "category created successfully", map[string]any{"category": c})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := catalog.Category{
		ID:          chi.URLParam(r, "id"),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.catalog.UpdateCategory(r.Context(), &c); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("update category failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error updating category")
		return
	}

	writeJSON(w, http.StatusOK, "category updated successfully", map[string]any{"category": c})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("delete category failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error deleting category")
		return
	}
	writeJSON(w, http.StatusOK, "category deleted successfully", nil)
}
