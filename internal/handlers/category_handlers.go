package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/http/response"
)

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req domain.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	category, err := h.menuService.CreateCategory(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	restaurantID := r.URL.Query().Get("restaurantId")
	if restaurantID == "" {
		response.BadRequest(w, "restaurantId query parameter is required")
		return
	}

	categories, err := h.menuService.ListCategories(r.Context(), claims.Sub, restaurantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	writeJSON(w, http.StatusOK, categories)
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.menuService.DeleteCategory(r.Context(), claims.Sub, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Category deleted successfully",
	})
}
