package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/http/response"
)

func (h *Handlers) CreateDish(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req domain.CreateDishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	dish, err := h.menuService.CreateDish(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dish)
}

func (h *Handlers) ListDishes(w http.ResponseWriter, r *http.Request) {
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

	dishes, err := h.menuService.ListDishes(r.Context(), claims.Sub, restaurantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if dishes == nil {
		dishes = []domain.Dish{}
	}

	writeJSON(w, http.StatusOK, dishes)
}

func (h *Handlers) DeleteDish(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.menuService.DeleteDish(r.Context(), claims.Sub, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Dish deleted successfully",
	})
}
