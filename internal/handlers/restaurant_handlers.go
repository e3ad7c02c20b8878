package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/http/response"
)

func (h *Handlers) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req domain.CreateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	rest, err := h.menuService.CreateRestaurant(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rest)
}

func (h *Handlers) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	restaurants, err := h.menuService.ListRestaurants(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}

	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handlers) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	rest, err := h.menuService.GetRestaurant(r.Context(), claims.Sub, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rest)
}

func (h *Handlers) DeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.menuService.DeleteRestaurant(r.Context(), claims.Sub, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Restaurant deleted successfully",
	})
}

// RestaurantQR returns the public menu link for client-side QR
// rendering.
func (h *Handlers) RestaurantQR(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	info, err := h.menuService.QRInfo(r.Context(), claims.Sub, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
