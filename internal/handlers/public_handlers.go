package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicMenu serves the read-only menu for diners. No session required.
func (h *Handlers) PublicMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.menuService.PublicMenu(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, menu)
}
