package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/http/response"
	"github.com/menuqr/menuqr/pkg/auth"
	"github.com/menuqr/menuqr/pkg/logger"
)

// Register sends a verification code to a new (or still unverified)
// email. Already-verified emails are rejected with a conflict.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.RequestCode(r.Context(), &req, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Verification code sent to your email",
		"userId":  user.ID,
	})
}

// Login is the code-request path for returning users; a verified email
// simply gets a fresh code.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.RequestCode(r.Context(), &req, true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Verification code sent to your email",
		"userId":  user.ID,
	})
}

// Verify consumes the emailed code and starts a session.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.ConfirmCode(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := auth.NewSessionToken(user.ID, user.Email, h.config.Auth.JWTSecret, h.config.Auth.SessionTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to mint session token", "error", err, "user_id", user.ID)
		response.InternalError(w, "Internal server error")
		return
	}
	h.setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
		"userId":  user.ID,
	})
}

// Logout ends the session client-side. There is no server-side session
// state to destroy.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user's profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToUserInfo())
}
