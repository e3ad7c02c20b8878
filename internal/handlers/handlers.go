package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/http/response"
	"github.com/menuqr/menuqr/internal/service"
	"github.com/menuqr/menuqr/pkg/auth"
	"github.com/menuqr/menuqr/pkg/config"
	"github.com/menuqr/menuqr/pkg/logger"
)

const sessionCookieName = "session"

type ctxKey string

const claimsKey ctxKey = "claims"

type Handlers struct {
	authService service.AuthService
	menuService service.MenuService
	config      *config.Config
}

func New(authService service.AuthService, menuService service.MenuService, cfg *config.Config) *Handlers {
	return &Handlers{
		authService: authService,
		menuService: menuService,
		config:      cfg,
	}
}

// RequireSession gates protected routes on a valid session cookie. The
// check is binary: any parse failure looks like a missing session.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		claims, err := auth.ParseSessionToken(cookie.Value, h.config.Auth.JWTSecret)
		if err != nil {
			response.Unauthorized(w, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getClaims(r *http.Request) *auth.SessionClaims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.SessionClaims); ok {
		return claims
	}
	return nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps domain errors to HTTP responses. Anything
// unrecognized becomes a generic 500; the detail stays in the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
	case errors.Is(err, domain.ErrEmailExists):
		response.WriteError(w, http.StatusConflict, "User with this email already exists", response.CodeEmailExists)
	case errors.Is(err, domain.ErrUserNotFound):
		response.WriteError(w, http.StatusNotFound, "User not found", response.CodeNotFound)
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "Forbidden")
	case errors.Is(err, domain.ErrInvalidCode):
		response.WriteError(w, http.StatusBadRequest, "Invalid verification code", response.CodeInvalidCode)
	case errors.Is(err, domain.ErrCodeExpired):
		response.WriteError(w, http.StatusBadRequest, "Verification code has expired", response.CodeCodeExpired)
	case errors.Is(err, domain.ErrDeliveryFailed):
		response.WriteError(w, http.StatusInternalServerError, "Failed to send verification email. Please try again.", response.CodeSendFailed)
	case errors.Is(err, service.ErrBaseURLNotSet):
		logger.ErrorContext(r.Context(), "Application base URL is not set")
		response.InternalError(w, "Application URL is not configured")
	default:
		logger.ErrorContext(r.Context(), "Unhandled service error", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}
