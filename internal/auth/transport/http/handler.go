package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"feedhunt/internal/api/dto"
	"feedhunt/internal/auth/service"
	"feedhunt/internal/token"
	"feedhunt/pkg/middleware"
)

const refreshCookieName = "refresh_token"

type Handler struct {
	AuthService *service.AuthService
}

func NewHandler(as *service.AuthService) *Handler {
	return &Handler{AuthService: as}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request"})
		return
	}

	if err := dto.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.FieldErrors(err))
		return
	}

	u, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string][]string{
				"email": {"The email has already been taken."},
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "registration failed"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User Successfully Registered",
		"user":    u,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request"})
		return
	}

	if err := dto.Validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.FieldErrors(err))
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid Credentials"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "login failed"})
		return
	}

	// refresh-токен уходит ТОЛЬКО в cookie, в JSON его нет
	setRefreshCookie(w, res.RefreshToken, time.Now().Add(token.RefreshTTL))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Token Granted",
		"access_token": res.AccessToken,
		"user":         res.User,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(int64)

	if err := h.AuthService.Logout(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "logout failed"})
		return
	}

	clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User Logged Out Successfully"})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = c.Value
	}

	accessToken, err := h.AuthService.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenMissing):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Refresh token not found."})
		case errors.Is(err, service.ErrRefreshExpired):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Refresh token expired. Please log in again."})
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "User not found."})
		case errors.Is(err, service.ErrInvalidRefreshToken):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token."})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "refresh failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(int64)

	u, err := h.AuthService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "User not found."})
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// setRefreshCookie: HttpOnly + SameSite=Lax, без Secure — same-site деплой.
// Для cross-site фронта понадобится Secure + SameSite=None.
func setRefreshCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
