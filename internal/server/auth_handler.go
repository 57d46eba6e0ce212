// Package server exposes the fleet's JSON-over-HTTP API: login and session
// management, the admin view's user/device management, and the user view's
// device actions.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"virtualDeviceManagement/internal/auth"
	"virtualDeviceManagement/internal/service"
	"virtualDeviceManagement/models"
)

// tokenTTL matches the single browser session the product models; there
// is no refresh flow.
const tokenTTL = 24 * time.Hour

// AuthHandler handles login, logout and session introspection.
type AuthHandler struct {
	Users     *service.UserService
	JWTSecret string
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the authenticated user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login authenticates against the shared-role credentials. Failures are a
// uniform 401 with no unknown-user/wrong-password distinction.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeErrors(w, http.StatusBadRequest, "invalid request")
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthFailed) {
			writeErrors(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	kind := models.RoleUser
	if u.IsAdmin() {
		kind = models.RoleAdmin
	}
	token, err := auth.IssueToken(h.JWTSecret, u.Username, kind, tokenTTL)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: u})
}

// Logout ends the session. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.EndSession(); err != nil {
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the rehydrated session holder, or 204 when anonymous.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	u := h.Users.CurrentUser()
	if u == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.User{"user": u})
}
