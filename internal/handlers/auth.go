package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/session"
	"go.uber.org/zap"
)

// verifierCookie holds the PKCE code verifier set by the page that started an OAuth sign in
const verifierCookie = "sb-code-verifier"

// LoginPage handles GET /auth/login for signed-out users
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": false,
		"message":       "Sign in required",
	})
}

// Login handles POST /auth/login with a JSON or form body
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	s, err := h.sessions.SignIn(w, r, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrAuthFailed) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("Sign in failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "Authentication service unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":   s.UserID,
		"email":    s.Email,
		"redirect": HomePath,
	})
}

// AuthCallback handles GET /auth/callback?code=. Whatever the exchange
// outcome, the browser goes on to the flights page; without a session the
// auth gate sends it back to sign in.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		verifier := r.URL.Query().Get("code_verifier")
		if c, err := r.Cookie(verifierCookie); err == nil && verifier == "" {
			verifier = c.Value
		}
		if _, err := h.sessions.Exchange(w, r, code, verifier); err != nil {
			h.logger.Warn("Auth code exchange failed", zap.Error(err))
		}
		http.SetCookie(w, &http.Cookie{Name: verifierCookie, Path: "/", MaxAge: -1})
	}
	http.Redirect(w, r, HomePath, http.StatusFound)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		h.logger.Error("Sign out failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"redirect": LoginPath})
}
