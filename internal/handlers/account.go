package handlers

import (
	"net/http"
	"strconv"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service"
	"github.com/gorilla/mux"
)

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

// ListBookings handles GET /api/bookings?page=&limit=
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	overview, err := h.accountService.Bookings(r.Context(), s.AccessToken, queryInt(r, "page", 1), queryInt(r, "limit", 0))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// ListTickets handles GET /api/tickets?tab=active|cancelled
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	tab, err := service.ParseTicketTab(r.URL.Query().Get("tab"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	tickets, err := h.accountService.Tickets(r.Context(), s.AccessToken, tab)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// CancelTicket handles PATCH /api/tickets/{id}/cancel
func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	if err := h.accountService.CancelTicket(r.Context(), s.AccessToken, mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Ticket cancelled"})
}

// GetProfile handles GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	profile, err := h.accountService.Profile(r.Context(), s.AccessToken)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles POST /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var req models.UserProfile
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.accountService.UpdateProfile(r.Context(), s.AccessToken, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
