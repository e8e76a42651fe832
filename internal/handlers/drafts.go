package handlers

import (
	"net/http"
	"strconv"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CreateDraft handles POST /api/drafts. The flights may come in the body or,
// as links from the search page do, in the query string.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var req models.CreateDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.DepartureFlight == "" {
		req.DepartureFlight = r.URL.Query().Get("departureFlight")
		req.ReturnFlight = r.URL.Query().Get("returnFlight")
	}

	draft, err := h.bookingService.CreateDraft(r.Context(), s.UserID, req.DepartureFlight, req.ReturnFlight)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// GetDraft handles GET /api/drafts/{id}
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	draft, err := h.bookingService.GetDraft(r.Context(), s.UserID, mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// DiscardDraft handles DELETE /api/drafts/{id}
func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	if err := h.bookingService.DiscardDraft(r.Context(), s.UserID, mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking discarded"})
}

func legParam(r *http.Request) (booking.Leg, error) {
	return booking.ParseLeg(mux.Vars(r)["leg"])
}

// SelectFareClass handles PUT /api/drafts/{id}/legs/{leg}/class
func (h *Handler) SelectFareClass(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	leg, err := legParam(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var req models.SelectFareClassRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	class, err := models.ParseFareClass(req.Class)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := h.bookingService.SelectFareClass(r.Context(), s.UserID, mux.Vars(r)["id"], leg, class)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// ChangeSeatQuantity handles POST /api/drafts/{id}/legs/{leg}/quantity
func (h *Handler) ChangeSeatQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	leg, err := legParam(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var req models.ChangeQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.bookingService.ChangeSeatQuantity(r.Context(), s.UserID, mux.Vars(r)["id"], leg, req.Delta)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// SetPassengerName handles PUT /api/drafts/{id}/legs/{leg}/passengers/{index}
func (h *Handler) SetPassengerName(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	leg, err := legParam(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Passenger index must be a number")
		return
	}

	var req models.PassengerNameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := h.bookingService.SetPassengerName(r.Context(), s.UserID, mux.Vars(r)["id"], leg, index, req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// SubmitDraft handles POST /api/drafts/{id}/submit
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	resp, err := h.bookingService.SubmitDraft(r.Context(), s.UserID, mux.Vars(r)["id"], s.AccessToken)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"bookingId": resp.BookingID,
		"message":   "Booking successful",
		"redirect":  "/bookings",
	})
}

// DraftSocket handles GET /api/drafts/{id}/ws
func (h *Handler) DraftSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	draftID := mux.Vars(r)["id"]
	draft, err := h.bookingService.GetDraft(r.Context(), s.UserID, draftID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.hub.ServeDraft(w, r, draftID, draft); err != nil {
		// the upgrader has already written the error response
		h.logger.Debug("WebSocket upgrade failed", zap.String("draftId", draftID), zap.Error(err))
	}
}
