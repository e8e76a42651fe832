package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/flightapi"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/session"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/websocket"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LoginPath is where signed-out users are sent
const LoginPath = "/auth/login"

// HomePath is where signed-in users land
const HomePath = "/flights"

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
	flightService  service.FlightService
	accountService service.AccountService
	sessions       *session.Manager
	hub            *websocket.Hub
	logger         *zap.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(
	bookingService service.BookingService,
	flightService service.FlightService,
	accountService service.AccountService,
	sessions *session.Manager,
	hub *websocket.Hub,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bookingService: bookingService,
		flightService:  flightService,
		accountService: accountService,
		sessions:       sessions,
		hub:            hub,
		logger:         logger,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// RespondUnauthorized tells an API client to sign in again
func RespondUnauthorized(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, map[string]string{
		"error":    "Authentication required",
		"redirect": LoginPath,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// respondServiceError maps domain errors onto HTTP statuses. Messages from the
// flight API are passed through as sent.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *booking.ValidationError
	var apiErr *flightapi.APIError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, validationErr.Message)
	case errors.Is(err, service.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, booking.ErrNoDepartureFlight):
		respondError(w, http.StatusBadRequest, "No departure flight selected")
	case errors.Is(err, booking.ErrLegNotPresent),
		errors.Is(err, booking.ErrUnknownLeg),
		errors.Is(err, booking.ErrUnknownFareClass),
		errors.Is(err, booking.ErrPassengerIndex),
		errors.Is(err, service.ErrInvalidSearch),
		errors.Is(err, service.ErrInvalidTab),
		errors.Is(err, service.ErrInvalidProfile):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flightapi.ErrUnauthorized):
		RespondUnauthorized(w)
	case errors.Is(err, flightapi.ErrNotFound):
		respondError(w, http.StatusNotFound, apiMessage(err, "Not found"))
	case errors.As(err, &apiErr):
		respondError(w, http.StatusBadGateway, apiErr.Message)
	default:
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func apiMessage(err error, fallback string) string {
	var apiErr *flightapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// currentSession returns the session the auth middleware attached to r
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		RespondUnauthorized(w)
		return nil, false
	}
	return s, true
}

// SearchFlights handles GET /api/flights/search
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	result, err := h.flightService.Search(r.Context(), searchRequest(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RecommendedFlights handles GET /api/flights/recommended
func (h *Handler) RecommendedFlights(w http.ResponseWriter, r *http.Request) {
	result, err := h.flightService.Recommended(r.Context(), searchRequest(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func searchRequest(r *http.Request) service.SearchRequest {
	q := r.URL.Query()
	return service.SearchRequest{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Date:        q.Get("date"),
		ReturnDate:  q.Get("returnDate"),
	}
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flightID := mux.Vars(r)["id"]
	flight, err := h.flightService.GetFlight(r.Context(), flightID)
	if err != nil {
		if errors.Is(err, flightapi.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Flight not found")
			return
		}
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// Me handles GET /api/me and the /flights landing page
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":    s.UserID,
		"email":     s.Email,
		"expiresAt": s.ExpiresAt,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
