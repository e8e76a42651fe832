package router

import (
	"net/http"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/handlers"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options tunes the middleware around the routes
type Options struct {
	AllowedOrigin   string
	LoginRatePerMin int
	// TrustedProxies lists the CIDRs or IPs whose forwarding headers are believed
	TrustedProxies []string
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *handlers.Handler, sessions *session.Manager, opts Options, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	ips := newIPResolver(opts.TrustedProxies, logger)

	r.Use(corsMiddleware(opts.AllowedOrigin))
	r.Use(loggingMiddleware(ips, logger))
	r.Use(sessionMiddleware(sessions, logger))

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	// Auth
	limiter := newLoginLimiter(opts.LoginRatePerMin, ips, logger)
	auth := r.PathPrefix("/auth").Subrouter()
	auth.Handle("/login", redirectSignedIn(http.HandlerFunc(h.LoginPage))).Methods(http.MethodGet)
	auth.Handle("/login", limiter.middleware(http.HandlerFunc(h.Login))).Methods(http.MethodPost, http.MethodOptions)
	auth.HandleFunc("/callback", h.AuthCallback).Methods(http.MethodGet)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost, http.MethodOptions)

	// Pages
	r.Handle("/flights", requirePageSession(http.HandlerFunc(h.Me))).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Flights
	api.HandleFunc("/flights/search", h.SearchFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/recommended", h.RecommendedFlights).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(http.MethodGet, http.MethodOptions)

	protected := api.NewRoute().Subrouter()
	protected.Use(requireSession)
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet, http.MethodOptions)

	// Booking drafts
	protected.HandleFunc("/drafts", h.CreateDraft).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}", h.GetDraft).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}", h.DiscardDraft).Methods(http.MethodDelete, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}/legs/{leg}/class", h.SelectFareClass).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}/legs/{leg}/quantity", h.ChangeSeatQuantity).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}/legs/{leg}/passengers/{index:[0-9]+}", h.SetPassengerName).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/drafts/{id}/submit", h.SubmitDraft).Methods(http.MethodPost, http.MethodOptions)

	// WebSocket for live draft snapshots
	protected.HandleFunc("/drafts/{id}/ws", h.DraftSocket).Methods(http.MethodGet)

	// Account
	protected.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/tickets", h.ListTickets).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/tickets/{id}/cancel", h.CancelTicket).Methods(http.MethodPatch, http.MethodOptions)
	protected.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPost, http.MethodOptions)

	return r
}
