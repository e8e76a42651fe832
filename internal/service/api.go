package service

import (
	"context"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
)

// FlightAPI is the external flight and booking API
type FlightAPI interface {
	SearchFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error)
	RecommendedFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error)
	GetFlight(ctx context.Context, id string) (*models.Flight, error)
	CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest) (*models.CreateBookingResponse, error)
	ListBookings(ctx context.Context, token string, page, limit int) (*models.BookingPage, error)
	CancelTicket(ctx context.Context, token, ticketID string) error
	GetProfile(ctx context.Context, token string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, token string, profile models.UserProfile) (*models.UserProfile, error)
}
