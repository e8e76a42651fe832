package mocks

import (
	"context"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockFlightAPI is a mock implementation of service.FlightAPI
type MockFlightAPI struct {
	mock.Mock
}

func (m *MockFlightAPI) SearchFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flight), args.Error(1)
}

func (m *MockFlightAPI) RecommendedFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Flight), args.Error(1)
}

func (m *MockFlightAPI) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flight), args.Error(1)
}

func (m *MockFlightAPI) CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateBookingResponse), args.Error(1)
}

func (m *MockFlightAPI) ListBookings(ctx context.Context, token string, page, limit int) (*models.BookingPage, error) {
	args := m.Called(ctx, token, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingPage), args.Error(1)
}

func (m *MockFlightAPI) CancelTicket(ctx context.Context, token, ticketID string) error {
	args := m.Called(ctx, token, ticketID)
	return args.Error(0)
}

func (m *MockFlightAPI) GetProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockFlightAPI) UpdateProfile(ctx context.Context, token string, profile models.UserProfile) (*models.UserProfile, error) {
	args := m.Called(ctx, token, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
