package flightapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, zap.NewNop())
}

func TestClient_SearchFlights(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/flights/search", r.URL.Path)
		assert.Equal(t, "delhi", r.URL.Query().Get("origin"))
		assert.Equal(t, "mumbai", r.URL.Query().Get("destination"))
		assert.Equal(t, "2026-11-02", r.URL.Query().Get("date"))
		w.Write([]byte(`[{"id":"FL1","airline":"IndiGo","flightNumber":"6E-201","economy_price":3500,"economy_seats":12,
			"departure_time":"2026-11-02T06:15:00Z","arrival_time":"2026-11-02T08:20:00Z"}]`))
	})

	flights, err := client.SearchFlights(context.Background(), models.SearchParams{
		Origin: "delhi", Destination: "mumbai", Date: "2026-11-02",
	})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "6E-201", flights[0].FlightNumber)
	assert.Equal(t, 3500.0, flights[0].Price(models.FareClassEconomy))
	assert.Equal(t, 12, flights[0].AvailableSeats(models.FareClassEconomy))
	assert.Equal(t, 6, flights[0].DepartureTime.Hour())
}

func TestClient_GetFlight_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flights/FL404", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetFlight(context.Background(), "FL404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Failed to fetch flight details", err.Error())
}

func TestClient_CreateBooking(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    string
		wantUnauth bool
	}{
		{
			name:   "success",
			status: http.StatusCreated,
			body:   `{"success":true,"booking_id":"BK-1"}`,
		},
		{
			name:    "rejected with body text",
			status:  http.StatusConflict,
			body:    "Not enough economy seats available",
			wantErr: "Not enough economy seats available",
		},
		{
			name:    "body text is not trimmed",
			status:  http.StatusBadRequest,
			body:    "  Passenger name too long\n",
			wantErr: "  Passenger name too long\n",
		},
		{
			name:    "whitespace body counts as empty",
			status:  http.StatusBadGateway,
			body:    " \n",
			wantErr: "Failed to create booking",
		},
		{
			name:    "rejected without body",
			status:  http.StatusInternalServerError,
			wantErr: "Failed to create booking",
		},
		{
			name:    "success flag false",
			status:  http.StatusOK,
			body:    `{"success":false,"message":"Flight already departed"}`,
			wantErr: "Flight already departed",
		},
		{
			name:       "expired token",
			status:     http.StatusUnauthorized,
			body:       "jwt expired",
			wantErr:    "jwt expired",
			wantUnauth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/bookings/create", r.URL.Path)
				assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req models.CreateBookingRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.True(t, req.ReturnBooked)
				assert.Len(t, req.Data, 2)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			resp, err := client.CreateBooking(context.Background(), "tok-123", models.CreateBookingRequest{
				Data: []models.BookingItem{
					{FlightID: "FL1", SeatClass: models.FareClassEconomy, PassengerName: "Asha Rao"},
					{FlightID: "FL2", SeatClass: models.FareClassEconomy, PassengerName: "Asha Rao"},
				},
				ReturnBooked: true,
			})

			assert.Equal(t, 1, calls, "a booking request is never retried")
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "BK-1", resp.BookingID)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Equal(t, tt.wantUnauth, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClient_ListBookings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"id":"BK-1","flight_id":"FL1","return_flight_id":null,
			"flights":{"flight_number":"6E-201","departure_time":"2026-11-02T06:15:00Z"},
			"tickets":[{"id":"T1","flight_id":"FL1","active":true}]}],"page":2,"limit":5,"total":6}`))
	})

	page, err := client.ListBookings(context.Background(), "tok", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	require.Len(t, page.Data, 1)
	assert.Nil(t, page.Data[0].ReturnFlightID)
	assert.Equal(t, "6E-201", page.Data[0].Flights.FlightNumber)
	assert.True(t, page.Data[0].Tickets[0].Active)
}

func TestClient_CancelTicket(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/bookings/tickets/T1/status", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.CancelTicket(context.Background(), "tok", "T1"))
}

func TestClient_Profile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/profile", r.URL.Path)
		if r.Method == http.MethodPost {
			var p models.UserProfile
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			p.Age++
			json.NewEncoder(w).Encode(p)
			return
		}
		w.Write([]byte(`{"full_name":"Asha Rao","age":31,"gender":"female"}`))
	})

	p, err := client.GetProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", p.FullName)

	updated, err := client.UpdateProfile(context.Background(), "tok", *p)
	require.NoError(t, err)
	assert.Equal(t, 32, updated.Age)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, time.Second, zap.NewNop())

	_, err := client.SearchFlights(context.Background(), models.SearchParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch flights")
}
