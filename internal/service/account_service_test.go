package service

import (
	"context"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/flightapi"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var accountNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestAccountService(api FlightAPI) *accountServiceImpl {
	svc := NewAccountService(api, zap.NewNop()).(*accountServiceImpl)
	svc.now = func() time.Time { return accountNow }
	return svc
}

func bookingDeparting(id string, departure time.Time, tickets ...models.Ticket) models.Booking {
	return models.Booking{
		ID:       id,
		FlightID: "f-" + id,
		Flights:  models.FlightSummary{Airline: "El Al", DepartureTime: departure},
		Tickets:  tickets,
	}
}

func TestAccountService_BookingsSplitByDeparture(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	page := &models.BookingPage{
		Data: []models.Booking{
			bookingDeparting("b1", accountNow.Add(24*time.Hour)),
			bookingDeparting("b2", accountNow.Add(-24*time.Hour)),
			bookingDeparting("b3", accountNow.Add(time.Minute)),
		},
		Page: 2, Limit: 10, Total: 13,
	}
	api.On("ListBookings", mock.Anything, "token", 2, 10).Return(page, nil).Once()

	overview, err := svc.Bookings(context.Background(), "token", 2, 10)
	require.NoError(t, err)
	require.Len(t, overview.Current, 2)
	assert.Equal(t, "b1", overview.Current[0].ID)
	assert.Equal(t, "b3", overview.Current[1].ID)
	require.Len(t, overview.Past, 1)
	assert.Equal(t, "b2", overview.Past[0].ID)
	assert.Equal(t, 13, overview.Total)
	api.AssertExpectations(t)
}

func TestAccountService_BookingsPagingDefaults(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	api.On("ListBookings", mock.Anything, "token", 1, defaultPageSize).Return(&models.BookingPage{}, nil).Once()
	api.On("ListBookings", mock.Anything, "token", 3, maxPageSize).Return(&models.BookingPage{}, nil).Once()

	_, err := svc.Bookings(context.Background(), "token", 0, 0)
	require.NoError(t, err)
	_, err = svc.Bookings(context.Background(), "token", 3, 500)
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestAccountService_Tickets(t *testing.T) {
	future := testFlight("f-future", accountNow.Add(72*time.Hour))
	past := testFlight("f-past", accountNow.Add(-72*time.Hour))

	bookings := &models.BookingPage{
		Data: []models.Booking{
			bookingDeparting("b1", future.DepartureTime,
				models.Ticket{ID: "t1", FlightID: "f-future", Active: true},
				models.Ticket{ID: "t2", FlightID: "f-future", Active: false},
			),
			bookingDeparting("b2", past.DepartureTime,
				models.Ticket{ID: "t3", FlightID: "f-past", Active: true},
				models.Ticket{ID: "t4", FlightID: "f-past", Active: false},
			),
		},
		Page: 1, Limit: ticketPageSize, Total: 2,
	}

	tests := []struct {
		tab      TicketTab
		expected []string
	}{
		{TicketTabActive, []string{"t1"}},
		{TicketTabCancelled, []string{"t2", "t4"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			api := new(mocks.MockFlightAPI)
			svc := newTestAccountService(api)

			api.On("ListBookings", mock.Anything, "token", 1, ticketPageSize).Return(bookings, nil).Once()
			api.On("GetFlight", mock.Anything, "f-future").Return(future, nil).Once()
			api.On("GetFlight", mock.Anything, "f-past").Return(past, nil).Once()

			tickets, err := svc.Tickets(context.Background(), "token", tt.tab)
			require.NoError(t, err)

			var ids []string
			for _, tv := range tickets {
				ids = append(ids, tv.ID)
				require.NotNil(t, tv.Flight)
				assert.Equal(t, tv.FlightID, tv.Flight.ID)
			}
			assert.Equal(t, tt.expected, ids)
			api.AssertExpectations(t)
		})
	}
}

func TestAccountService_TicketsWalksAllPages(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	f := testFlight("f1", accountNow.Add(time.Hour))
	api.On("ListBookings", mock.Anything, "token", 1, ticketPageSize).Return(&models.BookingPage{
		Data:  []models.Booking{bookingDeparting("b1", f.DepartureTime, models.Ticket{ID: "t1", FlightID: "f1", Active: true})},
		Total: 2,
	}, nil).Once()
	api.On("ListBookings", mock.Anything, "token", 2, ticketPageSize).Return(&models.BookingPage{
		Data:  []models.Booking{bookingDeparting("b2", f.DepartureTime, models.Ticket{ID: "t2", FlightID: "f1", Active: true})},
		Total: 2,
	}, nil).Once()
	api.On("GetFlight", mock.Anything, "f1").Return(f, nil).Once()

	tickets, err := svc.Tickets(context.Background(), "token", TicketTabActive)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	api.AssertExpectations(t)
}

func TestAccountService_TicketsFlightFailure(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	api.On("ListBookings", mock.Anything, "token", 1, ticketPageSize).Return(&models.BookingPage{
		Data:  []models.Booking{bookingDeparting("b1", accountNow, models.Ticket{ID: "t1", FlightID: "gone"})},
		Total: 1,
	}, nil)
	api.On("GetFlight", mock.Anything, "gone").Return(nil, &flightapi.APIError{Status: 404, Message: "Flight not found"})

	_, err := svc.Tickets(context.Background(), "token", TicketTabCancelled)
	assert.ErrorIs(t, err, flightapi.ErrNotFound)
}

func TestParseTicketTab(t *testing.T) {
	tab, err := ParseTicketTab("")
	require.NoError(t, err)
	assert.Equal(t, TicketTabActive, tab)

	tab, err = ParseTicketTab("Cancelled")
	require.NoError(t, err)
	assert.Equal(t, TicketTabCancelled, tab)

	_, err = ParseTicketTab("upcoming")
	assert.ErrorIs(t, err, ErrInvalidTab)
}

func TestAccountService_CancelTicket(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	api.On("CancelTicket", mock.Anything, "token", "t1").Return(nil).Once()
	api.On("CancelTicket", mock.Anything, "token", "t2").Return(&flightapi.APIError{Status: 400, Message: "Ticket already cancelled"}).Once()

	require.NoError(t, svc.CancelTicket(context.Background(), "token", "t1"))
	err := svc.CancelTicket(context.Background(), "token", "t2")
	assert.EqualError(t, err, "Ticket already cancelled")
	api.AssertExpectations(t)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestAccountService(api)

	stored := &models.UserProfile{FullName: "Dana Levi", Age: 34, Gender: "female"}
	api.On("UpdateProfile", mock.Anything, "token", models.UserProfile{FullName: "Dana Levi", Age: 34, Gender: "female"}).
		Return(stored, nil).Once()

	got, err := svc.UpdateProfile(context.Background(), "token", models.UserProfile{FullName: "  Dana Levi ", Age: 34, Gender: "female"})
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = svc.UpdateProfile(context.Background(), "token", models.UserProfile{FullName: " "})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = svc.UpdateProfile(context.Background(), "token", models.UserProfile{FullName: "Dana", Age: -1})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	api.AssertExpectations(t)
}
