package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var searchToday = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestFlightService(api FlightAPI) *flightServiceImpl {
	svc := NewFlightService(api, zap.NewNop()).(*flightServiceImpl)
	svc.now = func() time.Time { return searchToday }
	return svc
}

func TestFlightService_SearchOneWay(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestFlightService(api)

	flights := []models.Flight{*testFlight("f1", searchToday.Add(48*time.Hour))}
	api.On("SearchFlights", mock.Anything, models.SearchParams{
		Origin: "tel aviv", Destination: "london", Date: "2026-10-20",
	}).Return(flights, nil).Once()

	result, err := svc.Search(context.Background(), SearchRequest{
		Origin: "  Tel Aviv ", Destination: "LONDON", Date: "2026-10-20",
	})
	require.NoError(t, err)
	assert.Equal(t, flights, result.Departure)
	assert.Empty(t, result.Return)
	assert.NotNil(t, result.Return, "empty list, not null")
	api.AssertExpectations(t)
}

func TestFlightService_SearchRoundTripSwapsRoute(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestFlightService(api)

	out := []models.Flight{*testFlight("f1", searchToday.Add(48*time.Hour))}
	back := []models.Flight{*testFlight("f2", searchToday.Add(120*time.Hour))}
	api.On("SearchFlights", mock.Anything, models.SearchParams{
		Origin: "tel aviv", Destination: "london", Date: "2026-10-20",
	}).Return(out, nil).Once()
	api.On("SearchFlights", mock.Anything, models.SearchParams{
		Origin: "london", Destination: "tel aviv", Date: "2026-10-25",
	}).Return(back, nil).Once()

	result, err := svc.Search(context.Background(), SearchRequest{
		Origin: "Tel Aviv", Destination: "London", Date: "2026-10-20", ReturnDate: "2026-10-25",
	})
	require.NoError(t, err)
	assert.Equal(t, out, result.Departure)
	assert.Equal(t, back, result.Return)
	api.AssertExpectations(t)
}

func TestFlightService_RecommendedUsesRecommendedEndpoint(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestFlightService(api)

	api.On("RecommendedFlights", mock.Anything, mock.Anything).Return(nil, nil).Once()

	result, err := svc.Recommended(context.Background(), SearchRequest{
		Origin: "paris", Destination: "rome", Date: "2026-10-17",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Departure)
	api.AssertNotCalled(t, "SearchFlights", mock.Anything, mock.Anything)
	api.AssertExpectations(t)
}

func TestFlightService_SearchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"missing origin", SearchRequest{Destination: "london", Date: "2026-10-20"}},
		{"missing destination", SearchRequest{Origin: "paris", Date: "2026-10-20"}},
		{"bad date", SearchRequest{Origin: "paris", Destination: "london", Date: "20/10/2026"}},
		{"date in the past", SearchRequest{Origin: "paris", Destination: "london", Date: "2026-10-16"}},
		{"date too far", SearchRequest{Origin: "paris", Destination: "london", Date: "2027-10-18"}},
		{"return before departure", SearchRequest{Origin: "paris", Destination: "london", Date: "2026-10-20", ReturnDate: "2026-10-19"}},
		{"bad return date", SearchRequest{Origin: "paris", Destination: "london", Date: "2026-10-20", ReturnDate: "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockFlightAPI)
			svc := newTestFlightService(api)

			_, err := svc.Search(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidSearch)
			api.AssertNotCalled(t, "SearchFlights", mock.Anything, mock.Anything)
		})
	}
}

func TestFlightService_SearchFailure(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestFlightService(api)

	boom := errors.New("connection refused")
	api.On("SearchFlights", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := svc.Search(context.Background(), SearchRequest{
		Origin: "paris", Destination: "london", Date: "2026-10-20", ReturnDate: "2026-10-22",
	})
	assert.ErrorIs(t, err, boom)
}

func TestFlightService_GetFlight(t *testing.T) {
	api := new(mocks.MockFlightAPI)
	svc := newTestFlightService(api)

	f := testFlight("f1", searchToday)
	api.On("GetFlight", mock.Anything, "f1").Return(f, nil).Once()

	got, err := svc.GetFlight(context.Background(), "f1")
	require.NoError(t, err)
	assert.Same(t, f, got)
}
