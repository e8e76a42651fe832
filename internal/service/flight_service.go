package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSearch is returned when search input fails validation
var ErrInvalidSearch = errors.New("invalid flight search")

const dateLayout = "2006-01-02"

// SearchRequest is a flight search as entered by the user
type SearchRequest struct {
	Origin      string
	Destination string
	Date        string
	ReturnDate  string
}

// SearchResult holds the flights for each leg of a search
type SearchResult struct {
	Departure []models.Flight `json:"departure"`
	Return    []models.Flight `json:"return"`
}

// FlightService defines the interface for flight lookups
type FlightService interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Recommended(ctx context.Context, req SearchRequest) (*SearchResult, error)
	GetFlight(ctx context.Context, id string) (*models.Flight, error)
}

// flightServiceImpl implements FlightService
type flightServiceImpl struct {
	api    FlightAPI
	logger *zap.Logger
	now    func() time.Time
}

// NewFlightService creates a new FlightService
func NewFlightService(api FlightAPI, logger *zap.Logger) FlightService {
	return &flightServiceImpl{api: api, logger: logger, now: time.Now}
}

func invalidSearch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSearch, fmt.Sprintf(format, args...))
}

// normalize validates req and returns the departure and optional return
// search parameters. Dates may lie between today and one year ahead.
func (s *flightServiceImpl) normalize(req SearchRequest) (models.SearchParams, *models.SearchParams, error) {
	origin := strings.ToLower(strings.TrimSpace(req.Origin))
	destination := strings.ToLower(strings.TrimSpace(req.Destination))
	if origin == "" || destination == "" {
		return models.SearchParams{}, nil, invalidSearch("origin and destination are required")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	latest := today.AddDate(1, 0, 0)

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return models.SearchParams{}, nil, invalidSearch("departure date must be YYYY-MM-DD")
	}
	if date.Before(today) || date.After(latest) {
		return models.SearchParams{}, nil, invalidSearch("departure date must be within the next year")
	}
	departure := models.SearchParams{Origin: origin, Destination: destination, Date: date.Format(dateLayout)}

	if strings.TrimSpace(req.ReturnDate) == "" {
		return departure, nil, nil
	}
	returnDate, err := time.Parse(dateLayout, strings.TrimSpace(req.ReturnDate))
	if err != nil {
		return models.SearchParams{}, nil, invalidSearch("return date must be YYYY-MM-DD")
	}
	if returnDate.Before(date) || returnDate.After(latest) {
		return models.SearchParams{}, nil, invalidSearch("return date must fall between the departure date and one year ahead")
	}
	// the return leg flies the route backwards
	ret := models.SearchParams{Origin: destination, Destination: origin, Date: returnDate.Format(dateLayout)}
	return departure, &ret, nil
}

type searchFunc func(ctx context.Context, params models.SearchParams) ([]models.Flight, error)

func (s *flightServiceImpl) run(ctx context.Context, req SearchRequest, search searchFunc) (*SearchResult, error) {
	departure, ret, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{Departure: []models.Flight{}, Return: []models.Flight{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		flights, err := search(gctx, departure)
		if err != nil {
			return err
		}
		if flights != nil {
			result.Departure = flights
		}
		return nil
	})
	if ret != nil {
		g.Go(func() error {
			flights, err := search(gctx, *ret)
			if err != nil {
				return err
			}
			if flights != nil {
				result.Return = flights
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Flight search failed",
			zap.String("origin", departure.Origin),
			zap.String("destination", departure.Destination),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *flightServiceImpl) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	return s.run(ctx, req, s.api.SearchFlights)
}

func (s *flightServiceImpl) Recommended(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	return s.run(ctx, req, s.api.RecommendedFlights)
}

func (s *flightServiceImpl) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	return s.api.GetFlight(ctx, id)
}
