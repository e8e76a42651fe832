package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidTab is returned for a tickets tab other than active or cancelled
	ErrInvalidTab = errors.New("unknown ticket tab")
	// ErrInvalidProfile is returned when a profile update fails validation
	ErrInvalidProfile = errors.New("invalid profile")
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	// ticketPageSize is used when walking every booking to collect tickets
	ticketPageSize = 50
	maxTicketPages = 20
	flightFetches  = 8
)

// TicketTab selects which tickets the tickets view lists
type TicketTab string

const (
	TicketTabActive    TicketTab = "active"
	TicketTabCancelled TicketTab = "cancelled"
)

// ParseTicketTab parses a tab name; empty means active
func ParseTicketTab(s string) (TicketTab, error) {
	switch TicketTab(strings.ToLower(strings.TrimSpace(s))) {
	case "", TicketTabActive:
		return TicketTabActive, nil
	case TicketTabCancelled:
		return TicketTabCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTab, s)
}

// BookingsOverview is one page of bookings split by departure time
type BookingsOverview struct {
	Current []models.Booking `json:"current"`
	Past    []models.Booking `json:"past"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Total   int              `json:"total"`
}

// TicketView is a ticket together with the flight it is for
type TicketView struct {
	models.Ticket
	Flight *models.Flight `json:"flights"`
}

// AccountService defines the interface for the signed-in user's bookings,
// tickets and profile
type AccountService interface {
	Bookings(ctx context.Context, token string, page, limit int) (*BookingsOverview, error)
	Tickets(ctx context.Context, token string, tab TicketTab) ([]TicketView, error)
	CancelTicket(ctx context.Context, token, ticketID string) error
	Profile(ctx context.Context, token string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, token string, profile models.UserProfile) (*models.UserProfile, error)
}

// accountServiceImpl implements AccountService
type accountServiceImpl struct {
	api    FlightAPI
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(api FlightAPI, logger *zap.Logger) AccountService {
	return &accountServiceImpl{api: api, logger: logger, now: time.Now}
}

func (s *accountServiceImpl) Bookings(ctx context.Context, token string, page, limit int) (*BookingsOverview, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	result, err := s.api.ListBookings(ctx, token, page, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overview := &BookingsOverview{
		Current: []models.Booking{},
		Past:    []models.Booking{},
		Page:    result.Page,
		Limit:   result.Limit,
		Total:   result.Total,
	}
	for _, b := range result.Data {
		if b.Flights.DepartureTime.After(now) {
			overview.Current = append(overview.Current, b)
		} else {
			overview.Past = append(overview.Past, b)
		}
	}
	return overview, nil
}

// allBookings walks the booking pages until total is reached
func (s *accountServiceImpl) allBookings(ctx context.Context, token string) ([]models.Booking, error) {
	var bookings []models.Booking
	for page := 1; page <= maxTicketPages; page++ {
		result, err := s.api.ListBookings(ctx, token, page, ticketPageSize)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, result.Data...)
		if len(result.Data) == 0 || len(bookings) >= result.Total {
			return bookings, nil
		}
	}
	s.logger.Warn("Booking list truncated", zap.Int("pages", maxTicketPages))
	return bookings, nil
}

// Tickets flattens the user's bookings into tickets and loads the flight of
// each one. Each distinct flight is fetched once.
func (s *accountServiceImpl) Tickets(ctx context.Context, token string, tab TicketTab) ([]TicketView, error) {
	if tab != TicketTabActive && tab != TicketTabCancelled {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}

	bookings, err := s.allBookings(ctx, token)
	if err != nil {
		return nil, err
	}

	var tickets []models.Ticket
	flightIDs := make(map[string]struct{})
	for _, b := range bookings {
		for _, t := range b.Tickets {
			tickets = append(tickets, t)
			flightIDs[t.FlightID] = struct{}{}
		}
	}

	var mu sync.Mutex
	flights := make(map[string]*models.Flight, len(flightIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flightFetches)
	for id := range flightIDs {
		id := id
		g.Go(func() error {
			f, err := s.api.GetFlight(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load flight %s: %w", id, err)
			}
			mu.Lock()
			flights[id] = f
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	views := []TicketView{}
	for _, t := range tickets {
		f := flights[t.FlightID]
		switch tab {
		case TicketTabActive:
			if !t.Active || f == nil || !f.DepartureTime.After(now) {
				continue
			}
		case TicketTabCancelled:
			if t.Active {
				continue
			}
		}
		views = append(views, TicketView{Ticket: t, Flight: f})
	}
	return views, nil
}

func (s *accountServiceImpl) CancelTicket(ctx context.Context, token, ticketID string) error {
	if err := s.api.CancelTicket(ctx, token, ticketID); err != nil {
		s.logger.Warn("Ticket cancellation failed", zap.String("ticketId", ticketID), zap.Error(err))
		return err
	}
	s.logger.Info("Ticket cancelled", zap.String("ticketId", ticketID))
	return nil
}

func (s *accountServiceImpl) Profile(ctx context.Context, token string) (*models.UserProfile, error) {
	return s.api.GetProfile(ctx, token)
}

func (s *accountServiceImpl) UpdateProfile(ctx context.Context, token string, profile models.UserProfile) (*models.UserProfile, error) {
	profile.FullName = strings.TrimSpace(profile.FullName)
	if profile.FullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidProfile)
	}
	if profile.Age < 0 || profile.Age > 150 {
		return nil, fmt.Errorf("%w: age must be between 0 and 150", ErrInvalidProfile)
	}
	return s.api.UpdateProfile(ctx, token, profile)
}
