package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrDraftNotFound is returned for unknown, foreign or already closed drafts
	ErrDraftNotFound = errors.New("booking draft not found")
	// ErrSubmissionInFlight is returned while the draft is being submitted
	ErrSubmissionInFlight = errors.New("booking submission already in progress")
)

// Reasons a draft is closed, as sent to its watchers
const (
	DraftClosedSubmitted = "submitted"
	DraftClosedDiscarded = "discarded"
	DraftClosedExpired   = "expired"
)

// DraftView is a booking draft as shown to its owner
type DraftView struct {
	ID string `json:"id"`
	booking.View
	Submitting bool      `json:"submitting"`
	Version    uint64    `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DraftPublisher is told about every change to a draft. Calls for one draft
// arrive in version order and must not block.
type DraftPublisher interface {
	PublishDraft(draftID string, view *DraftView)
	CloseDraft(draftID string, reason string)
}

type noopPublisher struct{}

func (noopPublisher) PublishDraft(string, *DraftView) {}
func (noopPublisher) CloseDraft(string, string)       {}

// BookingService manages booking drafts: one booking configuration per
// booking session, owned by the signed-in user who started it.
type BookingService interface {
	CreateDraft(ctx context.Context, owner, departureFlightID, returnFlightID string) (*DraftView, error)
	GetDraft(ctx context.Context, owner, draftID string) (*DraftView, error)
	SelectFareClass(ctx context.Context, owner, draftID string, leg booking.Leg, class models.FareClass) (*DraftView, error)
	ChangeSeatQuantity(ctx context.Context, owner, draftID string, leg booking.Leg, delta int) (*DraftView, error)
	SetPassengerName(ctx context.Context, owner, draftID string, leg booking.Leg, index int, name string) (*DraftView, error)
	SubmitDraft(ctx context.Context, owner, draftID, token string) (*models.CreateBookingResponse, error)
	DiscardDraft(ctx context.Context, owner, draftID string) error
	ReapExpired() int
}

type draft struct {
	mu         sync.Mutex
	owner      string
	config     *booking.Configuration
	submitting bool
	closed     bool
	version    uint64
	updatedAt  time.Time
}

// view must be called with d.mu held
func (d *draft) view(id string) *DraftView {
	return &DraftView{
		ID:         id,
		View:       d.config.View(),
		Submitting: d.submitting,
		Version:    d.version,
		UpdatedAt:  d.updatedAt,
	}
}

// bookingServiceImpl implements BookingService
type bookingServiceImpl struct {
	api       FlightAPI
	publisher DraftPublisher
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	drafts map[string]*draft
}

// NewBookingService creates a new BookingService. Drafts untouched for longer
// than ttl are dropped by ReapExpired.
func NewBookingService(api FlightAPI, publisher DraftPublisher, ttl time.Duration, logger *zap.Logger) BookingService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &bookingServiceImpl{
		api:       api,
		publisher: publisher,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		drafts:    make(map[string]*draft),
	}
}

func (s *bookingServiceImpl) CreateDraft(ctx context.Context, owner, departureFlightID, returnFlightID string) (*DraftView, error) {
	if departureFlightID == "" {
		return nil, booking.ErrNoDepartureFlight
	}

	departure, err := s.api.GetFlight(ctx, departureFlightID)
	if err != nil {
		return nil, err
	}
	var ret *models.Flight
	if returnFlightID != "" {
		if ret, err = s.api.GetFlight(ctx, returnFlightID); err != nil {
			return nil, err
		}
	}

	config, err := booking.New(departure, ret)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	d := &draft{owner: owner, config: config, updatedAt: s.now()}

	s.mu.Lock()
	s.drafts[id] = d
	s.mu.Unlock()

	s.logger.Info("Booking draft created",
		zap.String("draftId", id),
		zap.String("userId", owner),
		zap.String("departureFlight", departureFlightID),
		zap.String("returnFlight", returnFlightID))

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view(id), nil
}

func (s *bookingServiceImpl) lookup(owner, draftID string) (*draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[draftID]
	s.mu.RUnlock()
	if !ok || d.owner != owner {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (s *bookingServiceImpl) GetDraft(ctx context.Context, owner, draftID string) (*DraftView, error) {
	d, err := s.lookup(owner, draftID)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDraftNotFound
	}
	return d.view(draftID), nil
}

// mutate applies fn to the draft's configuration. The configuration is frozen
// while a submission is in flight so the request matches what the user saw.
// Snapshots are published under d.mu so watchers see them in version order.
func (s *bookingServiceImpl) mutate(owner, draftID string, fn func(c *booking.Configuration) error) (*DraftView, error) {
	d, err := s.lookup(owner, draftID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDraftNotFound
	}
	if d.submitting {
		return nil, ErrSubmissionInFlight
	}
	if err := fn(d.config); err != nil {
		return nil, err
	}
	view := s.touch(d, draftID)
	s.publisher.PublishDraft(draftID, view)
	return view, nil
}

// touch bumps the draft's version and returns its new snapshot; d.mu must be held
func (s *bookingServiceImpl) touch(d *draft, draftID string) *DraftView {
	d.version++
	d.updatedAt = s.now()
	return d.view(draftID)
}

func (s *bookingServiceImpl) SelectFareClass(ctx context.Context, owner, draftID string, leg booking.Leg, class models.FareClass) (*DraftView, error) {
	return s.mutate(owner, draftID, func(c *booking.Configuration) error {
		return c.SelectFareClass(leg, class)
	})
}

func (s *bookingServiceImpl) ChangeSeatQuantity(ctx context.Context, owner, draftID string, leg booking.Leg, delta int) (*DraftView, error) {
	return s.mutate(owner, draftID, func(c *booking.Configuration) error {
		_, err := c.ChangeSeatQuantity(leg, delta)
		return err
	})
}

func (s *bookingServiceImpl) SetPassengerName(ctx context.Context, owner, draftID string, leg booking.Leg, index int, name string) (*DraftView, error) {
	return s.mutate(owner, draftID, func(c *booking.Configuration) error {
		return c.SetPassengerName(leg, index, name)
	})
}

// SubmitDraft sends the draft to the booking API. At most one submission per
// draft is in flight; a successful one ends the draft, a failed one leaves it
// editable with the API's message returned as is.
func (s *bookingServiceImpl) SubmitDraft(ctx context.Context, owner, draftID, token string) (*models.CreateBookingResponse, error) {
	d, err := s.lookup(owner, draftID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	// the draft may have been discarded or reaped since lookup
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDraftNotFound
	}
	if d.submitting {
		d.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if err := d.config.Validate(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	d.submitting = true
	s.publisher.PublishDraft(draftID, s.touch(d, draftID))
	d.mu.Unlock()

	var resp *models.CreateBookingResponse
	// mutators and discard bail out while submitting is set, so the configuration is only read here
	err = d.config.Submit(ctx, booking.SubmitterFunc(func(ctx context.Context, req models.CreateBookingRequest) error {
		s.logger.Info("Submitting booking",
			zap.String("draftId", draftID),
			zap.Int("seats", len(req.Data)),
			zap.Bool("returnBooked", req.ReturnBooked))
		r, err := s.api.CreateBooking(ctx, token, req)
		if err == nil && r == nil {
			r = &models.CreateBookingResponse{}
		}
		resp = r
		return err
	}))

	if err != nil {
		d.mu.Lock()
		d.submitting = false
		s.publisher.PublishDraft(draftID, s.touch(d, draftID))
		d.mu.Unlock()
		s.logger.Warn("Booking submission failed", zap.String("draftId", draftID), zap.Error(err))
		return nil, err
	}

	s.close(draftID, d, DraftClosedSubmitted)
	s.logger.Info("Booking submitted", zap.String("draftId", draftID), zap.String("bookingId", resp.BookingID))
	return resp, nil
}

func (s *bookingServiceImpl) DiscardDraft(ctx context.Context, owner, draftID string) error {
	d, err := s.lookup(owner, draftID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	d.mu.Lock()
	defer s.mu.Unlock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDraftNotFound
	}
	if d.submitting {
		return ErrSubmissionInFlight
	}
	s.closeLocked(draftID, d, DraftClosedDiscarded)
	return nil
}

// close ends a draft for good
func (s *bookingServiceImpl) close(draftID string, d *draft, reason string) {
	s.mu.Lock()
	d.mu.Lock()
	defer s.mu.Unlock()
	defer d.mu.Unlock()
	s.closeLocked(draftID, d, reason)
}

// closeLocked must be called with s.mu and d.mu held, in that order
func (s *bookingServiceImpl) closeLocked(draftID string, d *draft, reason string) {
	d.closed = true
	d.submitting = false
	delete(s.drafts, draftID)
	s.publisher.CloseDraft(draftID, reason)
}

// ReapExpired drops drafts abandoned for longer than the TTL and returns how many went
func (s *bookingServiceImpl) ReapExpired() int {
	cutoff := s.now().Add(-s.ttl)

	n := 0
	s.mu.Lock()
	for id, d := range s.drafts {
		d.mu.Lock()
		if !d.submitting && d.updatedAt.Before(cutoff) {
			s.closeLocked(id, d, DraftClosedExpired)
			n++
		}
		d.mu.Unlock()
	}
	s.mu.Unlock()

	if n > 0 {
		s.logger.Debug("Reaped booking drafts", zap.Int("count", n))
	}
	return n
}
