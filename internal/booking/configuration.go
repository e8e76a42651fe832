// Package booking holds the in-progress configuration of a booking: per leg, the
// selected fare class, the seat quantity and one passenger name per seat.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
)

var (
	// ErrNoDepartureFlight is returned when a booking is started without an outbound flight
	ErrNoDepartureFlight = errors.New("no departure flight selected")
	// ErrLegNotPresent is returned when the return leg is addressed on a one-way booking
	ErrLegNotPresent = errors.New("leg not present in booking")
	// ErrUnknownLeg is returned for a leg name other than outbound or return
	ErrUnknownLeg = errors.New("unknown leg")
	// ErrUnknownFareClass is returned for a fare class outside FareClasses
	ErrUnknownFareClass = errors.New("unknown fare class")
	// ErrPassengerIndex is returned when a passenger slot does not exist
	ErrPassengerIndex = errors.New("passenger index out of range")
)

const missingPassengerNames = "missing passenger names"

// ValidationError blocks a submission before it reaches the network
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Leg identifies the direction of a flight within a booking
type Leg string

// Legs of a round trip
const (
	LegOutbound Leg = "outbound"
	LegReturn   Leg = "return"
)

// ParseLeg converts a path segment into a Leg
func ParseLeg(s string) (Leg, error) {
	switch Leg(s) {
	case LegOutbound, LegReturn:
		return Leg(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeg, s)
}

// LegSelection is the configuration of one leg.
// SeatQuantity stays within [1, available seats of FareClass] and
// len(PassengerNames) == SeatQuantity.
type LegSelection struct {
	Flight         *models.Flight
	FareClass      models.FareClass
	SeatQuantity   int
	PassengerNames []string
}

func newLegSelection(f *models.Flight) *LegSelection {
	return &LegSelection{
		Flight:         f,
		FareClass:      models.FareClassEconomy,
		SeatQuantity:   1,
		PassengerNames: []string{""},
	}
}

// Subtotal is the price of every seat of the leg
func (l *LegSelection) Subtotal() float64 {
	return l.Flight.Price(l.FareClass) * float64(l.SeatQuantity)
}

// resize sets the quantity and keeps the names in step with it.
// Names below the shorter of the two lengths survive.
func (l *LegSelection) resize(n int) {
	l.SeatQuantity = n
	switch {
	case len(l.PassengerNames) > n:
		l.PassengerNames = l.PassengerNames[:n]
	case len(l.PassengerNames) < n:
		for len(l.PassengerNames) < n {
			l.PassengerNames = append(l.PassengerNames, "")
		}
	}
}

// Configuration is the booking configuration of one booking session.
// It is not safe for concurrent use; the owner serializes access.
type Configuration struct {
	outbound *LegSelection
	ret      *LegSelection
}

// New creates a configuration for the loaded flights. ret may be nil for a one-way booking.
func New(outbound, ret *models.Flight) (*Configuration, error) {
	if outbound == nil {
		return nil, ErrNoDepartureFlight
	}
	c := &Configuration{outbound: newLegSelection(outbound)}
	if ret != nil {
		c.ret = newLegSelection(ret)
	}
	return c, nil
}

func (c *Configuration) leg(leg Leg) (*LegSelection, error) {
	switch leg {
	case LegOutbound:
		return c.outbound, nil
	case LegReturn:
		if c.ret == nil {
			return nil, ErrLegNotPresent
		}
		return c.ret, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLeg, leg)
}

func (c *Configuration) legs() []*LegSelection {
	if c.ret == nil {
		return []*LegSelection{c.outbound}
	}
	return []*LegSelection{c.outbound, c.ret}
}

// HasReturn reports whether the booking includes a return leg
func (c *Configuration) HasReturn() bool {
	return c.ret != nil
}

// SelectFareClass switches the fare class of a leg. Seat availability differs
// per class, so quantity always goes back to 1, even when class is unchanged.
func (c *Configuration) SelectFareClass(leg Leg, class models.FareClass) error {
	if !class.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFareClass, class)
	}
	l, err := c.leg(leg)
	if err != nil {
		return err
	}
	l.FareClass = class
	l.PassengerNames = nil
	l.resize(1)
	return nil
}

// ChangeSeatQuantity adds delta to the seat quantity of a leg, clamped to
// [1, available seats of the selected class], and returns the new quantity.
func (c *Configuration) ChangeSeatQuantity(leg Leg, delta int) (int, error) {
	l, err := c.leg(leg)
	if err != nil {
		return 0, err
	}
	// compare against the headroom instead of adding first so extreme deltas cannot wrap
	avail := l.Flight.AvailableSeats(l.FareClass)
	var n int
	switch {
	case delta > 0 && delta > avail-l.SeatQuantity:
		n = avail
	case delta < 0 && delta < 1-l.SeatQuantity:
		n = 1
	default:
		n = l.SeatQuantity + delta
	}
	if n > avail {
		n = avail
	}
	if n < 1 {
		n = 1
	}
	l.resize(n)
	return n, nil
}

// SetPassengerName sets the name of the passenger in slot index
func (c *Configuration) SetPassengerName(leg Leg, index int, value string) error {
	l, err := c.leg(leg)
	if err != nil {
		return err
	}
	if index < 0 || index >= l.SeatQuantity {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPassengerIndex, index, l.SeatQuantity)
	}
	l.PassengerNames[index] = value
	return nil
}

// TotalPrice sums unit price times quantity over the present legs
func (c *Configuration) TotalPrice() float64 {
	var total float64
	for _, l := range c.legs() {
		total += l.Subtotal()
	}
	return total
}

// Validate fails when any passenger name is blank
func (c *Configuration) Validate() error {
	for _, l := range c.legs() {
		for _, name := range l.PassengerNames {
			if strings.TrimSpace(name) == "" {
				return &ValidationError{Message: missingPassengerNames}
			}
		}
	}
	return nil
}

// Items flattens the configuration into one record per seat, outbound first
func (c *Configuration) Items() []models.BookingItem {
	var items []models.BookingItem
	for _, l := range c.legs() {
		for _, name := range l.PassengerNames {
			items = append(items, models.BookingItem{
				FlightID:      l.Flight.ID,
				SeatClass:     l.FareClass,
				PassengerName: name,
			})
		}
	}
	return items
}

// Request builds the body sent to the booking API
func (c *Configuration) Request() models.CreateBookingRequest {
	return models.CreateBookingRequest{
		Data:         c.Items(),
		ReturnBooked: c.HasReturn(),
	}
}

// Submitter hands a booking request to the booking API
type Submitter interface {
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) error
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, req models.CreateBookingRequest) error

func (f SubmitterFunc) CreateBooking(ctx context.Context, req models.CreateBookingRequest) error {
	return f(ctx, req)
}

// Submit validates the configuration and issues exactly one booking request.
// A rejected request is returned unchanged; nothing is retried.
func (c *Configuration) Submit(ctx context.Context, s Submitter) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.CreateBooking(ctx, c.Request())
}
