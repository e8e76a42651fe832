package booking

import "github.com/cx-tal-miterani/flight-booking-frontend/internal/models"

// LegView is a read-only snapshot of one leg for rendering
type LegView struct {
	Leg            Leg              `json:"leg"`
	Flight         *models.Flight   `json:"flight"`
	FareClass      models.FareClass `json:"fareClass"`
	SeatQuantity   int              `json:"seatQuantity"`
	AvailableSeats int              `json:"availableSeats"`
	UnitPrice      float64          `json:"unitPrice"`
	Subtotal       float64          `json:"subtotal"`
	PassengerNames []string         `json:"passengerNames"`
}

// View is a read-only snapshot of a configuration, re-derived after every mutation
type View struct {
	Outbound   LegView  `json:"outbound"`
	Return     *LegView `json:"return,omitempty"`
	TotalPrice float64  `json:"totalPrice"`
	Complete   bool     `json:"complete"`
}

func (l *LegSelection) view(leg Leg) LegView {
	names := make([]string, len(l.PassengerNames))
	copy(names, l.PassengerNames)
	return LegView{
		Leg:            leg,
		Flight:         l.Flight,
		FareClass:      l.FareClass,
		SeatQuantity:   l.SeatQuantity,
		AvailableSeats: l.Flight.AvailableSeats(l.FareClass),
		UnitPrice:      l.Flight.Price(l.FareClass),
		Subtotal:       l.Subtotal(),
		PassengerNames: names,
	}
}

// View snapshots the configuration. Complete reports whether Validate passes.
func (c *Configuration) View() View {
	v := View{
		Outbound:   c.outbound.view(LegOutbound),
		TotalPrice: c.TotalPrice(),
		Complete:   c.Validate() == nil,
	}
	if c.ret != nil {
		r := c.ret.view(LegReturn)
		v.Return = &r
	}
	return v
}
