package models

import "time"

// BookingItem is one seat of a booking request
type BookingItem struct {
	FlightID      string    `json:"flight_id"`
	SeatClass     FareClass `json:"seat_class"`
	PassengerName string    `json:"passenger_name"`
}

// CreateBookingRequest is the body of POST /bookings/create
type CreateBookingRequest struct {
	Data         []BookingItem `json:"data"`
	ReturnBooked bool          `json:"return_booked"`
}

// CreateBookingResponse is the flight API's answer to a booking request
type CreateBookingResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
}

// FlightSummary is the flight data embedded in a booking
type FlightSummary struct {
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Duration      string    `json:"duration"`
}

// Ticket represents a single passenger seat within a booking
type Ticket struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	PassengerName string    `json:"passenger_name"`
	SeatClass     FareClass `json:"seat_class"`
	FlightID      string    `json:"flight_id"`
	Active        bool      `json:"active"`
}

// Booking represents a booking of the signed-in user
type Booking struct {
	ID             string        `json:"id"`
	FlightID       string        `json:"flight_id"`
	ReturnFlightID *string       `json:"return_flight_id"`
	PassengerName  string        `json:"passenger_name,omitempty"`
	SeatClass      string        `json:"seat_class,omitempty"`
	TotalPricePaid float64       `json:"total_price_paid"`
	CreatedAt      time.Time     `json:"created_at"`
	Flights        FlightSummary `json:"flights"`
	Tickets        []Ticket      `json:"tickets"`
}

// BookingPage is one page of GET /bookings
type BookingPage struct {
	Data  []Booking `json:"data"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
}

// UserProfile is the profile stored by the flight API
type UserProfile struct {
	FullName        string `json:"full_name"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

// CreateDraftRequest starts a booking draft for the selected flights
type CreateDraftRequest struct {
	DepartureFlight string `json:"departureFlight"`
	ReturnFlight    string `json:"returnFlight,omitempty"`
}

// SelectFareClassRequest changes the fare class of a leg
type SelectFareClassRequest struct {
	Class string `json:"class"`
}

// ChangeQuantityRequest adds delta seats to a leg
type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

// PassengerNameRequest sets the name of one passenger slot
type PassengerNameRequest struct {
	Name string `json:"name"`
}

// LoginRequest represents an email/password sign in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
