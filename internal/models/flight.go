package models

import (
	"fmt"
	"time"
)

// Flight represents a flight as returned by the flight API
type Flight struct {
	ID              string    `json:"id"`
	Airline         string    `json:"airline"`
	FlightNumber    string    `json:"flightNumber"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	Duration        string    `json:"duration"`
	EconomyPrice    float64   `json:"economy_price"`
	PremiumPrice    float64   `json:"premium_price"`
	BusinessPrice   float64   `json:"business_price"`
	FirstClassPrice float64   `json:"first_class_price"`
	EconomySeats    int       `json:"economy_seats"`
	PremiumSeats    int       `json:"premium_seats"`
	BusinessSeats   int       `json:"business_seats"`
	FirstClassSeats int       `json:"first_class_seats"`
	CreatedAt       time.Time `json:"created_at"`
}

// Price returns the unit price of a seat in the given fare class
func (f *Flight) Price(class FareClass) float64 {
	switch class {
	case FareClassEconomy:
		return f.EconomyPrice
	case FareClassPremium:
		return f.PremiumPrice
	case FareClassBusiness:
		return f.BusinessPrice
	case FareClassFirst:
		return f.FirstClassPrice
	}
	return 0
}

// AvailableSeats returns the seat inventory of the given fare class
func (f *Flight) AvailableSeats(class FareClass) int {
	switch class {
	case FareClassEconomy:
		return f.EconomySeats
	case FareClassPremium:
		return f.PremiumSeats
	case FareClassBusiness:
		return f.BusinessSeats
	case FareClassFirst:
		return f.FirstClassSeats
	}
	return 0
}

type FareClass string

const (
	FareClassEconomy  FareClass = "economy"
	FareClassPremium  FareClass = "premium"
	FareClassBusiness FareClass = "business"
	FareClassFirst    FareClass = "first_class"
)

// FareClasses lists every bookable fare class in cabin order
var FareClasses = []FareClass{
	FareClassEconomy,
	FareClassPremium,
	FareClassBusiness,
	FareClassFirst,
}

// Valid reports whether c is one of the bookable fare classes
func (c FareClass) Valid() bool {
	for _, fc := range FareClasses {
		if c == fc {
			return true
		}
	}
	return false
}

// ParseFareClass converts raw input into a FareClass
func ParseFareClass(s string) (FareClass, error) {
	c := FareClass(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown fare class %q", s)
	}
	return c, nil
}

// SearchParams are the query parameters of a flight search
type SearchParams struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}
