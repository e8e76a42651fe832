package flightapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/models"
	"go.uber.org/zap"
)

// Errors an *APIError unwraps to, by status
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// maxErrorBody caps how much of a failed response is read into an error message
const maxErrorBody = 4096

// APIError is a non-2xx answer from the flight API. Message is the response
// body as sent, or a default for the call when the body is empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Client talks to the external flight and booking API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type call struct {
	method   string
	path     string
	query    url.Values
	token    string
	body     interface{}
	out      interface{}
	failText string
}

func (c *Client) do(ctx context.Context, cl call) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Flight API request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err))
		return fmt.Errorf("%s: %w", cl.failText, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Flight API request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := string(data)
		if strings.TrimSpace(msg) == "" {
			msg = cl.failText
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if cl.out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SearchFlights handles GET /flights/search
func (c *Client) SearchFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error) {
	var flights []models.Flight
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/flights/search",
		query:    searchQuery(params),
		out:      &flights,
		failText: "Failed to fetch flights",
	})
	return flights, err
}

// RecommendedFlights handles GET /flights/recommended
func (c *Client) RecommendedFlights(ctx context.Context, params models.SearchParams) ([]models.Flight, error) {
	var flights []models.Flight
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/flights/recommended",
		query:    searchQuery(params),
		out:      &flights,
		failText: "Failed to fetch recommended flights",
	})
	return flights, err
}

func searchQuery(p models.SearchParams) url.Values {
	return url.Values{
		"origin":      {p.Origin},
		"destination": {p.Destination},
		"date":        {p.Date},
	}
}

// GetFlight handles GET /flights/{id}
func (c *Client) GetFlight(ctx context.Context, id string) (*models.Flight, error) {
	var flight models.Flight
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/flights/" + url.PathEscape(id),
		out:      &flight,
		failText: "Failed to fetch flight details",
	})
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

// CreateBooking handles POST /bookings/create. A 2xx answer with success=false
// is a rejection like any other.
func (c *Client) CreateBooking(ctx context.Context, token string, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	var resp models.CreateBookingResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/bookings/create",
		token:    token,
		body:     req,
		out:      &resp,
		failText: "Failed to create booking",
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to create booking"
		}
		return nil, &APIError{Status: http.StatusOK, Message: msg}
	}
	return &resp, nil
}

// ListBookings handles GET /bookings
func (c *Client) ListBookings(ctx context.Context, token string, page, limit int) (*models.BookingPage, error) {
	var p models.BookingPage
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/bookings",
		query: url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(limit)},
		},
		token:    token,
		out:      &p,
		failText: "Failed to fetch bookings",
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CancelTicket handles PATCH /bookings/tickets/{id}/status
func (c *Client) CancelTicket(ctx context.Context, token, ticketID string) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		path:     "/bookings/tickets/" + url.PathEscape(ticketID) + "/status",
		token:    token,
		failText: "Failed to cancel ticket",
	})
}

// GetProfile handles GET /users/profile
func (c *Client) GetProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users/profile",
		token:    token,
		out:      &p,
		failText: "Failed to fetch user profile",
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile handles POST /users/profile
func (c *Client) UpdateProfile(ctx context.Context, token string, profile models.UserProfile) (*models.UserProfile, error) {
	var p models.UserProfile
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/users/profile",
		token:    token,
		body:     profile,
		out:      &p,
		failText: "Failed to update user profile",
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
