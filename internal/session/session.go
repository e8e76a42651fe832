// Package session mirrors the external auth provider's session. All access to
// the mirrored state goes through a Store; nothing is kept in package globals.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoSession means the request carries no usable session
	ErrNoSession = errors.New("no session")
	// ErrAuthFailed means the provider rejected the credentials or token
	ErrAuthFailed = errors.New("authentication failed")
	// ErrAuthUnavailable means the provider could not be reached or answered with a server error
	ErrAuthUnavailable = errors.New("auth provider unavailable")
)

// Session is a signed-in user's session with the auth provider
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email,omitempty"`
}

// Expired reports whether the access token can no longer be used at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store keeps sessions by opaque session ID
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, id string, s *Session) error
	Clear(ctx context.Context, id string) error
}

// Provider is the external auth service
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// MemoryStore is a Store for a single server process
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return &s, nil
}

func (m *MemoryStore) Set(ctx context.Context, id string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = *s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
