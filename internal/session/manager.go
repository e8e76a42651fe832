package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	CookieName   = "sb-session"
	sessionIDKey = "sid"
	cookieMaxAge = 7 * 24 * 60 * 60
)

// Manager binds a browser cookie to a Store entry and refreshes expired
// access tokens through the Provider when a refresh token is on file.
type Manager struct {
	cookies  sessions.Store
	store    Store
	provider Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager creates a new Manager
func NewManager(secret []byte, secure bool, store Store, provider Provider, logger *zap.Logger) *Manager {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{
		cookies:  cs,
		store:    store,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := m.cookies.Get(r, CookieName)
	if err != nil {
		// a cookie signed with an old secret reads as no session
		return "", ErrNoSession
	}
	id, ok := cookie.Values[sessionIDKey].(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Current returns the session of the request, refreshing it if the access
// token has expired. Missing or unrecoverable sessions yield ErrNoSession.
func (m *Manager) Current(r *http.Request) (*Session, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Expired(m.now()) {
		return s, nil
	}
	if s.RefreshToken == "" || m.provider == nil {
		_ = m.store.Clear(ctx, id)
		return nil, ErrNoSession
	}
	return m.refresh(ctx, id, s)
}

func (m *Manager) refresh(ctx context.Context, id string, s *Session) (*Session, error) {
	fresh, err := m.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if !errors.Is(err, ErrAuthFailed) {
			// keep the session so the next request can retry once the provider is back
			m.logger.Warn("Session refresh unavailable", zap.String("userId", s.UserID), zap.Error(err))
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
		m.logger.Info("Session refresh rejected", zap.String("userId", s.UserID), zap.Error(err))
		_ = m.store.Clear(ctx, id)
		return nil, ErrNoSession
	}
	if err := m.store.Set(ctx, id, fresh); err != nil {
		return nil, err
	}
	m.logger.Debug("Session refreshed", zap.String("userId", fresh.UserID))
	return fresh, nil
}

// Begin stores s under a new session ID and sets the session cookie
func (m *Manager) Begin(w http.ResponseWriter, r *http.Request, s *Session) error {
	cookie, _ := m.cookies.Get(r, CookieName)
	if old, ok := cookie.Values[sessionIDKey].(string); ok && old != "" {
		_ = m.store.Clear(r.Context(), old)
	}

	id := uuid.New().String()
	if err := m.store.Set(r.Context(), id, s); err != nil {
		return err
	}
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// End clears the stored session and expires the cookie
func (m *Manager) End(w http.ResponseWriter, r *http.Request) error {
	id, err := m.sessionID(r)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	if id != "" {
		if err := m.store.Clear(r.Context(), id); err != nil {
			return err
		}
	}
	cookie, _ := m.cookies.Get(r, CookieName)
	cookie.Options.MaxAge = -1
	cookie.Values = map[interface{}]interface{}{}
	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session cookie: %w", err)
	}
	return nil
}

// SignIn signs in with the provider and begins a session
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, email, password string) (*Session, error) {
	s, err := m.provider.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		return nil, err
	}
	if err := m.Begin(w, r, s); err != nil {
		return nil, err
	}
	m.logger.Info("User signed in", zap.String("userId", s.UserID))
	return s, nil
}

// Exchange completes a code-based sign in and begins a session
func (m *Manager) Exchange(w http.ResponseWriter, r *http.Request, code, verifier string) (*Session, error) {
	s, err := m.provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		return nil, err
	}
	if err := m.Begin(w, r, s); err != nil {
		return nil, err
	}
	return s, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
