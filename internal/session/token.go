package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the front end reads
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenInspector reads user and expiry from access tokens issued by the auth
// provider. Without a secret the signature is not checked; the flight API
// still verifies every token it receives.
type TokenInspector struct {
	secret []byte
}

// NewTokenInspector creates a new TokenInspector
func NewTokenInspector(secret string) *TokenInspector {
	return &TokenInspector{secret: []byte(secret)}
}

// Inspect parses the token and returns its claims
func (ti *TokenInspector) Inspect(token string) (*Claims, error) {
	var claims Claims
	if len(ti.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		return &claims, nil
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &claims, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return &claims, nil
}

// SessionFromTokens builds a Session from an issued token pair. An exp claim
// wins over expiresIn because it is what the API enforces.
func (ti *TokenInspector) SessionFromTokens(access, refresh string, expiresIn int, now time.Time) (*Session, error) {
	claims, err := ti.Inspect(access)
	if err != nil {
		return nil, err
	}
	s := &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	switch {
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	case expiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	}
	if s.UserID == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrAuthFailed)
	}
	return s, nil
}
