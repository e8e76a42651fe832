package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AuthClient is a Provider backed by a GoTrue-compatible token endpoint
type AuthClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	tokens     *TokenInspector
	now        func() time.Time
}

// NewAuthClient creates a new AuthClient
func NewAuthClient(baseURL, anonKey string, timeout time.Duration, tokens *TokenInspector) *AuthClient {
	return &AuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (e authErrorResponse) message() string {
	for _, m := range []string{e.ErrorDescription, e.Msg, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

// SignInWithPassword signs in with email and password
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// ExchangeCode trades an OAuth/magic-link code for a session
func (c *AuthClient) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	return c.token(ctx, "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
}

// Refresh issues a new access token from a refresh token
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *AuthClient) token(ctx context.Context, grant string, body map[string]string) (*Session, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	u := c.baseURL + "/auth/v1/token?" + url.Values{"grant_type": {grant}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e authErrorResponse
		_ = json.Unmarshal(raw, &e)
		msg := e.message()
		if msg == "" {
			msg = resp.Status
		}
		// only a rejection of the request itself says anything about the user
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrAuthFailed, msg)
		}
		return nil, fmt.Errorf("%w: %s", ErrAuthUnavailable, msg)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token issued", ErrAuthFailed)
	}
	return c.tokens.SessionFromTokens(tr.AccessToken, tr.RefreshToken, tr.ExpiresIn, c.now())
}
