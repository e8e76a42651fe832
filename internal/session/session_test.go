package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret, sub, email string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Session{}).Expired(now), "no expiry never expires")
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Set(ctx, "sid", &Session{AccessToken: "a", UserID: "u1"}))
	s, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)

	// returned sessions are copies
	s.UserID = "changed"
	again, _ := store.Get(ctx, "sid")
	assert.Equal(t, "u1", again.UserID)

	require.NoError(t, store.Clear(ctx, "sid"))
	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, time.Hour)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSession)

	s := &Session{AccessToken: "a", RefreshToken: "r", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Set(ctx, "sid", s))
	assert.True(t, mr.Exists("session:sid"))
	assert.Equal(t, 2*time.Hour, mr.TTL("session:sid"))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "r", got.RefreshToken)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	mr.FastForward(2*time.Hour + time.Second)
	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStore_SetPastGraceClears(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisStore(client, time.Minute)
	require.NoError(t, store.Set(ctx, "sid", &Session{UserID: "u1"}))
	assert.Equal(t, fallbackTTL, mr.TTL("session:sid"))

	require.NoError(t, store.Set(ctx, "sid", &Session{UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}))
	assert.False(t, mr.Exists("session:sid"))
}

func TestTokenInspector(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signToken(t, testSecret, "user-1", "asha@example.com", exp)

	t.Run("verified", func(t *testing.T) {
		claims, err := NewTokenInspector(testSecret).Inspect(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "asha@example.com", claims.Email)
	})

	t.Run("unverified without secret", func(t *testing.T) {
		claims, err := NewTokenInspector("").Inspect(tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenInspector("another-secret-another-secret-another").Inspect(tok)
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("expired token still yields claims", func(t *testing.T) {
		old := signToken(t, testSecret, "user-1", "", time.Now().Add(-time.Hour))
		claims, err := NewTokenInspector(testSecret).Inspect(old)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewTokenInspector("").Inspect("not-a-jwt")
		assert.ErrorIs(t, err, ErrAuthFailed)
	})
}

func TestTokenInspector_SessionFromTokens(t *testing.T) {
	now := time.Now()
	exp := now.Add(30 * time.Minute).Truncate(time.Second)
	ti := NewTokenInspector(testSecret)

	s, err := ti.SessionFromTokens(signToken(t, testSecret, "user-1", "a@b.c", exp), "refresh", 3600, now)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "refresh", s.RefreshToken)
	assert.True(t, s.ExpiresAt.Equal(exp), "exp claim wins over expires_in")

	_, err = ti.SessionFromTokens(signToken(t, testSecret, "", "", exp), "", 0, now)
	assert.ErrorIs(t, err, ErrAuthFailed)
}
