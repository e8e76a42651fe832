package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cx-tal-miterani/flight-booking-frontend/internal/config"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/flightapi"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/handlers"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/logger"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/router"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/service"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/session"
	"github.com/cx-tal-miterani/flight-booking-frontend/internal/websocket"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// refreshWindow is how long an expired session stays refreshable
const refreshWindow = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Session storage
	store, closeStore, err := newSessionStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer closeStore()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			zl.Fatal("Failed to generate session secret", zap.Error(err))
		}
		zl.Warn("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	tokens := session.NewTokenInspector(cfg.AuthJWTSecret)
	authClient := session.NewAuthClient(cfg.AuthURL, cfg.AuthAnonKey, cfg.HTTPClientTimeout, tokens)
	sessions := session.NewManager(secret, cfg.IsProduction(), store, authClient, zl)

	// External flight API
	api := flightapi.NewClient(cfg.FlightAPIBaseURL, cfg.HTTPClientTimeout, zl)

	hub := websocket.NewHub(zl, originChecker(cfg.AllowedOrigin))
	go hub.Run(ctx)

	// Initialize services
	bookingService := service.NewBookingService(api, hub, cfg.DraftTTL, zl)
	flightService := service.NewFlightService(api, zl)
	accountService := service.NewAccountService(api, zl)

	go reapDrafts(ctx, bookingService, cfg.DraftTTL, zl)

	// Initialize handlers
	h := handlers.NewHandler(bookingService, flightService, accountService, sessions, hub, zl)

	// Create router
	r := router.SetupRouter(h, sessions, router.Options{
		AllowedOrigin:   cfg.AllowedOrigin,
		LoginRatePerMin: cfg.LoginRatePerMin,
		TrustedProxies:  cfg.TrustedProxies,
	}, zl)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zl.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("flightApi", cfg.FlightAPIBaseURL),
			zap.String("sessionBackend", cfg.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	zl.Info("Server stopped")
}

func newSessionStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (session.Store, func(), error) {
	if cfg.SessionBackend != config.SessionBackendRedis {
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	zl.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(client, refreshWindow), func() { client.Close() }, nil
}

// originChecker mirrors the CORS policy for WebSocket upgrades. A nil result
// leaves the upgrader's same-host check in place.
func originChecker(allowed string) func(r *http.Request) bool {
	switch allowed {
	case "*":
		return func(*http.Request) bool { return true }
	case "":
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}

// reapDrafts drops abandoned booking drafts until ctx is done
func reapDrafts(ctx context.Context, bookings service.BookingService, ttl time.Duration, zl *zap.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := bookings.ReapExpired(); n > 0 {
				zl.Info("Expired booking drafts removed", zap.Int("count", n))
			}
		}
	}
}
