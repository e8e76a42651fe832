package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port string `mapstructure:"API_PORT"`
	Env  string `mapstructure:"ENV"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	// External flight/booking API.
	FlightAPIBaseURL  string        `mapstructure:"FLIGHT_API_BASE_URL"`
	HTTPClientTimeout time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT"`

	// External auth provider.
	AuthURL       string `mapstructure:"AUTH_URL"`
	AuthAnonKey   string `mapstructure:"AUTH_ANON_KEY"`
	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`

	// Session mirroring.
	SessionSecret  string `mapstructure:"SESSION_SECRET"`
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	DraftTTL        time.Duration `mapstructure:"DRAFT_TTL"`
	LoginRatePerMin int           `mapstructure:"LOGIN_RATE_PER_MIN"`
	AllowedOrigin   string        `mapstructure:"ALLOWED_ORIGIN"`
	// Proxies whose X-Forwarded-For is believed, as CIDRs or IPs.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FLIGHT_API_BASE_URL", "http://localhost:3001")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", 15*time.Second)
	v.SetDefault("AUTH_URL", "http://localhost:54321")
	v.SetDefault("AUTH_ANON_KEY", "")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_BACKEND", SessionBackendMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DRAFT_TTL", 30*time.Minute)
	v.SetDefault("LOGIN_RATE_PER_MIN", 10)
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("TRUSTED_PROXIES", []string{})
}

// Load reads configuration from the environment, an optional .env file and an
// optional config.yaml in the working directory or ./config.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}
	if c.FlightAPIBaseURL == "" {
		return fmt.Errorf("FLIGHT_API_BASE_URL is required")
	}
	for _, p := range c.TrustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil && net.ParseIP(p) == nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}
	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
