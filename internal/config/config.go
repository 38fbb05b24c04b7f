package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "MerchantPortal"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultLocale           = "en"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSessionMaxAge    = time.Hour
	defaultFlowTTL          = 15 * time.Minute
	defaultUpstreamTimeout  = 15 * time.Second
	defaultCodeRequestLimit = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DefaultLocale  string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Upstream services.
	RegisterURL     string
	MainURL         string
	MiniURL         string
	ProbeAPIKey     string
	UpstreamTimeout time.Duration

	// Session and multi-step form cookies.
	SessionSecret string
	SessionMaxAge time.Duration
	FlowTTL       time.Duration
	CookieSecure  bool

	// CodeRequestsPerWindow caps one-time-code requests per email per minute.
	CodeRequestsPerWindow int
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present; real
// environment variables take precedence over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:               getEnv("APP_NAME", defaultAppName),
		AppEnv:                getEnv("APP_ENV", defaultAppEnv),
		Port:                  getEnv("PORT", defaultPort),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DefaultLocale:         strings.ToLower(getEnv("DEFAULT_LOCALE", defaultLocale)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		RegisterURL:           strings.TrimRight(os.Getenv("API_REGISTER_URL"), "/"),
		MainURL:               strings.TrimRight(os.Getenv("API_MAIN_URL"), "/"),
		MiniURL:               strings.TrimRight(os.Getenv("API_MINI_URL"), "/"),
		ProbeAPIKey:           os.Getenv("PROBE_API_KEY"),
		SessionSecret:         os.Getenv("SESSION_SECRET"),
		CodeRequestsPerWindow: defaultCodeRequestLimit,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionMaxAge, err = durationFromEnv("SESSION_MAX_AGE", defaultSessionMaxAge); err != nil {
		return Config{}, err
	}
	if cfg.FlowTTL, err = durationFromEnv("FLOW_TTL", defaultFlowTTL); err != nil {
		return Config{}, err
	}
	if cfg.UpstreamTimeout, err = durationFromEnv("UPSTREAM_TIMEOUT", defaultUpstreamTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("CODE_REQUESTS_PER_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CODE_REQUESTS_PER_WINDOW: %w", err)
		}
		cfg.CodeRequestsPerWindow = n
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	} else {
		cfg.CookieSecure = !cfg.IsDev()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.RegisterURL == "" {
		return fmt.Errorf("API_REGISTER_URL must be set")
	}
	if c.MainURL == "" {
		return fmt.Errorf("API_MAIN_URL must be set")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be set to at least 32 characters")
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// durationFromEnv reads KEY_SECONDS as an integer number of seconds, falling
// back to KEY as a Go duration string.
func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	secondsKey := key + "_SECONDS"
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
