package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "TchovaPortal"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultTokenExpiryDays  = 90
	defaultCodeTTL          = 5 * time.Minute
	defaultCodeMaxAttempts  = 3
	defaultCodeBlockTTL     = 15 * time.Minute
	defaultSecureSessionTTL = 10 * time.Minute
	defaultProviderTimeout  = 10 * time.Second
	defaultPortalBaseURL    = "https://tchova.co"
	defaultWhatsAppBaseURL  = "https://wa.me"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Client portal access tokens.
	TokenExpiryDays int
	PortalBaseURL   string

	// Verification gate.
	CodeTTL          time.Duration
	CodeMaxAttempts  int
	CodeBlockTTL     time.Duration
	SecureSessionTTL time.Duration
	WhatsAppBaseURL  string

	// Payment router.
	ProviderTimeout time.Duration
	CreditNetOfFees bool

	// Staff endpoints are guarded by a shared key; empty disables them.
	StaffAPIKey string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		TokenExpiryDays:  defaultTokenExpiryDays,
		PortalBaseURL:    getEnv("PORTAL_BASE_URL", defaultPortalBaseURL),
		CodeTTL:          defaultCodeTTL,
		CodeMaxAttempts:  defaultCodeMaxAttempts,
		CodeBlockTTL:     defaultCodeBlockTTL,
		SecureSessionTTL: defaultSecureSessionTTL,
		WhatsAppBaseURL:  getEnv("WHATSAPP_BASE_URL", defaultWhatsAppBaseURL),
		ProviderTimeout:  defaultProviderTimeout,
		StaffAPIKey:      os.Getenv("STAFF_API_KEY"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.CodeTTL, err = durationEnv("CODE_TTL", cfg.CodeTTL); err != nil {
		return Config{}, err
	}
	if cfg.CodeBlockTTL, err = durationEnv("CODE_BLOCK_TTL", cfg.CodeBlockTTL); err != nil {
		return Config{}, err
	}
	if cfg.SecureSessionTTL, err = durationEnv("SECURE_SESSION_TTL", cfg.SecureSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ProviderTimeout, err = durationEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("TOKEN_EXPIRY_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_DAYS: %q", v)
		}
		cfg.TokenExpiryDays = days
	}

	if v := os.Getenv("CODE_MAX_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts <= 0 {
			return Config{}, fmt.Errorf("invalid CODE_MAX_ATTEMPTS: %q", v)
		}
		cfg.CodeMaxAttempts = attempts
	}

	if v := os.Getenv("CREDIT_NET_OF_FEES"); v != "" {
		net, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CREDIT_NET_OF_FEES: %q", v)
		}
		cfg.CreditNetOfFees = net
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the application runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// durationEnv reads NAME_SECONDS as an integer second count or NAME as a
// time.ParseDuration string, preferring the seconds form.
func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(name + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", name, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(name); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
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
