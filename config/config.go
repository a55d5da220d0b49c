package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the server.
type Config struct {
	Port        string
	BaseURL     string
	DatabaseURL string // postgres DSN; empty means local SQLite
	SQLitePath  string
	FrontendDir string
	MetricsAddr string // separate listener for /metrics; "off" disables it

	LogFormat string
	LogLevel  string

	JWTSecret  string
	SessionTTL time.Duration
	TrialDays  int

	GoogleClientID     string
	GoogleClientSecret string

	PayPalClientID string
	PayPalSecret   string
	PayPalMode     string // "sandbox" or "live"
	PayPalCurrency string
	PayPalTimeout  time.Duration
	Prices         PriceTable

	SendGridAPIKey string
	EmailFrom      string

	WhatsAppStoreDialect string
	WhatsAppStoreDSN     string
	DispatchInterval     time.Duration

	Features Features
}

// Load reads configuration from the environment. A .env file is loaded if
// present but not required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	trialDays, err := envOrDefaultInt("TRIAL_DAYS", 7)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := envOrDefaultDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	paypalTimeout, err := envOrDefaultDuration("PAYPAL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	dispatchInterval, err := envOrDefaultDuration("DISPATCH_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	prices, err := ParsePriceTable(envOrDefault("PLAN_PRICES", DefaultPlanPrices))
	if err != nil {
		return nil, fmt.Errorf("PLAN_PRICES: %w", err)
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		BaseURL:     envOrDefault("BASE_URL", "http://localhost:8080"),
		DatabaseURL: databaseURL,
		SQLitePath:  envOrDefault("SQLITE_PATH", "remindme.db"),
		FrontendDir: strings.TrimSpace(os.Getenv("FRONTEND_DIR")),
		MetricsAddr: envOrDefault("METRICS_ADDR", "127.0.0.1:9091"),

		LogFormat: envOrDefault("LOG_FORMAT", "auto"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),

		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL: sessionTTL,
		TrialDays:  trialDays,

		GoogleClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),

		PayPalClientID: strings.TrimSpace(os.Getenv("PAYPAL_CLIENT_ID")),
		PayPalSecret:   strings.TrimSpace(os.Getenv("PAYPAL_SECRET")),
		PayPalMode:     envOrDefault("PAYPAL_MODE", "sandbox"),
		PayPalCurrency: envOrDefault("PAYPAL_CURRENCY", "USD"),
		PayPalTimeout:  paypalTimeout,
		Prices:         prices,

		SendGridAPIKey: strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		EmailFrom:      envOrDefault("EMAIL_FROM", "noreply@remindme.app"),

		WhatsAppStoreDialect: envOrDefault("WHATSAPP_STORE_DIALECT", "postgres"),
		WhatsAppStoreDSN:     envOrDefault("WHATSAPP_STORE_DSN", databaseURL),
		DispatchInterval:     dispatchInterval,

		Features: LoadFeatures(),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Features.BillingEnabled {
		if c.PayPalClientID == "" {
			missing = append(missing, "PAYPAL_CLIENT_ID")
		}
		if c.PayPalSecret == "" {
			missing = append(missing, "PAYPAL_SECRET")
		}
	}
	if c.Features.GoogleLoginEnabled {
		if c.GoogleClientID == "" {
			missing = append(missing, "GOOGLE_CLIENT_ID")
		}
		if c.GoogleClientSecret == "" {
			missing = append(missing, "GOOGLE_CLIENT_SECRET")
		}
	}
	if c.Features.DispatchEnabled && c.WhatsAppStoreDSN == "" {
		missing = append(missing, "WHATSAPP_STORE_DSN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.TrialDays < 0 {
		return fmt.Errorf("TRIAL_DAYS must not be negative, got %d", c.TrialDays)
	}
	if c.PayPalMode != "sandbox" && c.PayPalMode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be sandbox or live, got %q", c.PayPalMode)
	}

	parsedBaseURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("BASE_URL must be a valid URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return fmt.Errorf("BASE_URL must use http or https scheme")
	}
	return nil
}

// TrialPeriod is the length of the free trial.
func (c *Config) TrialPeriod() time.Duration {
	return time.Duration(c.TrialDays) * 24 * time.Hour
}

// MetricsEnabled reports whether the metrics listener should start.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsAddr != "" && c.MetricsAddr != "off"
}

// GoogleRedirectURL is the OAuth callback registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/google/callback"
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
		}
		return n, nil
	}
	return fallback, nil
}

func envOrDefaultDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
