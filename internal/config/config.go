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

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Google     GoogleConfig
	Stripe     StripeConfig
	JoinIt     JoinItConfig
	SMTP       SMTPConfig
	Membership MembershipConfig
	PDF        PDFConfig
	Jobs       JobsConfig
	Log        LogConfig
	PlansFile  string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Env            string
	FrontendURL    string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimit      float64 // requests per second per IP on auth/contact routes
	RateBurst      int
}

// DatabaseConfig selects and configures the document store.
type DatabaseConfig struct {
	Driver    string // "sqlite" or "mongo"
	Path      string // sqlite file
	MongoURI  string
	MongoName string
	Timeout   time.Duration
}

// RedisConfig is optional; an empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// GoogleConfig holds Google OAuth settings.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google login is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// StripeConfig holds Stripe API settings.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Prices        map[string]string // plan id -> Stripe price id
}

// Enabled reports whether Stripe checkout is configured.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// JoinItConfig holds the shared secret used to sign Join It webhooks.
type JoinItConfig struct {
	WebhookSecret string
}

// SMTPConfig holds outgoing mail settings. An empty Host logs mail instead of sending it.
type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	ContactInbox string
}

// MembershipConfig holds promotional and reminder settings.
type MembershipConfig struct {
	FoundingLimit      int
	FoundingFreeMonths int
	ReminderWindow     time.Duration
}

// PDFConfig configures the headless Chrome invoice renderer.
type PDFConfig struct {
	Enabled    bool
	ChromePath string
	NoSandbox  bool
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// JobsConfig holds the cron specs of the maintenance jobs.
type JobsConfig struct {
	ExpireMemberships string
	RenewalReminders  string
	PruneWebhooks     string
	SystemHealth      string
	WebhookRetention  time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load loads configuration from environment variables (and an optional .env file) or sets defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	env := getEnv("APP_ENV", "development")
	frontend := getEnv("FRONTEND_URL", "http://localhost:3000")

	cfg := &Config{
		Server: ServerConfig{
			Port:           port,
			Env:            env,
			FrontendURL:    strings.TrimRight(frontend, "/"),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{frontend}),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			RateLimit:      getFloatEnv("RATE_LIMIT_RPS", 1),
			RateBurst:      getIntEnv("RATE_LIMIT_BURST", 10),
		},
		Database: DatabaseConfig{
			Driver:    getEnv("DATABASE_DRIVER", "sqlite"),
			Path:      getEnv("DATABASE_PATH", "./tvk.db"),
			MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoName: getEnv("MONGO_DATABASE", "tvk"),
			Timeout:   getDurationEnv("DATABASE_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getDurationEnv("JWT_TTL", 24*time.Hour),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", frontend+"/dashboard?checkout=success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", frontend+"/membership?checkout=cancelled"),
			Prices: map[string]string{
				"monthly": getEnv("STRIPE_PRICE_MONTHLY", ""),
				"yearly":  getEnv("STRIPE_PRICE_YEARLY", ""),
				"student": getEnv("STRIPE_PRICE_STUDENT", ""),
			},
		},
		JoinIt: JoinItConfig{
			WebhookSecret: getEnv("JOINIT_WEBHOOK_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:         getEnv("SMTP_HOST", ""),
			Port:         getIntEnv("SMTP_PORT", 587),
			Username:     getEnv("SMTP_USERNAME", ""),
			Password:     getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("SMTP_FROM", "TVK Canada <no-reply@tvkcanada.ca>"),
			ContactInbox: getEnv("CONTACT_INBOX", "info@tvkcanada.ca"),
		},
		Membership: MembershipConfig{
			FoundingLimit:      getIntEnv("FOUNDING_MEMBER_LIMIT", 200),
			FoundingFreeMonths: getIntEnv("FOUNDING_FREE_MONTHS", 3),
			ReminderWindow:     getDurationEnv("RENEWAL_REMINDER_WINDOW", 7*24*time.Hour),
		},
		PDF: PDFConfig{
			Enabled:    getBoolEnv("PDF_ENABLED", true),
			ChromePath: getEnv("CHROME_BIN", ""),
			NoSandbox:  getBoolEnv("CHROME_NO_SANDBOX", false),
			Timeout:    getDurationEnv("PDF_TIMEOUT", 30*time.Second),
			CacheTTL:   getDurationEnv("PDF_CACHE_TTL", 24*time.Hour),
		},
		Jobs: JobsConfig{
			ExpireMemberships: getEnv("JOB_EXPIRE_MEMBERSHIPS", "0 * * * *"),
			RenewalReminders:  getEnv("JOB_RENEWAL_REMINDERS", "0 14 * * *"),
			PruneWebhooks:     getEnv("JOB_PRUNE_WEBHOOKS", "30 3 * * *"),
			SystemHealth:      getEnv("JOB_SYSTEM_HEALTH", "*/5 * * * *"),
			WebhookRetention:  getDurationEnv("WEBHOOK_RETENTION", 30*24*time.Hour),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			JSON:       getBoolEnv("LOG_JSON", env == "production"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 28),
			Compress:   getBoolEnv("LOG_COMPRESS", true),
		},
		PlansFile: getEnv("PLANS_FILE", ""),
	}

	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = "dev-only-insecure-secret"
	}
	return cfg, nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that required values are present and coherent.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "mongo":
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}
	if c.Stripe.Enabled() && c.Stripe.WebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required when Stripe is enabled"))
	}
	if c.Membership.FoundingLimit < 0 || c.Membership.FoundingFreeMonths < 0 {
		errs = append(errs, errors.New("founding member settings must not be negative"))
	}
	return errors.Join(errs...)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getSliceEnv(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
