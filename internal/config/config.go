package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string
	Environment string
	Version     string
	APIKey      string // API key for authentication

	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	TrustedProxies []string

	// Google OAuth client
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// EncryptionKey is a 64-character hex AES-256 key for stored tokens
	EncryptionKey string

	// AppURL is the public base URL; webhooks are only registered when set
	AppURL        string
	WebhookSecret string

	DefaultTimezone string

	TokenCacheTTL      time.Duration
	TokenRefreshMargin time.Duration
	CalendarTimeout    time.Duration

	WebhookTTL           time.Duration
	WebhookRenewHorizon  time.Duration
	WebhookRenewSchedule string
	WebhookRateLimit     float64
	WebhookRateBurst     int

	WorkerCount     int
	WorkerQueueSize int
	JobTimeout      time.Duration

	EventMaxRetries int
	EventRetryDelay time.Duration
	DeadLetterPath  string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", DefaultLogFormat),
		LogDir:      getEnv("LOG_DIR", DefaultLogDir),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		Version:     getEnv("VERSION", DefaultVersion),
		APIKey:      getEnv("API_KEY", ""),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", DefaultDBName),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),

		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),

		AppURL:        strings.TrimRight(getEnv("APP_URL", ""), "/"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", DefaultTimezone),

		TokenCacheTTL:      getEnvAsDuration("TOKEN_CACHE_TTL", DefaultTokenCacheTTL),
		TokenRefreshMargin: getEnvAsDuration("TOKEN_REFRESH_MARGIN", DefaultTokenRefreshMargin),
		CalendarTimeout:    getEnvAsDuration("CALENDAR_CALL_TIMEOUT", DefaultCalendarTimeout),

		WebhookTTL:           getEnvAsDuration("WEBHOOK_TTL", DefaultWebhookTTL),
		WebhookRenewHorizon:  getEnvAsDuration("WEBHOOK_RENEW_HORIZON", DefaultWebhookRenewHorizon),
		WebhookRenewSchedule: getEnv("WEBHOOK_RENEW_SCHEDULE", DefaultWebhookRenewSchedule),
		WebhookRateLimit:     getEnvAsFloat("WEBHOOK_RATE_LIMIT", DefaultWebhookRateLimit),
		WebhookRateBurst:     getEnvAsInt("WEBHOOK_RATE_BURST", DefaultWebhookRateBurst),

		WorkerCount:     getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),
		JobTimeout:      getEnvAsDuration("JOB_TIMEOUT", DefaultJobTimeout),

		EventMaxRetries: getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay: getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),
		DeadLetterPath:  getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != EncryptionKeyHexLength {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be %d hex characters, got %d", EncryptionKeyHexLength, len(cfg.EncryptionKey))
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE value: %w", err)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer environment variable, falling back on any error
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat parses a float environment variable, falling back on any error
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses a Go duration string, falling back on any error
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// WebhooksEnabled reports whether push channels can be registered.
// The provider needs a publicly reachable callback.
func (c *Config) WebhooksEnabled() bool {
	return c.AppURL != ""
}

// WebhookCallbackURL is the address the provider posts notifications to,
// or empty when webhooks are disabled.
func (c *Config) WebhookCallbackURL() string {
	if !c.WebhooksEnabled() {
		return ""
	}
	return c.AppURL + WebhookCallbackPath
}

// Location returns the configured default time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
