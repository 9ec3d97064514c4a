package config

import "time"

// Default configuration values
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogDir      = "logs"
	DefaultEnvironment = "dev"
	DefaultVersion     = "dev"
	DefaultDBName      = "calsync"

	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute

	DefaultTimezone = "UTC"

	DefaultTokenCacheTTL      = 10 * time.Minute
	DefaultTokenRefreshMargin = time.Minute
	DefaultCalendarTimeout    = 15 * time.Second

	// Google caps push channels at 7 days
	DefaultWebhookTTL           = 7 * 24 * time.Hour
	DefaultWebhookRenewHorizon  = 24 * time.Hour
	DefaultWebhookRenewSchedule = "0 0 * * * *"
	DefaultWebhookRateLimit     = 20.0
	DefaultWebhookRateBurst     = 40

	DefaultWorkerCount     = 4
	DefaultWorkerQueueSize = 256
	DefaultJobTimeout      = 2 * time.Minute

	DefaultEventMaxRetries = 5
	DefaultEventRetryDelay = 2 * time.Second
	DefaultDeadLetterPath  = "logs/event_deadletter.jsonl"
)

// EncryptionKeyHexLength is the length of a hex-encoded AES-256 key.
const EncryptionKeyHexLength = 64

// WebhookCallbackPath is the route the provider delivers notifications to.
const WebhookCallbackPath = "/api/v1/webhooks/google-calendar"
