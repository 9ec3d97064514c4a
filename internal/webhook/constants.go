package webhook

import (
	"errors"
	"time"
)

// CallbackPath is where the provider delivers notifications
const CallbackPath = "/api/v1/webhooks/google-calendar"

// Defaults
const (
	DefaultTTL              = 7 * 24 * time.Hour
	DefaultRenewHorizon     = 24 * time.Hour
	DefaultRenewConcurrency = 8
)

// ErrNotConfigured is returned by Subscribe when no callback URL is set
var ErrNotConfigured = errors.New("webhook callback URL not configured")

// Log messages
const (
	LogMsgSubscribed      = "Webhook channel created"
	LogMsgStopFailed      = "Failed to stop webhook channel, deleting locally"
	LogMsgPersistFailed   = "Failed to persist webhook channel, stopping it"
	LogMsgRenewed         = "Webhook channel renewed"
	LogMsgRenewFailed     = "Webhook channel renewal failed"
	LogMsgRenewalComplete = "Webhook renewal run complete"
	LogMsgPurgeFailed     = "Failed to purge expired webhook channels"
	LogMsgPublishFailed   = "Failed to publish webhook event"
)

// Operation names for tracked error events
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpRenew       = "renew"
)
