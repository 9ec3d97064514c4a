package server

import "time"

// HTTP error messages for middleware responses
const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgTooManyRequests = "Too Many Requests"
)

// Security alert messages
const (
	SecurityAlertFailedAuth = "SECURITY ALERT: repeated failed authentication attempts"
	SecurityAlertHighRate   = "Rate limit exceeded"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderChannelToken   = "X-Goog-Channel-Token"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"
	HeaderCacheControl   = "Cache-Control"
	HeaderRetryAfter     = "Retry-After"
)

// Security header values
const (
	HeaderValueNoSniff              = "nosniff"
	HeaderValueDeny                 = "DENY"
	HeaderValueReferrerStrictOrigin = "strict-origin-when-cross-origin"
	HeaderValueNoStore              = "no-store"
)

// Route paths
const (
	PathHealthz         = "/healthz"
	PathReadyz          = "/readyz"
	PathVersion         = "/version"
	PathMetrics         = "/metrics"
	PathWebhook         = "/api/v1/webhooks/google-calendar"
	PathOAuthCallback   = "/api/v1/integrations/google-calendar/callback"
	PathIntegrationBase = "/integrations/google-calendar"
)

// PublicPaths bypass API key authentication. The provider cannot send our
// key with push notifications or browser redirects.
var PublicPaths = []string{
	PathHealthz,
	PathReadyz,
	PathVersion,
	PathMetrics,
	PathWebhook,
	PathOAuthCallback,
}

// Limits
const (
	MaxRequestBodyBytes  = 1 << 20
	ReadHeaderTimeout    = 5 * time.Second
	FailedAuthWindow     = 5 * time.Minute
	FailedAuthThreshold  = 5
	RateLimiterCacheSize = 10000
	RateLimiterIdleTTL   = 10 * time.Minute
	DefaultWebhookRate   = 20.0
	DefaultWebhookBurst  = 40
)

// RedactedValue replaces secret header values in logs
const RedactedValue = "[REDACTED]"
