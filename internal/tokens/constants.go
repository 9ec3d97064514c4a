package tokens

import "time"

// Defaults
const (
	DefaultCacheSize      = 1024
	DefaultCacheTTL       = 10 * time.Minute
	DefaultRefreshTimeout = 15 * time.Second
)

// OAuth error codes that mean the grant is unusable
const (
	errCodeInvalidGrant       = "invalid_grant"
	errCodeUnauthorizedClient = "unauthorized_client"
)

// Log messages
const (
	LogMsgTokenRefreshed   = "Calendar access token refreshed"
	LogMsgRefreshFailed    = "Calendar token refresh failed"
	LogMsgConsentRevoked   = "Calendar consent revoked, integration deactivated"
	LogMsgDeactivateFailed = "Failed to deactivate calendar integration"
)
