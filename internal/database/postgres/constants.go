package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Integration Operations
const (
	ErrMsgFailedToGetIntegration     = "failed to get calendar integration"
	ErrMsgFailedToUpsertIntegration  = "failed to upsert calendar integration"
	ErrMsgFailedToUpdateTokens       = "failed to update integration tokens"
	ErrMsgFailedToSetActive          = "failed to update integration status"
	ErrMsgFailedToSetDefaultCalendar = "failed to set default calendar"
	ErrMsgFailedToDeleteIntegration  = "failed to delete calendar integration"
)

// Error Messages - Event Link Operations
const (
	ErrMsgFailedToGetEventLink    = "failed to get event link"
	ErrMsgFailedToUpsertEventLink = "failed to upsert event link"
	ErrMsgFailedToUpdateSyncHash  = "failed to update sync hash"
	ErrMsgFailedToDeleteEventLink = "failed to delete event link"
	ErrMsgFailedToListEventLinks  = "failed to list event links"
)

// Error Messages - Webhook Channel Operations
const (
	ErrMsgFailedToCreateChannel  = "failed to create webhook channel"
	ErrMsgFailedToGetChannel     = "failed to get webhook channel"
	ErrMsgFailedToListChannels   = "failed to list webhook channels"
	ErrMsgFailedToDeleteChannel  = "failed to delete webhook channel"
	ErrMsgFailedToDeleteExpired  = "failed to delete expired webhook channels"
	ErrMsgFailedToScanChannelRow = "failed to scan webhook channel"
)

// Error Messages - Task Operations
const (
	ErrMsgFailedToGetTask          = "failed to get task"
	ErrMsgFailedToApplyTaskChange  = "failed to apply remote task change"
	ErrMsgFailedToBeginTransaction = "failed to begin transaction"
	ErrMsgFailedToCommit           = "failed to commit transaction"
)
