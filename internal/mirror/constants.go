package mirror

// TimeOfDayLayout is the HH:MM format of task event times
const TimeOfDayLayout = "15:04"

// reconcileConcurrency bounds GetEvent calls during a calendar-wide reconcile
const reconcileConcurrency = 4

// Error messages
const (
	ErrMsgNoDueDate        = "task has no due date"
	ErrMsgInvalidEventTime = "invalid event time"
	ErrMsgInvalidPattern   = "invalid recurrence pattern"
	ErrMsgInvalidCount     = "recurrence count must be positive"
	ErrMsgInvalidState     = "invalid resource state"
)

// Warnings surfaced on degraded mirror results
const (
	WarnNotConnected  = "calendar not connected"
	WarnReauth        = "calendar access expired, reconnect required"
	WarnRemoteFailed  = "calendar event could not be synced"
	WarnInvalidTask   = "task cannot be placed on the calendar"
	WarnLinkNotStored = "calendar event created but could not be linked"
)

// Operation names for tracked error events
const (
	OpMirror       = "mirror"
	OpUnmirror     = "unmirror"
	OpNotification = "notification"
)

// Log messages
const (
	LogMsgMirrorFailed        = "Calendar mirror failed"
	LogMsgUnmirrorFailed      = "Calendar unmirror failed"
	LogMsgStaleLink           = "Linked calendar event no longer exists, recreating"
	LogMsgOrphanCleanupFailed = "Failed to remove unlinked calendar event"
	LogMsgPublishFailed       = "Failed to publish calendar event"
	LogMsgUntrackedEvent      = "Notification for untracked calendar event"
	LogMsgRemoteApplied       = "Applied calendar change to task"
	LogMsgEchoSkipped         = "Calendar change matches last sync, skipping"
	LogMsgSyncAcknowledged    = "Webhook channel sync acknowledged"
)
