package domain

import "time"

// ProviderGoogleCalendar is the only supported calendar provider.
const ProviderGoogleCalendar = "google_calendar"

// DefaultCalendarID is used when the user never picked a default calendar.
const DefaultCalendarID = "primary"

// Mirror defaults applied when a task leaves scheduling fields unset.
const (
	DefaultEventTime       = "09:00"
	DefaultDurationMinutes = 60
	DefaultReminderMinutes = 30
)

// Integration is one user's connection to the calendar provider.
// Tokens are stored encrypted; rows are soft-disconnected via IsActive.
type Integration struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Provider          string     `json:"provider"`
	IsActive          bool       `json:"is_active"`
	AccessToken       []byte     `json:"-"`
	RefreshToken      []byte     `json:"-"`
	TokenExpiry       *time.Time `json:"token_expiry,omitempty"`
	DefaultCalendarID string     `json:"default_calendar_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CalendarID returns the configured default calendar or "primary".
func (i *Integration) CalendarID() string {
	if i == nil || i.DefaultCalendarID == "" {
		return DefaultCalendarID
	}
	return i.DefaultCalendarID
}

// Credentials is the decrypted token triple. Never persisted or logged.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Recurrence describes how a mirrored event repeats.
type Recurrence struct {
	Pattern string     `json:"pattern" validate:"omitempty,oneof=daily weekly monthly yearly DAILY WEEKLY MONTHLY YEARLY"`
	Count   *int       `json:"count,omitempty" validate:"omitempty,min=1"`
	EndDate *time.Time `json:"end_date,omitempty"`
}

// Task is the subset of the task collaborator's record the engine reads and writes.
type Task struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Text            string      `json:"text"`
	DueDate         *time.Time  `json:"due_date,omitempty"`
	Completed       bool        `json:"completed"`
	AddToCalendar   bool        `json:"add_to_calendar"`
	EventTime       string      `json:"event_time,omitempty"`
	DurationMinutes int         `json:"duration_minutes,omitempty"`
	ReminderMinutes *int        `json:"reminder_minutes,omitempty"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EventLink associates a task with the remote event that mirrors it.
// At most one link exists per task.
type EventLink struct {
	ID              string      `json:"id"`
	TaskID          string      `json:"task_id"`
	UserID          string      `json:"user_id"`
	CalendarID      string      `json:"calendar_id"`
	EventID         string      `json:"event_id"`
	ScheduledAt     time.Time   `json:"scheduled_at"`
	EventTime       string      `json:"event_time"`
	DurationMinutes int         `json:"duration_minutes"`
	ReminderMinutes int         `json:"reminder_minutes"`
	Recurrence      *Recurrence `json:"recurrence,omitempty"`
	// SyncHash fingerprints the last content both sides agreed on.
	SyncHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookChannel is an active push-notification subscription.
type WebhookChannel struct {
	ID            string    `json:"id"`
	ChannelID     string    `json:"channel_id"`
	ResourceID    string    `json:"resource_id"`
	CalendarID    string    `json:"calendar_id"`
	Expiration    time.Time `json:"expiration"`
	IntegrationID string    `json:"integration_id"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Expired reports whether the channel is past its expiry at now.
func (c *WebhookChannel) Expired(now time.Time) bool {
	return !c.Expiration.After(now)
}

// RemoteEvent is the provider-neutral view of a calendar event.
type RemoteEvent struct {
	ID              string    `json:"id"`
	CalendarID      string    `json:"calendar_id,omitempty"`
	Summary         string    `json:"summary"`
	Description     string    `json:"description,omitempty"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AllDay          bool      `json:"all_day,omitempty"`
	Status          string    `json:"status,omitempty"`
	Transparency    string    `json:"transparency,omitempty"`
	Recurrence      []string  `json:"recurrence,omitempty"`
	ReminderMinutes *int      `json:"reminder_minutes,omitempty"`
}

// Remote event statuses and transparency values.
const (
	EventStatusConfirmed    = "confirmed"
	EventStatusCancelled    = "cancelled"
	TransparencyTransparent = "transparent"
)

// Cancelled reports whether the remote event was cancelled.
func (e *RemoteEvent) Cancelled() bool {
	return e.Status == EventStatusCancelled
}

// BlocksTime reports whether the event should count as busy time.
func (e *RemoteEvent) BlocksTime() bool {
	return !e.Cancelled() && e.Transparency != TransparencyTransparent
}

// EventInput is what the engine asks the gateway to create or update.
type EventInput struct {
	Summary         string
	Description     string
	Start           time.Time
	End             time.Time
	TimeZone        string
	ReminderMinutes int
	Recurrence      []string
}

// RemoteCalendar is one calendar visible to the user.
type RemoteCalendar struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"access_role,omitempty"`
	TimeZone   string `json:"time_zone,omitempty"`
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [s, e) intersects the window.
func (w TimeWindow) Overlaps(s, e time.Time) bool {
	return s.Before(w.End) && w.Start.Before(e)
}

// WatchRequest asks the provider to open a push channel.
type WatchRequest struct {
	ChannelID string
	Address   string
	Token     string
	TTL       time.Duration
}

// WatchResult is the provider's answer to a WatchRequest.
type WatchResult struct {
	ChannelID  string
	ResourceID string
	Expiration time.Time
}
