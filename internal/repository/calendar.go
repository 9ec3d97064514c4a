package repository

import (
	"context"
	"time"

	"github.com/osse101/calsync/internal/domain"
)

// Integrations defines data access for calendar integrations.
// Rows are never deleted on disconnect; IsActive is cleared instead.
type Integrations interface {
	// GetByUser returns domain.ErrIntegrationMissing when no row exists.
	GetByUser(ctx context.Context, userID, provider string) (*domain.Integration, error)
	GetByID(ctx context.Context, id string) (*domain.Integration, error)
	// Upsert inserts or replaces tokens for (user, provider) and marks the row active.
	Upsert(ctx context.Context, integration *domain.Integration) error
	UpdateTokens(ctx context.Context, userID, provider string, accessToken, refreshToken []byte, expiry *time.Time) error
	SetActive(ctx context.Context, userID, provider string, active bool) error
	SetDefaultCalendar(ctx context.Context, userID, provider, calendarID string) error
	Delete(ctx context.Context, userID, provider string) error
}

// EventLinks defines data access for task to remote event links.
type EventLinks interface {
	// GetByTaskID returns domain.ErrEventLinkNotFound when the task is not mirrored.
	GetByTaskID(ctx context.Context, taskID string) (*domain.EventLink, error)
	// GetByEventID only matches links owned by userID.
	GetByEventID(ctx context.Context, userID, eventID string) (*domain.EventLink, error)
	// Upsert keeps at most one link per task.
	Upsert(ctx context.Context, link *domain.EventLink) error
	UpdateSyncHash(ctx context.Context, taskID, hash string) error
	// DeleteByTaskID reports whether a row was removed.
	DeleteByTaskID(ctx context.Context, taskID string) (bool, error)
	ListByCalendar(ctx context.Context, userID, calendarID string) ([]domain.EventLink, error)
}

// WebhookChannels defines data access for push notification channels.
type WebhookChannels interface {
	Create(ctx context.Context, channel *domain.WebhookChannel) error
	// GetByChannelID returns domain.ErrChannelNotFound for unknown ids.
	GetByChannelID(ctx context.Context, channelID string) (*domain.WebhookChannel, error)
	ListByIntegration(ctx context.Context, integrationID string) ([]domain.WebhookChannel, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.WebhookChannel, error)
	DeleteByChannelID(ctx context.Context, channelID string) error
	// DeleteExpired removes channels whose expiry is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Tasks is the slice of the task collaborator the engine needs.
type Tasks interface {
	// GetTask returns domain.ErrTaskNotFound for unknown ids.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	// ApplyRemoteChange writes fields that originate from the calendar.
	ApplyRemoteChange(ctx context.Context, change TaskChange) error
}

// TaskChange is a remote-originated edit. Nil fields are left untouched.
type TaskChange struct {
	TaskID          string
	Text            *string
	DueDate         *time.Time
	EventTime       *string
	DurationMinutes *int
	Completed       *bool
}
