package worker

import (
	"context"
	"errors"
	"time"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/webhook"
)

// NotificationHandler applies a push notification. Implemented by mirror.Engine.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n domain.Notification) error
}

// NotificationJob processes one webhook notification off the request path
type NotificationJob struct {
	Handler      NotificationHandler
	Notification domain.Notification
	RequestID    string
}

// Name implements Job
func (j *NotificationJob) Name() string { return JobNameNotification }

// Process implements Job. Unknown channels and bad tokens are dropped
// quietly; the provider has already been acknowledged.
func (j *NotificationJob) Process(ctx context.Context) error {
	if j.RequestID != "" {
		ctx = logger.WithRequestID(ctx, j.RequestID)
	}
	err := j.Handler.HandleNotification(ctx, j.Notification)
	if errors.Is(err, domain.ErrUnknownChannel) || errors.Is(err, domain.ErrInvalidChannelToken) {
		logger.FromContext(ctx).Info(LogMsgNotificationNoop,
			"channel_id", j.Notification.ChannelID, "reason", err.Error())
		return nil
	}
	return err
}

// Renewer renews expiring webhook channels. Implemented by webhook.Manager.
type Renewer interface {
	RenewExpiring(ctx context.Context, horizon time.Duration) (webhook.RenewalReport, error)
}

// RenewalJob renews every channel expiring within Horizon
type RenewalJob struct {
	Renewer Renewer
	Horizon time.Duration
}

// Name implements Job
func (j *RenewalJob) Name() string { return JobNameRenewal }

// Process implements Job. Per-channel failures are in the report, not the error.
func (j *RenewalJob) Process(ctx context.Context) error {
	_, err := j.Renewer.RenewExpiring(ctx, j.Horizon)
	return err
}
