// Package webhook manages push-notification channels on the remote calendar.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/osse101/calsync/internal/calendar"
	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/repository"
)

// Gateway is the slice of calendar.Gateway the manager calls
type Gateway interface {
	Watch(ctx context.Context, userID, calendarID string, req domain.WatchRequest) (*domain.WatchResult, error)
	StopWatch(ctx context.Context, userID, channelID, resourceID string) error
}

// IntegrationSource resolves a user's integration row, active or not
type IntegrationSource interface {
	Get(ctx context.Context, userID string) (*domain.Integration, error)
}

// Config holds the manager's settings
type Config struct {
	// CallbackURL is the public notification address. Empty disables Subscribe.
	CallbackURL      string
	TTL              time.Duration
	RenewConcurrency int
}

// RenewalReport summarizes one RenewExpiring run
type RenewalReport struct {
	Checked int
	Renewed int
	Failed  int
	Purged  int
	// Errors is keyed by the channel that failed to renew.
	Errors map[string]error
}

// Manager creates, renews and stops webhook channels
type Manager struct {
	gateway      Gateway
	integrations IntegrationSource
	channels     repository.WebhookChannels
	signer       *Signer
	bus          event.Bus
	cfg          Config
	now          func() time.Time
	newID        func() string
}

// NewManager creates a webhook subscription manager
func NewManager(gateway Gateway, integrations IntegrationSource, channels repository.WebhookChannels, signer *Signer, bus event.Bus, cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RenewConcurrency <= 0 {
		cfg.RenewConcurrency = DefaultRenewConcurrency
	}
	if bus == nil {
		bus = event.NopBus{}
	}
	if signer == nil {
		signer = NewSigner("")
	}
	return &Manager{
		gateway:      gateway,
		integrations: integrations,
		channels:     channels,
		signer:       signer,
		bus:          bus,
		cfg:          cfg,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Enabled reports whether channels can be created
func (m *Manager) Enabled() bool {
	return m.cfg.CallbackURL != ""
}

// Subscribe opens a channel on the user's default calendar and records it
func (m *Manager) Subscribe(ctx context.Context, userID string) (*domain.WebhookChannel, error) {
	if !m.Enabled() {
		return nil, ErrNotConfigured
	}

	integration, err := m.integrations.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, domain.ErrIntegrationMissing
	}

	calendarID := integration.CalendarID()
	channelID := m.newID()
	res, err := m.gateway.Watch(ctx, userID, calendarID, domain.WatchRequest{
		ChannelID: channelID,
		Address:   m.cfg.CallbackURL,
		Token:     m.signer.Sign(userID, channelID),
		TTL:       m.cfg.TTL,
	})
	if err != nil {
		return nil, err
	}

	expiration := res.Expiration
	if expiration.IsZero() {
		expiration = m.now().Add(m.cfg.TTL)
	}
	channel := &domain.WebhookChannel{
		ChannelID:     channelID,
		ResourceID:    res.ResourceID,
		CalendarID:    calendarID,
		Expiration:    expiration,
		IntegrationID: integration.ID,
		UserID:        userID,
	}

	log := logger.FromContext(ctx)
	if err := m.channels.Create(ctx, channel); err != nil {
		log.Warn(LogMsgPersistFailed, "channel_id", channelID, "user_id", userID, "error", err)
		if stopErr := m.gateway.StopWatch(ctx, userID, channelID, res.ResourceID); stopErr != nil {
			log.Warn(LogMsgStopFailed, "channel_id", channelID, "error_code", calendar.ErrorCode(stopErr))
		}
		return nil, err
	}

	log.Info(LogMsgSubscribed, "channel_id", channelID, "user_id", userID, "expiration", expiration)
	m.publish(ctx, event.CalendarWebhookUp, domain.CalendarEventPayload{
		UserID:     userID,
		ChannelID:  channelID,
		CalendarID: calendarID,
		Operation:  OpSubscribe,
	})
	return channel, nil
}

// Resubscribe opens a fresh channel and then stops every older one for the user
func (m *Manager) Resubscribe(ctx context.Context, userID string) (*domain.WebhookChannel, error) {
	existing, err := m.userChannels(ctx, userID)
	if err != nil {
		return nil, err
	}

	fresh, err := m.Subscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	var errs []error
	for i := range existing {
		if err := m.stop(ctx, &existing[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return fresh, errors.Join(errs...)
}

// Unsubscribe stops a channel remotely on a best-effort basis and always
// deletes its row. Unknown channels are a no-op.
func (m *Manager) Unsubscribe(ctx context.Context, channelID string) error {
	channel, err := m.channels.GetByChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			return nil
		}
		return err
	}
	return m.stop(ctx, channel)
}

// UnsubscribeUser stops every channel the user has
func (m *Manager) UnsubscribeUser(ctx context.Context, userID string) error {
	channels, err := m.userChannels(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrIntegrationMissing) {
			return nil
		}
		return err
	}

	var errs []error
	for i := range channels {
		if err := m.stop(ctx, &channels[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RenewExpiring replaces every channel expiring within horizon. Channels are
// renewed independently; one failure never stops the others. Channels already
// expired are purged afterwards.
func (m *Manager) RenewExpiring(ctx context.Context, horizon time.Duration) (RenewalReport, error) {
	if horizon <= 0 {
		horizon = DefaultRenewHorizon
	}
	log := logger.FromContext(ctx)
	now := m.now()
	report := RenewalReport{Errors: make(map[string]error)}

	due, err := m.channels.ListExpiringBefore(ctx, now.Add(horizon))
	if err != nil {
		return report, err
	}
	report.Checked = len(due)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(m.cfg.RenewConcurrency)
	for i := range due {
		channel := due[i]
		g.Go(func() error {
			purged, err := m.renew(ctx, &channel, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Renewed++
				metrics.WebhookRenewals.WithLabelValues(metrics.OutcomeSuccess).Inc()
			default:
				report.Failed++
				report.Errors[channel.ChannelID] = err
				metrics.WebhookRenewals.WithLabelValues(metrics.OutcomeFailed).Inc()
			}
			if purged {
				report.Purged++
				metrics.WebhookRenewals.WithLabelValues(metrics.OutcomePurged).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	if n, err := m.channels.DeleteExpired(ctx, now); err != nil {
		log.Warn(LogMsgPurgeFailed, "error", err)
	} else {
		report.Purged += int(n)
	}

	log.Info(LogMsgRenewalComplete,
		"checked", report.Checked, "renewed", report.Renewed,
		"failed", report.Failed, "purged", report.Purged)
	return report, nil
}

// renew subscribes a replacement before stopping the old channel. It reports
// whether the old channel was purged after a failed renewal.
func (m *Manager) renew(ctx context.Context, old *domain.WebhookChannel, now time.Time) (bool, error) {
	log := logger.FromContext(ctx).With("channel_id", old.ChannelID, "user_id", old.UserID)

	fresh, err := m.Subscribe(ctx, old.UserID)
	if err != nil {
		log.Warn(LogMsgRenewFailed, "error_code", calendar.ErrorCode(err), "error", err)
		m.publish(ctx, event.CalendarError, domain.CalendarEventPayload{
			UserID:    old.UserID,
			ChannelID: old.ChannelID,
			Operation: OpRenew,
			ErrorCode: calendar.ErrorCode(err),
		})

		// A disconnected user or an already dead channel will never recover.
		if old.Expired(now) || errors.Is(err, domain.ErrIntegrationMissing) || errors.Is(err, domain.ErrReauthRequired) {
			if stopErr := m.stop(ctx, old); stopErr != nil {
				return false, fmt.Errorf("%w (purge: %v)", err, stopErr)
			}
			return true, err
		}
		return false, err
	}

	log.Info(LogMsgRenewed, "new_channel_id", fresh.ChannelID, "expiration", fresh.Expiration)
	return false, m.stop(ctx, old)
}

func (m *Manager) stop(ctx context.Context, channel *domain.WebhookChannel) error {
	if err := m.gateway.StopWatch(ctx, channel.UserID, channel.ChannelID, channel.ResourceID); err != nil {
		logger.FromContext(ctx).Warn(LogMsgStopFailed,
			"channel_id", channel.ChannelID, "user_id", channel.UserID, "error_code", calendar.ErrorCode(err))
	}
	if err := m.channels.DeleteByChannelID(ctx, channel.ChannelID); err != nil {
		return err
	}
	m.publish(ctx, event.CalendarWebhookDown, domain.CalendarEventPayload{
		UserID:     channel.UserID,
		ChannelID:  channel.ChannelID,
		CalendarID: channel.CalendarID,
		Operation:  OpUnsubscribe,
	})
	return nil
}

func (m *Manager) userChannels(ctx context.Context, userID string) ([]domain.WebhookChannel, error) {
	integration, err := m.integrations.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.channels.ListByIntegration(ctx, integration.ID)
}

func (m *Manager) publish(ctx context.Context, t event.Type, payload domain.CalendarEventPayload) {
	if err := m.bus.Publish(ctx, event.NewCalendarEvent(t, payload)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", t, "error", err)
	}
}
