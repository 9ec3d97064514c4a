// Package calendar is the single entry point for remote calendar calls.
// Every call gets a live client from the token manager, a deadline,
// classified errors and bounded retries.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/provider"
)

// ClientSource hands out authenticated provider clients. Implemented by tokens.Manager.
type ClientSource interface {
	GetClient(ctx context.Context, userID string) (provider.Client, error)
	ForceRefresh(ctx context.Context, userID string) (provider.Client, error)
}

// Gateway performs calendar operations on behalf of a user
type Gateway struct {
	clients     ClientSource
	policy      RetryPolicy
	callTimeout time.Duration
}

// NewGateway creates a Gateway. A zero callTimeout uses DefaultCallTimeout.
func NewGateway(clients ClientSource, policy RetryPolicy, callTimeout time.Duration) *Gateway {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Gateway{clients: clients, policy: policy, callTimeout: callTimeout}
}

// CreateEvent inserts an event into calendarID
func (g *Gateway) CreateEvent(ctx context.Context, userID, calendarID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	var out *domain.RemoteEvent
	err := g.do(ctx, OpCreateEvent, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.InsertEvent(ctx, calendarID, in)
		return err
	})
	return out, err
}

// UpdateEvent replaces the mirrored fields of an existing event
func (g *Gateway) UpdateEvent(ctx context.Context, userID, calendarID, eventID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	var out *domain.RemoteEvent
	err := g.do(ctx, OpUpdateEvent, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.UpdateEvent(ctx, calendarID, eventID, in)
		return err
	})
	return out, err
}

// DeleteEvent removes an event. A missing event surfaces as domain.ErrRemoteNotFound.
func (g *Gateway) DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error {
	return g.do(ctx, OpDeleteEvent, userID, func(ctx context.Context, c provider.Client) error {
		return c.DeleteEvent(ctx, calendarID, eventID)
	})
}

// GetEvent fetches one event, including cancelled ones
func (g *Gateway) GetEvent(ctx context.Context, userID, calendarID, eventID string) (*domain.RemoteEvent, error) {
	var out *domain.RemoteEvent
	err := g.do(ctx, OpGetEvent, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.GetEvent(ctx, calendarID, eventID)
		return err
	})
	return out, err
}

// ListEvents returns event instances intersecting window
func (g *Gateway) ListEvents(ctx context.Context, userID, calendarID string, window domain.TimeWindow) ([]domain.RemoteEvent, error) {
	var out []domain.RemoteEvent
	err := g.do(ctx, OpListEvents, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.ListEvents(ctx, calendarID, window)
		return err
	})
	return out, err
}

// Watch opens a push-notification channel on calendarID
func (g *Gateway) Watch(ctx context.Context, userID, calendarID string, req domain.WatchRequest) (*domain.WatchResult, error) {
	var out *domain.WatchResult
	err := g.do(ctx, OpWatch, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.Watch(ctx, calendarID, req)
		return err
	})
	return out, err
}

// StopWatch closes a push-notification channel
func (g *Gateway) StopWatch(ctx context.Context, userID, channelID, resourceID string) error {
	return g.do(ctx, OpStopWatch, userID, func(ctx context.Context, c provider.Client) error {
		return c.StopChannel(ctx, channelID, resourceID)
	})
}

// ListCalendars lists the calendars on the user's account
func (g *Gateway) ListCalendars(ctx context.Context, userID string) ([]domain.RemoteCalendar, error) {
	var out []domain.RemoteCalendar
	err := g.do(ctx, OpListCalendars, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.ListCalendars(ctx)
		return err
	})
	return out, err
}

// GetCalendar fetches one calendar from the user's list
func (g *Gateway) GetCalendar(ctx context.Context, userID, calendarID string) (*domain.RemoteCalendar, error) {
	var out *domain.RemoteCalendar
	err := g.do(ctx, OpGetCalendar, userID, func(ctx context.Context, c provider.Client) error {
		var err error
		out, err = c.GetCalendar(ctx, calendarID)
		return err
	})
	return out, err
}

// do runs fn under the call deadline. Transient failures are retried with
// backoff; an unauthorized response forces one token refresh and one retry.
func (g *Gateway) do(ctx context.Context, op, userID string, fn func(context.Context, provider.Client) error) (err error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	defer func() {
		metrics.CalendarCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		metrics.CalendarCalls.WithLabelValues(op, outcome(err)).Inc()
	}()

	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	client, err := g.clients.GetClient(ctx, userID)
	if err != nil {
		log.Warn(LogMsgCallFailed, "operation", op, "user_id", userID, "error_code", ErrorCode(err))
		return err
	}

	refreshed := false
	retries := 0
	for {
		rawErr := fn(ctx, client)
		if rawErr == nil {
			return nil
		}
		err = Classify(rawErr)

		if ctx.Err() != nil {
			log.Warn(LogMsgCallFailed, "operation", op, "user_id", userID, "error_code", ErrorCode(ctx.Err()))
			return err
		}

		switch {
		case errors.Is(err, domain.ErrRemoteUnauthorized) && !refreshed:
			refreshed = true
			log.Info(LogMsgForcingRefresh, "operation", op, "user_id", userID)
			client, err = g.clients.ForceRefresh(ctx, userID)
			if err != nil {
				log.Warn(LogMsgRefreshAfter401, "operation", op, "user_id", userID, "error_code", ErrorCode(err))
				return err
			}
			continue
		case errors.Is(err, domain.ErrRemoteTransient) && retries < g.policy.MaxRetries:
			delay := g.policy.Delay(retries)
			retries++
			metrics.CalendarRetries.WithLabelValues(op).Inc()
			log.Debug(LogMsgCallRetrying, "operation", op, "user_id", userID,
				"error_code", ErrorCode(rawErr), "attempt", retries, "delay", delay)
			if sleepErr := g.policy.sleep(ctx, delay); sleepErr != nil {
				return err
			}
			continue
		}

		log.Warn(LogMsgCallFailed, "operation", op, "user_id", userID,
			"error_code", ErrorCode(rawErr), "retries", retries)
		return err
	}
}
