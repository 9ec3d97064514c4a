package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/repository"
)

// HandleNotification applies a push notification to the linked tasks.
//
// The changed event is n.EventID when the sender names it, otherwise
// n.ResourceID. A resource id equal to the channel's own resource means
// "something in this calendar changed" and every link on the calendar is
// reconciled.
func (e *Engine) HandleNotification(ctx context.Context, n domain.Notification) (err error) {
	defer func() {
		metrics.WebhookNotifications.WithLabelValues(string(n.ResourceState), notificationOutcome(err)).Inc()
	}()

	if !n.ResourceState.Valid() {
		return fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, ErrMsgInvalidState, n.ResourceState)
	}

	channel, err := e.channels.GetByChannelID(ctx, n.ChannelID)
	if err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownChannel, n.ChannelID)
		}
		return err
	}

	if e.verifier != nil && !e.verifier.Verify(channel.UserID, channel.ChannelID, n.ChannelToken) {
		return fmt.Errorf("%w: channel %s", domain.ErrInvalidChannelToken, n.ChannelID)
	}

	log := logger.FromContext(ctx).With("channel_id", channel.ChannelID, "user_id", channel.UserID)
	ctx = logger.WithLogger(ctx, log)

	eventID := n.EventID
	if eventID == "" {
		eventID = n.ResourceID
	}
	collection := eventID == "" || eventID == channel.ResourceID

	switch n.ResourceState {
	case domain.ResourceStateSync:
		log.Debug(LogMsgSyncAcknowledged)
		return nil
	case domain.ResourceStateNotExists:
		if collection {
			return nil
		}
		return e.remoteDeleted(ctx, channel.UserID, eventID)
	default:
		if collection {
			return e.reconcile(ctx, channel)
		}
		return e.remoteChanged(ctx, channel.UserID, eventID)
	}
}

// remoteChanged applies one changed remote event to its task
func (e *Engine) remoteChanged(ctx context.Context, userID, eventID string) error {
	link, err := e.links.GetByEventID(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventLinkNotFound) {
			logger.FromContext(ctx).Debug(LogMsgUntrackedEvent, "event_id", eventID)
			return nil
		}
		return err
	}
	return e.syncLink(ctx, userID, link.TaskID, eventID)
}

// remoteDeleted completes the task whose event disappeared and drops its link.
// Only links owned by the channel's user are touched.
func (e *Engine) remoteDeleted(ctx context.Context, userID, eventID string) error {
	link, err := e.links.GetByEventID(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventLinkNotFound) {
			return nil
		}
		return err
	}

	unlock := e.locks.Lock(link.TaskID)
	defer unlock()

	current, err := e.currentLink(ctx, link.TaskID, eventID)
	if err != nil || current == nil {
		return err
	}
	return e.completeAndUnlink(ctx, current)
}

// reconcile re-reads every linked event on the channel's calendar
func (e *Engine) reconcile(ctx context.Context, channel *domain.WebhookChannel) error {
	links, err := e.links.ListByCalendar(ctx, channel.UserID, channel.CalendarID)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, link := range links {
		link := link
		g.Go(func() error {
			if err := e.syncLink(gctx, channel.UserID, link.TaskID, link.EventID); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("task %s: %w", link.TaskID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// syncLink fetches the remote event and writes its fields onto the task
func (e *Engine) syncLink(ctx context.Context, userID, taskID, eventID string) error {
	unlock := e.locks.Lock(taskID)
	defer unlock()

	link, err := e.currentLink(ctx, taskID, eventID)
	if err != nil || link == nil {
		return err
	}

	remote, err := e.gateway.GetEvent(ctx, userID, link.CalendarID, link.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteNotFound) {
			return e.completeAndUnlink(ctx, link)
		}
		return err
	}

	log := logger.FromContext(ctx)
	hash := Fingerprint(remote.Summary, remote.Start, remote.End)
	if hash == link.SyncHash && !remote.Cancelled() {
		log.Debug(LogMsgEchoSkipped, "task_id", link.TaskID)
		return nil
	}

	change := e.taskChange(link.TaskID, remote)
	if err := e.tasks.ApplyRemoteChange(ctx, change); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			_, err = e.links.DeleteByTaskID(ctx, link.TaskID)
		}
		return err
	}

	if !remote.AllDay {
		link.ScheduledAt = remote.Start
		link.EventTime = remote.Start.In(e.loc).Format(TimeOfDayLayout)
		link.DurationMinutes = int(remote.End.Sub(remote.Start).Minutes())
	}
	link.SyncHash = hash
	if err := e.links.Upsert(ctx, link); err != nil {
		return err
	}

	log.Info(LogMsgRemoteApplied, "task_id", link.TaskID, "cancelled", remote.Cancelled())
	e.publish(ctx, event.CalendarEventSynced, domain.CalendarEventPayload{
		UserID:     userID,
		TaskID:     link.TaskID,
		EventID:    link.EventID,
		CalendarID: link.CalendarID,
		Operation:  OpNotification,
	})
	return nil
}

// taskChange maps remote fields onto the task. Cancellation completes the
// task; it never deletes it.
func (e *Engine) taskChange(taskID string, remote *domain.RemoteEvent) repository.TaskChange {
	change := repository.TaskChange{TaskID: taskID}
	if remote.Summary != "" {
		summary := remote.Summary
		change.Text = &summary
	}
	if !remote.Start.IsZero() {
		var due time.Time
		if remote.AllDay {
			y, m, d := remote.Start.Date()
			due = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		} else {
			local := remote.Start.In(e.loc)
			y, m, d := local.Date()
			due = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			eventTime := local.Format(TimeOfDayLayout)
			change.EventTime = &eventTime
			if minutes := int(remote.End.Sub(remote.Start).Minutes()); minutes > 0 {
				change.DurationMinutes = &minutes
			}
		}
		change.DueDate = &due
	}
	if remote.Cancelled() {
		completed := true
		change.Completed = &completed
	}
	return change
}

// completeAndUnlink runs with the task lock held
func (e *Engine) completeAndUnlink(ctx context.Context, link *domain.EventLink) error {
	completed := true
	err := e.tasks.ApplyRemoteChange(ctx, repository.TaskChange{TaskID: link.TaskID, Completed: &completed})
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return err
	}

	removed, err := e.links.DeleteByTaskID(ctx, link.TaskID)
	if err != nil {
		return err
	}
	if removed {
		e.publish(ctx, event.CalendarEventDeleted, domain.CalendarEventPayload{
			UserID:     link.UserID,
			TaskID:     link.TaskID,
			EventID:    link.EventID,
			CalendarID: link.CalendarID,
			Operation:  OpNotification,
		})
	}
	return nil
}

// currentLink re-reads the link under the task lock. It returns nil when the
// link is gone or now points at a different event.
func (e *Engine) currentLink(ctx context.Context, taskID, eventID string) (*domain.EventLink, error) {
	link, err := e.links.GetByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrEventLinkNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if link.EventID != eventID {
		return nil, nil
	}
	return link, nil
}

func notificationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrUnknownChannel), errors.Is(err, domain.ErrInvalidChannelToken):
		return metrics.OutcomeIgnored
	default:
		return metrics.OutcomeFailed
	}
}
