// Package mirror keeps remote calendar events and local tasks in step.
// Work on one task is serialized by task id; different tasks run in parallel.
package mirror

import (
	"context"
	"errors"
	"time"

	"github.com/osse101/calsync/internal/calendar"
	"github.com/osse101/calsync/internal/concurrency"
	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/repository"
)

// Gateway is the slice of calendar.Gateway the engine calls
type Gateway interface {
	CreateEvent(ctx context.Context, userID, calendarID string, in domain.EventInput) (*domain.RemoteEvent, error)
	UpdateEvent(ctx context.Context, userID, calendarID, eventID string, in domain.EventInput) (*domain.RemoteEvent, error)
	DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error
	GetEvent(ctx context.Context, userID, calendarID, eventID string) (*domain.RemoteEvent, error)
}

// IntegrationSource resolves a user's active integration
type IntegrationSource interface {
	GetActive(ctx context.Context, userID string) (*domain.Integration, error)
}

// ChannelVerifier checks the token echoed back on a push notification
type ChannelVerifier interface {
	Verify(userID, channelID, token string) bool
}

// Engine mirrors tasks to the remote calendar and applies remote changes back
type Engine struct {
	gateway      Gateway
	integrations IntegrationSource
	links        repository.EventLinks
	channels     repository.WebhookChannels
	tasks        repository.Tasks
	verifier     ChannelVerifier
	bus          event.Bus
	locks        *concurrency.LockManager
	loc          *time.Location
}

// NewEngine creates a sync engine. Mirrored events are placed in loc.
func NewEngine(
	gateway Gateway,
	integrations IntegrationSource,
	links repository.EventLinks,
	channels repository.WebhookChannels,
	tasks repository.Tasks,
	verifier ChannelVerifier,
	bus event.Bus,
	loc *time.Location,
) *Engine {
	if bus == nil {
		bus = event.NopBus{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		gateway:      gateway,
		integrations: integrations,
		links:        links,
		channels:     channels,
		tasks:        tasks,
		verifier:     verifier,
		bus:          bus,
		locks:        concurrency.NewLockManager(),
		loc:          loc,
	}
}

// MirrorTask creates, updates or removes the remote event for task.
// It never fails the caller: problems come back as a degraded result.
func (e *Engine) MirrorTask(ctx context.Context, userID string, task *domain.Task) (res domain.MirrorResult) {
	defer func() { metrics.MirrorResults.WithLabelValues(string(res.Status)).Inc() }()

	unlock := e.locks.Lock(task.ID)
	defer unlock()

	link, err := e.links.GetByTaskID(ctx, task.ID)
	if err != nil && !errors.Is(err, domain.ErrEventLinkNotFound) {
		return e.failed(ctx, userID, task.ID, OpMirror, WarnRemoteFailed, err)
	}

	if !task.AddToCalendar || task.DueDate == nil {
		if link == nil {
			return domain.MirrorResult{TaskID: task.ID, Status: domain.MirrorStatusSkipped}
		}
		return e.unmirrorLocked(ctx, userID, link)
	}

	integration, err := e.integrations.GetActive(ctx, userID)
	if err != nil {
		return e.failed(ctx, userID, task.ID, OpMirror, WarnNotConnected, err)
	}

	sched, err := ComputeSchedule(task, e.loc)
	if err != nil {
		return e.failed(ctx, userID, task.ID, OpMirror, WarnInvalidTask, err)
	}

	hash := Fingerprint(task.Text, sched.Start, sched.End)
	input := domain.EventInput{
		Summary:         task.Text,
		Start:           sched.Start,
		End:             sched.End,
		TimeZone:        e.loc.String(),
		ReminderMinutes: sched.ReminderMinutes,
	}
	if sched.Rule != "" {
		input.Recurrence = []string{sched.Rule}
	}

	status := domain.MirrorStatusCreated
	calendarID := integration.CalendarID()
	var remote *domain.RemoteEvent

	if link != nil {
		if link.SyncHash == hash && link.ReminderMinutes == sched.ReminderMinutes &&
			sameRecurrence(link.Recurrence, sched.Recurrence) {
			return domain.MirrorResult{TaskID: task.ID, Status: domain.MirrorStatusUnchanged, EventID: link.EventID}
		}

		remote, err = e.gateway.UpdateEvent(ctx, userID, link.CalendarID, link.EventID, input)
		switch {
		case err == nil:
			status = domain.MirrorStatusUpdated
			calendarID = link.CalendarID
		case errors.Is(err, domain.ErrRemoteNotFound):
			logger.FromContext(ctx).Info(LogMsgStaleLink, "task_id", task.ID, "user_id", userID)
			if _, err := e.links.DeleteByTaskID(ctx, task.ID); err != nil {
				return e.failed(ctx, userID, task.ID, OpMirror, WarnRemoteFailed, err)
			}
		default:
			return e.failed(ctx, userID, task.ID, OpMirror, WarnRemoteFailed, err)
		}
	}

	if remote == nil {
		remote, err = e.gateway.CreateEvent(ctx, userID, calendarID, input)
		if err != nil {
			return e.failed(ctx, userID, task.ID, OpMirror, WarnRemoteFailed, err)
		}
	}

	newLink := &domain.EventLink{
		TaskID:          task.ID,
		UserID:          userID,
		CalendarID:      calendarID,
		EventID:         remote.ID,
		ScheduledAt:     sched.Start,
		EventTime:       sched.EventTime,
		DurationMinutes: sched.DurationMinutes,
		ReminderMinutes: sched.ReminderMinutes,
		Recurrence:      sched.Recurrence,
		SyncHash:        hash,
	}
	if err := e.links.Upsert(ctx, newLink); err != nil {
		if status == domain.MirrorStatusCreated {
			e.removeOrphan(ctx, userID, calendarID, remote.ID)
		}
		return e.failed(ctx, userID, task.ID, OpMirror, WarnLinkNotStored, err)
	}

	evtType := event.CalendarEventCreated
	if status == domain.MirrorStatusUpdated {
		evtType = event.CalendarEventUpdated
	}
	e.publish(ctx, evtType, domain.CalendarEventPayload{
		UserID:     userID,
		TaskID:     task.ID,
		EventID:    remote.ID,
		CalendarID: calendarID,
		Operation:  OpMirror,
	})

	return domain.MirrorResult{TaskID: task.ID, Status: status, EventID: remote.ID}
}

// UnmirrorTask removes the remote event and link for a deleted task.
// The link is dropped even when the remote delete fails.
func (e *Engine) UnmirrorTask(ctx context.Context, userID, taskID string) (res domain.MirrorResult) {
	defer func() { metrics.MirrorResults.WithLabelValues(string(res.Status)).Inc() }()

	unlock := e.locks.Lock(taskID)
	defer unlock()

	link, err := e.links.GetByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrEventLinkNotFound) {
			return domain.MirrorResult{TaskID: taskID, Status: domain.MirrorStatusSkipped}
		}
		return e.failed(ctx, userID, taskID, OpUnmirror, WarnRemoteFailed, err)
	}
	return e.unmirrorLocked(ctx, userID, link)
}

// unmirrorLocked runs with the task lock held
func (e *Engine) unmirrorLocked(ctx context.Context, userID string, link *domain.EventLink) domain.MirrorResult {
	remoteErr := e.gateway.DeleteEvent(ctx, userID, link.CalendarID, link.EventID)
	if errors.Is(remoteErr, domain.ErrRemoteNotFound) {
		remoteErr = nil
	}

	if _, err := e.links.DeleteByTaskID(ctx, link.TaskID); err != nil {
		return e.failed(ctx, userID, link.TaskID, OpUnmirror, WarnRemoteFailed, err)
	}

	if remoteErr != nil {
		res := e.failed(ctx, userID, link.TaskID, OpUnmirror, WarnRemoteFailed, remoteErr)
		res.EventID = link.EventID
		return res
	}

	e.publish(ctx, event.CalendarEventDeleted, domain.CalendarEventPayload{
		UserID:     userID,
		TaskID:     link.TaskID,
		EventID:    link.EventID,
		CalendarID: link.CalendarID,
		Operation:  OpUnmirror,
	})
	return domain.MirrorResult{TaskID: link.TaskID, Status: domain.MirrorStatusDeleted, EventID: link.EventID}
}

func (e *Engine) removeOrphan(ctx context.Context, userID, calendarID, eventID string) {
	if err := e.gateway.DeleteEvent(ctx, userID, calendarID, eventID); err != nil && !errors.Is(err, domain.ErrRemoteNotFound) {
		logger.FromContext(ctx).Warn(LogMsgOrphanCleanupFailed,
			"user_id", userID, "event_id", eventID, "error_code", calendar.ErrorCode(err))
	}
}

// failed builds a degraded result and records the failure
func (e *Engine) failed(ctx context.Context, userID, taskID, op, warning string, err error) domain.MirrorResult {
	status := domain.MirrorStatusFailed
	switch {
	case errors.Is(err, domain.ErrIntegrationMissing):
		status = domain.MirrorStatusNotConnected
		warning = WarnNotConnected
	case errors.Is(err, domain.ErrReauthRequired):
		status = domain.MirrorStatusNotConnected
		warning = WarnReauth
	}

	code := calendar.ErrorCode(err)
	if status == domain.MirrorStatusFailed {
		log := logger.FromContext(ctx)
		msg := LogMsgMirrorFailed
		if op == OpUnmirror {
			msg = LogMsgUnmirrorFailed
		}
		log.Warn(msg, "task_id", taskID, "user_id", userID, "error_code", code, "error", err)
		e.publish(ctx, event.CalendarError, domain.CalendarEventPayload{
			UserID:    userID,
			TaskID:    taskID,
			Operation: op,
			ErrorCode: code,
		})
	}

	return domain.MirrorResult{TaskID: taskID, Status: status, Warning: warning, Err: err}
}

func (e *Engine) publish(ctx context.Context, t event.Type, payload domain.CalendarEventPayload) {
	if err := e.bus.Publish(ctx, event.NewCalendarEvent(t, payload)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", t, "error", err)
	}
}
