package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
)

func qReport() *domain.Task {
	return &domain.Task{
		ID:              "task-q",
		UserID:          testUser,
		Text:            "Q report",
		AddToCalendar:   true,
		DueDate:         date(2025, 3, 10),
		EventTime:       "09:00",
		DurationMinutes: 60,
	}
}

func TestMirrorTask_CreatesEventAndLink(t *testing.T) {
	h := newHarness(time.UTC)

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	require.Equal(t, domain.MirrorStatusCreated, res.Status)
	require.Len(t, h.gateway.creates, 1)
	in := h.gateway.creates[0]
	assert.Equal(t, "Q report", in.Summary)
	assert.Equal(t, "2025-03-10T09:00", in.Start.Format("2006-01-02T15:04"))
	assert.Equal(t, "2025-03-10T10:00", in.End.Format("2006-01-02T15:04"))
	assert.Equal(t, "UTC", in.TimeZone)
	assert.Equal(t, 30, in.ReminderMinutes)

	link, err := h.links.GetByTaskID(context.Background(), "task-q")
	require.NoError(t, err)
	assert.Equal(t, res.EventID, link.EventID)
	assert.Equal(t, domain.DefaultCalendarID, link.CalendarID)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), link.ScheduledAt)
	assert.Equal(t, "09:00", link.EventTime)
	assert.Equal(t, 60, link.DurationMinutes)
	assert.NotEmpty(t, link.SyncHash)
	assert.Equal(t, []event.Type{event.CalendarEventCreated}, h.bus.published())
}

func TestMirrorTask_UsesDefaultCalendar(t *testing.T) {
	h := newHarness(time.UTC)
	h.ints.integration.DefaultCalendarID = "work@example.com"

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	require.Equal(t, domain.MirrorStatusCreated, res.Status)
	link, err := h.links.GetByTaskID(context.Background(), "task-q")
	require.NoError(t, err)
	assert.Equal(t, "work@example.com", link.CalendarID)
}

func TestMirrorTask_UnchangedSkipsRemoteCall(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	first := h.engine.MirrorTask(ctx, testUser, qReport())
	require.Equal(t, domain.MirrorStatusCreated, first.Status)

	res := h.engine.MirrorTask(ctx, testUser, qReport())

	assert.Equal(t, domain.MirrorStatusUnchanged, res.Status)
	assert.Equal(t, first.EventID, res.EventID)
	assert.Equal(t, 0, h.gateway.updates)
	assert.Len(t, h.gateway.creates, 1)
}

func TestMirrorTask_UpdatesLinkedEvent(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	first := h.engine.MirrorTask(ctx, testUser, qReport())

	task := qReport()
	task.Text = "Q report (final)"
	task.EventTime = "11:00"
	res := h.engine.MirrorTask(ctx, testUser, task)

	require.Equal(t, domain.MirrorStatusUpdated, res.Status)
	assert.Equal(t, first.EventID, res.EventID)
	assert.Equal(t, 1, h.gateway.updates)
	link, err := h.links.GetByTaskID(ctx, "task-q")
	require.NoError(t, err)
	assert.Equal(t, "11:00", link.EventTime)
	assert.Equal(t, Fingerprint(task.Text, link.ScheduledAt, link.ScheduledAt.Add(time.Hour)), link.SyncHash)
}

func TestMirrorTask_ReminderChangeIsPushed(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	h.engine.MirrorTask(ctx, testUser, qReport())

	task := qReport()
	task.ReminderMinutes = intPtr(10)
	res := h.engine.MirrorTask(ctx, testUser, task)

	assert.Equal(t, domain.MirrorStatusUpdated, res.Status)
}

func TestMirrorTask_StaleLinkIsRecreated(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	first := h.engine.MirrorTask(ctx, testUser, qReport())
	require.NoError(t, h.gateway.DeleteEvent(ctx, testUser, "primary", first.EventID))

	task := qReport()
	task.Text = "Q report v2"
	res := h.engine.MirrorTask(ctx, testUser, task)

	require.Equal(t, domain.MirrorStatusCreated, res.Status)
	assert.NotEqual(t, first.EventID, res.EventID)
	link, err := h.links.GetByTaskID(ctx, "task-q")
	require.NoError(t, err)
	assert.Equal(t, res.EventID, link.EventID)
	assert.Equal(t, 1, h.gateway.count())
}

func TestMirrorTask_OptOutRemovesEvent(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	h.engine.MirrorTask(ctx, testUser, qReport())

	task := qReport()
	task.AddToCalendar = false
	res := h.engine.MirrorTask(ctx, testUser, task)

	assert.Equal(t, domain.MirrorStatusDeleted, res.Status)
	assert.Equal(t, 0, h.links.count())
	assert.Equal(t, 0, h.gateway.count())
}

func TestMirrorTask_NotOptedIn(t *testing.T) {
	h := newHarness(time.UTC)
	task := qReport()
	task.AddToCalendar = false

	res := h.engine.MirrorTask(context.Background(), testUser, task)

	assert.Equal(t, domain.MirrorStatusSkipped, res.Status)
	assert.Empty(t, h.gateway.creates)
}

func TestMirrorTask_NotConnected(t *testing.T) {
	h := newHarness(time.UTC)
	h.ints.err = domain.ErrIntegrationMissing

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	assert.Equal(t, domain.MirrorStatusNotConnected, res.Status)
	assert.True(t, res.Degraded())
	assert.Equal(t, WarnNotConnected, res.Warning)
	assert.Empty(t, h.gateway.creates)
	assert.Empty(t, h.bus.published(), "not being connected is not an error")
}

func TestMirrorTask_RemoteFailureIsDegraded(t *testing.T) {
	h := newHarness(time.UTC)
	h.gateway.createErr = domain.ErrRemoteTransient

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	assert.Equal(t, domain.MirrorStatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrRemoteTransient)
	assert.Equal(t, WarnRemoteFailed, res.Warning)
	assert.Equal(t, 0, h.links.count())
	assert.Equal(t, []event.Type{event.CalendarError}, h.bus.published())
}

func TestMirrorTask_ReauthRequired(t *testing.T) {
	h := newHarness(time.UTC)
	h.gateway.createErr = domain.ErrReauthRequired

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	assert.Equal(t, domain.MirrorStatusNotConnected, res.Status)
	assert.Equal(t, WarnReauth, res.Warning)
}

func TestMirrorTask_LinkFailureRemovesCreatedEvent(t *testing.T) {
	h := newHarness(time.UTC)
	h.links.upsertErr = assert.AnError

	res := h.engine.MirrorTask(context.Background(), testUser, qReport())

	assert.Equal(t, domain.MirrorStatusFailed, res.Status)
	assert.Equal(t, WarnLinkNotStored, res.Warning)
	assert.Equal(t, 0, h.gateway.count())
}

func TestUnmirrorTask_CreateThenDeleteLeavesNothing(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()

	created := h.engine.MirrorTask(ctx, testUser, qReport())
	require.Equal(t, domain.MirrorStatusCreated, created.Status)

	res := h.engine.UnmirrorTask(ctx, testUser, "task-q")

	assert.Equal(t, domain.MirrorStatusDeleted, res.Status)
	assert.Equal(t, created.EventID, res.EventID)
	assert.Equal(t, 0, h.links.count())
	assert.Equal(t, 0, h.gateway.count())
}

func TestUnmirrorTask_RemoteFailureStillDropsLink(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	h.engine.MirrorTask(ctx, testUser, qReport())
	h.gateway.deleteErr = domain.ErrRemoteTransient

	res := h.engine.UnmirrorTask(ctx, testUser, "task-q")

	assert.Equal(t, domain.MirrorStatusFailed, res.Status)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, 0, h.links.count())
}

func TestUnmirrorTask_AlreadyGoneRemotely(t *testing.T) {
	h := newHarness(time.UTC)
	ctx := context.Background()
	created := h.engine.MirrorTask(ctx, testUser, qReport())
	require.NoError(t, h.gateway.DeleteEvent(ctx, testUser, "primary", created.EventID))

	res := h.engine.UnmirrorTask(ctx, testUser, "task-q")

	assert.Equal(t, domain.MirrorStatusDeleted, res.Status)
}

func TestUnmirrorTask_NoLink(t *testing.T) {
	h := newHarness(time.UTC)

	res := h.engine.UnmirrorTask(context.Background(), testUser, "task-none")

	assert.Equal(t, domain.MirrorStatusSkipped, res.Status)
	assert.Equal(t, 0, h.gateway.deletes)
}
