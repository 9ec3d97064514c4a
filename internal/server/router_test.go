package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/handler"
	"github.com/osse101/calsync/internal/oauth"
	"github.com/osse101/calsync/internal/worker"
)

type stubPool struct{ err error }

func (p stubPool) Ping(ctx context.Context) error { return p.err }
func (p stubPool) Close()                         {}

type stubIntegrations struct{}

func (stubIntegrations) AuthURL(userID string) (string, error) {
	return "https://accounts.example.com/auth?state=" + userID, nil
}

func (stubIntegrations) Complete(ctx context.Context, userID, code, state string) ([]domain.RemoteCalendar, error) {
	return nil, nil
}

func (stubIntegrations) Status(ctx context.Context, userID string) (*oauth.Status, error) {
	return &oauth.Status{Connected: true, DefaultCalendarID: "primary"}, nil
}

func (stubIntegrations) SetDefaultCalendar(ctx context.Context, userID, calendarID string) error {
	return nil
}

func (stubIntegrations) Disconnect(ctx context.Context, userID string) error { return nil }

type stubAvailability struct{}

func (stubAvailability) Check(ctx context.Context, userID, date, startTime, endTime string) (*domain.Availability, error) {
	return &domain.Availability{Available: true}, nil
}

type stubMirror struct{}

func (stubMirror) MirrorTask(ctx context.Context, userID string, task *domain.Task) domain.MirrorResult {
	return domain.MirrorResult{TaskID: task.ID, Status: domain.MirrorStatusCreated, EventID: "evt-1"}
}

func (stubMirror) UnmirrorTask(ctx context.Context, userID, taskID string) domain.MirrorResult {
	return domain.MirrorResult{TaskID: taskID, Status: domain.MirrorStatusDeleted}
}

type stubQueue struct{ jobs []worker.Job }

func (q *stubQueue) TryEnqueue(job worker.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type stubNotifications struct{}

func (stubNotifications) HandleNotification(ctx context.Context, n domain.Notification) error {
	return nil
}

const testAPIKey = "router-key"

func newTestRouter(t *testing.T, pool stubPool) (http.Handler, *stubQueue) {
	t.Helper()
	queue := &stubQueue{}
	h := Handlers{
		Integrations: handler.NewIntegrationHandlers(stubIntegrations{}, stubAvailability{}, "https://app.example.com"),
		Tasks:        handler.NewTaskCalendarHandlers(stubMirror{}),
		Webhooks:     handler.NewWebhookHandler(queue, stubNotifications{}),
	}
	return NewRouter(Config{APIKey: testAPIKey, WebhookRate: 100, WebhookBurst: 100}, pool, h), queue
}

func TestRouter_ProbesArePublic(t *testing.T) {
	router, _ := newTestRouter(t, stubPool{})

	for _, path := range []string{PathHealthz, PathReadyz, PathVersion, PathMetrics} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_ReadyzReportsDatabaseFailure(t *testing.T) {
	router, _ := newTestRouter(t, stubPool{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathReadyz, nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_IntegrationRequiresAPIKey(t *testing.T) {
	router, _ := newTestRouter(t, stubPool{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/google-calendar", nil)
	req.Header.Set(handler.HeaderUserID, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set(HeaderAPIKey, testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connected":true,"defaultCalendarId":"primary","calendars":null}`, rec.Body.String())
	assert.Equal(t, HeaderValueNoStore, rec.Header().Get(HeaderCacheControl))
}

func TestRouter_CallbackRedirectsWithoutAPIKey(t *testing.T) {
	router, _ := newTestRouter(t, stubPool{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathOAuthCallback+"?code=abc&state=xyz", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://app.example.com/settings?"))
}

func TestRouter_TaskMirrorRoutes(t *testing.T) {
	router, _ := newTestRouter(t, stubPool{})

	body := `{"text":"Dentist","dueDate":"2025-03-10","eventTime":"09:30"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/tasks/task-9/calendar", strings.NewReader(body))
	req.Header.Set(HeaderAPIKey, testAPIKey)
	req.Header.Set(handler.HeaderUserID, "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"task-9"`)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/task-9/calendar", nil)
	req.Header.Set(HeaderAPIKey, testAPIKey)
	req.Header.Set(handler.HeaderUserID, "user-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.MirrorStatusDeleted))
}

func TestRouter_WebhookIsPublicAndQueues(t *testing.T) {
	router, queue := newTestRouter(t, stubPool{})

	req := httptest.NewRequest(http.MethodPost, PathWebhook, nil)
	req.Header.Set(handler.HeaderGoogChannelID, "chan-1")
	req.Header.Set(handler.HeaderGoogResourceState, "exists")
	req.Header.Set(handler.HeaderGoogChannelToken, "token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, queue.jobs, 1)
}
