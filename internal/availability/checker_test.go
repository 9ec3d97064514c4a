package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListEvents(ctx context.Context, userID, calendarID string, window domain.TimeWindow) ([]domain.RemoteEvent, error) {
	args := m.Called(ctx, userID, calendarID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RemoteEvent), args.Error(1)
}

type MockIntegrations struct {
	mock.Mock
}

func (m *MockIntegrations) GetActive(ctx context.Context, userID string) (*domain.Integration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Integration), args.Error(1)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func busy(summary string, sh, sm, eh, em int) domain.RemoteEvent {
	return domain.RemoteEvent{Summary: summary, Start: at(sh, sm), End: at(eh, em), Status: domain.EventStatusConfirmed}
}

func newChecker(t *testing.T, events []domain.RemoteEvent) (*Checker, *MockGateway) {
	t.Helper()
	gw := new(MockGateway)
	ints := new(MockIntegrations)
	ints.On("GetActive", mock.Anything, "u1").Return(&domain.Integration{UserID: "u1", IsActive: true}, nil)
	wholeDay := mock.MatchedBy(func(w domain.TimeWindow) bool {
		return w.Start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) &&
			w.End.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	})
	gw.On("ListEvents", mock.Anything, "u1", domain.DefaultCalendarID, wholeDay).Return(events, nil).Once()
	return NewChecker(gw, ints, time.UTC), gw
}

func TestCheck_Overlap(t *testing.T) {
	c, gw := newChecker(t, []domain.RemoteEvent{busy("Standup", 10, 0, 11, 0)})

	res, err := c.Check(context.Background(), "u1", "2025-03-10", "10:30", "11:30")

	require.NoError(t, err)
	assert.False(t, res.Available)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "Standup", res.Conflicts[0].Summary)
	assert.Equal(t, "2025-03-10T10:00:00Z", res.Conflicts[0].Start)
	assert.Equal(t, []string{"09:00", "11:00", "13:00"}, res.SuggestedTimes)
	gw.AssertExpectations(t)
}

func TestCheck_TouchingWindowIsFree(t *testing.T) {
	c, gw := newChecker(t, []domain.RemoteEvent{busy("Standup", 10, 0, 11, 0)})

	res, err := c.Check(context.Background(), "u1", "2025-03-10", "11:00", "12:00")

	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, res.SuggestedTimes)
	gw.AssertExpectations(t)
}

func TestCheck_IgnoresCancelledAndTransparent(t *testing.T) {
	cancelled := busy("Cancelled", 10, 0, 11, 0)
	cancelled.Status = domain.EventStatusCancelled
	free := busy("Working from home", 9, 0, 17, 0)
	free.Transparency = domain.TransparencyTransparent
	c, _ := newChecker(t, []domain.RemoteEvent{cancelled, free})

	res, err := c.Check(context.Background(), "u1", "2025-03-10", "10:00", "11:00")

	require.NoError(t, err)
	assert.True(t, res.Available)
}

func TestCheck_InvalidInput(t *testing.T) {
	c := NewChecker(new(MockGateway), new(MockIntegrations), time.UTC)

	tests := []struct {
		name, date, start, end string
	}{
		{"bad date", "10/03/2025", "10:00", "11:00"},
		{"bad start", "2025-03-10", "10am", "11:00"},
		{"bad end", "2025-03-10", "10:00", "25:00"},
		{"end before start", "2025-03-10", "11:00", "10:00"},
		{"empty window", "2025-03-10", "10:00", "10:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Check(context.Background(), "u1", tt.date, tt.start, tt.end)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCheck_NotConnected(t *testing.T) {
	ints := new(MockIntegrations)
	ints.On("GetActive", mock.Anything, "u1").Return(nil, domain.ErrIntegrationMissing)
	gw := new(MockGateway)
	c := NewChecker(gw, ints, time.UTC)

	_, err := c.Check(context.Background(), "u1", "2025-03-10", "10:00", "11:00")

	assert.ErrorIs(t, err, domain.ErrIntegrationMissing)
	gw.AssertNotCalled(t, "ListEvents")
}

func TestCheck_GatewayError(t *testing.T) {
	ints := new(MockIntegrations)
	ints.On("GetActive", mock.Anything, "u1").Return(&domain.Integration{DefaultCalendarID: "work"}, nil)
	gw := new(MockGateway)
	gw.On("ListEvents", mock.Anything, "u1", "work", mock.Anything).Return(nil, domain.ErrRemoteTransient)
	c := NewChecker(gw, ints, time.UTC)

	_, err := c.Check(context.Background(), "u1", "2025-03-10", "10:00", "11:00")

	assert.ErrorIs(t, err, domain.ErrRemoteTransient)
}

func TestSuggest(t *testing.T) {
	day := at(0, 0)

	t.Run("skips busy slots", func(t *testing.T) {
		events := []domain.RemoteEvent{busy("Morning", 9, 0, 12, 0), busy("Lunch+", 13, 30, 14, 30)}
		assert.Equal(t, []string{"15:00", "16:00"}, Suggest(day, time.Hour, events, time.UTC))
	})

	t.Run("caps at three", func(t *testing.T) {
		assert.Equal(t, []string{"09:00", "10:00", "11:00"}, Suggest(day, time.Hour, nil, time.UTC))
	})

	t.Run("long duration", func(t *testing.T) {
		events := []domain.RemoteEvent{busy("Block", 12, 0, 13, 0)}
		assert.Equal(t, []string{"09:00", "13:00", "14:00"}, Suggest(day, 3*time.Hour, events, time.UTC))
	})

	t.Run("fully booked", func(t *testing.T) {
		events := []domain.RemoteEvent{busy("All day", 0, 0, 23, 59)}
		assert.Empty(t, Suggest(day, time.Hour, events, time.UTC))
	})
}

func TestCheck_LogsResult(t *testing.T) {
	c, _ := newChecker(t, []domain.RemoteEvent{busy("Standup", 10, 0, 11, 0)})
	var buf bytes.Buffer
	ctx := logger.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := c.Check(ctx, "u1", "2025-03-10", "10:30", "11:30")
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, LogMsgAvailabilityChecked, entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.EqualValues(t, 1, entry["conflicts"])
}
