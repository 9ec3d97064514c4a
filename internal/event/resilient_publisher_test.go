package event

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
)

// flakyBus fails the first failures publishes, or every publish when failures is negative
type flakyBus struct {
	mu       sync.Mutex
	failures int
	attempts []time.Time
	delay    time.Duration
}

func (b *flakyBus) Publish(ctx context.Context, evt Event) error {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = append(b.attempts, time.Now())
	if b.failures < 0 || len(b.attempts) <= b.failures {
		return errors.New("subscriber unavailable")
	}
	return nil
}

func (b *flakyBus) Subscribe(Type, Handler) {}

func (b *flakyBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attempts)
}

func (b *flakyBus) gaps() []time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []time.Duration
	for i := 1; i < len(b.attempts); i++ {
		out = append(out, b.attempts[i].Sub(b.attempts[i-1]))
	}
	return out
}

func newPublisher(t *testing.T, bus Bus, maxRetries int, delay time.Duration) (*ResilientPublisher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deadletter.jsonl")
	rp, err := NewResilientPublisher(bus, maxRetries, delay, path)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rp.Shutdown(ctx)
	})
	return rp, path
}

func createdEvent(taskID string) Event {
	return NewCalendarEvent(CalendarEventCreated, domain.CalendarEventPayload{UserID: "user-1", TaskID: taskID, EventID: "evt-" + taskID})
}

func TestResilientPublisher_DeliversFirstTime(t *testing.T) {
	bus := &flakyBus{}
	rp, path := newPublisher(t, bus, 3, 10*time.Millisecond)

	require.NoError(t, rp.Publish(context.Background(), createdEvent("t1")))

	assert.Equal(t, 1, bus.count())
	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResilientPublisher_RetriesUntilDelivered(t *testing.T) {
	bus := &flakyBus{failures: 2}
	rp, path := newPublisher(t, bus, 5, 20*time.Millisecond)

	require.NoError(t, rp.Publish(context.Background(), createdEvent("t2")), "delivery failures never reach the caller")

	require.Eventually(t, func() bool { return bus.count() == 3 }, 2*time.Second, 5*time.Millisecond)
	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResilientPublisher_BackoffDoubles(t *testing.T) {
	base := 40 * time.Millisecond
	bus := &flakyBus{failures: 3}
	rp, _ := newPublisher(t, bus, 5, base)

	rp.PublishWithRetry(context.Background(), createdEvent("t3"))
	require.Eventually(t, func() bool { return bus.count() == 4 }, 3*time.Second, 5*time.Millisecond)

	gaps := bus.gaps()
	require.Len(t, gaps, 3)
	// gap n waits base * 2^(n-1), measured loosely
	for i, gap := range gaps {
		want := CalculateRetryDelay(base, i+1)
		assert.GreaterOrEqual(t, gap, want-5*time.Millisecond, "gap %d", i)
	}
	assert.Greater(t, gaps[2], gaps[0])
}

func TestResilientPublisher_ExhaustedEventsAreDeadLettered(t *testing.T) {
	bus := &flakyBus{failures: -1}
	rp, path := newPublisher(t, bus, 2, 10*time.Millisecond)

	rp.PublishWithRetry(context.Background(), NewCalendarErrorEvent("user-9", "create_event", "transient"))

	var entries []DeadLetterEntry
	require.Eventually(t, func() bool {
		var err error
		entries, err = ReadDeadLetters(path)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := entries[0]
	assert.Equal(t, DeadLetterSchemaVersion, entry.SchemaVersion)
	assert.Equal(t, CalendarError, entry.Event.Type)
	assert.Equal(t, 2, entry.Attempts)
	assert.Equal(t, "subscriber unavailable", entry.LastError)

	payload, err := CalendarPayload(entry.Event)
	require.NoError(t, err)
	assert.Equal(t, "user-9", payload.UserID)
	assert.Equal(t, "transient", payload.ErrorCode)
}

func TestResilientPublisher_FullQueueDeadLetters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletter.jsonl")
	dl, err := NewDeadLetterWriter(path)
	require.NoError(t, err)

	// No retry worker runs, so the one-slot queue stays full.
	rp := &ResilientPublisher{
		bus:        &flakyBus{failures: -1},
		retryQueue: make(chan retryEntry, 1),
		maxRetries: 3,
		retryDelay: time.Hour,
		deadLetter: dl,
		shutdown:   make(chan struct{}),
	}

	for i := 0; i < 3; i++ {
		rp.PublishWithRetry(context.Background(), createdEvent("overflow"))
	}
	require.NoError(t, dl.Close())

	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Len(t, rp.retryQueue, 1)
}

func TestResilientPublisher_ShutdownGivesQueuedEventsALastAttempt(t *testing.T) {
	bus := &flakyBus{failures: 3}
	path := filepath.Join(t.TempDir(), "deadletter.jsonl")
	rp, err := NewResilientPublisher(bus, 5, time.Hour, path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rp.PublishWithRetry(context.Background(), createdEvent("pending"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rp.Shutdown(ctx))

	assert.Equal(t, 6, bus.count(), "each queued event is retried once on shutdown")
	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResilientPublisher_ConcurrentPublishes(t *testing.T) {
	bus := &flakyBus{}
	rp, _ := newPublisher(t, bus, 3, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				rp.PublishWithRetry(context.Background(), createdEvent("concurrent"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, bus.count())
}

func TestResilientPublisher_PublishAfterShutdown(t *testing.T) {
	bus := &flakyBus{failures: -1}
	rp, err := NewResilientPublisher(bus, 3, time.Hour, filepath.Join(t.TempDir(), "deadletter.jsonl"))
	require.NoError(t, err)
	require.NoError(t, rp.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		rp.PublishWithRetry(context.Background(), NewCalendarEvent(CalendarEventDeleted, domain.CalendarEventPayload{UserID: "u"}))
	})
	assert.Equal(t, 1, bus.count())
}

func TestReadDeadLetters_MissingFile(t *testing.T) {
	entries, err := ReadDeadLetters(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestCalculateRetryDelay(t *testing.T) {
	base := 2 * time.Second
	assert.Equal(t, 2*time.Second, CalculateRetryDelay(base, 1))
	assert.Equal(t, 4*time.Second, CalculateRetryDelay(base, 2))
	assert.Equal(t, 16*time.Second, CalculateRetryDelay(base, 4))
}
