package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/testing/leaktest"
	"github.com/osse101/calsync/internal/webhook"
)

type testJob struct {
	executed *int32
	block    chan struct{}
	err      error
	panics   bool
	sawDL    *atomic.Bool
}

func (j *testJob) Name() string { return "test" }

func (j *testJob) Process(ctx context.Context) error {
	if j.sawDL != nil {
		_, ok := ctx.Deadline()
		j.sawDL.Store(ok)
	}
	if j.block != nil {
		<-j.block
	}
	if j.panics {
		panic("boom")
	}
	atomic.AddInt32(j.executed, 1)
	return j.err
}

func TestPool(t *testing.T) {
	var executed int32
	var sawDeadline atomic.Bool
	pool := NewPool(TestWorkerCount, TestQueueSize, TestJobTimeout)
	pool.Start()

	require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed, sawDL: &sawDeadline}))
	require.NoError(t, pool.Enqueue(context.Background(), &testJob{executed: &executed, err: errors.New("fails")}))

	pool.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&executed), "Stop drains accepted jobs")
	assert.True(t, sawDeadline.Load(), "jobs run with a deadline")
}

func TestPool_StopReleasesWorkers(t *testing.T) {
	leaktest.Run(t, time.Second, func() {
		var executed int32
		pool := NewPool(TestWorkerCount, TestQueueSize, TestJobTimeout)
		pool.Start()
		require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed}))
		pool.Stop()
	})
}

func TestPool_TryEnqueueWhenFull(t *testing.T) {
	var executed int32
	block := make(chan struct{})
	pool := NewPool(1, 1, TestJobTimeout)
	pool.Start()

	require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed, block: block}))
	// Wait for the worker to pick up the blocking job so the queue is empty again
	require.Eventually(t, func() bool { return len(pool.jobQueue) == 0 }, TestWaitDeadline, time.Millisecond)
	require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed}))

	assert.ErrorIs(t, pool.TryEnqueue(&testJob{executed: &executed}), ErrQueueFull)

	close(block)
	pool.Stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&executed))
}

func TestPool_EnqueueAfterStop(t *testing.T) {
	pool := NewPool(1, 1, TestJobTimeout)
	pool.Start()
	pool.Stop()
	pool.Stop()

	var executed int32
	assert.ErrorIs(t, pool.TryEnqueue(&testJob{executed: &executed}), ErrPoolStopped)
	assert.ErrorIs(t, pool.Enqueue(context.Background(), &testJob{executed: &executed}), ErrPoolStopped)
}

func TestPool_SurvivesPanic(t *testing.T) {
	var executed int32
	pool := NewPool(1, TestQueueSize, TestJobTimeout)
	pool.Start()

	require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed, panics: true}))
	require.NoError(t, pool.TryEnqueue(&testJob{executed: &executed}))
	pool.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

type MockNotificationHandler struct {
	mock.Mock
}

func (m *MockNotificationHandler) HandleNotification(ctx context.Context, n domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestNotificationJob(t *testing.T) {
	n := domain.Notification{ChannelID: "c1", ResourceState: domain.ResourceStateExists}

	t.Run("unknown channel is dropped", func(t *testing.T) {
		h := new(MockNotificationHandler)
		h.On("HandleNotification", mock.Anything, n).Return(domain.ErrUnknownChannel)

		job := &NotificationJob{Handler: h, Notification: n}
		assert.NoError(t, job.Process(context.Background()))
		h.AssertExpectations(t)
	})

	t.Run("other failures surface", func(t *testing.T) {
		h := new(MockNotificationHandler)
		h.On("HandleNotification", mock.Anything, n).Return(domain.ErrRemoteTransient)

		job := &NotificationJob{Handler: h, Notification: n, RequestID: "req-1"}
		assert.ErrorIs(t, job.Process(context.Background()), domain.ErrRemoteTransient)
	})
}

type MockRenewer struct {
	mock.Mock
}

func (m *MockRenewer) RenewExpiring(ctx context.Context, horizon time.Duration) (webhook.RenewalReport, error) {
	args := m.Called(ctx, horizon)
	return args.Get(0).(webhook.RenewalReport), args.Error(1)
}

func TestRenewalJob(t *testing.T) {
	r := new(MockRenewer)
	r.On("RenewExpiring", mock.Anything, 12*time.Hour).Return(webhook.RenewalReport{Checked: 2, Renewed: 1, Failed: 1}, nil)

	job := &RenewalJob{Renewer: r, Horizon: 12 * time.Hour}

	assert.Equal(t, JobNameRenewal, job.Name())
	assert.NoError(t, job.Process(context.Background()))
	r.AssertExpectations(t)
}
