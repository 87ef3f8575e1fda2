package taskqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-agent/internal/adapter/results"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/logger"
)

type stubRunner struct {
	calls       atomic.Int32
	status      entity.WorkflowStatus
	err         error
	panicsFirst int32
}

func (r *stubRunner) Run(context.Context, entity.Intent) (*entity.WorkflowResult, error) {
	if r.calls.Add(1) <= r.panicsFirst {
		panic("selector table corrupted")
	}
	result := entity.NewWorkflowResult()
	result.Status = r.status
	result.Finalize()
	return result, r.err
}

func (r *stubRunner) SearchIsolated(ctx context.Context, intent entity.Intent, _ int) (*entity.WorkflowResult, error) {
	return r.Run(ctx, intent)
}

type countingSink struct {
	inner      output.ResultSink
	deliveries atomic.Int32
}

func (s *countingSink) Deliver(ctx context.Context, p entity.TaskResultPayload) error {
	s.deliveries.Add(1)
	return s.inner.Deliver(ctx, p)
}

func startQueue(t *testing.T, runner *stubRunner, sink output.ResultSink) *Queue {
	t.Helper()
	queue := NewQueue(runner, sink, logger.NewNopAdapter(), 2)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	queue.Start(ctx)
	return queue
}

func TestQueue_FinishesSuccessfulRun(t *testing.T) {
	runner := &stubRunner{status: entity.StatusNoItems}
	store := results.NewMemoryStore()
	sink := &countingSink{inner: store}
	queue := startQueue(t, runner, sink)

	task, err := queue.Submit(context.Background(), entity.Intent{Action: entity.ActionSearch})
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusQueued, task.Status)
	assert.NotEmpty(t, task.ID)

	require.Eventually(t, func() bool {
		got, ok := queue.Get(task.ID)
		return ok && got.Status == entity.TaskStatusFinished
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), runner.calls.Load(), "business outcomes are terminal, no redelivery")
	assert.Equal(t, int32(1), sink.deliveries.Load())

	payload, ok := store.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, entity.StatusNoItems, payload.Result.Status)
	assert.Empty(t, payload.Error)
}

func TestQueue_RedeliversFailedRunOnce(t *testing.T) {
	runner := &stubRunner{status: entity.StatusError, err: errors.New("session crashed")}
	store := results.NewMemoryStore()
	sink := &countingSink{inner: store}
	queue := startQueue(t, runner, sink)

	task, err := queue.Submit(context.Background(), entity.Intent{Action: entity.ActionCheckout})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return runner.calls.Load() == 2 && sink.deliveries.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Give a third attempt a chance to (wrongly) happen.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runner.calls.Load(), "exactly one redelivery")

	got, ok := queue.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, entity.TaskStatusFailed, got.Status)
	assert.Contains(t, got.Error, "session crashed")

	assert.Equal(t, 1, store.Len(), "duplicate deliveries collapse by task ID")
}

func TestQueue_RecoversFromPanic(t *testing.T) {
	// The first task panics on both its delivery and its redelivery; the
	// second task must still run on a healthy pool.
	runner := &stubRunner{status: entity.StatusOK, panicsFirst: 2}
	store := results.NewMemoryStore()
	sink := &countingSink{inner: store}
	queue := startQueue(t, runner, sink)

	task, err := queue.Submit(context.Background(), entity.Intent{Action: entity.ActionSearch})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, ok := queue.Get(task.ID)
		return ok && got.Status == entity.TaskStatusFailed && runner.calls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)

	got, ok := queue.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, entity.TaskStatusFailed, got.Status)
	assert.Contains(t, got.Error, "workflow panic")

	next, err := queue.Submit(context.Background(), entity.Intent{Action: entity.ActionSearch})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, ok := queue.Get(next.ID)
		return ok && got.Status == entity.TaskStatusFinished
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueue_GetUnknownTask(t *testing.T) {
	queue := NewQueue(&stubRunner{}, nil, logger.NewNopAdapter(), 1)
	_, ok := queue.Get("missing")
	assert.False(t, ok)
}
