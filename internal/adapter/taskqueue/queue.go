package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"shop-agent/internal/application/port/input"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ input.TaskDispatcher = (*Queue)(nil)

// defaultWorkflowID tags runs dispatched through the generic shopping
// workflow; there is currently only one workflow definition.
const defaultWorkflowID = 1

// taskTimeout bounds a single run so a stuck browser cannot hold a worker
// slot forever.
const taskTimeout = 30 * time.Minute

type job struct {
	task    *entity.Task
	intent  entity.Intent
	attempt int
}

// Queue executes workflow runs on a fixed pool of workers. Delivery is
// at-least-once for failed runs: a run that ends in an execution error is
// re-enqueued exactly once, so the result sink must tolerate duplicate task
// IDs. Business outcomes (login_failed, no_items, failed_add) are terminal
// and never redelivered.
type Queue struct {
	runner      input.WorkflowRunner
	sink        output.ResultSink
	logger      output.LoggerPort
	concurrency int

	jobs chan job

	mu    sync.RWMutex
	tasks map[string]*entity.Task

	wg sync.WaitGroup
}

func NewQueue(runner input.WorkflowRunner, sink output.ResultSink, logger output.LoggerPort, concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Queue{
		runner:      runner,
		sink:        sink,
		logger:      logger,
		concurrency: concurrency,
		jobs:        make(chan job, 64),
		tasks:       make(map[string]*entity.Task),
	}
}

// Start launches the worker pool. Workers drain until the context is
// cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-q.jobs:
					if !ok {
						return
					}
					q.execute(ctx, j)
				}
			}
		}(i)
	}
}

// Wait blocks until all workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) Submit(ctx context.Context, intent entity.Intent) (*entity.Task, error) {
	task := &entity.Task{
		ID:         uuid.NewString(),
		WorkflowID: defaultWorkflowID,
		UserID:     intent.UserID,
		Status:     entity.TaskStatusQueued,
	}

	q.mu.Lock()
	q.tasks[task.ID] = task
	q.mu.Unlock()

	select {
	case q.jobs <- job{task: task, intent: intent}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	q.logger.Info("task queued", "taskID", task.ID, "action", string(intent.Action))
	return q.snapshot(task.ID), nil
}

// Get returns a copy of the task record.
func (q *Queue) Get(id string) (*entity.Task, bool) {
	t := q.snapshot(id)
	return t, t != nil
}

func (q *Queue) execute(ctx context.Context, j job) {
	q.update(j.task.ID, func(t *entity.Task) {
		t.Status = entity.TaskStatusRunning
		t.StartedAt = time.Now().UTC()
	})

	runCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	result, runErr := q.runSafely(runCtx, j.intent)
	cancel()

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	q.update(j.task.ID, func(t *entity.Task) {
		t.Result = result
		t.Error = errMsg
		t.FinishedAt = time.Now().UTC()
		if runErr != nil {
			t.Status = entity.TaskStatusFailed
		} else {
			t.Status = entity.TaskStatusFinished
		}
	})

	q.deliver(ctx, j, result, errMsg)

	if runErr != nil && j.attempt == 0 {
		q.logger.Warn("run failed, redelivering once", "taskID", j.task.ID, "error", runErr)
		select {
		case q.jobs <- job{task: j.task, intent: j.intent, attempt: 1}:
		default:
			q.logger.Error("redelivery dropped, queue full", "taskID", j.task.ID)
		}
	}
}

// runSafely converts a panicking runner into an error result so one bad run
// never takes a worker down.
func (q *Queue) runSafely(ctx context.Context, intent entity.Intent) (result *entity.WorkflowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow panic: %v", r)
			result = entity.NewWorkflowResult()
			result.Status = entity.StatusError
			result.Message = err.Error()
			result.Finalize()
		}
	}()
	return q.runner.Run(ctx, intent)
}

// deliver posts the terminal payload to the result sink. Failures are
// logged, never escalated: the task record is the authoritative outcome.
func (q *Queue) deliver(ctx context.Context, j job, result *entity.WorkflowResult, errMsg string) {
	if q.sink == nil {
		return
	}
	payload := entity.TaskResultPayload{
		TaskID:     j.task.ID,
		WorkflowID: j.task.WorkflowID,
		UserID:     j.task.UserID,
		Params:     j.intent,
		Result:     result,
		Error:      errMsg,
	}
	if err := q.sink.Deliver(ctx, payload); err != nil {
		q.logger.Warn("result callback failed", "taskID", j.task.ID, "error", err)
	}
}

func (q *Queue) update(id string, fn func(*entity.Task)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.tasks[id]; ok {
		fn(t)
	}
}

func (q *Queue) snapshot(id string) *entity.Task {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tasks[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}
