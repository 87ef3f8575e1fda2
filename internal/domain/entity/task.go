package entity

import "time"

type TaskStatus string

const (
	TaskStatusQueued   TaskStatus = "queued"
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusFailed   TaskStatus = "failed"
)

// Task is the persisted view of one workflow invocation, keyed by the
// dispatch handle.
type Task struct {
	ID         string          `json:"id"`
	WorkflowID int             `json:"workflow_id"`
	UserID     int             `json:"user_id,omitempty"`
	Status     TaskStatus      `json:"status"`
	Result     *WorkflowResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
}

// TaskResultPayload is the result-callback body posted back to the
// persistence layer after every run, success or failure.
type TaskResultPayload struct {
	TaskID     string          `json:"task_id"`
	WorkflowID int             `json:"workflow_id"`
	UserID     int             `json:"user_id,omitempty"`
	Params     Intent          `json:"params"`
	Result     *WorkflowResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}
