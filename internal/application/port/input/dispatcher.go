package input

import (
	"context"

	"shop-agent/internal/domain/entity"
)

// TaskDispatcher enqueues intents for asynchronous execution and returns the
// task handle immediately.
type TaskDispatcher interface {
	Submit(ctx context.Context, intent entity.Intent) (*entity.Task, error)
}
