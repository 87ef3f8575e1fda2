package output

import (
	"context"

	"shop-agent/internal/domain/entity"
)

// ResultSink receives the terminal payload of every task run. Deliveries may
// repeat for the same task ID, so implementations must be idempotent.
type ResultSink interface {
	Deliver(ctx context.Context, payload entity.TaskResultPayload) error
}
