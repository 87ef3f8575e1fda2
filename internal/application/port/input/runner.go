package input

import (
	"context"

	"shop-agent/internal/domain/entity"
)

// WorkflowRunner drives a full shopping workflow for one intent.
type WorkflowRunner interface {
	Run(ctx context.Context, intent entity.Intent) (*entity.WorkflowResult, error)
	// SearchIsolated runs only the search phase in a fresh session,
	// retrying with a new session on failure.
	SearchIsolated(ctx context.Context, intent entity.Intent, attempts int) (*entity.WorkflowResult, error)
}
