package output

import (
	"context"

	"shop-agent/internal/domain/entity"
)

type UserInteractionPort interface {
	// Confirm asks the user to approve a spending action before it runs.
	Confirm(ctx context.Context, prompt string) (bool, error)

	ShowIntent(ctx context.Context, intent entity.Intent)
	ShowPhase(ctx context.Context, phase entity.Phase, substatus string)
	ShowResult(ctx context.Context, result *entity.WorkflowResult)
}
