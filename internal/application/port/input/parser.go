package input

import (
	"context"

	"shop-agent/internal/domain/entity"
)

// IntentParser turns a free-form request into a structured intent.
type IntentParser interface {
	Parse(ctx context.Context, text string) (entity.Intent, error)
}
