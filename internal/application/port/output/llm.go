package output

import (
	"context"

	"shop-agent/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Temperature float32
	// JSONMode asks the provider to emit a single JSON object.
	JSONMode bool
}

type ChatResponse struct {
	Message entity.Message
}
