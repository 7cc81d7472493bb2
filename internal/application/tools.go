package application

import (
	"context"

	"voicebox/internal/domain"
)

// ToolExecutor runs a model-requested tool call and returns its result
// as a JSON string to hand back to the conversation.
type ToolExecutor interface {
	Execute(ctx context.Context, call *domain.ToolCall) (string, error)
}
