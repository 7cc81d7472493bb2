package tools

import (
	"context"
	"encoding/json"
)

// Tool is a function the model can call during a conversation. Name
// must be unique within a registry; Parameters is a JSON schema object
// advertised to the model.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}
