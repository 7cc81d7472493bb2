package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"voicebox/internal/domain"
	"voicebox/internal/infra/openai"
)

// Registry holds the tools exposed to the model. Tools are registered
// explicitly at startup; a name collision is a programming error and
// fails registration.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

func (r *Registry) Register(tool Tool) error {
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	r.logger.Info("registered tool", "name", name)
	return nil
}

// Defs returns the tool definitions in registration order, in the
// shape the realtime session update expects.
func (r *Registry) Defs() []openai.ToolDef {
	defs := make([]openai.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, openai.ToolDef{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return defs
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Execute runs the named tool and serializes its result to JSON. A
// failing tool is not an error of the registry: the failure is folded
// into the result payload so the model can react to it.
func (r *Registry) Execute(ctx context.Context, call *domain.ToolCall) (string, error) {
	tool, ok := r.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", call.Name)
	}

	r.logger.Info("executing tool", "name", call.Name, "call_id", call.CallID)

	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool failed", "name", call.Name, "error", err)
		result = map[string]string{"error": err.Error()}
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshaling result of %s: %w", call.Name, err)
	}
	return string(payload), nil
}
