package application

import "context"

// Prompt is a user turn injected from outside the microphone path,
// e.g. via the remote-control HTTP server. Exactly one of Text or
// Audio is set.
type Prompt struct {
	Text  string
	Audio []byte
}

// PromptSource delivers injected prompts. A nil channel source is
// valid for speakers without a remote surface.
type PromptSource interface {
	Start(ctx context.Context) error
	Stop() error
	Prompts() <-chan Prompt
}

// NoopPromptSource is used when the remote server is disabled.
type NoopPromptSource struct{}

func (n *NoopPromptSource) Start(_ context.Context) error { return nil }
func (n *NoopPromptSource) Stop() error                   { return nil }
func (n *NoopPromptSource) Prompts() <-chan Prompt        { return nil }
