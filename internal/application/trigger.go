package application

import "context"

// Trigger signals the start of a push-to-talk utterance. Wait blocks
// until the user presses the button (or its equivalent).
type Trigger interface {
	Wait(ctx context.Context) error
	Name() string
	Close() error
}
