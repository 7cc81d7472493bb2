package application

import (
	"context"

	"voicebox/internal/domain"
)

// Conversation is a live session with the realtime speech API. Audio is
// streamed in with SendAudio and finalized with CommitAudio; the model
// answers through the Events channel.
type Conversation interface {
	Connect(ctx context.Context) error
	Close() error

	SendAudio(ctx context.Context, pcm []byte) error
	CommitAudio(ctx context.Context) error
	ClearAudio(ctx context.Context) error

	// SendText injects a typed user message and requests a response,
	// bypassing the audio input path.
	SendText(ctx context.Context, text string) error

	CreateResponse(ctx context.Context) error

	// CancelResponse aborts the response currently being generated so a
	// new user turn is not talked over.
	CancelResponse(ctx context.Context) error

	SendToolResult(ctx context.Context, callID, output string) error

	Events() <-chan domain.Event
}
