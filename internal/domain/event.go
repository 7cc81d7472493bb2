package domain

import "encoding/json"

// EventType identifies what a conversation event carries.
type EventType string

const (
	EventAudioDelta      EventType = "audio_delta"
	EventTranscriptDelta EventType = "transcript_delta"
	EventTranscriptDone  EventType = "transcript_done"
	EventToolCall        EventType = "tool_call"
	EventResponseDone    EventType = "response_done"
	EventSpeechStarted   EventType = "speech_started"
	EventSpeechStopped   EventType = "speech_stopped"
	EventError           EventType = "error"
)

// Event is a single conversation event received from the realtime API,
// already decoded from the wire format. Only the fields relevant to the
// event type are populated.
type Event struct {
	Type EventType

	// Audio holds raw PCM bytes for EventAudioDelta.
	Audio []byte

	// Text holds transcript text for transcript events.
	Text string

	// Call holds the tool invocation for EventToolCall.
	Call *ToolCall

	// Err holds the upstream error for EventError.
	Err error
}

// ToolCall is a function call requested by the model. Arguments is the
// raw JSON object the model produced; tools decode it themselves.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}
