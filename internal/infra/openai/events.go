package openai

// Wire types for the realtime API. Client events go out with a
// generated event_id; server events are matched on their type string.

type sessionPayload struct {
	Modalities        []string     `json:"modalities"`
	Instructions      string       `json:"instructions"`
	Voice             string       `json:"voice"`
	Temperature       float64      `json:"temperature"`
	InputAudioFormat  string       `json:"input_audio_format"`
	OutputAudioFormat string       `json:"output_audio_format"`
	Tools             []toolSchema `json:"tools,omitempty"`
	ToolChoice        string       `json:"tool_choice,omitempty"`
	// TurnDetection stays null: push-to-talk commits the buffer
	// explicitly instead of relying on server VAD.
	TurnDetection any `json:"turn_detection"`
}

type toolSchema struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type itemPayload struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []contentPart `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type clientEvent struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id"`
	Session *sessionPayload `json:"session,omitempty"`
	Audio   string          `json:"audio,omitempty"`
	Item    *itemPayload    `json:"item,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type serverEvent struct {
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	Delta      string    `json:"delta"`
	Transcript string    `json:"transcript"`
	CallID     string    `json:"call_id"`
	Name       string    `json:"name"`
	Arguments  string    `json:"arguments"`
	Error      *apiError `json:"error"`
}
