package domain

// SessionSettings describes the conversation session negotiated with the
// realtime speech API right after the connection is established.
type SessionSettings struct {
	Model        string
	Voice        string
	Instructions string
	Temperature  float64
	Modalities   []string
}

func DefaultSessionSettings() SessionSettings {
	return SessionSettings{
		Model:        "gpt-4o-realtime-preview",
		Voice:        "alloy",
		Instructions: "You are a helpful assistant",
		Temperature:  0.8,
		Modalities:   []string{"text", "audio"},
	}
}
