package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voicebox/internal/domain"
)

// ToolDef is a function-calling tool advertised to the model in the
// session update.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// RealtimeClient is a push-to-talk session with the realtime speech
// API over WebSocket. Writes are serialized by a mutex; a single read
// loop goroutine decodes server events onto the Events channel.
type RealtimeClient struct {
	apiKey   string
	baseURL  string
	settings domain.SessionSettings
	tools    []ToolDef
	logger   *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events    chan domain.Event
	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func NewRealtimeClient(apiKey string, settings domain.SessionSettings, tools []ToolDef, logger *slog.Logger) *RealtimeClient {
	return NewRealtimeClientWithURL(apiKey, "wss://api.openai.com/v1/realtime", settings, tools, logger)
}

func NewRealtimeClientWithURL(apiKey, baseURL string, settings domain.SessionSettings, tools []ToolDef, logger *slog.Logger) *RealtimeClient {
	return &RealtimeClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		settings: settings,
		tools:    tools,
		logger:   logger,
		events:   make(chan domain.Event, 64),
		done:     make(chan struct{}),
	}
}

func (c *RealtimeClient) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?model=%s", c.baseURL, c.settings.Model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dialing realtime API (status %s): %w", resp.Status, err)
		}
		return fmt.Errorf("dialing realtime API: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.updateSession(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("updating session: %w", err)
	}

	go c.readLoop()

	c.logger.Info("realtime session established", "model", c.settings.Model, "tools", len(c.tools))
	return nil
}

func (c *RealtimeClient) updateSession(ctx context.Context) error {
	session := &sessionPayload{
		Modalities:        c.settings.Modalities,
		Instructions:      c.settings.Instructions,
		Voice:             c.settings.Voice,
		Temperature:       c.settings.Temperature,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
	}
	for _, t := range c.tools {
		session.Tools = append(session.Tools, toolSchema{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	if len(session.Tools) > 0 {
		session.ToolChoice = "auto"
	}

	return c.send(ctx, clientEvent{Type: "session.update", Session: session})
}

func (c *RealtimeClient) SendAudio(ctx context.Context, pcm []byte) error {
	return c.send(ctx, clientEvent{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

func (c *RealtimeClient) CommitAudio(ctx context.Context) error {
	return c.send(ctx, clientEvent{Type: "input_audio_buffer.commit"})
}

func (c *RealtimeClient) ClearAudio(ctx context.Context) error {
	return c.send(ctx, clientEvent{Type: "input_audio_buffer.clear"})
}

func (c *RealtimeClient) CreateResponse(ctx context.Context) error {
	return c.send(ctx, clientEvent{Type: "response.create"})
}

func (c *RealtimeClient) CancelResponse(ctx context.Context) error {
	return c.send(ctx, clientEvent{Type: "response.cancel"})
}

func (c *RealtimeClient) SendText(ctx context.Context, text string) error {
	err := c.send(ctx, clientEvent{
		Type: "conversation.item.create",
		Item: &itemPayload{
			Type:    "message",
			Role:    "user",
			Content: []contentPart{{Type: "input_text", Text: text}},
		},
	})
	if err != nil {
		return err
	}
	return c.CreateResponse(ctx)
}

func (c *RealtimeClient) SendToolResult(ctx context.Context, callID, output string) error {
	return c.send(ctx, clientEvent{
		Type: "conversation.item.create",
		Item: &itemPayload{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
}

func (c *RealtimeClient) Events() <-chan domain.Event {
	return c.events
}

func (c *RealtimeClient) Close() error {
	c.doneOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *RealtimeClient) send(ctx context.Context, ev clientEvent) error {
	ev.EventID = uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	} else {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}

	if err := c.conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("writing %s: %w", ev.Type, err)
	}
	return nil
}

func (c *RealtimeClient) readLoop() {
	defer c.closeOnce.Do(func() { close(c.events) })

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("realtime session closed")
			} else {
				c.logger.Error("reading from realtime API", "error", err)
			}
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Error("decoding server event", "error", err)
			continue
		}

		domainEv, ok := c.mapEvent(ev)
		if !ok {
			continue
		}
		// The consumer may be gone; Close must still unstick us.
		select {
		case c.events <- domainEv:
		case <-c.done:
			return
		}
	}
}

// mapEvent translates a wire event into a domain event. Events the
// application has no use for (rate limit updates, item lifecycle
// bookkeeping) are dropped here.
func (c *RealtimeClient) mapEvent(ev serverEvent) (domain.Event, bool) {
	switch ev.Type {
	case "response.audio.delta":
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			c.logger.Error("decoding audio delta", "error", err)
			return domain.Event{}, false
		}
		return domain.Event{Type: domain.EventAudioDelta, Audio: pcm}, true

	case "response.audio_transcript.delta":
		return domain.Event{Type: domain.EventTranscriptDelta, Text: ev.Delta}, true

	case "response.audio_transcript.done":
		return domain.Event{Type: domain.EventTranscriptDone, Text: ev.Transcript}, true

	case "response.function_call_arguments.done":
		return domain.Event{
			Type: domain.EventToolCall,
			Call: &domain.ToolCall{
				CallID:    ev.CallID,
				Name:      ev.Name,
				Arguments: json.RawMessage(ev.Arguments),
			},
		}, true

	case "response.done":
		return domain.Event{Type: domain.EventResponseDone}, true

	case "input_audio_buffer.speech_started":
		return domain.Event{Type: domain.EventSpeechStarted}, true

	case "input_audio_buffer.speech_stopped":
		return domain.Event{Type: domain.EventSpeechStopped}, true

	case "error":
		msg := "unknown error"
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		return domain.Event{Type: domain.EventError, Err: fmt.Errorf("realtime API: %s", msg)}, true

	case "session.created", "session.updated":
		c.logger.Debug("session event", "type", ev.Type)
		return domain.Event{}, false

	default:
		c.logger.Debug("ignoring server event", "type", ev.Type)
		return domain.Event{}, false
	}
}
