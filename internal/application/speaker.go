package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"voicebox/internal/domain"
)

// SpeakerConfig holds the end-of-utterance tuning for push-to-talk
// capture.
type SpeakerConfig struct {
	// SilenceThreshold is the peak int16 amplitude below which a frame
	// counts as silence.
	SilenceThreshold int
	// SilenceDuration of consecutive silence ends the utterance, once
	// at least MinUtterance has been captured.
	SilenceDuration time.Duration
	MinUtterance    time.Duration
	MaxUtterance    time.Duration
	SampleRate      int
}

func DefaultSpeakerConfig() SpeakerConfig {
	return SpeakerConfig{
		SilenceThreshold: 500,
		SilenceDuration:  time.Second,
		MinUtterance:     time.Second,
		MaxUtterance:     10 * time.Second,
		SampleRate:       16000,
	}
}

// Speaker is the push-to-talk loop: wait for the trigger, stream the
// utterance to the conversation, play whatever comes back, and service
// tool calls the model asks for along the way.
type Speaker struct {
	input   AudioInput
	output  AudioOutput
	conv    Conversation
	tools   ToolExecutor
	trigger Trigger
	prompts PromptSource
	cfg     SpeakerConfig
	logger  *slog.Logger
}

func NewSpeaker(
	input AudioInput,
	output AudioOutput,
	conv Conversation,
	tools ToolExecutor,
	trigger Trigger,
	prompts PromptSource,
	cfg SpeakerConfig,
	logger *slog.Logger,
) *Speaker {
	if prompts == nil {
		prompts = &NoopPromptSource{}
	}
	return &Speaker{
		input:   input,
		output:  output,
		conv:    conv,
		tools:   tools,
		trigger: trigger,
		prompts: prompts,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Speaker) Run(ctx context.Context) error {
	s.logger.Info("connecting to realtime API")
	if err := s.conv.Connect(ctx); err != nil {
		return fmt.Errorf("connecting conversation: %w", err)
	}
	defer s.conv.Close()

	if err := s.output.Start(ctx); err != nil {
		return fmt.Errorf("starting audio output: %w", err)
	}
	defer s.output.Stop()

	if err := s.prompts.Start(ctx); err != nil {
		return fmt.Errorf("starting prompt source: %w", err)
	}
	defer s.prompts.Stop()

	go s.pumpEvents(ctx)

	triggerCh := make(chan struct{})
	go func() {
		for {
			if err := s.trigger.Wait(ctx); err != nil {
				if ctx.Err() == nil {
					s.logger.Error("trigger wait", "error", err)
				}
				return
			}
			select {
			case triggerCh <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("speaker ready", "trigger", s.trigger.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-triggerCh:
			if err := s.captureUtterance(ctx); err != nil {
				s.logger.Error("capturing utterance", "error", err)
			}
		case prompt, ok := <-s.prompts.Prompts():
			if !ok {
				continue
			}
			if err := s.handlePrompt(ctx, prompt); err != nil {
				s.logger.Error("handling prompt", "error", err)
			}
		}
	}
}

// captureUtterance records from the microphone until the speaker goes
// quiet (or the utterance hits its cap), streaming frames to the
// conversation as they arrive.
func (s *Speaker) captureUtterance(ctx context.Context) error {
	if err := s.bargeIn(ctx); err != nil {
		return err
	}

	if err := s.input.Start(ctx); err != nil {
		return fmt.Errorf("starting audio input: %w", err)
	}
	defer s.input.Stop()

	s.logger.Info("listening", "source", s.input.Name())

	bytesPerSecond := s.cfg.SampleRate * 2
	silenceBudget := int(s.cfg.SilenceDuration.Seconds() * float64(bytesPerSecond))
	minBytes := int(s.cfg.MinUtterance.Seconds() * float64(bytesPerSecond))
	maxBytes := int(s.cfg.MaxUtterance.Seconds() * float64(bytesPerSecond))

	totalBytes := 0
	silentBytes := 0

	for {
		frame, err := s.input.ReadFrame(ctx)
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		if err := s.conv.SendAudio(ctx, frame); err != nil {
			return fmt.Errorf("sending audio: %w", err)
		}

		totalBytes += len(frame)
		if peakAmplitude(frame) < s.cfg.SilenceThreshold {
			silentBytes += len(frame)
		} else {
			silentBytes = 0
		}

		if silentBytes > silenceBudget && totalBytes > minBytes {
			break
		}
		if totalBytes > maxBytes {
			s.logger.Warn("utterance hit max length", "bytes", totalBytes)
			break
		}
	}

	s.logger.Info("utterance captured", "bytes", totalBytes)

	if err := s.conv.CommitAudio(ctx); err != nil {
		return fmt.Errorf("committing audio: %w", err)
	}
	if err := s.conv.CreateResponse(ctx); err != nil {
		return fmt.Errorf("requesting response: %w", err)
	}
	return nil
}

// bargeIn silences whatever the speaker is currently saying: the
// in-flight response is cancelled server-side, locally queued audio is
// dropped, and any half-streamed utterance is flushed from the input
// buffer so it cannot bleed into the next commit.
func (s *Speaker) bargeIn(ctx context.Context) error {
	if err := s.conv.CancelResponse(ctx); err != nil {
		return fmt.Errorf("cancelling response: %w", err)
	}
	s.output.Interrupt()
	if err := s.conv.ClearAudio(ctx); err != nil {
		return fmt.Errorf("clearing audio buffer: %w", err)
	}
	return nil
}

func (s *Speaker) handlePrompt(ctx context.Context, prompt Prompt) error {
	if err := s.bargeIn(ctx); err != nil {
		return err
	}

	if prompt.Text != "" {
		s.logger.Info("injected text prompt", "text", prompt.Text)
		return s.conv.SendText(ctx, prompt.Text)
	}

	s.logger.Info("injected audio prompt", "bytes", len(prompt.Audio))
	if err := s.conv.SendAudio(ctx, prompt.Audio); err != nil {
		return fmt.Errorf("sending audio: %w", err)
	}
	if err := s.conv.CommitAudio(ctx); err != nil {
		return fmt.Errorf("committing audio: %w", err)
	}
	return s.conv.CreateResponse(ctx)
}

func (s *Speaker) pumpEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.conv.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Speaker) handleEvent(ctx context.Context, ev domain.Event) {
	switch ev.Type {
	case domain.EventAudioDelta:
		s.output.Play(ev.Audio)
	case domain.EventTranscriptDelta:
		// Per-word deltas are too chatty for info level.
		s.logger.Debug("transcript delta", "text", ev.Text)
	case domain.EventTranscriptDone:
		s.logger.Info("assistant said", "text", ev.Text)
	case domain.EventToolCall:
		go s.runToolCall(ctx, ev.Call)
	case domain.EventSpeechStarted:
		s.logger.Debug("speech started")
	case domain.EventSpeechStopped:
		s.logger.Debug("speech stopped")
	case domain.EventResponseDone:
		s.logger.Debug("response done")
	case domain.EventError:
		s.logger.Error("conversation error", "error", ev.Err)
	}
}

// runToolCall executes a tool and feeds its output back into the
// conversation. Tool failures are reported to the model rather than
// ending the session.
func (s *Speaker) runToolCall(ctx context.Context, call *domain.ToolCall) {
	s.logger.Info("tool call", "name", call.Name, "call_id", call.CallID)

	result, err := s.tools.Execute(ctx, call)
	if err != nil {
		s.logger.Error("tool execution", "name", call.Name, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		result = string(payload)
	}

	if err := s.conv.SendToolResult(ctx, call.CallID, result); err != nil {
		s.logger.Error("sending tool result", "error", err)
		return
	}
	if err := s.conv.CreateResponse(ctx); err != nil {
		s.logger.Error("requesting response after tool", "error", err)
	}
}
