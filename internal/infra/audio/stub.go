//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Capture stub when portaudio is not available
type Capture struct {
	logger *slog.Logger
}

func NewCapture(sampleRate, frameSize int, logger *slog.Logger) *Capture {
	return &Capture{logger: logger}
}

func (c *Capture) Name() string {
	return "microphone"
}

func (c *Capture) Start(_ context.Context) error {
	return fmt.Errorf("microphone not available: rebuild with -tags portaudio")
}

func (c *Capture) Stop() error {
	return nil
}

func (c *Capture) ReadFrame(_ context.Context) ([]byte, error) {
	return nil, fmt.Errorf("microphone not available")
}

// Player stub when portaudio is not available. Playback is a no-op so
// the speaker still runs (text prompts, tool calls) on dev machines.
type Player struct {
	logger *slog.Logger
}

func NewPlayer(sampleRate, frameSize int, logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

func (p *Player) Start(_ context.Context) error {
	p.logger.Warn("audio playback disabled: rebuild with -tags portaudio")
	return nil
}

func (p *Player) Stop() error {
	return nil
}

func (p *Player) Play(pcm []byte) {
	p.logger.Debug("discarding audio", "bytes", len(pcm))
}

func (p *Player) Interrupt() {}
