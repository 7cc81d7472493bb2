//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture reads 16-bit mono PCM frames from the default input device.
// Start/Stop bracket one utterance; portaudio initialization is
// reference counted so capture and playback can coexist.
type Capture struct {
	sampleRate int
	frameSize  int
	logger     *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []int16
}

func NewCapture(sampleRate, frameSize int, logger *slog.Logger) *Capture {
	return &Capture{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		logger:     logger,
	}
}

func (c *Capture) Name() string {
	return "microphone"
}

func (c *Capture) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	c.buffer = make([]int16, c.frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.frameSize, c.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting input stream: %w", err)
	}

	c.stream = stream
	c.logger.Debug("microphone started", "sampleRate", c.sampleRate, "frameSize", c.frameSize)
	return nil
}

func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	c.stream.Stop()
	c.stream.Close()
	c.stream = nil
	portaudio.Terminate()
	return nil
}

func (c *Capture) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil, fmt.Errorf("capture not started")
	}

	if err := stream.Read(); err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	return SamplesToPCM(c.buffer), nil
}
