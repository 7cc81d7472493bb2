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

// Player writes 16-bit mono PCM to the default output device. Play
// enqueues without blocking; a drain goroutine feeds the stream so
// capture and the event loop never wait on the sound card.
type Player struct {
	sampleRate int
	frameSize  int
	logger     *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	queue   chan []byte
	done    chan struct{}
	pending []byte
}

func NewPlayer(sampleRate, frameSize int, logger *slog.Logger) *Player {
	return &Player{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		logger:     logger,
		queue:      make(chan []byte, 256),
	}
}

func (p *Player) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	p.buffer = make([]int16, p.frameSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.sampleRate), p.frameSize, &p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening output stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting output stream: %w", err)
	}

	p.stream = stream
	p.done = make(chan struct{})
	go p.drain()

	p.logger.Debug("speaker started", "sampleRate", p.sampleRate)
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	close(p.done)
	p.stream.Stop()
	p.stream.Close()
	p.stream = nil
	portaudio.Terminate()
	return nil
}

// Play enqueues PCM for playback. If the queue is full the chunk is
// dropped; stale audio is worse than a glitch on a conversational
// device.
func (p *Player) Play(pcm []byte) {
	select {
	case p.queue <- pcm:
	default:
		p.logger.Warn("playback queue full, dropping chunk", "bytes", len(pcm))
	}
}

// Interrupt discards everything queued but not yet written (barge-in).
func (p *Player) Interrupt() {
	for {
		select {
		case <-p.queue:
		default:
			p.mu.Lock()
			p.pending = nil
			p.mu.Unlock()
			return
		}
	}
}

func (p *Player) drain() {
	for {
		select {
		case <-p.done:
			return
		case pcm := <-p.queue:
			p.writeChunk(pcm)
		}
	}
}

// writeChunk plays one queued chunk, carrying partial frames over to
// the next write.
func (p *Player) writeChunk(pcm []byte) {
	p.mu.Lock()
	data := append(p.pending, pcm...)
	frameBytes := p.frameSize * 2

	for len(data) >= frameBytes {
		copy(p.buffer, PCMToSamples(data[:frameBytes]))
		stream := p.stream
		if stream == nil {
			p.mu.Unlock()
			return
		}
		if err := stream.Write(); err != nil {
			p.logger.Error("writing to output stream", "error", err)
			p.pending = nil
			p.mu.Unlock()
			return
		}
		data = data[frameBytes:]
	}

	p.pending = data
	p.mu.Unlock()
}
