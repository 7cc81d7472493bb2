package application

import (
	"context"
	"encoding/binary"
)

// AudioInput captures microphone audio. ReadFrame returns one frame of
// 16-bit little-endian mono PCM at the configured input sample rate.
type AudioInput interface {
	Start(ctx context.Context) error
	Stop() error
	ReadFrame(ctx context.Context) ([]byte, error)
	Name() string
}

// AudioOutput plays 16-bit little-endian mono PCM. Play must not block
// the caller for the duration of playback. Interrupt discards anything
// queued but not yet played (barge-in).
type AudioOutput interface {
	Start(ctx context.Context) error
	Stop() error
	Play(pcm []byte)
	Interrupt()
}

// peakAmplitude returns the largest absolute sample value in a frame of
// 16-bit little-endian PCM. Used for end-of-utterance silence detection.
func peakAmplitude(pcm []byte) int {
	peak := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	return peak
}
