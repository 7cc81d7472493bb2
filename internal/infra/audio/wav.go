package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeWAV wraps 16-bit mono PCM samples in a minimal RIFF/WAVE
// container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, int16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	for _, sample := range samples {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	return buf.Bytes()
}

// ExtractPCM returns the raw PCM payload of a clip. WAV input has its
// container stripped; anything else is assumed to already be raw
// 16-bit PCM and passed through.
func ExtractPCM(data []byte) ([]byte, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" {
		return data, nil
	}
	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("RIFF clip is not WAVE")
	}

	// Walk the chunks looking for "data".
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if chunkID == "data" {
			if body+chunkSize > len(data) {
				return nil, fmt.Errorf("truncated data chunk")
			}
			return data[body : body+chunkSize], nil
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	return nil, fmt.Errorf("no data chunk in WAV clip")
}

// PCMToSamples converts little-endian 16-bit PCM bytes to samples.
func PCMToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

// SamplesToPCM converts samples to little-endian 16-bit PCM bytes.
func SamplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}
	return pcm
}
