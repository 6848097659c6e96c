package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Synthesis output format: mono PCM16 at 24 kHz, matching the
// riff-24khz-16bit-mono-pcm format requested from Azure and the raw
// stream returned by Gemini.
const (
	sampleRate    = 24000
	channelCount  = 1
	bitsPerSample = 16
	byteRate      = sampleRate * channelCount * bitsPerSample / 8
)

// wavDuration computes the exact playback duration of a WAV file from its
// data chunk and byte rate, with no decoding.
func wavDuration(data []byte) (time.Duration, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var rate uint32
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+12 > len(data) {
				return 0, fmt.Errorf("truncated fmt chunk")
			}
			rate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if rate == 0 {
				return 0, fmt.Errorf("data chunk before fmt chunk")
			}
			if body+size > len(data) {
				size = len(data) - body
			}
			return time.Duration(size) * time.Second / time.Duration(rate), nil
		}

		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	return 0, fmt.Errorf("no data chunk found")
}

// pcmToWAV wraps raw PCM16 samples into a minimal WAV container.
func pcmToWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	write := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	write(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(channelCount))
	write(uint32(sampleRate))
	write(uint32(byteRate))
	write(uint16(channelCount * bitsPerSample / 8))
	write(uint16(bitsPerSample))

	buf.WriteString("data")
	write(uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// pcmDuration is the playback time of raw PCM16 mono samples at the
// synthesis sample rate.
func pcmDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(byteRate)
}
