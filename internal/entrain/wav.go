package entrain

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth      = 16
	pcmFormat     = 1
	maxSample16   = math.MaxInt16
	writeChunkLen = 4096
)

// WriteWAV encodes channels as interleaved 16-bit PCM. Samples are clipped
// to [-1, 1] before scaling.
func WriteWAV(ws io.WriteSeeker, sampleRate int, channels ...[]float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if len(channels) == 0 {
		return errors.New("no channels to write")
	}
	frames := len(channels[0])
	if frames == 0 {
		return errors.New("no samples to write")
	}
	for i, ch := range channels[1:] {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d samples, expected %d", i+1, len(ch), frames)
		}
	}

	enc := wav.NewEncoder(ws, sampleRate, bitDepth, len(channels), pcmFormat)
	format := &audio.Format{NumChannels: len(channels), SampleRate: sampleRate}
	for start := 0; start < frames; start += writeChunkLen {
		end := start + writeChunkLen
		if end > frames {
			end = frames
		}
		buf := &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: bitDepth,
			Data:           make([]int, 0, (end-start)*len(channels)),
		}
		for i := start; i < end; i++ {
			for _, ch := range channels {
				buf.Data = append(buf.Data, toPCM16(ch[i]))
			}
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("failed to write samples: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

func toPCM16(v float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * maxSample16))
}
