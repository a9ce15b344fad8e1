// Package entrain synthesizes binaural beats and isochronic tones.
package entrain

import (
	"math"
	"time"
)

// Defaults for generated tones.
const (
	DefaultCarrierHz  = 440.0
	DefaultSampleRate = 44100
)

var stateFrequencies = map[string]float64{
	"sleep":    2,
	"creative": 6,
	"relax":    10,
	"calm":     10,
	"focus":    15,
	"energize": 20,
	"peak":     40,
}

// StateFrequency returns the entrainment frequency in Hz for a mental state.
// Unknown states get 10 Hz.
func StateFrequency(state string) float64 {
	if f, ok := stateFrequencies[state]; ok {
		return f
	}
	return 10
}

// Stereo holds two equally sized channels.
type Stereo struct {
	Left  []float64
	Right []float64
}

func sampleCount(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(d.Seconds() * float64(sampleRate))
}

// BinauralBeat plays the carrier in the left ear and carrier+target in the
// right ear.
func BinauralBeat(targetHz, carrierHz float64, d time.Duration, sampleRate int) Stereo {
	n := sampleCount(d, sampleRate)
	out := Stereo{Left: make([]float64, n), Right: make([]float64, n)}
	rate := float64(sampleRate)
	for i := 0; i < n; i++ {
		t := float64(i) / rate
		out.Left[i] = math.Sin(2 * math.Pi * carrierHz * t)
		out.Right[i] = math.Sin(2 * math.Pi * (carrierHz + targetHz) * t)
	}
	return out
}

// IsochronicTone pulses the carrier at targetHz. Amplitude stays in [-1, 1].
func IsochronicTone(targetHz, carrierHz float64, d time.Duration, sampleRate int) []float64 {
	n := sampleCount(d, sampleRate)
	out := make([]float64, n)
	rate := float64(sampleRate)
	for i := 0; i < n; i++ {
		t := float64(i) / rate
		envelope := (math.Sin(2*math.Pi*targetHz*t) + 1) / 2
		out[i] = math.Sin(2*math.Pi*carrierHz*t) * envelope
	}
	return out
}
