package brainwave

import (
	"math/rand"
	"sync"
	"time"
)

// BandDistribution holds one weight per band. After estimation the weights
// sum to 1.
type BandDistribution struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Value returns the weight of band b.
func (d BandDistribution) Value(b Band) float64 {
	switch b {
	case Delta:
		return d.Delta
	case Theta:
		return d.Theta
	case Alpha:
		return d.Alpha
	case Beta:
		return d.Beta
	case Gamma:
		return d.Gamma
	default:
		return 0
	}
}

// Sum adds all five weights.
func (d BandDistribution) Sum() float64 {
	return d.Delta + d.Theta + d.Alpha + d.Beta + d.Gamma
}

// Normalize scales the weights to sum to 1. A non-positive total yields the
// uniform distribution.
func (d BandDistribution) Normalize() BandDistribution {
	total := d.Sum()
	if total <= 0 {
		return BandDistribution{Delta: 0.2, Theta: 0.2, Alpha: 0.2, Beta: 0.2, Gamma: 0.2}
	}
	return BandDistribution{
		Delta: d.Delta / total,
		Theta: d.Theta / total,
		Alpha: d.Alpha / total,
		Beta:  d.Beta / total,
		Gamma: d.Gamma / total,
	}
}

// Features are the optional audio inputs to EstimateBands. A nil field is
// drawn at random.
type Features struct {
	Tempo  *float64
	Energy *float64
}

// FeaturesOf builds Features with both fields set.
func FeaturesOf(tempo, energy float64) Features {
	return Features{Tempo: &tempo, Energy: &energy}
}

// Mode is a musical mode.
type Mode string

const (
	Major Mode = "major"
	Minor Mode = "minor"
)

var (
	pitchClasses = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	musicKeys    = [...]string{"C", "D", "E", "G", "A"}
)

// MFCCSize is the number of coefficients in a synthesized feature set.
const MFCCSize = 13

// AudioFeatureSet is a synthetic description of a piece of audio.
type AudioFeatureSet struct {
	Tempo    float64          `json:"tempo"`
	Key      string           `json:"key"`
	Mode     Mode             `json:"mode"`
	Energy   float64          `json:"energy"`
	Valence  float64          `json:"valence"`
	MFCC     []float64        `json:"mfcc"`
	Spectral SpectralFeatures `json:"spectral_features"`
	Rhythm   RhythmFeatures   `json:"rhythm_features"`
}

// SpectralFeatures are in Hz.
type SpectralFeatures struct {
	Centroid  float64 `json:"centroid"`
	Rolloff   float64 `json:"rolloff"`
	Bandwidth float64 `json:"bandwidth"`
}

// RhythmFeatures are unitless strengths in [0,1).
type RhythmFeatures struct {
	OnsetStrength      float64 `json:"onset_strength"`
	BeatStrength       float64 `json:"beat_strength"`
	RhythmicComplexity float64 `json:"rhythmic_complexity"`
}

// MusicParameters describe music generated for a target state.
type MusicParameters struct {
	Tempo      float64       `json:"tempo"`
	Key        string        `json:"key"`
	Mode       Mode          `json:"mode"`
	Parameters MusicControls `json:"parameters"`
}

// MusicControls carry the entrainment settings of MusicParameters.
type MusicControls struct {
	TargetState        string  `json:"target_state"`
	PrimaryBand        Band    `json:"primary_band"`
	SecondaryBand      Band    `json:"secondary_band"`
	Energy             float64 `json:"energy"`
	BinauralFreq       float64 `json:"binaural_freq"`
	HarmonicComplexity float64 `json:"harmonic_complexity"`
}

// Estimator produces synthetic estimates from an injected random source.
// It is safe for concurrent use.
type Estimator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns an Estimator seeded with the current time.
func New() *Estimator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns an Estimator whose output is reproducible for seed.
func NewWithSeed(seed int64) *Estimator {
	return NewWithRand(rand.New(rand.NewSource(seed)))
}

// NewWithRand wraps an existing random source.
func NewWithRand(rnd *rand.Rand) *Estimator {
	return &Estimator{rnd: rnd}
}

// uniform draws from [lo, hi). Callers hold e.mu.
func (e *Estimator) uniform(lo, hi float64) float64 {
	return lo + e.rnd.Float64()*(hi-lo)
}

func (e *Estimator) orUniform(v *float64, lo, hi float64) float64 {
	if v != nil {
		return *v
	}
	return e.uniform(lo, hi)
}

// EstimateBands draws a band distribution shaped by tempo and energy.
func (e *Estimator) EstimateBands(f Features) BandDistribution {
	e.mu.Lock()
	defer e.mu.Unlock()

	tempo := e.orUniform(f.Tempo, 60, 200)
	energy := e.orUniform(f.Energy, 0, 1)

	w := BandDistribution{
		Delta: e.uniform(0.10, 0.20),
		Theta: e.uniform(0.15, 0.30),
		Alpha: e.uniform(0.25, 0.40),
		Beta:  e.uniform(0.30, 0.50),
		Gamma: e.uniform(0.10, 0.20),
	}

	switch {
	case tempo < 80:
		w.Delta += 0.15
		w.Theta += 0.10
		w.Alpha += 0.05
	case tempo > 120:
		w.Beta += 0.15
		w.Gamma += 0.10
	default:
		w.Alpha += 0.15
		w.Beta += 0.05
	}

	switch {
	case energy < 0.3:
		w.Delta += 0.10
		w.Theta += 0.10
	case energy > 0.7:
		w.Beta += 0.10
		w.Gamma += 0.10
	}

	return w.Normalize()
}

// SynthesizeAudioFeatures returns a placeholder feature set. Every field is
// an independent random draw; no audio is inspected.
func (e *Estimator) SynthesizeAudioFeatures() AudioFeatureSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	fs := AudioFeatureSet{
		Tempo: e.uniform(60, 160),
		Key:   pitchClasses[e.rnd.Intn(len(pitchClasses))],
		Mode:  Minor,
	}
	if e.rnd.Float64() > 0.5 {
		fs.Mode = Major
	}
	fs.Energy = e.rnd.Float64()
	fs.Valence = e.rnd.Float64()
	fs.MFCC = make([]float64, MFCCSize)
	for i := range fs.MFCC {
		fs.MFCC[i] = e.uniform(-1, 1)
	}
	fs.Spectral = SpectralFeatures{
		Centroid:  e.uniform(1000, 5000),
		Rolloff:   e.uniform(2000, 10000),
		Bandwidth: e.uniform(500, 2500),
	}
	fs.Rhythm = RhythmFeatures{
		OnsetStrength:      e.rnd.Float64(),
		BeatStrength:       e.rnd.Float64(),
		RhythmicComplexity: e.rnd.Float64(),
	}
	return fs
}

// GenerateMusicParameters picks music settings for a target state. Unknown
// states borrow focus's bands but keep the 100 BPM / 0.5 energy defaults.
func (e *Estimator) GenerateMusicParameters(state string) MusicParameters {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := ResolveTargetState(state)

	tempo, energy := 100.0, 0.5
	switch state {
	case StateFocus, StateEnergize:
		tempo = e.uniform(100, 140)
		energy = e.uniform(0.6, 0.9)
	case StateCalm, StateRelax:
		tempo = e.uniform(60, 90)
		energy = e.uniform(0.2, 0.5)
	case StateSleep:
		tempo = e.uniform(40, 60)
		energy = e.uniform(0.1, 0.3)
	}

	mode := Major
	if state == StateCalm || state == StateSleep {
		mode = Minor
	}

	mp := MusicParameters{
		Tempo: tempo,
		Key:   musicKeys[e.rnd.Intn(len(musicKeys))],
		Mode:  mode,
	}
	mp.Parameters = MusicControls{
		TargetState:        state,
		PrimaryBand:        cfg.Primary,
		SecondaryBand:      cfg.Secondary,
		Energy:             energy,
		BinauralFreq:       e.uniform(5, 15),
		HarmonicComplexity: e.uniform(0.3, 0.8),
	}
	return mp
}
