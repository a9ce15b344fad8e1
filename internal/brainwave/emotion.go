package brainwave

import "math"

// Emotion labels produced by DeriveEmotion.
const (
	EmotionSleepy  = "sleepy"
	EmotionCalm    = "calm"
	EmotionRelaxed = "relaxed"
	EmotionFocused = "focused"
	EmotionExcited = "excited"
	EmotionNeutral = "neutral"
)

// EmotionEstimate is the emotional reading of a band distribution.
type EmotionEstimate struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Valence    float64 `json:"valence"`
	Arousal    float64 `json:"arousal"`
}

// DeriveEmotion maps a distribution to an emotion. Rules are checked in
// priority order and the first match wins.
func DeriveEmotion(d BandDistribution) EmotionEstimate {
	arousal := (d.Beta + d.Gamma) / (d.Theta + d.Delta + 0.01)
	valence := (d.Alpha + d.Theta) / (d.Beta + 0.01)

	est := EmotionEstimate{
		Emotion:    EmotionNeutral,
		Confidence: 0.70,
		Valence:    math.Min(valence, 1),
		Arousal:    math.Min(arousal, 1),
	}

	switch {
	case d.Delta > 0.35:
		est.Emotion, est.Confidence = EmotionSleepy, 0.80
	case d.Theta > 0.30 && d.Alpha > 0.25:
		est.Emotion, est.Confidence = EmotionCalm, 0.85
	case d.Alpha > 0.35:
		est.Emotion, est.Confidence = EmotionRelaxed, 0.90
	case d.Beta > 0.35:
		est.Emotion, est.Confidence = EmotionFocused, 0.85
	case d.Gamma > 0.20:
		est.Emotion, est.Confidence = EmotionExcited, 0.80
	}
	return est
}

// Dominant is the strongest band of a distribution.
type Dominant struct {
	Band  Band    `json:"band"`
	Value float64 `json:"value"`
}

// DominantBand returns the band with the largest weight. Ties go to the
// band that comes first in enumeration order.
func DominantBand(d BandDistribution) Dominant {
	best := Dominant{Band: bandOrder[0], Value: d.Value(bandOrder[0])}
	for _, b := range bandOrder[1:] {
		if v := d.Value(b); v > best.Value {
			best = Dominant{Band: b, Value: v}
		}
	}
	return best
}
