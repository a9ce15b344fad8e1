// Package brainwave estimates synthetic brainwave band distributions and the
// labels derived from them.
package brainwave

import "strings"

// Band names one of the five brainwave frequency categories.
type Band string

const (
	Delta Band = "delta"
	Theta Band = "theta"
	Alpha Band = "alpha"
	Beta  Band = "beta"
	Gamma Band = "gamma"
)

// bandOrder is the fixed enumeration order used for iteration and tie-breaks.
var bandOrder = [...]Band{Delta, Theta, Alpha, Beta, Gamma}

// Bands returns the bands in enumeration order.
func Bands() []Band {
	out := make([]Band, len(bandOrder))
	copy(out, bandOrder[:])
	return out
}

// ParseBand matches a band name case-insensitively.
func ParseBand(s string) (Band, bool) {
	b := Band(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range bandOrder {
		if b == known {
			return b, true
		}
	}
	return "", false
}

// BandInfo describes a band for display.
type BandInfo struct {
	Range       string  `json:"range"`
	LowHz       float64 `json:"low_hz"`
	HighHz      float64 `json:"high_hz"`
	State       string  `json:"state"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
}

var bandInfo = map[Band]BandInfo{
	Delta: {
		Range:       "0.5-4 Hz",
		LowHz:       0.5,
		HighHz:      4,
		State:       "Deep Sleep",
		Description: "Associated with deep, dreamless sleep and healing",
		Color:       "#6366F1",
	},
	Theta: {
		Range:       "4-8 Hz",
		LowHz:       4,
		HighHz:      8,
		State:       "Meditation",
		Description: "Deep relaxation, meditation, and creativity",
		Color:       "#A855F7",
	},
	Alpha: {
		Range:       "8-13 Hz",
		LowHz:       8,
		HighHz:      13,
		State:       "Relaxed Focus",
		Description: "Calm, relaxed, yet alert state",
		Color:       "#3B82F6",
	},
	Beta: {
		Range:       "13-30 Hz",
		LowHz:       13,
		HighHz:      30,
		State:       "Active Thinking",
		Description: "Active concentration, problem-solving, decision making",
		Color:       "#22C55E",
	},
	Gamma: {
		Range:       "30-100 Hz",
		LowHz:       30,
		HighHz:      100,
		State:       "Peak Performance",
		Description: "High-level information processing and peak mental activity",
		Color:       "#EAB308",
	},
}

// Info returns the display information for a band.
func Info(b Band) (BandInfo, bool) {
	info, ok := bandInfo[b]
	return info, ok
}

// Target state names.
const (
	StateFocus    = "focus"
	StateCalm     = "calm"
	StateRelax    = "relax"
	StateEnergize = "energize"
	StateSleep    = "sleep"
)

// TargetState maps a desired mental state to the bands music should favor.
type TargetState struct {
	Name        string `json:"name"`
	Primary     Band   `json:"primary"`
	Secondary   Band   `json:"secondary"`
	Description string `json:"description"`
}

var targetStateOrder = [...]string{StateFocus, StateCalm, StateRelax, StateEnergize, StateSleep}

var targetStates = map[string]TargetState{
	StateFocus:    {Name: StateFocus, Primary: Beta, Secondary: Gamma, Description: "Enhanced concentration and mental clarity"},
	StateCalm:     {Name: StateCalm, Primary: Alpha, Secondary: Theta, Description: "Peaceful, relaxed state of mind"},
	StateRelax:    {Name: StateRelax, Primary: Theta, Secondary: Alpha, Description: "Deep relaxation and stress relief"},
	StateEnergize: {Name: StateEnergize, Primary: Beta, Secondary: Gamma, Description: "Increased alertness and energy"},
	StateSleep:    {Name: StateSleep, Primary: Delta, Secondary: Theta, Description: "Deep, restorative sleep"},
}

// TargetStateNames lists the known target states in display order.
func TargetStateNames() []string {
	out := make([]string, len(targetStateOrder))
	copy(out, targetStateOrder[:])
	return out
}

// LookupTargetState returns the configuration for a known state.
func LookupTargetState(name string) (TargetState, bool) {
	ts, ok := targetStates[name]
	return ts, ok
}

// ResolveTargetState returns the configuration for name, or focus's
// configuration when the name is unknown.
func ResolveTargetState(name string) TargetState {
	if ts, ok := targetStates[name]; ok {
		return ts
	}
	return targetStates[StateFocus]
}
