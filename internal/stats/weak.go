package stats

import (
	"math"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

// TargetAlignment scores how well a distribution matches a target state:
// the combined weight of its primary and secondary bands, clamped to [0,1].
// Unknown states score against focus.
func TargetAlignment(d brainwave.BandDistribution, state string) float64 {
	ts := brainwave.ResolveTargetState(state)
	score := d.Value(ts.Primary) + d.Value(ts.Secondary)
	return math.Max(0, math.Min(1, score))
}

// WeakBands lists the target bands whose weight falls below floor, primary
// first.
func WeakBands(d brainwave.BandDistribution, state string, floor float64) []brainwave.Band {
	ts := brainwave.ResolveTargetState(state)
	var weak []brainwave.Band
	for _, b := range []brainwave.Band{ts.Primary, ts.Secondary} {
		if d.Value(b) < floor {
			weak = append(weak, b)
		}
	}
	return weak
}
