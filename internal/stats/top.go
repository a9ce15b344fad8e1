package stats

import (
	"sort"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

// RankBands returns the top n bands by weight. Ties keep enumeration order.
func RankBands(d brainwave.BandDistribution, n int) []brainwave.Band {
	bands := brainwave.Bands()
	if n <= 0 {
		return nil
	}
	sort.SliceStable(bands, func(i, j int) bool {
		return d.Value(bands[i]) > d.Value(bands[j])
	})
	if n > len(bands) {
		n = len(bands)
	}
	return bands[:n]
}
