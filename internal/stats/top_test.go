package stats

import (
	"testing"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

func TestRankBands(t *testing.T) {
	d := brainwave.BandDistribution{Delta: 0.1, Theta: 0.25, Alpha: 0.25, Beta: 0.3, Gamma: 0.1}
	top := RankBands(d, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(top))
	}
	if top[0] != brainwave.Beta || top[1] != brainwave.Theta || top[2] != brainwave.Alpha {
		t.Fatalf("unexpected order: %v", top)
	}
	if got := RankBands(d, 10); len(got) != 5 {
		t.Fatalf("expected all 5 bands, got %d", len(got))
	}
	if got := RankBands(d, 0); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestTargetAlignment(t *testing.T) {
	d := brainwave.BandDistribution{Delta: 0.1, Theta: 0.2, Alpha: 0.4, Beta: 0.2, Gamma: 0.1}
	if got := TargetAlignment(d, brainwave.StateCalm); got < 0.6-1e-9 || got > 0.6+1e-9 {
		t.Fatalf("expected 0.6 for calm, got %v", got)
	}
	if got := TargetAlignment(d, "unknown"); got < 0.3-1e-9 || got > 0.3+1e-9 {
		t.Fatalf("expected focus fallback 0.3, got %v", got)
	}
}

func TestWeakBands(t *testing.T) {
	d := brainwave.BandDistribution{Delta: 0.1, Theta: 0.2, Alpha: 0.4, Beta: 0.2, Gamma: 0.1}
	weak := WeakBands(d, brainwave.StateFocus, 0.15)
	if len(weak) != 1 || weak[0] != brainwave.Gamma {
		t.Fatalf("expected gamma to be weak, got %v", weak)
	}
	if weak := WeakBands(d, brainwave.StateCalm, 0.1); len(weak) != 0 {
		t.Fatalf("expected no weak bands, got %v", weak)
	}
}
