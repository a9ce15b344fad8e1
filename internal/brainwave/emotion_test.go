package brainwave

import "testing"

func TestDeriveEmotionRules(t *testing.T) {
	cases := []struct {
		name       string
		d          BandDistribution
		emotion    string
		confidence float64
	}{
		{"sleepy", BandDistribution{Delta: 0.40, Theta: 0.20, Alpha: 0.20, Beta: 0.10, Gamma: 0.10}, EmotionSleepy, 0.80},
		{"calm", BandDistribution{Delta: 0.10, Theta: 0.32, Alpha: 0.30, Beta: 0.18, Gamma: 0.10}, EmotionCalm, 0.85},
		{"relaxed", BandDistribution{Delta: 0.10, Theta: 0.10, Alpha: 0.40, Beta: 0.30, Gamma: 0.10}, EmotionRelaxed, 0.90},
		{"focused", BandDistribution{Delta: 0.10, Theta: 0.10, Alpha: 0.20, Beta: 0.45, Gamma: 0.15}, EmotionFocused, 0.85},
		{"excited", BandDistribution{Delta: 0.10, Theta: 0.15, Alpha: 0.20, Beta: 0.30, Gamma: 0.25}, EmotionExcited, 0.80},
		{"neutral", BandDistribution{Delta: 0.20, Theta: 0.20, Alpha: 0.20, Beta: 0.20, Gamma: 0.20}, EmotionNeutral, 0.70},
		// delta wins over every later rule
		{"sleepy-priority", BandDistribution{Delta: 0.36, Theta: 0.31, Alpha: 0.26, Beta: 0.0, Gamma: 0.07}, EmotionSleepy, 0.80},
		// thresholds are strict
		{"delta-boundary", BandDistribution{Delta: 0.35, Theta: 0.20, Alpha: 0.20, Beta: 0.15, Gamma: 0.10}, EmotionNeutral, 0.70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveEmotion(tc.d)
			if got.Emotion != tc.emotion {
				t.Fatalf("expected %s, got %s", tc.emotion, got.Emotion)
			}
			if got.Confidence != tc.confidence {
				t.Fatalf("expected confidence %v, got %v", tc.confidence, got.Confidence)
			}
		})
	}
}

func TestDeriveEmotionClampsArousalValence(t *testing.T) {
	d := BandDistribution{Delta: 0.05, Theta: 0.05, Alpha: 0.10, Beta: 0.50, Gamma: 0.30}
	got := DeriveEmotion(d)
	if got.Arousal != 1 {
		t.Fatalf("expected arousal clamped to 1, got %v", got.Arousal)
	}
	want := (0.10 + 0.05) / (0.50 + 0.01)
	if !floatEquals(got.Valence, want) {
		t.Fatalf("expected valence %v, got %v", want, got.Valence)
	}
}

func TestDeriveEmotionValuesBounded(t *testing.T) {
	est := NewWithSeed(99)
	for i := 0; i < 500; i++ {
		got := DeriveEmotion(est.EstimateBands(Features{}))
		if got.Arousal < 0 || got.Arousal > 1 || got.Valence < 0 || got.Valence > 1 {
			t.Fatalf("arousal/valence out of [0,1]: %+v", got)
		}
	}
}

func TestDominantBand(t *testing.T) {
	d := BandDistribution{Delta: 0.1, Theta: 0.2, Alpha: 0.4, Beta: 0.2, Gamma: 0.1}
	got := DominantBand(d)
	if got.Band != Alpha || got.Value != 0.4 {
		t.Fatalf("expected alpha 0.4, got %+v", got)
	}
}

func TestDominantBandTieGoesToFirst(t *testing.T) {
	d := BandDistribution{Delta: 0.1, Theta: 0.3, Alpha: 0.3, Beta: 0.2, Gamma: 0.1}
	if got := DominantBand(d); got.Band != Theta {
		t.Fatalf("expected theta on tie, got %s", got.Band)
	}
	if got := DominantBand(BandDistribution{}.Normalize()); got.Band != Delta {
		t.Fatalf("expected delta on uniform, got %s", got.Band)
	}
}

func TestDominantBandIsMax(t *testing.T) {
	est := NewWithSeed(5)
	for i := 0; i < 200; i++ {
		d := est.EstimateBands(Features{})
		dom := DominantBand(d)
		for _, b := range Bands() {
			if d.Value(b) > dom.Value {
				t.Fatalf("band %s exceeds dominant %s", b, dom.Band)
			}
		}
	}
}

func TestTables(t *testing.T) {
	for _, b := range Bands() {
		info, ok := Info(b)
		if !ok {
			t.Fatalf("missing info for %s", b)
		}
		if info.LowHz >= info.HighHz || info.Color == "" {
			t.Fatalf("bad info for %s: %+v", b, info)
		}
	}
	if info, _ := Info(Gamma); info.State != "Peak Performance" || info.Range != "30-100 Hz" {
		t.Fatalf("unexpected gamma info: %+v", info)
	}
	for _, name := range TargetStateNames() {
		if _, ok := LookupTargetState(name); !ok {
			t.Fatalf("missing target state %s", name)
		}
	}
	if ts := ResolveTargetState("unknown"); ts.Name != StateFocus {
		t.Fatalf("expected focus fallback, got %s", ts.Name)
	}
	if b, ok := ParseBand(" Alpha "); !ok || b != Alpha {
		t.Fatalf("expected alpha, got %q %v", b, ok)
	}
	if _, ok := ParseBand("kappa"); ok {
		t.Fatal("expected kappa to be rejected")
	}
}
