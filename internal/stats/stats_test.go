package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
)

func intPtr(v int) *int { return &v }

func bandPtr(b brainwave.Band) *brainwave.Band { return &b }

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		{ModuleType: model.ModuleBrainwave, BrainwaveTarget: bandPtr(brainwave.Alpha), UserRating: intPtr(4), DurationSeconds: 1800, EndedAt: now.Add(-time.Hour)},
		{ModuleType: model.ModuleBrainwave, BrainwaveTarget: bandPtr(brainwave.Beta), UserRating: intPtr(5), DurationSeconds: 1200, EndedAt: now.Add(-48 * time.Hour)},
		{ModuleType: model.ModuleMovers, UserRating: intPtr(2), DurationSeconds: 600, EndedAt: now.Add(-10 * 24 * time.Hour)},
		{ModuleType: model.ModulePFCGym, DurationSeconds: 100, EndedAt: now.Add(-8 * 24 * time.Hour)},
	}
	s := Summarize(sessions, now)
	if s.TotalSessions != 4 {
		t.Fatalf("expected 4 sessions, got %d", s.TotalSessions)
	}
	// 3700 seconds = 1.0277 hours
	if s.TotalHours != 1.03 {
		t.Fatalf("expected 1.03 hours, got %v", s.TotalHours)
	}
	if s.AverageRating != 3.67 {
		t.Fatalf("expected average rating 3.67, got %v", s.AverageRating)
	}
	if s.SessionsByModule[model.ModuleBrainwave] != 2 || s.SessionsByModule[model.ModuleMovers] != 1 {
		t.Fatalf("unexpected module counts: %v", s.SessionsByModule)
	}
	if len(s.SessionsByBrainwave) != 2 || s.SessionsByBrainwave["alpha"] != 1 {
		t.Fatalf("unexpected band counts: %v", s.SessionsByBrainwave)
	}
	if s.RecentSessions != 2 {
		t.Fatalf("expected 2 recent sessions, got %d", s.RecentSessions)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, time.Now())
	if s.TotalSessions != 0 || s.TotalHours != 0 || s.AverageRating != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	if s.SessionsByModule == nil || s.SessionsByBrainwave == nil {
		t.Fatal("expected non-nil maps")
	}
}

func TestSessionsPerDay(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		{EndedAt: now.Add(-time.Hour)},
		{EndedAt: now.Add(-2 * time.Hour)},
		{EndedAt: now.Add(-24 * time.Hour)},
		{EndedAt: now.Add(-30 * 24 * time.Hour)},
	}
	got := SessionsPerDay(sessions, 3, now)
	want := []float64{0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if SessionsPerDay(sessions, 0, now) != nil {
		t.Fatal("expected nil for zero days")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatal("expected empty sparkline")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSummary(&buf, model.SessionSummary{
		TotalSessions:       2,
		TotalHours:          0.5,
		AverageRating:       4.5,
		SessionsByModule:    map[string]int{model.ModuleBrainwave: 2},
		SessionsByBrainwave: map[string]int{"theta": 1, "alpha": 1},
		RecentSessions:      1,
	})
	if err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg rating: 4.50", "By module: brainwave=2", "By band: theta=1 alpha=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, model.SessionSummary{}); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestRenderSessionTable(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.Session{{
		ID:              7,
		UserID:          "ada",
		ModuleType:      model.ModuleBrainwave,
		TargetState:     brainwave.StateFocus,
		BrainwaveTarget: bandPtr(brainwave.Beta),
		DurationSeconds: 90,
		EndedAt:         time.Now(),
	}}
	if err := RenderSessionTable(&buf, sessions); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "focus/beta") || !strings.Contains(out, "1.5") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestBandBars(t *testing.T) {
	d := brainwave.BandDistribution{Delta: 0.1, Theta: 0.2, Alpha: 0.4, Beta: 0.2, Gamma: 0.1}
	lines := BandBars(d, 10, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[2] != "alpha  ████░░░░░░   40.0%" {
		t.Fatalf("unexpected alpha bar: %q", lines[2])
	}
	for _, line := range lines {
		if displayWidth(line) != barLabelWidth+1+10+1+barValueWidth {
			t.Fatalf("unexpected bar width for %q", line)
		}
	}
}

func TestRenderBandTable(t *testing.T) {
	var buf bytes.Buffer
	d := brainwave.BandDistribution{}.Normalize()
	if err := RenderBandTable(&buf, d); err != nil {
		t.Fatalf("render band table: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Deep Sleep") || !strings.Contains(out, "20.0%") {
		t.Fatalf("unexpected band table:\n%s", out)
	}
}
