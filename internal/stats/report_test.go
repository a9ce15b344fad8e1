package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "brainbuddy.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		end := now.Add(-time.Duration(3-i) * time.Hour)
		sess := model.Session{
			UserID:          "ada",
			ModuleType:      model.ModuleBrainwave,
			BrainwaveTarget: bandPtr(brainwave.Alpha),
			TargetState:     brainwave.StateCalm,
			StartedAt:       end.Add(-5 * time.Minute),
			EndedAt:         end,
			DurationSeconds: 300,
		}
		readings := []model.BandReading{
			{Band: brainwave.Alpha, Mean: 0.25 * float64(i+1), Samples: 4},
		}
		id, err := st.InsertSession(ctx, sess, readings)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.SessionFilter{UserID: "ada"}, 2, 3, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(report.Sessions))
	}
	if len(report.WindowSessionIDs) != 2 || report.WindowSessionIDs[0] != ids[2] || report.WindowSessionIDs[1] != ids[1] {
		t.Fatalf("unexpected window ids: %v", report.WindowSessionIDs)
	}
	if report.BandsAll == nil || report.BandsAll.Alpha != 0.5 {
		t.Fatalf("expected all-session alpha 0.5, got %+v", report.BandsAll)
	}
	if report.BandsWindow == nil || report.BandsWindow.Alpha != 0.625 {
		t.Fatalf("expected window alpha 0.625, got %+v", report.BandsWindow)
	}
	if report.Summary.TotalSessions != 3 || report.Summary.RecentSessions != 3 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if len(report.PerDay) != 3 || report.PerDay[2] != 3 {
		t.Fatalf("unexpected per-day counts: %v", report.PerDay)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "brainbuddy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	report, err := BuildReport(context.Background(), st, model.SessionFilter{}, 5, 7, time.Now())
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 0 || report.BandsAll != nil || report.BandsWindow != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
