package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.Session
	Summary          model.SessionSummary
	WindowSessionIDs []int64
	BandsAll         *brainwave.BandDistribution
	BandsWindow      *brainwave.BandDistribution
	PerDay           []float64
}

// BuildReport loads sessions matching filter and aggregates band readings
// over all of them and over the newest window sessions.
func BuildReport(ctx context.Context, st *store.Store, filter model.SessionFilter, window, days int, now time.Time) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}

	allIDs := sessionIDs(sessions)
	windowIDs := newestSessionIDs(sessions, window)
	bandsAll, err := averageBands(ctx, st, allIDs)
	if err != nil {
		return Report{}, err
	}
	bandsWindow, err := averageBands(ctx, st, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:         sessions,
		Summary:          Summarize(sessions, now),
		WindowSessionIDs: windowIDs,
		BandsAll:         bandsAll,
		BandsWindow:      bandsWindow,
		PerDay:           SessionsPerDay(sessions, days, now),
	}, nil
}

func averageBands(ctx context.Context, st *store.Store, ids []int64) (*brainwave.BandDistribution, error) {
	readings, err := st.ListBandReadings(ctx, ids)
	if err != nil || len(readings) == 0 {
		return nil, err
	}
	d := store.ReadingsToDistribution(readings)
	return &d, nil
}

func sessionIDs(sessions []model.Session) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}

// newestSessionIDs expects sessions newest first.
func newestSessionIDs(sessions []model.Session, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[:window])
}
