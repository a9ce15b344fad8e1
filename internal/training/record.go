package training

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
)

// TrainingResult is a finished live brainwave session.
type TrainingResult struct {
	User      string
	State     string
	Music     brainwave.MusicParameters
	StartedAt time.Time
	EndedAt   time.Time
	Means     brainwave.BandDistribution
	Samples   int
	Rating    *int
}

// RecordTraining stores a live session. The brainwave target is the state's
// primary band and the effectiveness score is how much of the measured
// distribution sat in the state's bands.
func (s *Service) RecordTraining(ctx context.Context, res TrainingResult) (model.Session, error) {
	ts, ok := brainwave.LookupTargetState(res.State)
	if !ok {
		return model.Session{}, NewValidationError("target_state", res.State, "unknown target state")
	}
	content, err := musicContent(res.Music)
	if err != nil {
		return model.Session{}, err
	}

	var readings []model.BandReading
	var score *float64
	if res.Samples > 0 {
		for _, b := range brainwave.Bands() {
			readings = append(readings, model.BandReading{Band: b, Mean: res.Means.Value(b), Samples: res.Samples})
		}
		v := math.Round(stats.TargetAlignment(res.Means, res.State)*100) / 100
		score = &v
	}

	ended := res.EndedAt
	duration := int(math.Round(res.EndedAt.Sub(res.StartedAt).Seconds()))
	sess, err := s.createSession(ctx, NewSession{
		UserID:             res.User,
		ModuleType:         model.ModuleBrainwave,
		BrainwaveTarget:    string(ts.Primary),
		TargetState:        res.State,
		GeneratedContent:   content,
		UserRating:         res.Rating,
		EffectivenessScore: score,
		DurationSeconds:    max(0, duration),
		EndedAt:            &ended,
	}, readings)
	if err != nil {
		return model.Session{}, err
	}
	if res.Samples > 0 {
		sess.Bands = &res.Means
	}
	s.log.Debug("training recorded", zap.Int64("id", sess.ID), zap.Int("samples", res.Samples))
	return sess, nil
}

// musicContent flattens music parameters into the generic content map.
func musicContent(mp brainwave.MusicParameters) (map[string]any, error) {
	raw, err := json.Marshal(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode music parameters: %w", err)
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("failed to decode music parameters: %w", err)
	}
	return content, nil
}
