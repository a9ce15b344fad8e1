package training

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// Experiment paging limits.
const (
	DefaultExperimentLimit = 50
	MaxExperimentLimit     = 100
)

// ErrExperimentCompleted is returned when completing a finished experiment.
var ErrExperimentCompleted = errors.New("experiment already completed")

// StartExperiment begins an experiment of the given type for a user.
func (s *Service) StartExperiment(ctx context.Context, userID, experimentType string) (model.Experiment, error) {
	if userID == "" {
		return model.Experiment{}, NewValidationError("user_id", userID, "is required")
	}
	et, ok := model.LookupExperimentType(experimentType)
	if !ok {
		return model.Experiment{}, NewValidationError("experiment_type", experimentType, "unknown experiment type")
	}
	exp := model.Experiment{
		UserID:         userID,
		ExperimentType: et.Type,
		Protocol: model.ExperimentProtocol{
			Trials:          et.Trials,
			DurationMinutes: et.DurationMinutes,
			Instructions:    fmt.Sprintf("Complete %d trials of %s", et.Trials, et.Name),
		},
		Status:    model.ExperimentActive,
		StartedAt: s.now().UTC(),
	}
	id, err := s.store.InsertExperiment(ctx, exp)
	if err != nil {
		return model.Experiment{}, err
	}
	exp.ID = id
	s.log.Info("experiment started", zap.Int64("id", id), zap.String("user", userID), zap.String("type", et.Type))
	return exp, nil
}

// CompleteExperiment marks an active experiment completed.
func (s *Service) CompleteExperiment(ctx context.Context, id int64) (model.Experiment, error) {
	exp, err := s.store.GetExperiment(ctx, id)
	if err != nil {
		return model.Experiment{}, err
	}
	if exp.Status == model.ExperimentCompleted {
		return model.Experiment{}, fmt.Errorf("experiment %d: %w", id, ErrExperimentCompleted)
	}
	now := s.now().UTC()
	if err := s.store.CompleteExperiment(ctx, id, now); err != nil {
		return model.Experiment{}, err
	}
	exp.Status = model.ExperimentCompleted
	exp.CompletedAt = &now
	s.log.Info("experiment completed", zap.Int64("id", id), zap.Duration("elapsed", now.Sub(exp.StartedAt)))
	return exp, nil
}

// ListExperiments returns a user's experiments, newest first. Zero limit
// means the default.
func (s *Service) ListExperiments(ctx context.Context, userID string, limit int) ([]model.Experiment, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", userID, "is required")
	}
	if limit == 0 {
		limit = DefaultExperimentLimit
	}
	if limit < 1 || limit > MaxExperimentLimit {
		return nil, NewValidationError("limit", limit, "must be between 1 and 100")
	}
	return s.store.ListExperiments(ctx, userID, limit)
}
