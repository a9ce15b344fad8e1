// Package training implements session and knowledge operations on top of
// the store.
package training

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/store"
)

// Paging limits.
const (
	DefaultSessionLimit   = 100
	MaxSessionLimit       = 500
	DefaultKnowledgeLimit = 50
	MaxKnowledgeLimit     = 100
)

// Service validates requests and persists sessions and knowledge.
type Service struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService builds a Service. A nil logger disables logging.
func NewService(st *store.Store, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: st, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// NewSession is the input for CreateSession.
type NewSession struct {
	UserID             string         `json:"user_id"`
	ModuleType         string         `json:"module_type"`
	BrainwaveTarget    string         `json:"brainwave_target,omitempty"`
	TargetState        string         `json:"target_state,omitempty"`
	GeneratedContent   map[string]any `json:"generated_content,omitempty"`
	UserRating         *int           `json:"user_rating,omitempty"`
	EffectivenessScore *float64       `json:"effectiveness_score,omitempty"`
	DurationSeconds    int            `json:"duration_seconds"`
	EndedAt            *time.Time     `json:"ended_at,omitempty"`
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", rating, "must be between 1 and 5")
	}
	return nil
}

func (in NewSession) validate() (*brainwave.Band, error) {
	if in.UserID == "" {
		return nil, NewValidationError("user_id", in.UserID, "is required")
	}
	if !model.IsModuleType(in.ModuleType) {
		return nil, NewValidationError("module_type", in.ModuleType, "invalid module_type")
	}
	var target *brainwave.Band
	if in.BrainwaveTarget != "" {
		b, ok := brainwave.ParseBand(in.BrainwaveTarget)
		if !ok {
			return nil, NewValidationError("brainwave_target", in.BrainwaveTarget, "invalid brainwave_target")
		}
		target = &b
	}
	if in.ModuleType == model.ModuleBrainwave && target == nil {
		return nil, NewValidationError("brainwave_target", in.BrainwaveTarget, "brainwave_target required for brainwave module")
	}
	if in.TargetState != "" {
		if _, ok := brainwave.LookupTargetState(in.TargetState); !ok {
			return nil, NewValidationError("target_state", in.TargetState, "unknown target state")
		}
	}
	if in.UserRating != nil {
		if err := validateRating(*in.UserRating); err != nil {
			return nil, err
		}
	}
	if in.EffectivenessScore != nil && (*in.EffectivenessScore < 0 || *in.EffectivenessScore > 1) {
		return nil, NewValidationError("effectiveness_score", *in.EffectivenessScore, "must be between 0 and 1")
	}
	if in.DurationSeconds < 0 {
		return nil, NewValidationError("duration_seconds", in.DurationSeconds, "must not be negative")
	}
	return target, nil
}

// CreateSession validates and stores a session.
func (s *Service) CreateSession(ctx context.Context, in NewSession) (model.Session, error) {
	return s.createSession(ctx, in, nil)
}

func (s *Service) createSession(ctx context.Context, in NewSession, readings []model.BandReading) (model.Session, error) {
	target, err := in.validate()
	if err != nil {
		return model.Session{}, err
	}
	ended := s.now()
	if in.EndedAt != nil {
		ended = *in.EndedAt
	}
	sess := model.Session{
		UserID:             in.UserID,
		ModuleType:         in.ModuleType,
		BrainwaveTarget:    target,
		TargetState:        in.TargetState,
		GeneratedContent:   in.GeneratedContent,
		UserRating:         in.UserRating,
		EffectivenessScore: in.EffectivenessScore,
		StartedAt:          ended.Add(-time.Duration(in.DurationSeconds) * time.Second),
		EndedAt:            ended,
		DurationSeconds:    in.DurationSeconds,
	}
	if sess.GeneratedContent == nil {
		sess.GeneratedContent = map[string]any{}
	}
	id, err := s.store.InsertSession(ctx, sess, readings)
	if err != nil {
		return model.Session{}, err
	}
	sess.ID = id
	s.log.Info("session created",
		zap.Int64("id", id),
		zap.String("user", sess.UserID),
		zap.String("module", sess.ModuleType),
		zap.Int("duration_seconds", sess.DurationSeconds),
	)
	return sess, nil
}

// ListOptions selects sessions. Zero Limit means the default.
type ListOptions struct {
	UserID          string
	ModuleType      string
	BrainwaveTarget string
	Days            int
	Limit           int
	Skip            int
}

// ListSessions returns matching sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, opts ListOptions) ([]model.Session, error) {
	filter := model.SessionFilter{
		UserID:          opts.UserID,
		ModuleType:      opts.ModuleType,
		BrainwaveTarget: opts.BrainwaveTarget,
		Limit:           opts.Limit,
		Skip:            opts.Skip,
	}
	if opts.ModuleType != "" && !model.IsModuleType(opts.ModuleType) {
		return nil, NewValidationError("module_type", opts.ModuleType, "invalid module_type")
	}
	if opts.BrainwaveTarget != "" {
		b, ok := brainwave.ParseBand(opts.BrainwaveTarget)
		if !ok {
			return nil, NewValidationError("brainwave_target", opts.BrainwaveTarget, "invalid brainwave_target")
		}
		filter.BrainwaveTarget = string(b)
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultSessionLimit
	}
	if filter.Limit < 1 || filter.Limit > MaxSessionLimit {
		return nil, NewValidationError("limit", opts.Limit, "must be between 1 and 500")
	}
	if filter.Skip < 0 {
		return nil, NewValidationError("skip", opts.Skip, "must not be negative")
	}
	if opts.Days < 0 {
		return nil, NewValidationError("days", opts.Days, "must not be negative")
	}
	if opts.Days > 0 {
		since := s.now().AddDate(0, 0, -opts.Days)
		filter.Since = &since
	}
	return s.store.ListSessions(ctx, filter)
}

// GetSession loads one session.
func (s *Service) GetSession(ctx context.Context, id int64) (model.Session, error) {
	return s.store.GetSession(ctx, id)
}

// RateSession sets a 1-5 rating.
func (s *Service) RateSession(ctx context.Context, id int64, rating int) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	if err := s.store.UpdateRating(ctx, id, rating); err != nil {
		return err
	}
	s.log.Info("session rated", zap.Int64("id", id), zap.Int("rating", rating))
	return nil
}

// Summary aggregates a user's sessions, optionally limited to the last days.
func (s *Service) Summary(ctx context.Context, userID string, days int) (model.SessionSummary, error) {
	if userID == "" {
		return model.SessionSummary{}, NewValidationError("user_id", userID, "is required")
	}
	if days < 0 {
		return model.SessionSummary{}, NewValidationError("days", days, "must not be negative")
	}
	now := s.now()
	filter := model.SessionFilter{UserID: userID}
	if days > 0 {
		since := now.AddDate(0, 0, -days)
		filter.Since = &since
	}
	sessions, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return model.SessionSummary{}, err
	}
	return stats.Summarize(sessions, now), nil
}
