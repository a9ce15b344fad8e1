package training

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// defaultLevel is used when a focus or calmness level is left out.
const defaultLevel = 5

const maxCommentLength = 2000

// FeedbackInput is the input for SubmitFeedback. Zero levels mean the
// default.
type FeedbackInput struct {
	Rating        int    `json:"rating"`
	Effectiveness int    `json:"effectiveness"`
	EmotionBefore string `json:"emotion_before"`
	EmotionAfter  string `json:"emotion_after"`
	FocusLevel    int    `json:"focus_level,omitempty"`
	CalmnessLevel int    `json:"calmness_level,omitempty"`
	Comments      string `json:"comments,omitempty"`
}

func (in *FeedbackInput) normalize() error {
	if err := validateRating(in.Rating); err != nil {
		return err
	}
	if in.Effectiveness < 1 || in.Effectiveness > 5 {
		return NewValidationError("effectiveness", in.Effectiveness, "must be between 1 and 5")
	}
	emotions := []struct {
		field string
		v     *string
	}{{"emotion_before", &in.EmotionBefore}, {"emotion_after", &in.EmotionAfter}}
	for _, e := range emotions {
		*e.v = strings.ToLower(strings.TrimSpace(*e.v))
		if !model.IsEmotion(*e.v) {
			return NewValidationError(e.field, *e.v, "must be one of "+strings.Join(model.Emotions, ", "))
		}
	}
	levels := []struct {
		field string
		v     *int
	}{{"focus_level", &in.FocusLevel}, {"calmness_level", &in.CalmnessLevel}}
	for _, l := range levels {
		if *l.v == 0 {
			*l.v = defaultLevel
		}
		if *l.v < 1 || *l.v > 10 {
			return NewValidationError(l.field, *l.v, "must be between 1 and 10")
		}
	}
	in.Comments = strings.TrimSpace(in.Comments)
	if len(in.Comments) > maxCommentLength {
		return NewValidationError("comments", len(in.Comments), "must be at most 2000 bytes")
	}
	return nil
}

// SubmitFeedback records how a session went. Resubmitting replaces the
// earlier feedback; the rating also becomes the session's rating.
func (s *Service) SubmitFeedback(ctx context.Context, sessionID int64, in FeedbackInput) (model.Feedback, error) {
	if err := in.normalize(); err != nil {
		return model.Feedback{}, err
	}
	fb := model.Feedback{
		SessionID:     sessionID,
		Rating:        in.Rating,
		Effectiveness: in.Effectiveness,
		EmotionBefore: in.EmotionBefore,
		EmotionAfter:  in.EmotionAfter,
		FocusLevel:    in.FocusLevel,
		CalmnessLevel: in.CalmnessLevel,
		Comments:      in.Comments,
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return model.Feedback{}, err
	}
	s.log.Info("feedback submitted",
		zap.Int64("session", sessionID),
		zap.Int("rating", fb.Rating),
		zap.String("emotion_before", fb.EmotionBefore),
		zap.String("emotion_after", fb.EmotionAfter),
	)
	return fb, nil
}

// GetFeedback loads the feedback of a session.
func (s *Service) GetFeedback(ctx context.Context, sessionID int64) (model.Feedback, error) {
	return s.store.GetFeedback(ctx, sessionID)
}
