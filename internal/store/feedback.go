package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// SaveFeedback stores or replaces the feedback of a session and copies its
// rating onto the session.
func (s *Store) SaveFeedback(ctx context.Context, fb model.Feedback) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET user_rating = ? WHERE id = ?`, fb.Rating, fb.SessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("session %d: %w", fb.SessionID, ErrNotFound)
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_feedback (session_id, rating, effectiveness, emotion_before, emotion_after, focus_level, calmness_level, comments, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.SessionID, fb.Rating, fb.Effectiveness, fb.EmotionBefore, fb.EmotionAfter,
		fb.FocusLevel, fb.CalmnessLevel, fb.Comments, formatTime(fb.SubmittedAt))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetFeedback loads the feedback of a session.
func (s *Store) GetFeedback(ctx context.Context, sessionID int64) (model.Feedback, error) {
	var (
		fb        model.Feedback
		submitted string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, rating, effectiveness, emotion_before, emotion_after, focus_level, calmness_level, comments, submitted_at
		 FROM session_feedback WHERE session_id = ?`, sessionID).
		Scan(&fb.SessionID, &fb.Rating, &fb.Effectiveness, &fb.EmotionBefore, &fb.EmotionAfter, &fb.FocusLevel, &fb.CalmnessLevel, &fb.Comments, &submitted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Feedback{}, fmt.Errorf("feedback for session %d: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return model.Feedback{}, err
	}
	if fb.SubmittedAt, err = parseTime(submitted); err != nil {
		return model.Feedback{}, err
	}
	return fb, nil
}
