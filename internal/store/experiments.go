package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// InsertExperiment stores a new experiment and returns its id.
func (s *Store) InsertExperiment(ctx context.Context, exp model.Experiment) (int64, error) {
	protocol, err := json.Marshal(exp.Protocol)
	if err != nil {
		return 0, fmt.Errorf("failed to encode protocol: %w", err)
	}
	var completed any
	if exp.CompletedAt != nil {
		completed = formatTime(*exp.CompletedAt)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (user_id, experiment_type, protocol, status, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		exp.UserID, exp.ExperimentType, string(protocol), exp.Status, formatTime(exp.StartedAt), completed)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const experimentColumns = `id, user_id, experiment_type, protocol, status, started_at, completed_at`

func scanExperiment(row rowScanner) (model.Experiment, error) {
	var (
		exp       model.Experiment
		protocol  string
		started   string
		completed sql.NullString
	)
	if err := row.Scan(&exp.ID, &exp.UserID, &exp.ExperimentType, &protocol, &exp.Status, &started, &completed); err != nil {
		return model.Experiment{}, err
	}
	if err := json.Unmarshal([]byte(protocol), &exp.Protocol); err != nil {
		return model.Experiment{}, fmt.Errorf("failed to decode protocol: %w", err)
	}
	var err error
	if exp.StartedAt, err = parseTime(started); err != nil {
		return model.Experiment{}, err
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return model.Experiment{}, err
		}
		exp.CompletedAt = &t
	}
	return exp, nil
}

// GetExperiment loads one experiment.
func (s *Store) GetExperiment(ctx context.Context, id int64) (model.Experiment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id)
	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Experiment{}, fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	return exp, err
}

// ListExperiments returns a user's experiments, newest first. A
// non-positive limit means no limit.
func (s *Store) ListExperiments(ctx context.Context, userID string, limit int) ([]model.Experiment, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+`
		 FROM experiments
		 WHERE user_id = ?
		 ORDER BY started_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	experiments := []model.Experiment{}
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return experiments, nil
}

// CompleteExperiment marks an experiment completed at the given time.
func (s *Store) CompleteExperiment(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET status = ?, completed_at = ? WHERE id = ?`,
		model.ExperimentCompleted, formatTime(at), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("experiment %d: %w", id, ErrNotFound)
	}
	return nil
}
