// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so text comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Store wraps SQLite access for sessions, knowledge and experiments.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			module_type TEXT NOT NULL,
			brainwave_target TEXT,
			target_state TEXT NOT NULL DEFAULT '',
			generated_content TEXT NOT NULL DEFAULT '{}',
			user_rating INTEGER,
			effectiveness_score REAL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_band_readings (
			session_id INTEGER NOT NULL,
			band TEXT NOT NULL,
			mean REAL NOT NULL,
			samples INTEGER NOT NULL,
			PRIMARY KEY (session_id, band)
		);`,
		`CREATE TABLE IF NOT EXISTS brain_knowledge (
			id TEXT PRIMARY KEY,
			stimulus_type TEXT NOT NULL,
			stimulus_parameters TEXT NOT NULL DEFAULT '{}',
			outcome TEXT NOT NULL,
			evidence_strength REAL NOT NULL,
			citations TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS session_feedback (
			session_id INTEGER PRIMARY KEY,
			rating INTEGER NOT NULL,
			effectiveness INTEGER NOT NULL,
			emotion_before TEXT NOT NULL,
			emotion_after TEXT NOT NULL,
			focus_level INTEGER NOT NULL,
			calmness_level INTEGER NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			submitted_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS experiments (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			experiment_type TEXT NOT NULL,
			protocol TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_experiments_user_id ON experiments(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_brain_knowledge_stimulus ON brain_knowledge(stimulus_type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its band readings.
func (s *Store) InsertSession(ctx context.Context, sess model.Session, readings []model.BandReading) (id int64, err error) {
	content, err := json.Marshal(nonNilMap(sess.GeneratedContent))
	if err != nil {
		return 0, fmt.Errorf("failed to encode generated content: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var target any
	if sess.BrainwaveTarget != nil {
		target = string(*sess.BrainwaveTarget)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (user_id, module_type, brainwave_target, target_state, generated_content, user_rating, effectiveness_score, started_at, ended_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.UserID,
		sess.ModuleType,
		target,
		sess.TargetState,
		string(content),
		nullInt(sess.UserRating),
		nullFloat(sess.EffectivenessScore),
		formatTime(sess.StartedAt),
		formatTime(sess.EndedAt),
		sess.DurationSeconds,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(readings) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO session_band_readings (session_id, band, mean, samples) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range readings {
			if _, err = stmt.ExecContext(ctx, id, string(r.Band), r.Mean, r.Samples); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const sessionColumns = `id, user_id, module_type, brainwave_target, target_state, generated_content, user_rating, effectiveness_score, started_at, ended_at, duration_seconds`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.Session, error) {
	var (
		sess      model.Session
		target    sql.NullString
		content   string
		rating    sql.NullInt64
		score     sql.NullFloat64
		startedAt string
		endedAt   string
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.ModuleType, &target, &sess.TargetState, &content, &rating, &score, &startedAt, &endedAt, &sess.DurationSeconds); err != nil {
		return model.Session{}, err
	}
	if target.Valid {
		b := brainwave.Band(target.String)
		sess.BrainwaveTarget = &b
	}
	if err := json.Unmarshal([]byte(content), &sess.GeneratedContent); err != nil {
		return model.Session{}, fmt.Errorf("failed to decode generated content: %w", err)
	}
	if rating.Valid {
		v := int(rating.Int64)
		sess.UserRating = &v
	}
	if score.Valid {
		v := score.Float64
		sess.EffectivenessScore = &v
	}
	var err error
	if sess.StartedAt, err = parseTime(startedAt); err != nil {
		return model.Session{}, err
	}
	if sess.EndedAt, err = parseTime(endedAt); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// GetSession loads one session with its band readings.
func (s *Store) GetSession(ctx context.Context, id int64) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Session{}, err
	}
	readings, err := s.ListBandReadings(ctx, []int64{id})
	if err != nil {
		return model.Session{}, err
	}
	if len(readings) > 0 {
		dist := ReadingsToDistribution(readings)
		sess.Bands = &dist
	}
	fb, err := s.GetFeedback(ctx, id)
	switch {
	case err == nil:
		sess.Feedback = &fb
	case !errors.Is(err, ErrNotFound):
		return model.Session{}, err
	}
	return sess, nil
}

// ListSessions returns sessions matching filter, newest first. A
// non-positive limit means no limit.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ModuleType != "" {
		clauses = append(clauses, "module_type = ?")
		args = append(args, filter.ModuleType)
	}
	if filter.BrainwaveTarget != "" {
		clauses = append(clauses, "brainwave_target = ?")
		args = append(args, filter.BrainwaveTarget)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}
	args = append(args, limit, skip)
	query := fmt.Sprintf(`SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY ended_at DESC, id DESC
		LIMIT ? OFFSET ?`, sessionColumns, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	sessions := []model.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateRating sets the user rating of a session.
func (s *Store) UpdateRating(ctx context.Context, id int64, rating int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET user_rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListBandReadings aggregates band readings across sessions. Means are
// weighted by sample count.
func (s *Store) ListBandReadings(ctx context.Context, sessionIDs []int64) ([]model.BandReading, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT band, SUM(mean * samples) / SUM(samples) AS mean, SUM(samples) AS samples
		FROM session_band_readings
		WHERE session_id IN (%s) AND samples > 0
		GROUP BY band`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.BandReading
	for rows.Next() {
		var r model.BandReading
		var band string
		if err := rows.Scan(&band, &r.Mean, &r.Samples); err != nil {
			return nil, err
		}
		r.Band = brainwave.Band(band)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReadingsToDistribution folds readings into a distribution. Missing bands
// stay zero.
func ReadingsToDistribution(readings []model.BandReading) brainwave.BandDistribution {
	var d brainwave.BandDistribution
	for _, r := range readings {
		switch r.Band {
		case brainwave.Delta:
			d.Delta = r.Mean
		case brainwave.Theta:
			d.Theta = r.Mean
		case brainwave.Alpha:
			d.Alpha = r.Mean
		case brainwave.Beta:
			d.Beta = r.Mean
		case brainwave.Gamma:
			d.Gamma = r.Mean
		}
	}
	return d
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
