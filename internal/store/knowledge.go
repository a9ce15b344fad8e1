package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// InsertKnowledge stores or replaces a knowledge entry by id.
func (s *Store) InsertKnowledge(ctx context.Context, entry model.KnowledgeEntry) error {
	params, err := json.Marshal(nonNilMap(entry.StimulusParameters))
	if err != nil {
		return fmt.Errorf("failed to encode stimulus parameters: %w", err)
	}
	citations := entry.Citations
	if citations == nil {
		citations = []model.Citation{}
	}
	cites, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("failed to encode citations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO brain_knowledge (id, stimulus_type, stimulus_parameters, outcome, evidence_strength, citations)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.StimulusType, string(params), entry.Outcome, entry.EvidenceStrength, string(cites))
	return err
}

const knowledgeColumns = `id, stimulus_type, stimulus_parameters, outcome, evidence_strength, citations`

func scanKnowledge(row rowScanner) (model.KnowledgeEntry, error) {
	var (
		entry  model.KnowledgeEntry
		params string
		cites  string
	)
	if err := row.Scan(&entry.ID, &entry.StimulusType, &params, &entry.Outcome, &entry.EvidenceStrength, &cites); err != nil {
		return model.KnowledgeEntry{}, err
	}
	if err := json.Unmarshal([]byte(params), &entry.StimulusParameters); err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("failed to decode stimulus parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(cites), &entry.Citations); err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("failed to decode citations: %w", err)
	}
	return entry, nil
}

// GetKnowledge loads one entry.
func (s *Store) GetKnowledge(ctx context.Context, id string) (model.KnowledgeEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+knowledgeColumns+` FROM brain_knowledge WHERE id = ?`, id)
	entry, err := scanKnowledge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.KnowledgeEntry{}, fmt.Errorf("knowledge %s: %w", id, ErrNotFound)
	}
	return entry, err
}

// ListKnowledge returns entries matching filter, strongest evidence first.
// A non-positive limit means no limit.
func (s *Store) ListKnowledge(ctx context.Context, filter model.KnowledgeFilter) ([]model.KnowledgeEntry, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.StimulusType != "" {
		clauses = append(clauses, "stimulus_type = ?")
		args = append(args, filter.StimulusType)
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.MinEvidence != nil {
		clauses = append(clauses, "evidence_strength >= ?")
		args = append(args, *filter.MinEvidence)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM brain_knowledge
		WHERE %s
		ORDER BY evidence_strength DESC, id ASC
		LIMIT ?`, knowledgeColumns, strings.Join(clauses, " AND "))
	return s.queryKnowledge(ctx, query, args...)
}

// ListKnowledgeByStimulus returns entries whose stimulus type is one of
// types, strongest evidence first.
func (s *Store) ListKnowledgeByStimulus(ctx context.Context, types []string) ([]model.KnowledgeEntry, error) {
	if len(types) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(types))
	args := make([]any, len(types))
	for i, t := range types {
		placeholders[i] = "?"
		args[i] = t
	}
	query := fmt.Sprintf(`SELECT %s FROM brain_knowledge
		WHERE stimulus_type IN (%s)
		ORDER BY evidence_strength DESC, id ASC`, knowledgeColumns, strings.Join(placeholders, ","))
	return s.queryKnowledge(ctx, query, args...)
}

func (s *Store) queryKnowledge(ctx context.Context, query string, args ...any) ([]model.KnowledgeEntry, error) {
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

	entries := []model.KnowledgeEntry{}
	for rows.Next() {
		entry, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountKnowledge returns the number of stored entries.
func (s *Store) CountKnowledge(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM brain_knowledge`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
