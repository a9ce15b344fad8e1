package training

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

//go:embed knowledge_seed.yaml
var defaultKnowledge []byte

// moduleStimuli maps a training module to the stimuli worth recommending.
var moduleStimuli = map[string][]string{
	model.ModuleMovers:          {"meditation", "breathwork"},
	model.ModulePFCGym:          {"breathwork", "neurofeedback"},
	model.ModuleMentalRehearsal: {"mental_rehearsal", "visualization"},
	model.ModuleBrainwave:       {"binaural_beats", "gamma_entrainment", "neurofeedback"},
}

// KnowledgeOptions selects knowledge entries. Zero Limit means the default.
type KnowledgeOptions struct {
	StimulusType string
	Outcome      string
	MinEvidence  *float64
	Limit        int
}

// ListKnowledge returns entries sorted by evidence strength, strongest first.
func (s *Service) ListKnowledge(ctx context.Context, opts KnowledgeOptions) ([]model.KnowledgeEntry, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultKnowledgeLimit
	}
	if limit < 1 || limit > MaxKnowledgeLimit {
		return nil, NewValidationError("limit", opts.Limit, "must be between 1 and 100")
	}
	if opts.MinEvidence != nil && (*opts.MinEvidence < 0 || *opts.MinEvidence > 1) {
		return nil, NewValidationError("min_evidence", *opts.MinEvidence, "must be between 0 and 1")
	}
	return s.store.ListKnowledge(ctx, model.KnowledgeFilter{
		StimulusType: opts.StimulusType,
		Outcome:      opts.Outcome,
		MinEvidence:  opts.MinEvidence,
		Limit:        limit,
	})
}

// GetKnowledge loads one entry.
func (s *Service) GetKnowledge(ctx context.Context, id string) (model.KnowledgeEntry, error) {
	return s.store.GetKnowledge(ctx, id)
}

// Recommendations lists the knowledge relevant to a training module.
func (s *Service) Recommendations(ctx context.Context, module string) (model.Recommendations, error) {
	stimuli, ok := moduleStimuli[module]
	if !ok {
		return model.Recommendations{}, NewValidationError("module_type", module, "invalid module_type")
	}
	entries, err := s.store.ListKnowledgeByStimulus(ctx, stimuli)
	if err != nil {
		return model.Recommendations{}, err
	}
	recs := model.Recommendations{
		ModuleType:      module,
		Recommendations: make([]model.Recommendation, 0, len(entries)),
	}
	for _, e := range entries {
		rec := model.Recommendation{
			StimulusType:     e.StimulusType,
			Outcome:          e.Outcome,
			EvidenceStrength: e.EvidenceStrength,
			Parameters:       e.StimulusParameters,
		}
		if len(e.Citations) > 0 {
			c := e.Citations[0]
			rec.KeyCitation = &c
		}
		recs.Recommendations = append(recs.Recommendations, rec)
	}
	return recs, nil
}

// ParseKnowledge decodes a YAML list of entries. Entries without an id get
// one derived from stimulus type and outcome, so reseeding replaces rather
// than duplicates.
func ParseKnowledge(r io.Reader) ([]model.KnowledgeEntry, error) {
	var entries []model.KnowledgeEntry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode knowledge: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		if e.StimulusType == "" || e.Outcome == "" {
			return nil, NewValidationError("stimulus_type", e.StimulusType, fmt.Sprintf("entry %d needs stimulus_type and outcome", i))
		}
		if e.EvidenceStrength < 0 || e.EvidenceStrength > 1 {
			return nil, NewValidationError("evidence_strength", e.EvidenceStrength, "must be between 0 and 1")
		}
		if e.ID == "" {
			e.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("brainbuddy:"+e.StimulusType+"/"+e.Outcome)).String()
		}
		if e.StimulusParameters == nil {
			e.StimulusParameters = map[string]any{}
		}
	}
	return entries, nil
}

// DefaultKnowledge returns the built-in research entries.
func DefaultKnowledge() ([]model.KnowledgeEntry, error) {
	return ParseKnowledge(bytes.NewReader(defaultKnowledge))
}

// SeedKnowledge stores every entry read from r and returns how many were
// written.
func (s *Service) SeedKnowledge(ctx context.Context, r io.Reader) (int, error) {
	entries, err := ParseKnowledge(r)
	if err != nil {
		return 0, err
	}
	return s.storeKnowledge(ctx, entries)
}

// SeedDefaultKnowledge stores the built-in entries, replacing earlier
// copies.
func (s *Service) SeedDefaultKnowledge(ctx context.Context) (int, error) {
	entries, err := DefaultKnowledge()
	if err != nil {
		return 0, err
	}
	return s.storeKnowledge(ctx, entries)
}

// EnsureKnowledge seeds the built-in entries when the knowledge base is
// empty.
func (s *Service) EnsureKnowledge(ctx context.Context) error {
	n, err := s.store.CountKnowledge(ctx)
	if err != nil || n > 0 {
		return err
	}
	_, err = s.SeedDefaultKnowledge(ctx)
	return err
}

func (s *Service) storeKnowledge(ctx context.Context, entries []model.KnowledgeEntry) (int, error) {
	for i, e := range entries {
		if err := s.store.InsertKnowledge(ctx, e); err != nil {
			return i, fmt.Errorf("failed to store knowledge %s: %w", e.ID, err)
		}
	}
	s.log.Info("knowledge seeded", zap.Int("entries", len(entries)))
	return len(entries), nil
}
