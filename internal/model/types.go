// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

// Training module types.
const (
	ModuleMovers          = "movers"
	ModulePFCGym          = "pfc_gym"
	ModuleMentalRehearsal = "mental_rehearsal"
	ModuleBrainwave       = "brainwave"
)

// ModuleTypes lists the valid module types.
var ModuleTypes = []string{ModuleMovers, ModulePFCGym, ModuleMentalRehearsal, ModuleBrainwave}

// IsModuleType reports whether s is a known module type.
func IsModuleType(s string) bool {
	for _, m := range ModuleTypes {
		if s == m {
			return true
		}
	}
	return false
}

// TrainingConfig defines live training settings.
type TrainingConfig struct {
	User        string
	TargetState string
	Duration    time.Duration
	Tick        time.Duration
	Seed        int64
}

// Session is a completed training activity.
type Session struct {
	ID                 int64                       `json:"id"`
	UserID             string                      `json:"user_id"`
	ModuleType         string                      `json:"module_type"`
	BrainwaveTarget    *brainwave.Band             `json:"brainwave_target,omitempty"`
	TargetState        string                      `json:"target_state,omitempty"`
	GeneratedContent   map[string]any              `json:"generated_content,omitempty"`
	UserRating         *int                        `json:"user_rating,omitempty"`
	EffectivenessScore *float64                    `json:"effectiveness_score,omitempty"`
	StartedAt          time.Time                   `json:"started_at"`
	EndedAt            time.Time                   `json:"ended_at"`
	DurationSeconds    int                         `json:"duration_seconds"`
	Bands              *brainwave.BandDistribution `json:"bands,omitempty"`
	Feedback           *Feedback                   `json:"feedback,omitempty"`
}

// Emotions a user can report around a session.
var Emotions = []string{"anxious", "stressed", "neutral", "calm", "relaxed", "focused", "energized", "sleepy"}

// IsEmotion reports whether s is a known emotion.
func IsEmotion(s string) bool {
	for _, e := range Emotions {
		if s == e {
			return true
		}
	}
	return false
}

// Feedback is a user's report on one session. Rating and Effectiveness are
// 1-5, the levels 1-10.
type Feedback struct {
	SessionID     int64     `json:"session_id"`
	Rating        int       `json:"rating"`
	Effectiveness int       `json:"effectiveness"`
	EmotionBefore string    `json:"emotion_before"`
	EmotionAfter  string    `json:"emotion_after"`
	FocusLevel    int       `json:"focus_level"`
	CalmnessLevel int       `json:"calmness_level"`
	Comments      string    `json:"comments,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// BandReading is the mean weight of one band over a session.
type BandReading struct {
	SessionID int64          `json:"session_id"`
	Band      brainwave.Band `json:"band"`
	Mean      float64        `json:"mean"`
	Samples   int            `json:"samples"`
}

// SessionFilter selects sessions for listing.
type SessionFilter struct {
	UserID          string
	ModuleType      string
	BrainwaveTarget string
	Since           *time.Time
	Limit           int
	Skip            int
}

// SessionSummary aggregates sessions for the stats view.
type SessionSummary struct {
	TotalSessions       int            `json:"total_sessions"`
	TotalHours          float64        `json:"total_hours"`
	AverageRating       float64        `json:"average_rating"`
	SessionsByModule    map[string]int `json:"sessions_by_module"`
	SessionsByBrainwave map[string]int `json:"sessions_by_brainwave"`
	RecentSessions      int            `json:"recent_sessions"`
}

// Citation references a research paper.
type Citation struct {
	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
	Year    string `json:"year" yaml:"year"`
	Journal string `json:"journal" yaml:"journal"`
}

// KnowledgeEntry is a research-backed stimulus/outcome record.
type KnowledgeEntry struct {
	ID                 string         `json:"id" yaml:"id"`
	StimulusType       string         `json:"stimulus_type" yaml:"stimulus_type"`
	StimulusParameters map[string]any `json:"stimulus_parameters" yaml:"stimulus_parameters"`
	Outcome            string         `json:"outcome" yaml:"outcome"`
	EvidenceStrength   float64        `json:"evidence_strength" yaml:"evidence_strength"`
	Citations          []Citation     `json:"citations" yaml:"citations"`
}

// KnowledgeFilter selects knowledge entries.
type KnowledgeFilter struct {
	StimulusType string
	Outcome      string
	MinEvidence  *float64
	Limit        int
}

// Recommendation is a knowledge entry condensed for a training module.
type Recommendation struct {
	StimulusType     string         `json:"stimulus_type"`
	Outcome          string         `json:"outcome"`
	EvidenceStrength float64        `json:"evidence_strength"`
	Parameters       map[string]any `json:"parameters"`
	KeyCitation      *Citation      `json:"key_citation"`
}

// Recommendations groups recommendations for a module.
type Recommendations struct {
	ModuleType      string           `json:"module_type"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Experiment statuses.
const (
	ExperimentActive    = "active"
	ExperimentCompleted = "completed"
)

// ExperimentType is a guided experiment a user can run.
type ExperimentType struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Trials          int    `json:"trials"`
}

// ExperimentTypes lists the available experiments.
var ExperimentTypes = []ExperimentType{
	{
		Type:            "actual_vs_imagined",
		Name:            "Actual vs Imagined Action",
		Description:     "Compare brain activity when performing vs imagining an action",
		DurationMinutes: 15,
		Trials:          10,
	},
	{
		Type:            "music_entrainment",
		Name:            "Music Brainwave Entrainment",
		Description:     "Train specific brainwave frequencies through rhythmic audio",
		DurationMinutes: 20,
		Trials:          5,
	},
	{
		Type:            "emotion_mapping",
		Name:            "Emotion-State Mapping",
		Description:     "Correlate emotional states with brainwave patterns",
		DurationMinutes: 10,
		Trials:          8,
	},
	{
		Type:            "focus_training",
		Name:            "Progressive Focus Training",
		Description:     "Build sustained concentration through graduated challenges",
		DurationMinutes: 25,
		Trials:          6,
	},
}

// LookupExperimentType finds an experiment type by key.
func LookupExperimentType(t string) (ExperimentType, bool) {
	for _, et := range ExperimentTypes {
		if et.Type == t {
			return et, true
		}
	}
	return ExperimentType{}, false
}

// ExperimentProtocol is what a started experiment asks of the user.
type ExperimentProtocol struct {
	Trials          int    `json:"trials"`
	DurationMinutes int    `json:"duration_minutes"`
	Instructions    string `json:"instructions"`
}

// Experiment is one run of an experiment type.
type Experiment struct {
	ID             int64              `json:"id"`
	UserID         string             `json:"user_id"`
	ExperimentType string             `json:"experiment_type"`
	Protocol       ExperimentProtocol `json:"protocol"`
	Status         string             `json:"status"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}
