package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "brainbuddy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func bandPtr(b brainwave.Band) *brainwave.Band { return &b }

func intPtr(v int) *int { return &v }

func testSession(user string, ended time.Time) model.Session {
	return model.Session{
		UserID:          user,
		ModuleType:      model.ModuleBrainwave,
		BrainwaveTarget: bandPtr(brainwave.Alpha),
		TargetState:     brainwave.StateCalm,
		GeneratedContent: map[string]any{
			"tempo": 72.5,
			"key":   "D",
		},
		StartedAt:       ended.Add(-10 * time.Minute),
		EndedAt:         ended,
		DurationSeconds: 600,
	}
}

func TestInsertAndGetSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC)

	sess := testSession("ada", ended)
	sess.UserRating = intPtr(4)
	readings := []model.BandReading{
		{Band: brainwave.Alpha, Mean: 0.5, Samples: 8},
		{Band: brainwave.Beta, Mean: 0.25, Samples: 8},
	}
	id, err := st.InsertSession(ctx, sess, readings)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}

	got, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	want := sess
	want.ID = id
	want.Bands = &brainwave.BandDistribution{Alpha: 0.5, Beta: 0.25}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetSession(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		sess := testSession("ada", base.Add(time.Duration(i)*time.Hour))
		if i%2 == 1 {
			sess.UserID = "bob"
			sess.ModuleType = model.ModuleMovers
			sess.BrainwaveTarget = nil
		}
		if _, err := st.InsertSession(ctx, sess, nil); err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
	}

	all, err := st.ListSessions(ctx, model.SessionFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 sessions, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].EndedAt.After(all[i-1].EndedAt) {
			t.Fatalf("expected newest first, got %v before %v", all[i-1].EndedAt, all[i].EndedAt)
		}
	}

	ada, err := st.ListSessions(ctx, model.SessionFilter{UserID: "ada"})
	if err != nil {
		t.Fatalf("list ada: %v", err)
	}
	if len(ada) != 3 {
		t.Fatalf("expected 3 sessions for ada, got %d", len(ada))
	}

	movers, err := st.ListSessions(ctx, model.SessionFilter{ModuleType: model.ModuleMovers})
	if err != nil {
		t.Fatalf("list movers: %v", err)
	}
	if len(movers) != 2 || movers[0].BrainwaveTarget != nil {
		t.Fatalf("unexpected movers result: %+v", movers)
	}

	alpha, err := st.ListSessions(ctx, model.SessionFilter{BrainwaveTarget: "alpha"})
	if err != nil {
		t.Fatalf("list alpha: %v", err)
	}
	if len(alpha) != 3 {
		t.Fatalf("expected 3 alpha sessions, got %d", len(alpha))
	}

	since := base.Add(3 * time.Hour)
	recent, err := st.ListSessions(ctx, model.SessionFilter{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent sessions, got %d", len(recent))
	}

	page, err := st.ListSessions(ctx, model.SessionFilter{Limit: 2, Skip: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].ID != all[1].ID || page[1].ID != all[2].ID {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestUpdateRating(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.InsertSession(ctx, testSession("ada", time.Now()), nil)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if err := st.UpdateRating(ctx, id, 5); err != nil {
		t.Fatalf("update rating: %v", err)
	}
	got, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserRating == nil || *got.UserRating != 5 {
		t.Fatalf("expected rating 5, got %v", got.UserRating)
	}
	if err := st.UpdateRating(ctx, id+100, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBandReadingsWeighted(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	id1, err := st.InsertSession(ctx, testSession("ada", now), []model.BandReading{
		{Band: brainwave.Alpha, Mean: 0.2, Samples: 1},
	})
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	id2, err := st.InsertSession(ctx, testSession("ada", now), []model.BandReading{
		{Band: brainwave.Alpha, Mean: 0.6, Samples: 3},
	})
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	readings, err := st.ListBandReadings(ctx, []int64{id1, id2})
	if err != nil {
		t.Fatalf("list readings: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	if r := readings[0]; r.Band != brainwave.Alpha || r.Samples != 4 || r.Mean < 0.5-1e-9 || r.Mean > 0.5+1e-9 {
		t.Fatalf("unexpected reading: %+v", r)
	}
	empty, err := st.ListBandReadings(ctx, nil)
	if err != nil || empty != nil {
		t.Fatalf("expected nil readings, got %v %v", empty, err)
	}
}

func TestKnowledgeRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	entries := []model.KnowledgeEntry{
		{
			ID:                 "a",
			StimulusType:       "binaural_beats",
			StimulusParameters: map[string]any{"frequency_hz": 6.0},
			Outcome:            "increased_creativity",
			EvidenceStrength:   0.72,
			Citations:          []model.Citation{{Title: "T", Authors: "A", Year: "2016", Journal: "J"}},
		},
		{ID: "b", StimulusType: "meditation", StimulusParameters: map[string]any{}, Outcome: "calm", EvidenceStrength: 0.85, Citations: []model.Citation{}},
		{ID: "c", StimulusType: "breathwork", StimulusParameters: map[string]any{}, Outcome: "calm", EvidenceStrength: 0.5, Citations: []model.Citation{}},
	}
	for _, e := range entries {
		if err := st.InsertKnowledge(ctx, e); err != nil {
			t.Fatalf("insert knowledge: %v", err)
		}
	}

	got, err := st.GetKnowledge(ctx, "a")
	if err != nil {
		t.Fatalf("get knowledge: %v", err)
	}
	if diff := cmp.Diff(entries[0], got); diff != "" {
		t.Fatalf("knowledge mismatch (-want +got):\n%s", diff)
	}
	if _, err := st.GetKnowledge(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := st.ListKnowledge(ctx, model.KnowledgeFilter{})
	if err != nil {
		t.Fatalf("list knowledge: %v", err)
	}
	if len(list) != 3 || list[0].ID != "b" || list[1].ID != "a" || list[2].ID != "c" {
		t.Fatalf("expected evidence-desc order, got %+v", list)
	}

	minEv := 0.6
	strong, err := st.ListKnowledge(ctx, model.KnowledgeFilter{Outcome: "calm", MinEvidence: &minEv})
	if err != nil {
		t.Fatalf("list strong: %v", err)
	}
	if len(strong) != 1 || strong[0].ID != "b" {
		t.Fatalf("unexpected filtered result: %+v", strong)
	}

	limited, err := st.ListKnowledge(ctx, model.KnowledgeFilter{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 entry, got %d (%v)", len(limited), err)
	}

	byType, err := st.ListKnowledgeByStimulus(ctx, []string{"breathwork", "binaural_beats"})
	if err != nil {
		t.Fatalf("list by stimulus: %v", err)
	}
	if len(byType) != 2 || byType[0].ID != "a" {
		t.Fatalf("unexpected stimulus result: %+v", byType)
	}

	n, err := st.CountKnowledge(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 entries, got %d (%v)", n, err)
	}
}

func TestKnowledgeParametersDecodeAsJSONNumbers(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	entry := model.KnowledgeEntry{
		ID:                 "n",
		StimulusType:       "visualization",
		StimulusParameters: map[string]any{"duration_minutes": 10, "modality": "audio", "nested": map[string]any{"trials": 3}},
		Outcome:            "improved_recall",
		EvidenceStrength:   0.6,
	}
	if err := st.InsertKnowledge(ctx, entry); err != nil {
		t.Fatalf("insert knowledge: %v", err)
	}
	got, err := st.GetKnowledge(ctx, "n")
	if err != nil {
		t.Fatalf("get knowledge: %v", err)
	}
	want := map[string]any{
		"duration_minutes": float64(10),
		"modality":         "audio",
		"nested":           map[string]any{"trials": float64(3)},
	}
	if diff := cmp.Diff(want, got.StimulusParameters); diff != "" {
		t.Fatalf("parameters mismatch (-want +got):\n%s", diff)
	}
	if got.Citations == nil || len(got.Citations) != 0 {
		t.Fatalf("expected empty citations, got %#v", got.Citations)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := st.InsertSession(ctx, testSession("ada", ended), nil)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := st.GetFeedback(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before feedback, got %v", err)
	}

	fb := model.Feedback{
		SessionID:     id,
		Rating:        4,
		Effectiveness: 3,
		EmotionBefore: "stressed",
		EmotionAfter:  "calm",
		FocusLevel:    6,
		CalmnessLevel: 8,
		Comments:      "ok",
		SubmittedAt:   ended.Add(time.Minute),
	}
	if err := st.SaveFeedback(ctx, fb); err != nil {
		t.Fatalf("save feedback: %v", err)
	}
	fb.Rating = 5
	fb.Comments = ""
	if err := st.SaveFeedback(ctx, fb); err != nil {
		t.Fatalf("resave feedback: %v", err)
	}

	sess, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if diff := cmp.Diff(&fb, sess.Feedback); diff != "" {
		t.Fatalf("feedback mismatch (-want +got):\n%s", diff)
	}
	if sess.UserRating == nil || *sess.UserRating != 5 {
		t.Fatalf("expected rating copied to session, got %v", sess.UserRating)
	}

	fb.SessionID = id + 100
	if err := st.SaveFeedback(ctx, fb); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}
}

func TestExperimentLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	protocol := model.ExperimentProtocol{Trials: 5, DurationMinutes: 20, Instructions: "Complete 5 trials"}
	var ids []int64
	for i, user := range []string{"ada", "ada", "bob"} {
		id, err := st.InsertExperiment(ctx, model.Experiment{
			UserID:         user,
			ExperimentType: "music_entrainment",
			Protocol:       protocol,
			Status:         model.ExperimentActive,
			StartedAt:      start.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("insert experiment: %v", err)
		}
		ids = append(ids, id)
	}

	list, err := st.ListExperiments(ctx, "ada", 0)
	if err != nil {
		t.Fatalf("list experiments: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[1] || list[1].ID != ids[0] {
		t.Fatalf("expected newest first for ada, got %+v", list)
	}
	if diff := cmp.Diff(protocol, list[0].Protocol); diff != "" {
		t.Fatalf("protocol mismatch (-want +got):\n%s", diff)
	}
	if limited, err := st.ListExperiments(ctx, "ada", 1); err != nil || len(limited) != 1 {
		t.Fatalf("expected 1 experiment, got %d (%v)", len(limited), err)
	}
	if none, err := st.ListExperiments(ctx, "eve", 0); err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %#v (%v)", none, err)
	}

	done := start.Add(3 * time.Hour)
	if err := st.CompleteExperiment(ctx, ids[0], done); err != nil {
		t.Fatalf("complete experiment: %v", err)
	}
	got, err := st.GetExperiment(ctx, ids[0])
	if err != nil {
		t.Fatalf("get experiment: %v", err)
	}
	if got.Status != model.ExperimentCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("unexpected completed experiment: %+v", got)
	}
	if err := st.CompleteExperiment(ctx, 999, done); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetExperiment(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
