package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/upload"
)

// run executes the CLI with an isolated config, database and log file.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, name := range []string{"BRAINBUDDY_DB_PATH", "BRAINBUDDY_LOG_LEVEL", "BRAINBUDDY_LOG_FILE", "BRAINBUDDY_ADDR", "BRAINBUDDY_SEED"} {
		// Setenv restores the original value after the test.
		t.Setenv(name, "")
		if err := os.Unsetenv(name); err != nil {
			t.Fatalf("unset %s: %v", name, err)
		}
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateTrainingConfig(t *testing.T) {
	base := model.TrainingConfig{User: "ada", TargetState: "calm", Duration: time.Minute, Tick: time.Second}
	if err := validateTrainingConfig(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[string]func(*model.TrainingConfig){
		"--user":     func(c *model.TrainingConfig) { c.User = "" },
		"--state":    func(c *model.TrainingConfig) { c.TargetState = "happy" },
		"--duration": func(c *model.TrainingConfig) { c.Duration = 0 },
		"--tick":     func(c *model.TrainingConfig) { c.Tick = 2 * time.Minute },
	}
	for flag, mutate := range cases {
		cfg := base
		mutate(&cfg)
		err := validateTrainingConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), flag) {
			t.Fatalf("expected %s error, got %v", flag, err)
		}
	}
}

func TestPrintTrainingSummary(t *testing.T) {
	var buf bytes.Buffer
	score := 0.3
	bands := brainwave.BandDistribution{Delta: 0.3, Theta: 0.35, Alpha: 0.1, Beta: 0.15, Gamma: 0.1}
	sess := model.Session{ID: 3, TargetState: "focus", DurationSeconds: 90, EffectivenessScore: &score, Bands: &bands}
	if err := printTrainingSummary(&buf, sess); err != nil {
		t.Fatalf("print summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Saved session #3 (focus, 1m30s)", "Average bands", "Target alignment: 30%", "Weak target bands: beta, gamma"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommandIsReproducible(t *testing.T) {
	dir := t.TempDir()
	args := []string{"analyze", "--seed", "7", "--tempo", "150", "--energy", "0.8", "--json"}
	first, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	second, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if first != second {
		t.Fatalf("seeded runs differ:\n%s\n%s", first, second)
	}

	var resp struct {
		Bands    brainwave.BandDistribution `json:"bands"`
		Dominant brainwave.Dominant         `json:"dominant"`
	}
	if err := json.Unmarshal([]byte(first), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, first)
	}
	if math.Abs(resp.Bands.Sum()-1) > 1e-9 {
		t.Fatalf("bands do not sum to 1: %+v", resp.Bands)
	}
	if resp.Dominant.Band == "" {
		t.Fatalf("missing dominant band")
	}
}

func TestBandsCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "bands")
	if err != nil {
		t.Fatalf("bands: %v", err)
	}
	if !strings.Contains(out, "30-100 Hz") || !strings.Contains(out, "energize") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestToneCommandWritesWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "focus.wav")
	if _, err := run(t, dir, "tone", "--duration", "500ms", "--sample-rate", "8000", "--mode", "isochronic", "-o", path); err != nil {
		t.Fatalf("tone: %v", err)
	}
	d, err := upload.Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if diff := d - 500*time.Millisecond; diff < 0 || diff > 10*time.Millisecond {
		t.Fatalf("expected ~500ms, got %v", d)
	}

	if _, err := run(t, dir, "tone", "-o", path, "--mode", "square"); err == nil {
		t.Fatalf("expected mode error")
	}
	if _, err := run(t, dir, "tone"); err == nil {
		t.Fatalf("expected missing output error")
	}
}

func TestSessionsCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")

	out, err := run(t, dir, "--db", db, "sessions", "add", "--user", "ada", "--band", "alpha", "--rating", "4", "--duration", "5m")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if out != "Recorded session #1\n" {
		t.Fatalf("unexpected add output: %q", out)
	}
	if _, err := run(t, dir, "--db", db, "sessions", "add", "--user", "ada", "--rating", "9"); err == nil {
		t.Fatalf("expected rating validation error")
	}

	out, err = run(t, dir, "--db", db, "sessions", "list", "--user", "ada", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var sessions []model.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(sessions) != 1 || sessions[0].DurationSeconds != 300 || *sessions[0].UserRating != 4 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	if _, err := run(t, dir, "--db", db, "sessions", "rate", "1", "5"); err != nil {
		t.Fatalf("rate: %v", err)
	}
	out, err = run(t, dir, "--db", db, "sessions", "stats", "--user", "ada")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Sessions: 1") || !strings.Contains(out, "Avg rating: 5.00") {
		t.Fatalf("unexpected stats:\n%s", out)
	}
	if _, err := run(t, dir, "--db", db, "sessions", "show", "42"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestKnowledgeCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")

	out, err := run(t, dir, "--db", db, "knowledge", "list", "--stimulus", "binaural_beats")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Count(out, "binaural_beats") != 2 {
		t.Fatalf("expected two binaural entries:\n%s", out)
	}

	out, err = run(t, dir, "--db", db, "knowledge", "recommend", "brainwave")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !strings.HasPrefix(out, "Recommendations for brainwave") {
		t.Fatalf("unexpected recommendations:\n%s", out)
	}
	if _, err := run(t, dir, "--db", db, "knowledge", "recommend", "yoga"); err == nil {
		t.Fatalf("expected module validation error")
	}
}

func TestExitCode(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")
	_, err := run(t, dir, "--db", db, "sessions", "add", "--user", "ada", "--rating", "9")
	if got := exitCode(err); got != 2 {
		t.Fatalf("expected exit 2 for invalid input, got %d (%v)", got, err)
	}
	_, err = run(t, dir, "--db", db, "sessions", "show", "42")
	if got := exitCode(err); got != 1 {
		t.Fatalf("expected exit 1 for missing session, got %d (%v)", got, err)
	}
}

func TestSessionFeedbackCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")
	if _, err := run(t, dir, "--db", db, "sessions", "add", "--user", "ada", "--module", "movers", "--duration", "2m"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, dir, "--db", db, "sessions", "feedback", "1",
		"--rating", "4", "--effectiveness", "3", "--before", "anxious", "--after", "calm", "--calmness", "8")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	for _, want := range []string{"Rating: 4/5", "Emotion: anxious -> calm", "Focus: 5/10  Calmness: 8/10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "--db", db, "sessions", "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, `"emotion_after": "calm"`) || !strings.Contains(out, "Calmness: 8/10") {
		t.Fatalf("show is missing feedback:\n%s", out)
	}

	_, err = run(t, dir, "--db", db, "sessions", "feedback", "1", "--rating", "4", "--effectiveness", "3", "--before", "bored", "--after", "calm")
	if exitCode(err) != 2 {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := run(t, dir, "--db", db, "sessions", "feedback", "1"); err == nil {
		t.Fatalf("expected error without ratings")
	}
}

func TestExperimentsCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")

	out, err := run(t, dir, "experiments", "types")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if !strings.Contains(out, "actual_vs_imagined") || !strings.Contains(out, "15 min") {
		t.Fatalf("unexpected types:\n%s", out)
	}

	out, err = run(t, dir, "--db", db, "experiments", "start", "music_entrainment", "--user", "ada")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if out != "Started experiment #1: Complete 5 trials of Music Brainwave Entrainment (20 min)\n" {
		t.Fatalf("unexpected start output: %q", out)
	}
	if _, err := run(t, dir, "--db", db, "experiments", "start", "telepathy"); exitCode(err) != 2 {
		t.Fatalf("expected validation error, got %v", err)
	}

	out, err = run(t, dir, "--db", db, "experiments", "complete", "1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Completed experiment #1 (music_entrainment)\n" {
		t.Fatalf("unexpected complete output: %q", out)
	}
	if _, err := run(t, dir, "--db", db, "experiments", "complete", "1"); err == nil {
		t.Fatalf("expected error completing twice")
	}

	out, err = run(t, dir, "--db", db, "experiments", "list", "--user", "ada", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var experiments []model.Experiment
	if err := json.Unmarshal([]byte(out), &experiments); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(experiments) != 1 || experiments[0].Status != model.ExperimentCompleted || experiments[0].CompletedAt == nil {
		t.Fatalf("unexpected experiments: %+v", experiments)
	}

	out, err = run(t, dir, "--db", db, "experiments", "list")
	if err != nil {
		t.Fatalf("list default user: %v", err)
	}
	if out != "No experiments found.\n" {
		t.Fatalf("expected no experiments for the default user, got:\n%s", out)
	}
}
