// Package tui provides the Bubble Tea live training interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

// Recorder persists finished sessions and reports history for the footer.
type Recorder interface {
	RecordTraining(ctx context.Context, res training.TrainingResult) (model.Session, error)
	Summary(ctx context.Context, userID string, days int) (model.SessionSummary, error)
}

type phase int

const (
	phaseRunning phase = iota
	phasePaused
	phaseRating
	phaseDone
)

const (
	contentWidthRatio = 0.70
	barWidth          = 40
)

type tickMsg time.Time

type savedMsg struct {
	session model.Session
	err     error
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle  = accentStyle.Bold(true)
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)

// Model implements the Bubble Tea training UI.
type Model struct {
	cfg      model.TrainingConfig
	recorder Recorder
	est      *brainwave.Estimator
	log      *zap.Logger
	state    brainwave.TargetState
	music    brainwave.MusicParameters
	progress progress.Model

	width  int
	height int

	phase     phase
	startedAt time.Time
	endedAt   time.Time
	elapsed   time.Duration

	current  brainwave.BandDistribution
	means    brainwave.BandDistribution
	samples  int
	emotion  brainwave.EmotionEstimate
	dominant brainwave.Dominant

	hasHistory bool
	history    model.SessionSummary

	saved   *model.Session
	saveErr error
}

// NewModel constructs a training model. The music is chosen up front for
// the configured target state.
func NewModel(cfg model.TrainingConfig, rec Recorder, est *brainwave.Estimator, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	if est == nil {
		est = brainwave.New()
	}
	m := &Model{
		cfg:      cfg,
		recorder: rec,
		est:      est,
		log:      log,
		state:    brainwave.ResolveTargetState(cfg.TargetState),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
	}
	m.music = est.GenerateMusicParameters(m.state.Name)
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.startedAt = time.Now()
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.handleTick()
	case savedMsg:
		m.phase = phaseDone
		if msg.err != nil {
			m.saveErr = msg.err
			m.log.Error("failed to save training session", zap.Error(msg.err))
		} else {
			sess := msg.session
			m.saved = &sess
		}
		return m, tea.Quit
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch m.phase {
	case phaseRunning, phasePaused:
		switch key {
		case "ctrl+c", "q":
			return m.finish()
		case " ":
			if m.phase == phaseRunning {
				m.phase = phasePaused
			} else {
				m.phase = phaseRunning
			}
		}
	case phaseRating:
		switch key {
		case "ctrl+c":
			m.phase = phaseDone
			return tea.Quit
		case "s", "q", "esc":
			return m.save(nil)
		case "1", "2", "3", "4", "5":
			rating := int(key[0] - '0')
			return m.save(&rating)
		}
	}
	return nil
}

func (m *Model) tick() tea.Cmd {
	interval := m.cfg.Tick
	if interval <= 0 {
		interval = time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) handleTick() tea.Cmd {
	switch m.phase {
	case phaseRunning:
		m.sample()
		if m.cfg.Duration > 0 && m.elapsed >= m.cfg.Duration {
			return m.finish()
		}
		return m.tick()
	case phasePaused:
		return m.tick()
	default:
		return nil
	}
}

// sample draws one band estimate and folds it into the running means.
func (m *Model) sample() {
	interval := m.cfg.Tick
	if interval <= 0 {
		interval = time.Second
	}
	m.elapsed += interval
	m.current = m.est.EstimateBands(brainwave.FeaturesOf(m.music.Tempo, m.music.Parameters.Energy))
	m.samples++
	n := float64(m.samples)
	for _, b := range brainwave.Bands() {
		mean := m.means.Value(b) + (m.current.Value(b)-m.means.Value(b))/n
		setBand(&m.means, b, mean)
	}
	m.emotion = brainwave.DeriveEmotion(m.current)
	m.dominant = brainwave.DominantBand(m.means)
}

func setBand(d *brainwave.BandDistribution, b brainwave.Band, v float64) {
	switch b {
	case brainwave.Delta:
		d.Delta = v
	case brainwave.Theta:
		d.Theta = v
	case brainwave.Alpha:
		d.Alpha = v
	case brainwave.Beta:
		d.Beta = v
	case brainwave.Gamma:
		d.Gamma = v
	}
}

// finish ends the running phase. Sessions without samples are discarded.
func (m *Model) finish() tea.Cmd {
	m.endedAt = time.Now()
	if m.samples == 0 {
		m.phase = phaseDone
		return tea.Quit
	}
	m.phase = phaseRating
	return nil
}

func (m *Model) save(rating *int) tea.Cmd {
	m.phase = phaseDone
	res := m.Result(rating)
	rec := m.recorder
	return func() tea.Msg {
		if rec == nil {
			return savedMsg{err: fmt.Errorf("no recorder configured")}
		}
		sess, err := rec.RecordTraining(context.Background(), res)
		return savedMsg{session: sess, err: err}
	}
}

// Result describes the session so far.
func (m *Model) Result(rating *int) training.TrainingResult {
	started := m.startedAt
	ended := m.endedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	if started.IsZero() || ended.Sub(started) < m.elapsed {
		started = ended.Add(-m.elapsed)
	}
	return training.TrainingResult{
		User:      m.cfg.User,
		State:     m.state.Name,
		Music:     m.music,
		StartedAt: started,
		EndedAt:   ended,
		Means:     m.means,
		Samples:   m.samples,
		Rating:    rating,
	}
}

// Saved returns the stored session once the program has finished.
func (m *Model) Saved() (*model.Session, error) {
	return m.saved, m.saveErr
}

func (m *Model) loadFooterStats() {
	if m.recorder == nil || m.cfg.User == "" {
		return
	}
	summary, err := m.recorder.Summary(context.Background(), m.cfg.User, 0)
	if err != nil {
		m.log.Warn("failed to load session history", zap.Error(err))
		return
	}
	m.history = summary
	m.hasHistory = summary.TotalSessions > 0
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	contentWidth := max(1, int(float64(m.width)*contentWidthRatio))
	content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderContent() string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("Target: %s (%s + %s)", m.state.Name, m.state.Primary, m.state.Secondary)),
		mutedStyle.Render(m.state.Description),
		sectionStyle.Render(m.renderMusic()),
	}
	if m.samples > 0 {
		bars := strings.Join(stats.BandBars(m.means, barWidth, true), "\n")
		parts = append(parts, sectionStyle.Render(bars), m.renderEmotion())
	} else {
		parts = append(parts, sectionStyle.Render(mutedStyle.Render("Listening...")))
	}
	parts = append(parts, sectionStyle.Render(m.renderProgress()))
	if status := m.renderStatus(); status != "" {
		parts = append(parts, sectionStyle.Render(status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderMusic() string {
	p := m.music.Parameters
	return fmt.Sprintf("Music %.0f BPM · %s %s · binaural %.1f Hz · energy %.2f · harmony %.2f",
		m.music.Tempo, m.music.Key, m.music.Mode, p.BinauralFreq, p.Energy, p.HarmonicComplexity)
}

func (m *Model) renderEmotion() string {
	return fmt.Sprintf("Emotion %s (%.0f%%) · valence %.2f · arousal %.2f · dominant %s %.1f%%",
		accentStyle.Render(m.emotion.Emotion), m.emotion.Confidence*100,
		m.emotion.Valence, m.emotion.Arousal,
		m.dominant.Band, m.dominant.Value*100)
}

func (m *Model) progressPercent() float64 {
	if m.cfg.Duration <= 0 {
		return 0
	}
	return min(1, float64(m.elapsed)/float64(m.cfg.Duration))
}

func (m *Model) renderProgress() string {
	clock := formatClock(m.elapsed)
	if m.cfg.Duration > 0 {
		clock += " / " + formatClock(m.cfg.Duration)
	}
	return m.progress.ViewAs(m.progressPercent()) + "  " + clock
}

func (m *Model) renderStatus() string {
	switch m.phase {
	case phasePaused:
		return pausedStyle.Render("PAUSED") + mutedStyle.Render("  space to resume")
	case phaseRating:
		return accentStyle.Render("Rate this session 1-5") + mutedStyle.Render("  s to skip")
	case phaseDone:
		if m.saveErr != nil {
			return errorStyle.Render("Save failed: " + m.saveErr.Error())
		}
		if m.saved != nil {
			return mutedStyle.Render(fmt.Sprintf("Saved session #%d", m.saved.ID))
		}
	}
	return ""
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Samples %d", m.samples)}
	if m.hasHistory {
		segments = append(segments, fmt.Sprintf("All-time %d sessions · %.1f h", m.history.TotalSessions, m.history.TotalHours))
		if m.history.AverageRating > 0 {
			segments = append(segments, fmt.Sprintf("Avg rating %.1f", m.history.AverageRating))
		}
	}
	if m.phase == phaseRunning || m.phase == phasePaused {
		segments = append(segments, "space pause · q end")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatClock(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
