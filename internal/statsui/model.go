// Package statsui provides the Bubble Tea dashboard.
package statsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/store"
)

const (
	tabOverview = iota
	tabSessions
	tabKnowledge
)

const (
	defaultWindow  = 10
	defaultDays    = 30
	trendWindow    = 7
	detailHeight   = 8
	fallbackWidth  = 80
	overviewBarMax = 48
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	detailStyle     = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Config selects what the dashboard shows.
type Config struct {
	Filter model.SessionFilter
	// Window is how many of the newest sessions feed the recent band average.
	Window int
	// Days is the length of the sessions-per-day trend.
	Days int
	Now  func() time.Time
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	store *store.Store
	cfg   Config

	report    stats.Report
	knowledge []model.KnowledgeEntry
	errMsg    string

	tabs      []string
	activeTab int
	overview  viewport.Model
	sessions  table.Model
	entries   table.Model
	detail    viewport.Model

	width  int
	height int
}

// NewModel constructs a dashboard model and loads its data.
func NewModel(st *store.Store, cfg Config) *Model {
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.Days <= 0 {
		cfg.Days = defaultDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Overview", "Sessions", "Knowledge"},
		overview: viewport.New(0, 0),
		detail:   viewport.New(0, detailHeight),
		sessions: newTable(sessionColumns()),
		entries:  newTable(knowledgeColumns()),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			return m, nil
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		}
		return m, m.updateActive(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) updateActive(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabSessions:
		m.sessions, cmd = m.sessions.Update(msg)
	case tabKnowledge:
		m.entries, cmd = m.entries.Update(msg)
		m.renderDetail()
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return cmd
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabSessions:
		if top {
			m.sessions.GotoTop()
		} else {
			m.sessions.GotoBottom()
		}
	case tabKnowledge:
		if top {
			m.entries.GotoTop()
		} else {
			m.entries.GotoBottom()
		}
		m.renderDetail()
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.sessions.Blur()
	m.entries.Blur()
	switch m.activeTab {
	case tabSessions:
		m.sessions.Focus()
	case tabKnowledge:
		m.entries.Focus()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.sessions.SetWidth(m.width)
	m.sessions.SetHeight(max(1, bodyHeight-1))
	m.entries.SetWidth(m.width)
	m.entries.SetHeight(max(1, bodyHeight-detailHeight-2))
	m.detail.Width = m.width
	m.detail.Height = detailHeight
}

// refresh reloads sessions and knowledge from the store.
func (m *Model) refresh() {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, m.store, m.cfg.Filter, m.cfg.Window, m.cfg.Days, m.cfg.Now())
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load sessions.")
		return
	}
	knowledge, err := m.store.ListKnowledge(ctx, model.KnowledgeFilter{})
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load knowledge.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.knowledge = knowledge
	_, rows := stats.SessionRows(report.Sessions)
	m.sessions.SetRows(toTableRows(rows))
	m.entries.SetRows(knowledgeRows(knowledge))
	m.renderContents()
}

func (m *Model) renderContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg, width))
	m.renderDetail()
}

func (m *Model) renderDetail() {
	if len(m.knowledge) == 0 {
		m.detail.SetContent("")
		return
	}
	idx := m.entries.Cursor()
	if idx < 0 || idx >= len(m.knowledge) {
		idx = 0
	}
	m.detail.SetContent(renderKnowledgeDetail(m.knowledge[idx]))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	f := m.cfg.Filter
	user := f.UserID
	if user == "" {
		user = "any"
	}
	module := f.ModuleType
	if module == "" {
		module = "any"
	}
	since := "any"
	if f.Since != nil {
		since = f.Since.Format("2006-01-02")
	}
	summary := fmt.Sprintf("Filter: user=%s  module=%s  since=%s  window=%d  days=%d", user, module, since, m.cfg.Window, m.cfg.Days)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Top/Bottom: g/G  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	switch m.activeTab {
	case tabSessions:
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.sessions.View()), m.width, height)
	case tabKnowledge:
		if len(m.knowledge) == 0 {
			return fitLines("No knowledge entries. Run `brainbuddy knowledge seed`.", m.width, height)
		}
		view := tableMutedStyle.Render(m.entries.View()) + "\n" + detailStyle.Width(m.width).Render(m.detail.View())
		return fitLines(view, m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func renderOverview(r stats.Report, cfg Config, width int) string {
	if len(r.Sessions) == 0 {
		return "No sessions found."
	}
	sections := []string{renderSummaryCards(r.Summary, width), renderTrend(r.PerDay, cfg.Days)}
	barWidth := stats.BarWidthFor(min(width, overviewBarMax))
	if r.BandsAll != nil {
		sections = append(sections, renderBands("Average bands (all)", *r.BandsAll, barWidth))
	}
	if r.BandsWindow != nil && len(r.WindowSessionIDs) < len(r.Sessions) {
		title := fmt.Sprintf("Average bands (last %d)", len(r.WindowSessionIDs))
		sections = append(sections, renderBands(title, *r.BandsWindow, barWidth))
	}
	if r.BandsAll == nil {
		sections = append(sections, headerStyle.Render("No band readings recorded yet. Finish a live training session to collect some."))
	}
	sections = append(sections, renderCounts("By module", r.Summary.SessionsByModule), renderCounts("By band", r.Summary.SessionsByBrainwave))
	return strings.TrimRight(strings.Join(sections, "\n\n"), "\n")
}

func renderSummaryCards(s model.SessionSummary, width int) string {
	rating := "-"
	if s.AverageRating > 0 {
		rating = fmt.Sprintf("%.2f", s.AverageRating)
	}
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", s.TotalSessions)),
		metricCard("Hours", fmt.Sprintf("%.2f", s.TotalHours)),
		metricCard("Avg rating", rating),
		metricCard("Last 7 days", fmt.Sprintf("%d", s.RecentSessions)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderTrend(perDay []float64, days int) string {
	lines := []string{
		headerStyle.Render(fmt.Sprintf("Sessions per day (last %d days)", days)),
		stats.Sparkline(perDay),
	}
	if len(perDay) >= trendWindow {
		lines = append(lines,
			headerStyle.Render(fmt.Sprintf("%d-day moving average", trendWindow)),
			stats.Sparkline(stats.MovingAverage(perDay, trendWindow)),
		)
	}
	return strings.Join(lines, "\n")
}

func renderBands(title string, d brainwave.BandDistribution, width int) string {
	lines := []string{headerStyle.Render(title)}
	lines = append(lines, stats.BandBars(d, width, true)...)
	top := stats.RankBands(d, 2)
	names := make([]string, len(top))
	for i, b := range top {
		info, _ := brainwave.Info(b)
		names[i] = fmt.Sprintf("%s (%s)", b, info.State)
	}
	lines = append(lines, headerStyle.Render("Strongest: "+strings.Join(names, ", ")))
	return strings.Join(lines, "\n")
}

func renderCounts(title string, counts map[string]int) string {
	if len(counts) == 0 {
		return headerStyle.Render(title + ": none")
	}
	keys := make([]string, 0, len(counts))
	for _, mod := range model.ModuleTypes {
		if _, ok := counts[mod]; ok {
			keys = append(keys, mod)
		}
	}
	for _, b := range brainwave.Bands() {
		if _, ok := counts[string(b)]; ok {
			keys = append(keys, string(b))
		}
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return headerStyle.Render(title+": ") + strings.Join(parts, "  ")
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Ended", Width: 16},
		{Title: "User", Width: 12},
		{Title: "Module", Width: 16},
		{Title: "Target", Width: 7},
		{Title: "Minutes", Width: 8},
		{Title: "Rating", Width: 6},
	}
}

func knowledgeColumns() []table.Column {
	return []table.Column{
		{Title: "Stimulus", Width: 18},
		{Title: "Outcome", Width: 34},
		{Title: "Evidence", Width: 8},
		{Title: "Source", Width: 26},
	}
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func toTableRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func knowledgeRows(entries []model.KnowledgeEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		source := "-"
		if len(e.Citations) > 0 {
			c := e.Citations[0]
			source = fmt.Sprintf("%s %s", c.Authors, c.Year)
		}
		rows = append(rows, table.Row{
			e.StimulusType,
			e.Outcome,
			fmt.Sprintf("%.2f", e.EvidenceStrength),
			source,
		})
	}
	return rows
}

func renderKnowledgeDetail(e model.KnowledgeEntry) string {
	lines := []string{
		cardValueStyle.Render(e.StimulusType + " → " + e.Outcome),
		fmt.Sprintf("Evidence %.2f", e.EvidenceStrength),
	}
	if len(e.StimulusParameters) > 0 {
		params := make([]string, 0, len(e.StimulusParameters))
		for _, k := range sortedKeys(e.StimulusParameters) {
			params = append(params, fmt.Sprintf("%s=%v", k, e.StimulusParameters[k]))
		}
		lines = append(lines, "Parameters: "+strings.Join(params, ", "))
	}
	for _, c := range e.Citations {
		lines = append(lines, headerStyle.Render(fmt.Sprintf("%s (%s). %s. %s", c.Authors, c.Year, c.Title, c.Journal)))
	}
	return strings.Join(lines, "\n")
}
