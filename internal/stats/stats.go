// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
)

const (
	sparkChars   = " .:-=+*#%@"
	recentWindow = 7 * 24 * time.Hour
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize aggregates sessions. AverageRating is zero when nothing was
// rated. Sessions ending within seven days of now count as recent.
func Summarize(sessions []model.Session, now time.Time) model.SessionSummary {
	summary := model.SessionSummary{
		TotalSessions:       len(sessions),
		SessionsByModule:    map[string]int{},
		SessionsByBrainwave: map[string]int{},
	}
	cutoff := now.Add(-recentWindow)
	var seconds, ratingSum float64
	var rated int
	for _, s := range sessions {
		seconds += float64(s.DurationSeconds)
		if s.UserRating != nil {
			ratingSum += float64(*s.UserRating)
			rated++
		}
		summary.SessionsByModule[s.ModuleType]++
		if s.BrainwaveTarget != nil {
			summary.SessionsByBrainwave[string(*s.BrainwaveTarget)]++
		}
		if !s.EndedAt.Before(cutoff) {
			summary.RecentSessions++
		}
	}
	summary.TotalHours = round2(seconds / 3600)
	if rated > 0 {
		summary.AverageRating = round2(ratingSum / float64(rated))
	}
	return summary
}

// SessionsPerDay counts sessions per calendar day for the days ending at
// now, oldest first.
func SessionsPerDay(sessions []model.Session, days int, now time.Time) []float64 {
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	first := today.AddDate(0, 0, -(days - 1))
	for _, s := range sessions {
		ended := s.EndedAt.In(now.Location())
		if ended.Before(first) {
			continue
		}
		ey, em, ed := ended.Date()
		day := time.Date(ey, em, ed, 0, 0, 0, 0, now.Location())
		idx := int(day.Sub(first).Hours() / 24)
		if idx >= 0 && idx < days {
			out[idx]++
		}
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the summary block.
func RenderSummary(w io.Writer, summary model.SessionSummary) error {
	if summary.TotalSessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	// ratings start at 1, so zero means nothing was rated
	rating := "-"
	if summary.AverageRating > 0 {
		rating = fmt.Sprintf("%.2f", summary.AverageRating)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", summary.TotalSessions),
		fmt.Sprintf("Total hours: %.2f", summary.TotalHours),
		fmt.Sprintf("Avg rating: %s", rating),
		fmt.Sprintf("Last 7 days: %d", summary.RecentSessions),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := renderCounts(w, "By module", summary.SessionsByModule, model.ModuleTypes); err != nil {
		return err
	}
	bandNames := make([]string, 0, 5)
	for _, b := range brainwave.Bands() {
		bandNames = append(bandNames, string(b))
	}
	if err := renderCounts(w, "By band", summary.SessionsByBrainwave, bandNames); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderCounts(w io.Writer, title string, counts map[string]int, order []string) error {
	if len(counts) == 0 {
		return nil
	}
	parts := make([]string, 0, len(counts))
	for _, key := range order {
		if n, ok := counts[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", key, n))
		}
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", title, strings.Join(parts, " "))
	return err
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers, rows := SessionRows(sessions)
	lines := formatTable(headers, rows, map[int]bool{0: true, 5: true, 6: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SessionRows formats sessions as table cells.
func SessionRows(sessions []model.Session) ([]string, [][]string) {
	headers := []string{"ID", "Ended", "User", "Module", "Target", "Minutes", "Rating"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		target := s.TargetState
		if s.BrainwaveTarget != nil {
			if target != "" {
				target += "/"
			}
			target += string(*s.BrainwaveTarget)
		}
		if target == "" {
			target = "-"
		}
		rating := "-"
		if s.UserRating != nil {
			rating = fmt.Sprintf("%d", *s.UserRating)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.ID),
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.UserID,
			s.ModuleType,
			target,
			fmt.Sprintf("%.1f", float64(s.DurationSeconds)/60),
			rating,
		})
	}
	return headers, rows
}

// RenderBandTable prints the band distribution with ranges and states.
func RenderBandTable(w io.Writer, d brainwave.BandDistribution) error {
	headers := []string{"Band", "Range", "State", "Weight"}
	rows := make([][]string, 0, 5)
	for _, b := range brainwave.Bands() {
		info, _ := brainwave.Info(b)
		rows = append(rows, []string{
			string(b),
			info.Range,
			info.State,
			fmt.Sprintf("%.1f%%", d.Value(b)*100),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
