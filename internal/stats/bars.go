package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

const (
	barFull             = "█"
	barEmpty            = "░"
	minBarWidth         = 10
	barLabelWidth       = 6
	barValueWidth       = 7
	terminalWidthBackup = 80
)

// BarWidthFor computes the bar width that fits a label, bar and percentage
// into totalWidth.
func BarWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	return max(minBarWidth, totalWidth-barLabelWidth-barValueWidth-2)
}

// BandBars renders one horizontal bar per band. With color, each bar uses
// the band's display color.
func BandBars(d brainwave.BandDistribution, width int, color bool) []string {
	if width <= 0 {
		width = minBarWidth
	}
	lines := make([]string, 0, 5)
	for _, b := range brainwave.Bands() {
		v := math.Max(0, math.Min(1, d.Value(b)))
		filled := int(math.Round(v * float64(width)))
		bar := strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
		if color {
			info, _ := brainwave.Info(b)
			bar = lipgloss.NewStyle().Foreground(lipgloss.Color(info.Color)).Render(bar)
		}
		label := padCell(string(b), barLabelWidth, false)
		value := padCell(fmt.Sprintf("%.1f%%", v*100), barValueWidth, true)
		lines = append(lines, label+" "+bar+" "+value)
	}
	return lines
}

// RenderBandBars writes bars sized to the terminal when w is one.
func RenderBandBars(w io.Writer, title string, d brainwave.BandDistribution) error {
	useColor := shouldUseColor(w)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	width := BarWidthFor(min(terminalWidth(w), 72))
	for _, line := range BandBars(d, width, useColor) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
