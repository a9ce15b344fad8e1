package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/model"
)

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderBandReference prints the band table followed by the target states.
func RenderBandReference(w io.Writer) error {
	rows := make([][]string, 0, 5)
	for _, b := range brainwave.Bands() {
		info, _ := brainwave.Info(b)
		rows = append(rows, []string{string(b), info.Range, info.State, info.Description})
	}
	if err := writeLines(w, formatTable([]string{"Band", "Range", "State", "Description"}, rows, nil)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	rows = rows[:0]
	for _, name := range brainwave.TargetStateNames() {
		ts, _ := brainwave.LookupTargetState(name)
		rows = append(rows, []string{ts.Name, string(ts.Primary), string(ts.Secondary), ts.Description})
	}
	return writeLines(w, formatTable([]string{"State", "Primary", "Secondary", "Description"}, rows, nil))
}

// RenderKnowledgeTable prints one row per knowledge entry.
func RenderKnowledgeTable(w io.Writer, entries []model.KnowledgeEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No knowledge entries found.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.StimulusType,
			e.Outcome,
			fmt.Sprintf("%.2f", e.EvidenceStrength),
			fmt.Sprintf("%d", len(e.Citations)),
		})
	}
	return writeLines(w, formatTable([]string{"ID", "Stimulus", "Outcome", "Evidence", "Cites"}, rows, map[int]bool{3: true, 4: true}))
}

// RenderRecommendations prints a module's recommendations with their key
// citation.
func RenderRecommendations(w io.Writer, recs model.Recommendations) error {
	if _, err := fmt.Fprintf(w, "Recommendations for %s\n", recs.ModuleType); err != nil {
		return err
	}
	if len(recs.Recommendations) == 0 {
		_, err := fmt.Fprintln(w, "No research found.")
		return err
	}
	rows := make([][]string, 0, len(recs.Recommendations))
	for _, r := range recs.Recommendations {
		cite := "-"
		if r.KeyCitation != nil {
			cite = fmt.Sprintf("%s (%s)", r.KeyCitation.Authors, r.KeyCitation.Year)
		}
		rows = append(rows, []string{r.StimulusType, r.Outcome, fmt.Sprintf("%.2f", r.EvidenceStrength), cite})
	}
	return writeLines(w, formatTable([]string{"Stimulus", "Outcome", "Evidence", "Key citation"}, rows, map[int]bool{2: true}))
}
