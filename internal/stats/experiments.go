package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/brainbuddy/internal/model"
)

// RenderExperimentTypes prints the experiments a user can start.
func RenderExperimentTypes(w io.Writer, types []model.ExperimentType) error {
	rows := make([][]string, 0, len(types))
	for _, et := range types {
		rows = append(rows, []string{
			et.Type,
			et.Name,
			fmt.Sprintf("%d min", et.DurationMinutes),
			fmt.Sprintf("%d", et.Trials),
		})
	}
	return writeLines(w, formatTable([]string{"Type", "Name", "Duration", "Trials"}, rows, map[int]bool{2: true, 3: true}))
}

// RenderExperimentTable prints one row per experiment.
func RenderExperimentTable(w io.Writer, experiments []model.Experiment) error {
	if len(experiments) == 0 {
		_, err := fmt.Fprintln(w, "No experiments found.")
		return err
	}
	rows := make([][]string, 0, len(experiments))
	for _, exp := range experiments {
		completed := "-"
		if exp.CompletedAt != nil {
			completed = exp.CompletedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", exp.ID),
			exp.ExperimentType,
			exp.Status,
			exp.StartedAt.Local().Format("2006-01-02 15:04"),
			completed,
		})
	}
	return writeLines(w, formatTable([]string{"ID", "Type", "Status", "Started", "Completed"}, rows, map[int]bool{0: true}))
}

// RenderFeedback prints a session's feedback form.
func RenderFeedback(w io.Writer, fb model.Feedback) error {
	lines := []string{
		"Feedback",
		fmt.Sprintf("Rating: %d/5  Effectiveness: %d/5", fb.Rating, fb.Effectiveness),
		fmt.Sprintf("Emotion: %s -> %s", fb.EmotionBefore, fb.EmotionAfter),
		fmt.Sprintf("Focus: %d/10  Calmness: %d/10", fb.FocusLevel, fb.CalmnessLevel),
	}
	if fb.Comments != "" {
		lines = append(lines, "Comments: "+fb.Comments)
	}
	return writeLines(w, lines)
}
