package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

const defaultDemoCount = 50

var (
	sessionsUser   string
	sessionsModule string
	sessionsBand   string
	sessionsDays   int
	sessionsLimit  int
	sessionsSkip   int
	sessionsJSON   bool

	statsUser string

	addUser          string
	addModule        string
	addBand          string
	addState         string
	addRating        int
	addEffectiveness float64
	addDuration      time.Duration

	demoUsers string
	demoCount int
	demoSeed  int64

	feedbackRating        int
	feedbackEffectiveness int
	feedbackBefore        string
	feedbackAfter         string
	feedbackFocus         int
	feedbackCalmness      int
	feedbackComments      string
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage recorded sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsRateCmd())
	cmd.AddCommand(newSessionsFeedbackCmd())
	cmd.AddCommand(newSessionsStatsCmd())
	cmd.AddCommand(newSessionsAddCmd())
	cmd.AddCommand(newSessionsSeedDemoCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsListCmd,
	}
	cmd.Flags().StringVar(&sessionsUser, "user", "", "user filter")
	cmd.Flags().StringVar(&sessionsModule, "module", "", "module type filter ("+strings.Join(model.ModuleTypes, ", ")+")")
	cmd.Flags().StringVar(&sessionsBand, "band", "", "brainwave target filter")
	cmd.Flags().IntVar(&sessionsDays, "days", 0, "limit to the last N days")
	cmd.Flags().IntVar(&sessionsLimit, "limit", training.DefaultSessionLimit, "maximum sessions")
	cmd.Flags().IntVar(&sessionsSkip, "skip", 0, "sessions to skip")
	cmd.Flags().BoolVar(&sessionsJSON, "json", false, "print JSON")
	return cmd
}

func runSessionsListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	sessions, err := a.svc.ListSessions(ctx, training.ListOptions{
		UserID:          sessionsUser,
		ModuleType:      sessionsModule,
		BrainwaveTarget: sessionsBand,
		Days:            sessionsDays,
		Limit:           sessionsLimit,
		Skip:            sessionsSkip,
	})
	if err != nil {
		return err
	}
	if sessionsJSON {
		return writeJSON(cmd.OutOrStdout(), sessions)
	}
	return stats.RenderSessionTable(cmd.OutOrStdout(), sessions)
}

func parseSessionID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", raw)
	}
	return id, nil
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShowCmd,
	}
}

func runSessionsShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseSessionID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	sess, err := a.svc.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("session %d: %w", id, err)
	}
	if err := writeJSON(cmd.OutOrStdout(), sess); err != nil {
		return err
	}
	if sess.Bands != nil {
		if err := stats.RenderBandBars(cmd.ErrOrStderr(), "Average bands", *sess.Bands); err != nil {
			return err
		}
	}
	if sess.Feedback != nil {
		return stats.RenderFeedback(cmd.ErrOrStderr(), *sess.Feedback)
	}
	return nil
}

func newSessionsRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <1-5>",
		Short: "Rate a session",
		Args:  cobra.ExactArgs(2),
		RunE:  runSessionsRateCmd,
	}
}

func runSessionsRateCmd(cmd *cobra.Command, args []string) error {
	id, err := parseSessionID(args[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating %q", args[1])
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	if err := a.svc.RateSession(ctx, id, rating); err != nil {
		return fmt.Errorf("session %d: %w", id, err)
	}
	logErrf("Rated session #%d: %d\n", id, rating)
	return nil
}

func newSessionsFeedbackCmd() *cobra.Command {
	emotions := strings.Join(model.Emotions, ", ")
	cmd := &cobra.Command{
		Use:   "feedback <id>",
		Short: "Record how a session went",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsFeedbackCmd,
	}
	cmd.Flags().IntVar(&feedbackRating, "rating", 0, "overall rating 1-5")
	cmd.Flags().IntVar(&feedbackEffectiveness, "effectiveness", 0, "effectiveness 1-5")
	cmd.Flags().StringVar(&feedbackBefore, "before", "", "emotion before ("+emotions+")")
	cmd.Flags().StringVar(&feedbackAfter, "after", "", "emotion after ("+emotions+")")
	cmd.Flags().IntVar(&feedbackFocus, "focus", 0, "focus level 1-10 (default 5)")
	cmd.Flags().IntVar(&feedbackCalmness, "calmness", 0, "calmness level 1-10 (default 5)")
	cmd.Flags().StringVar(&feedbackComments, "comments", "", "free-form comments")
	return cmd
}

func runSessionsFeedbackCmd(cmd *cobra.Command, args []string) error {
	id, err := parseSessionID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	fb, err := a.svc.SubmitFeedback(ctx, id, training.FeedbackInput{
		Rating:        feedbackRating,
		Effectiveness: feedbackEffectiveness,
		EmotionBefore: feedbackBefore,
		EmotionAfter:  feedbackAfter,
		FocusLevel:    feedbackFocus,
		CalmnessLevel: feedbackCalmness,
		Comments:      feedbackComments,
	})
	if err != nil {
		return fmt.Errorf("session %d: %w", id, err)
	}
	return stats.RenderFeedback(cmd.OutOrStdout(), fb)
}

func newSessionsStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a user's sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsStatsCmd,
	}
	cmd.Flags().StringVar(&statsUser, "user", defaultUser, "user id")
	cmd.Flags().IntVar(&sessionsDays, "days", 0, "limit to the last N days")
	cmd.Flags().BoolVar(&sessionsJSON, "json", false, "print JSON")
	return cmd
}

func runSessionsStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if !cmd.Flags().Changed("user") && a.file.Training.User != nil {
		statsUser = *a.file.Training.User
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	summary, err := a.svc.Summary(ctx, statsUser, sessionsDays)
	if err != nil {
		return err
	}
	if sessionsJSON {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	return stats.RenderSummary(cmd.OutOrStdout(), summary)
}

func newSessionsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a session done outside the app",
		Args:  cobra.NoArgs,
		RunE:  runSessionsAddCmd,
	}
	cmd.Flags().StringVar(&addUser, "user", defaultUser, "user id")
	cmd.Flags().StringVar(&addModule, "module", model.ModuleBrainwave, "module type ("+strings.Join(model.ModuleTypes, ", ")+")")
	cmd.Flags().StringVar(&addBand, "band", "", "brainwave target")
	cmd.Flags().StringVar(&addState, "state", "", "target state")
	cmd.Flags().IntVar(&addRating, "rating", 0, "rating 1-5")
	cmd.Flags().Float64Var(&addEffectiveness, "effectiveness", 0, "effectiveness score 0-1")
	cmd.Flags().DurationVar(&addDuration, "duration", 0, "session length")
	return cmd
}

func runSessionsAddCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	in := training.NewSession{
		UserID:          addUser,
		ModuleType:      addModule,
		BrainwaveTarget: addBand,
		TargetState:     addState,
		DurationSeconds: int(addDuration.Round(time.Second).Seconds()),
	}
	if cmd.Flags().Changed("rating") {
		in.UserRating = &addRating
	}
	if cmd.Flags().Changed("effectiveness") {
		in.EffectivenessScore = &addEffectiveness
	}

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	sess, err := a.svc.CreateSession(ctx, in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded session #%d\n", sess.ID)
	return err
}

func newSessionsSeedDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Store randomly generated demo sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsSeedDemoCmd,
	}
	cmd.Flags().StringVar(&demoUsers, "users", defaultUser, "comma-separated user ids")
	cmd.Flags().IntVar(&demoCount, "count", defaultDemoCount, "sessions to generate")
	cmd.Flags().Int64Var(&demoSeed, "seed", 0, "generator seed (0 picks one from the clock)")
	return cmd
}

func runSessionsSeedDemoCmd(cmd *cobra.Command, _ []string) error {
	if demoCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	var users []string
	for _, u := range strings.Split(demoUsers, ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		return fmt.Errorf("--users must not be empty")
	}
	seed := demoSeed
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.svc.SeedDemoSessions(cmd.Context(), rand.New(rand.NewSource(seed)), users, demoCount)
	if err != nil {
		return fmt.Errorf("stored %d demo sessions before failing: %w", n, err)
	}
	logErrf("Stored %d demo sessions for %s\n", n, strings.Join(users, ", "))
	return nil
}
