package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

var (
	knowledgeStimulus    string
	knowledgeOutcome     string
	knowledgeMinEvidence float64
	knowledgeLimit       int
	knowledgeJSON        bool
)

func newKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Browse the research knowledge base",
	}
	cmd.AddCommand(newKnowledgeListCmd())
	cmd.AddCommand(newKnowledgeShowCmd())
	cmd.AddCommand(newKnowledgeRecommendCmd())
	cmd.AddCommand(newKnowledgeSeedCmd())
	return cmd
}

// openKnowledge opens the app with the built-in entries seeded.
func openKnowledge(cmd *cobra.Command) (*app, error) {
	a, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.svc.EnsureKnowledge(cmd.Context()); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to seed knowledge: %w", err)
	}
	return a, nil
}

func newKnowledgeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, strongest evidence first",
		Args:  cobra.NoArgs,
		RunE:  runKnowledgeListCmd,
	}
	cmd.Flags().StringVar(&knowledgeStimulus, "stimulus", "", "stimulus type filter")
	cmd.Flags().StringVar(&knowledgeOutcome, "outcome", "", "outcome filter")
	cmd.Flags().Float64Var(&knowledgeMinEvidence, "min-evidence", 0, "minimum evidence strength 0-1")
	cmd.Flags().IntVar(&knowledgeLimit, "limit", training.DefaultKnowledgeLimit, "maximum entries")
	cmd.Flags().BoolVar(&knowledgeJSON, "json", false, "print JSON")
	return cmd
}

func runKnowledgeListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openKnowledge(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	opts := training.KnowledgeOptions{
		StimulusType: knowledgeStimulus,
		Outcome:      knowledgeOutcome,
		Limit:        knowledgeLimit,
	}
	if cmd.Flags().Changed("min-evidence") {
		opts.MinEvidence = &knowledgeMinEvidence
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	entries, err := a.svc.ListKnowledge(ctx, opts)
	if err != nil {
		return err
	}
	if knowledgeJSON {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	return stats.RenderKnowledgeTable(cmd.OutOrStdout(), entries)
}

func newKnowledgeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openKnowledge(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			entry, err := a.svc.GetKnowledge(ctx, args[0])
			if err != nil {
				return fmt.Errorf("knowledge %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), entry)
		},
	}
}

func newKnowledgeRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <module>",
		Short: "Show research relevant to a training module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openKnowledge(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := withTimeout(cmd)
			defer cancel()
			recs, err := a.svc.Recommendations(ctx, args[0])
			if err != nil {
				return err
			}
			if knowledgeJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			return stats.RenderRecommendations(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().BoolVar(&knowledgeJSON, "json", false, "print JSON")
	return cmd
}

func newKnowledgeSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.yaml]",
		Short: "Load knowledge entries (built-in set when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runKnowledgeSeedCmd,
	}
}

func runKnowledgeSeedCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 {
		n, err := a.svc.SeedDefaultKnowledge(cmd.Context())
		if err != nil {
			return err
		}
		logErrf("Stored %d built-in entries\n", n)
		return nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() {
		// Best-effort close; the file is only read.
		_ = f.Close()
	}()
	n, err := a.svc.SeedKnowledge(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", args[0], err)
	}
	logErrf("Stored %d entries from %s\n", n, args[0])
	return nil
}
