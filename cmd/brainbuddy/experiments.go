package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

var (
	experimentUser  string
	experimentLimit int
	experimentJSON  bool
)

func newExperimentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Run guided experiments",
	}
	cmd.PersistentFlags().StringVar(&experimentUser, "user", defaultUser, "user id")
	cmd.PersistentFlags().BoolVar(&experimentJSON, "json", false, "print JSON")
	cmd.AddCommand(newExperimentsTypesCmd())
	cmd.AddCommand(newExperimentsListCmd())
	cmd.AddCommand(newExperimentsStartCmd())
	cmd.AddCommand(newExperimentsCompleteCmd())
	return cmd
}

// resolveExperimentUser falls back to the configured training user.
func resolveExperimentUser(cmd *cobra.Command, a *app) string {
	if !cmd.Flags().Changed("user") && a.file.Training.User != nil {
		return *a.file.Training.User
	}
	return experimentUser
}

func newExperimentsTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the experiments that can be started",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if experimentJSON {
				return writeJSON(cmd.OutOrStdout(), model.ExperimentTypes)
			}
			return stats.RenderExperimentTypes(cmd.OutOrStdout(), model.ExperimentTypes)
		},
	}
}

func newExperimentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List experiments, newest first",
		Args:  cobra.NoArgs,
		RunE:  runExperimentsListCmd,
	}
	cmd.Flags().IntVar(&experimentLimit, "limit", training.DefaultExperimentLimit, "maximum experiments")
	return cmd
}

func runExperimentsListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	experiments, err := a.svc.ListExperiments(ctx, resolveExperimentUser(cmd, a), experimentLimit)
	if err != nil {
		return err
	}
	if experimentJSON {
		return writeJSON(cmd.OutOrStdout(), experiments)
	}
	return stats.RenderExperimentTable(cmd.OutOrStdout(), experiments)
}

func newExperimentsStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <type>",
		Short: "Start an experiment",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperimentsStartCmd,
	}
}

func runExperimentsStartCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	exp, err := a.svc.StartExperiment(ctx, resolveExperimentUser(cmd, a), args[0])
	if err != nil {
		return err
	}
	if experimentJSON {
		return writeJSON(cmd.OutOrStdout(), exp)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Started experiment #%d: %s (%d min)\n", exp.ID, exp.Protocol.Instructions, exp.Protocol.DurationMinutes)
	return err
}

func newExperimentsCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an experiment completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperimentsCompleteCmd,
	}
}

func runExperimentsCompleteCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid experiment id %q", args[0])
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := withTimeout(cmd)
	defer cancel()
	exp, err := a.svc.CompleteExperiment(ctx, id)
	if err != nil {
		return err
	}
	if experimentJSON {
		return writeJSON(cmd.OutOrStdout(), exp)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Completed experiment #%d (%s)\n", exp.ID, exp.ExperimentType)
	return err
}
