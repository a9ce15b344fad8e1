package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/brainbuddy/internal/api"
	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/config"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/statsui"
)

const (
	defaultDashWindow = 10
	defaultDashDays   = 30
)

var (
	serveAddr string
	serveSeed int64

	dashUser   string
	dashModule string
	dashBand   string
	dashWindow int
	dashDays   int
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().Int64Var(&serveSeed, "seed", 0, "estimator seed")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.settings.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.svc.EnsureKnowledge(ctx); err != nil {
		return fmt.Errorf("failed to seed knowledge: %w", err)
	}
	h := api.NewHandler(a.svc, a.estimator(cmd, serveSeed), a.log)
	logErrf("Serving on http://%s (ctrl+c to stop)\n", addr)
	if err := api.Serve(ctx, api.NewServer(addr, h), a.log); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"stats"},
		Short:   "Browse sessions, trends and research",
		Args:    cobra.NoArgs,
		RunE:    runDashboardCmd,
	}
	cmd.Flags().StringVar(&dashUser, "user", "", "user filter")
	cmd.Flags().StringVar(&dashModule, "module", "", "module type filter")
	cmd.Flags().StringVar(&dashBand, "band", "", "brainwave target filter")
	cmd.Flags().IntVar(&dashWindow, "window", defaultDashWindow, "newest sessions in the recent band average")
	cmd.Flags().IntVar(&dashDays, "days", defaultDashDays, "days in the trend")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	if dashModule != "" && !model.IsModuleType(dashModule) {
		return fmt.Errorf("invalid --module %q", dashModule)
	}
	if dashBand != "" {
		b, ok := brainwave.ParseBand(dashBand)
		if !ok {
			return fmt.Errorf("invalid --band %q", dashBand)
		}
		dashBand = string(b)
	}
	if dashWindow <= 0 || dashDays <= 0 {
		return fmt.Errorf("--window and --days must be > 0")
	}
	a, err := openKnowledge(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	m := statsui.NewModel(a.store, statsui.Config{
		Filter: model.SessionFilter{
			UserID:          dashUser,
			ModuleType:      dashModule,
			BrainwaveTarget: dashBand,
		},
		Window: dashWindow,
		Days:   dashDays,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}
