// Package main provides the CLI entrypoint for brainbuddy.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/config"
	"github.com/verte-zerg/brainbuddy/internal/logging"
	"github.com/verte-zerg/brainbuddy/internal/model"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/store"
	"github.com/verte-zerg/brainbuddy/internal/training"
	"github.com/verte-zerg/brainbuddy/internal/tui"
)

const (
	defaultUser      = "local"
	defaultState     = brainwave.StateFocus
	defaultDuration  = 10 * time.Minute
	defaultTick      = time.Second
	defaultWeakFloor = 0.2
)

var (
	globalConfigPath string
	globalDBPath     string
	globalLogLevel   string
	globalLogFile    string

	trainUser     string
	trainState    string
	trainDuration time.Duration
	trainTick     time.Duration
	trainSeed     int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for rejected input and 1 for any other failure.
func exitCode(err error) int {
	if training.IsValidation(err) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "brainbuddy",
		Short:         "Brainwave training companion",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&globalDBPath, "db", config.DefaultDBPath(), "database path")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalLogFile, "log-file", config.DefaultLogPath(), "log file path ('-' for stderr)")
	addTrainFlags(rootCmd)

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Run a live training session",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	addTrainFlags(trainCmd)

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newFeaturesCmd())
	rootCmd.AddCommand(newMusicCmd())
	rootCmd.AddCommand(newBandsCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newToneCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newKnowledgeCmd())
	rootCmd.AddCommand(newExperimentsCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func addTrainFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&trainUser, "user", defaultUser, "user id sessions are recorded under")
	cmd.Flags().StringVar(&trainState, "state", defaultState, "target state ("+strings.Join(brainwave.TargetStateNames(), ", ")+")")
	cmd.Flags().DurationVar(&trainDuration, "duration", defaultDuration, "session length")
	cmd.Flags().DurationVar(&trainTick, "tick", defaultTick, "sampling interval")
	cmd.Flags().Int64Var(&trainSeed, "seed", 0, "estimator seed (0 picks one from the clock)")
}

// app bundles what most commands need once config is resolved.
type app struct {
	file     config.FileConfig
	settings config.Settings
	log      *zap.Logger
	store    *store.Store
	svc      *training.Service
}

// loadSettings resolves file, environment and persistent flags, in
// increasing precedence.
func loadSettings(cmd *cobra.Command) (config.FileConfig, config.Settings, error) {
	fileCfg, err := config.LoadConfig(globalConfigPath)
	if err != nil {
		return config.FileConfig{}, config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return config.FileConfig{}, config.Settings{}, err
	}
	settings := config.Resolve(fileCfg, env)
	if cmd.Flags().Changed("db") {
		settings.DBPath = globalDBPath
	}
	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = globalLogLevel
	}
	if cmd.Flags().Changed("log-file") {
		settings.LogFile = globalLogFile
	}
	return fileCfg, settings, nil
}

// openApp builds the logger, opens the store and wires the training
// service. Callers must close the returned app.
func openApp(cmd *cobra.Command) (*app, error) {
	fileCfg, settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(settings.LogLevel, settings.LogFile)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(settings.DBPath)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.Debug("store opened", zap.String("path", settings.DBPath))
	return &app{
		file:     fileCfg,
		settings: settings,
		log:      log,
		store:    st,
		svc:      training.NewService(st, log),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	// Best-effort flush; syncing stderr fails on some terminals.
	_ = a.log.Sync()
}

func (a *app) estimator(cmd *cobra.Command, seed int64) *brainwave.Estimator {
	return newEstimator(cmd, a.settings, seed)
}

// newEstimator seeds from the seed flag when given, then from config.
func newEstimator(cmd *cobra.Command, settings config.Settings, seed int64) *brainwave.Estimator {
	if cmd.Flags().Changed("seed") {
		return brainwave.NewWithSeed(seed)
	}
	if settings.Seed != nil {
		return brainwave.NewWithSeed(*settings.Seed)
	}
	return brainwave.New()
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	applyStringConfig(cmd, "user", &trainUser, a.file.Training.User)
	applyStringConfig(cmd, "state", &trainState, a.file.Training.TargetState)
	if err := applyDurationConfig(cmd, "duration", &trainDuration, a.file.Training.Duration); err != nil {
		return err
	}
	if err := applyDurationConfig(cmd, "tick", &trainTick, a.file.Training.Tick); err != nil {
		return err
	}

	cfg := model.TrainingConfig{
		User:        trainUser,
		TargetState: trainState,
		Duration:    trainDuration,
		Tick:        trainTick,
		Seed:        trainSeed,
	}
	if err := validateTrainingConfig(cfg); err != nil {
		return err
	}

	m := tui.NewModel(cfg, a.svc, a.estimator(cmd, cfg.Seed), a.log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	sess, err := m.Saved()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if sess == nil {
		logErrln("Session not saved.")
		return nil
	}
	return printTrainingSummary(cmd.OutOrStdout(), *sess)
}

func printTrainingSummary(w io.Writer, sess model.Session) error {
	if _, err := fmt.Fprintf(w, "Saved session #%d (%s, %s)\n", sess.ID, sess.TargetState, formatSeconds(sess.DurationSeconds)); err != nil {
		return err
	}
	if sess.Bands == nil {
		return nil
	}
	if err := stats.RenderBandBars(w, "Average bands", *sess.Bands); err != nil {
		return err
	}
	if sess.EffectivenessScore != nil {
		if _, err := fmt.Fprintf(w, "Target alignment: %.0f%%\n", *sess.EffectivenessScore*100); err != nil {
			return err
		}
	}
	weak := stats.WeakBands(*sess.Bands, sess.TargetState, defaultWeakFloor)
	if len(weak) == 0 {
		return nil
	}
	names := make([]string, len(weak))
	for i, b := range weak {
		names[i] = string(b)
	}
	_, err := fmt.Fprintf(w, "Weak target bands: %s\n", strings.Join(names, ", "))
	return err
}

func formatSeconds(s int) string {
	return (time.Duration(s) * time.Second).String()
}

func validateTrainingConfig(cfg model.TrainingConfig) error {
	if cfg.User == "" {
		return fmt.Errorf("--user must not be empty")
	}
	if _, ok := brainwave.LookupTargetState(cfg.TargetState); !ok {
		return fmt.Errorf("unknown --state %q (available: %s)", cfg.TargetState, strings.Join(brainwave.TargetStateNames(), ", "))
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.Tick <= 0 {
		return fmt.Errorf("--tick must be > 0")
	}
	if cfg.Tick > cfg.Duration {
		return fmt.Errorf("--tick must not exceed --duration")
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := globalConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# brainbuddy configuration
# Uncomment a value to enable it. BRAINBUDDY_* environment variables override
# the file and CLI flags override both.

[training]
# user = %q           # User id sessions are recorded under
# target-state = %q   # One of: %s
# duration = %q        # Session length
# tick = %q            # Sampling interval

[estimator]
# seed = 42                # Fixed seed for reproducible estimates
# workers = %d              # Parallel upload analysis

[log]
# level = %q           # debug, info, warn, error
# file = %q

[server]
# addr = %q

[storage]
# db = %q
`,
		defaultUser,
		defaultState,
		strings.Join(brainwave.TargetStateNames(), ", "),
		defaultDuration,
		defaultTick,
		config.DefaultWorkers,
		config.DefaultLogLevel,
		config.DefaultLogPath(),
		config.DefaultAddr,
		config.DefaultDBPath(),
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withTimeout bounds one-shot store commands.
func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
