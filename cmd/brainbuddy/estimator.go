package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/entrain"
	"github.com/verte-zerg/brainbuddy/internal/logging"
	"github.com/verte-zerg/brainbuddy/internal/stats"
	"github.com/verte-zerg/brainbuddy/internal/upload"
)

const (
	modeBinaural    = "binaural"
	modeIsochronic  = "isochronic"
	defaultToneTime = time.Minute
)

var (
	analyzeTempo  float64
	analyzeEnergy float64
	analyzeSeed   int64
	analyzeJSON   bool

	uploadWorkers int
	uploadSeed    int64
	uploadJSON    bool

	toneState      string
	toneFreq       float64
	toneCarrier    float64
	toneDuration   time.Duration
	toneMode       string
	toneOut        string
	toneSampleRate int
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Estimate a band distribution from tempo and energy",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	cmd.Flags().Float64Var(&analyzeTempo, "tempo", 0, "tempo in BPM (random when unset)")
	cmd.Flags().Float64Var(&analyzeEnergy, "energy", 0, "energy 0-1 (random when unset)")
	cmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "estimator seed")
	cmd.Flags().BoolVar(&analyzeJSON, "json", false, "print JSON")
	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	_, settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	est := newEstimator(cmd, settings, analyzeSeed)

	var f brainwave.Features
	if cmd.Flags().Changed("tempo") {
		f.Tempo = &analyzeTempo
	}
	if cmd.Flags().Changed("energy") {
		f.Energy = &analyzeEnergy
	}
	bands := est.EstimateBands(f)
	emotion := brainwave.DeriveEmotion(bands)
	dominant := brainwave.DominantBand(bands)

	out := cmd.OutOrStdout()
	if analyzeJSON {
		return writeJSON(out, struct {
			Bands    brainwave.BandDistribution `json:"bands"`
			Emotion  brainwave.EmotionEstimate  `json:"emotion"`
			Dominant brainwave.Dominant         `json:"dominant"`
		}{bands, emotion, dominant})
	}
	if err := stats.RenderBandTable(out, bands); err != nil {
		return err
	}
	return printEstimate(out, emotion, dominant)
}

func printEstimate(w io.Writer, emotion brainwave.EmotionEstimate, dominant brainwave.Dominant) error {
	_, err := fmt.Fprintf(w, "Dominant: %s (%.1f%%)\nEmotion: %s (confidence %.2f, valence %.2f, arousal %.2f)\n",
		dominant.Band, dominant.Value*100,
		emotion.Emotion, emotion.Confidence, emotion.Valence, emotion.Arousal)
	return err
}

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print a synthetic audio feature set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newEstimator(cmd, settings, analyzeSeed).SynthesizeAudioFeatures())
		},
	}
	cmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "estimator seed")
	return cmd
}

func newMusicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "music <state>",
		Short: "Print music parameters for a target state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if _, ok := brainwave.LookupTargetState(args[0]); !ok {
				logErrf("Unknown state %q, using focus bands (available: %s)\n", args[0], strings.Join(brainwave.TargetStateNames(), ", "))
			}
			return writeJSON(cmd.OutOrStdout(), newEstimator(cmd, settings, analyzeSeed).GenerateMusicParameters(args[0]))
		},
	}
	cmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "estimator seed")
	return cmd
}

func newBandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bands",
		Short: "List brainwave bands and target states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return stats.RenderBandReference(cmd.OutOrStdout())
		},
	}
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Analyze mp3/wav files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUploadCmd,
	}
	cmd.Flags().IntVar(&uploadWorkers, "workers", upload.DefaultWorkers, "files analyzed in parallel")
	cmd.Flags().Int64Var(&uploadSeed, "seed", 0, "estimator seed")
	cmd.Flags().BoolVar(&uploadJSON, "json", false, "print JSON")
	return cmd
}

type uploadRow struct {
	upload.Result
	Error string `json:"error,omitempty"`
}

func runUploadCmd(cmd *cobra.Command, args []string) error {
	_, settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("workers") {
		uploadWorkers = settings.Workers
	}
	if uploadWorkers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	log, err := logging.New(settings.LogLevel, settings.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort flush.
		_ = log.Sync()
	}()

	analyzer := &upload.Analyzer{
		Estimator: newEstimator(cmd, settings, uploadSeed),
		Workers:   uploadWorkers,
		Log:       log,
	}
	results, err := analyzer.Analyze(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("upload analysis aborted: %w", err)
	}

	failed := 0
	rows := make([]uploadRow, len(results))
	for i, r := range results {
		rows[i] = uploadRow{Result: r}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
			failed++
		}
	}

	out := cmd.OutOrStdout()
	if uploadJSON {
		if err := writeJSON(out, rows); err != nil {
			return err
		}
	} else {
		for _, row := range rows {
			if err := printUploadRow(out, row); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func printUploadRow(w io.Writer, row uploadRow) error {
	if row.Error != "" {
		_, err := fmt.Fprintf(w, "%s: %s\n\n", row.Path, row.Error)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s (%s, %.0f BPM, key %s %s)\n",
		row.Path, row.Duration.Round(time.Second), row.Features.Tempo, row.Features.Key, row.Features.Mode); err != nil {
		return err
	}
	for _, line := range stats.BandBars(row.Bands, 30, false) {
		if _, err := fmt.Fprintln(w, "  "+line); err != nil {
			return err
		}
	}
	if err := printEstimate(w, row.Emotion, row.Dominant); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func newToneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Write an entrainment tone to a WAV file",
		Args:  cobra.NoArgs,
		RunE:  runToneCmd,
	}
	cmd.Flags().StringVar(&toneState, "state", brainwave.StateFocus, "mental state to entrain")
	cmd.Flags().Float64Var(&toneFreq, "freq", 0, "beat frequency in Hz (overrides --state)")
	cmd.Flags().Float64Var(&toneCarrier, "carrier", entrain.DefaultCarrierHz, "carrier frequency in Hz")
	cmd.Flags().DurationVar(&toneDuration, "duration", defaultToneTime, "tone length")
	cmd.Flags().StringVar(&toneMode, "mode", modeBinaural, "binaural or isochronic")
	cmd.Flags().StringVarP(&toneOut, "output", "o", "", "output WAV path")
	cmd.Flags().IntVar(&toneSampleRate, "sample-rate", entrain.DefaultSampleRate, "sample rate in Hz")
	return cmd
}

func runToneCmd(cmd *cobra.Command, _ []string) error {
	if toneOut == "" {
		return fmt.Errorf("--output is required")
	}
	if toneDuration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if toneCarrier <= 0 {
		return fmt.Errorf("--carrier must be > 0")
	}
	freq := toneFreq
	if !cmd.Flags().Changed("freq") {
		freq = entrain.StateFrequency(toneState)
	}
	if freq <= 0 {
		return fmt.Errorf("--freq must be > 0")
	}

	var channels [][]float64
	switch toneMode {
	case modeBinaural:
		s := entrain.BinauralBeat(freq, toneCarrier, toneDuration, toneSampleRate)
		channels = [][]float64{s.Left, s.Right}
	case modeIsochronic:
		channels = [][]float64{entrain.IsochronicTone(freq, toneCarrier, toneDuration, toneSampleRate)}
	default:
		return fmt.Errorf("--mode must be %s or %s", modeBinaural, modeIsochronic)
	}

	f, err := os.Create(toneOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", toneOut, err)
	}
	if err := entrain.WriteWAV(f, toneSampleRate, channels...); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", toneOut, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", toneOut, err)
	}
	logErrf("Wrote %s (%s %.1f Hz over %.0f Hz, %s)\n", toneOut, toneMode, freq, toneCarrier, toneDuration)
	return nil
}
