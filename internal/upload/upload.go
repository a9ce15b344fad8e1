// Package upload analyzes audio files the way the upload page does: probe
// the file, synthesize features and estimate a band distribution for it.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
)

// ErrUnsupportedFormat is returned for files that are neither mp3 nor wav.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DefaultWorkers bounds concurrent analysis when Analyzer.Workers is unset.
const DefaultWorkers = 4

// mp3 frames decode to 16-bit stereo.
const mp3BytesPerFrame = 4

// Probe returns the playing time of an mp3 or wav file.
func Probe(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".wav" {
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio: %w", err)
	}
	defer func() {
		_ = f.Close() // Best-effort close for read-only file.
	}()

	if ext == ".mp3" {
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return 0, fmt.Errorf("failed to decode mp3 %s: %w", path, err)
		}
		frames := dec.Length() / mp3BytesPerFrame
		if dec.SampleRate() <= 0 || frames < 0 {
			return 0, fmt.Errorf("mp3 %s has no known length", path)
		}
		return time.Duration(float64(frames) / float64(dec.SampleRate()) * float64(time.Second)), nil
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file %s", path)
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("failed to read wav duration %s: %w", path, err)
	}
	return d, nil
}

// Result is the analysis of one file. Err is set when the file could not be
// analyzed; the other fields are then zero.
type Result struct {
	Path     string                     `json:"path"`
	Duration time.Duration              `json:"duration"`
	Features brainwave.AudioFeatureSet  `json:"features"`
	Bands    brainwave.BandDistribution `json:"bands"`
	Emotion  brainwave.EmotionEstimate  `json:"emotion"`
	Dominant brainwave.Dominant         `json:"dominant"`
	Err      error                      `json:"-"`
}

// Analyzer runs the estimator over files with bounded concurrency.
type Analyzer struct {
	Estimator *brainwave.Estimator
	Workers   int
	Log       *zap.Logger
}

// Analyze returns one Result per path in input order. Per-file failures are
// recorded on the Result; only context cancellation fails the call.
func (a *Analyzer) Analyze(ctx context.Context, paths []string) ([]Result, error) {
	est := a.Estimator
	if est == nil {
		est = brainwave.New()
	}
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = analyzeFile(est, path)
			if results[i].Err != nil {
				log.Warn("upload analysis failed", zap.String("path", path), zap.Error(results[i].Err))
			} else {
				log.Debug("upload analyzed",
					zap.String("path", path),
					zap.Duration("duration", results[i].Duration),
					zap.String("dominant", string(results[i].Dominant.Band)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeFile(est *brainwave.Estimator, path string) Result {
	res := Result{Path: path}
	d, err := Probe(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Duration = d
	res.Features = est.SynthesizeAudioFeatures()
	res.Bands = est.EstimateBands(brainwave.FeaturesOf(res.Features.Tempo, res.Features.Energy))
	res.Emotion = brainwave.DeriveEmotion(res.Bands)
	res.Dominant = brainwave.DominantBand(res.Bands)
	return res
}
