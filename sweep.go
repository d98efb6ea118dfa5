package scalebench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// SizeRange defines the sweep axis: the ordered, strictly monotonic sequence
// of N values begin, begin+step, ... with end exclusive. Step must be
// nonzero; a negative step sweeps downward.
type SizeRange struct {
	Begin int
	End   int
	Step  int
}

// Sizes expands the range into its concrete sequence.
func (r SizeRange) Sizes() ([]int, error) {
	if r.Step == 0 {
		return nil, fmt.Errorf("size range step must be nonzero")
	}

	var sizes []int
	if r.Step > 0 {
		for n := r.Begin; n < r.End; n += r.Step {
			sizes = append(sizes, n)
		}
	} else {
		for n := r.Begin; n > r.End; n += r.Step {
			sizes = append(sizes, n)
		}
	}
	return sizes, nil
}

// SweepResult is the measurement table: one Sample per sweep point,
// index-aligned with the SizeRange that produced it.
type SweepResult []Sample

// Config controls one sweep.
type Config struct {
	Range     SizeRange
	Expand    Expander
	Collector Collector

	// MultiFile grows the input set with N: each sweep point materializes N
	// inputs rendered at sizes 0..N-1, compiled with the last one primary.
	MultiFile bool

	// SumMulti implies a multi-file input set and additionally sums
	// per-metric cost over every input compiled as primary in turn.
	SumMulti bool

	// TmpDir is the parent for per-point scratch directories ("" = system
	// default). Each sweep point owns one scratch directory, created fresh
	// and removed on every exit path.
	TmpDir string

	Logger *slog.Logger
}

// Sweep produces one aggregated Sample per N in the configured range.
//
// Execution is single-threaded and synchronous: sweep points run in order,
// each blocking on exactly one subject invocation (or one per input in
// sum-multi mode). Any collector failure aborts the whole sweep: scale
// measurements are only comparable when every point ran under identical
// conditions, so partial results are never returned.
func Sweep(ctx context.Context, cfg Config) (SweepResult, error) {
	sizes, err := cfg.Range.Sizes()
	if err != nil {
		return nil, err
	}
	if cfg.Expand == nil {
		return nil, fmt.Errorf("no template expander configured")
	}
	if cfg.Collector == nil {
		return nil, fmt.Errorf("no collector configured")
	}

	// Checked once up front rather than per point: a long sweep should not
	// fail an hour in on something knowable at the start.
	if err := cfg.Collector.Preflight(); err != nil {
		return nil, err
	}

	log := logger(cfg.Logger)
	result := make(SweepResult, 0, len(sizes))

	for _, n := range sizes {
		sample, err := sweepPoint(ctx, cfg, n)
		if err != nil {
			return nil, fmt.Errorf("sweep point N=%d: %w", n, err)
		}
		log.Info("measured sweep point", "n", n, "metrics", len(sample))
		result = append(result, sample)
	}

	return result, nil
}

// sweepPoint materializes this point's inputs in a fresh scratch directory,
// measures them, and removes the directory on every exit path.
func sweepPoint(ctx context.Context, cfg Config, n int) (Sample, error) {
	dir, err := os.MkdirTemp(cfg.TmpDir, "scalebench-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var sizes []int
	if cfg.MultiFile || cfg.SumMulti {
		sizes = make([]int, n)
		for i := range sizes {
			sizes[i] = i
		}
	} else {
		sizes = []int{n}
	}

	inputs, err := materializeInputs(dir, cfg.Expand, sizes)
	if err != nil {
		return nil, err
	}

	return aggregate(ctx, cfg.Collector, inputs, cfg.SumMulti)
}
