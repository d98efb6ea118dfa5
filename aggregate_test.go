package scalebench

import (
	"context"
	"testing"
)

// recordingCollector answers every Collect call with a fixed per-primary
// sample and records which primaries were requested.
type recordingCollector struct {
	samples   map[int]Sample
	primaries []Primary
}

func (r *recordingCollector) Preflight() error { return nil }

func (r *recordingCollector) Collect(_ context.Context, inputs []string, primary Primary) (Sample, error) {
	r.primaries = append(r.primaries, primary)
	if i, ok := primary.Index(); ok {
		return r.samples[i], nil
	}
	return r.samples[-1], nil
}

// TestAggregate_SumMultiAccumulates verifies sum-multi mode runs the subject
// once per input with that input primary and sums each metric across runs.
func TestAggregate_SumMultiAccumulates(t *testing.T) {
	collector := &recordingCollector{
		samples: map[int]Sample{
			0: {"calls": 1, "allocs": 10},
			1: {"calls": 1},
		},
	}
	inputs := []string{"in0.swift", "in1.swift"}

	got, err := aggregate(context.Background(), collector, inputs, true)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(collector.primaries) != 2 {
		t.Fatalf("Expected one collection per input, got %d", len(collector.primaries))
	}
	for i, p := range collector.primaries {
		if idx, ok := p.Index(); !ok || idx != i {
			t.Errorf("Collection %d: expected primary index %d, got %v", i, i, p)
		}
	}

	if got["calls"] != 2 {
		t.Errorf("Expected calls summed to 2, got %v", got["calls"])
	}
	// Metric reported by only one primary still contributes its own total.
	if got["allocs"] != 10 {
		t.Errorf("Expected allocs = 10, got %v", got["allocs"])
	}

	t.Logf("✓ 2 primaries aggregated: %v", got)
}

// TestAggregate_SingleInputCompilesStandalone verifies a sole input is
// compiled without a primary designation.
func TestAggregate_SingleInputCompilesStandalone(t *testing.T) {
	collector := &recordingCollector{
		samples: map[int]Sample{-1: {"calls": 7}},
	}

	got, err := aggregate(context.Background(), collector, []string{"in0.swift"}, false)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(collector.primaries) != 1 {
		t.Fatalf("Expected a single collection, got %d", len(collector.primaries))
	}
	if _, ok := collector.primaries[0].Index(); ok {
		t.Errorf("Expected standalone compile, got primary %v", collector.primaries[0])
	}
	if got["calls"] != 7 {
		t.Errorf("Expected calls = 7, got %v", got["calls"])
	}
}

// TestAggregate_MultiInputUsesLastPrimary verifies single-primary mode with
// several inputs measures exactly one compile, with the last input primary.
func TestAggregate_MultiInputUsesLastPrimary(t *testing.T) {
	collector := &recordingCollector{
		samples: map[int]Sample{2: {"calls": 3}},
	}
	inputs := []string{"in0.swift", "in1.swift", "in2.swift"}

	got, err := aggregate(context.Background(), collector, inputs, false)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(collector.primaries) != 1 {
		t.Fatalf("Expected a single collection, got %d", len(collector.primaries))
	}
	if idx, ok := collector.primaries[0].Index(); !ok || idx != 2 {
		t.Errorf("Expected primary index 2, got %v", collector.primaries[0])
	}
	if got["calls"] != 3 {
		t.Errorf("Expected calls = 3, got %v", got["calls"])
	}
}
