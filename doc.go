// Package scalebench measures how a compiler's internal cost metrics grow
// with input size.
//
// # Overview
//
// Unlike traditional benchmarks that measure "fast vs slow", scalebench
// measures asymptotic growth: it renders a parametric template at increasing
// sizes N, compiles each rendering out of process, collects the compiler's
// numeric counters, and fits a power-law exponent per counter via linear
// regression in log-log space:
//
//	metric ≈ a · N^b
//
// Where:
//   - N: the template's free size parameter (loop count, declaration count, ...)
//   - b: the empirical growth exponent (slope of the log-log fit)
//
// A counter whose fitted exponent reaches a configured tolerance (default
// 1.2) is classified superlinear, signaling accidental O(n²)-or-worse
// behavior hiding inside a compiler pass.
//
// # Architecture
//
// The pipeline, leaves first:
//
//   - expand.go     - template expansion seam + input materialization
//   - measure.go    - out-of-process measurement collection (two strategies)
//   - aggregate.go  - multi-unit aggregation (single-primary / sum-multi)
//   - sweep.go      - the sweep driver (one aggregated sample per N)
//   - regression.go - ordinary least squares
//   - classify.go   - log-log fit, exponent classification, report rendering
//   - assertions.go - test helpers for growth properties
//   - suite.go      - YAML-defined batches of scale tests
//
// # Quick Start
//
// Sweep a template from N=10 to N=100 and classify every counter:
//
//	cfg := scalebench.Config{
//	    Range:     scalebench.SizeRange{Begin: 10, End: 100, Step: 10},
//	    Expand:    scalebench.CommandExpander("gyb", "loops.swift.gyb"),
//	    Collector: &scalebench.CounterCollector{Binary: "swiftc"},
//	}
//
//	result, err := scalebench.Sweep(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rows, bad, err := scalebench.Classify(cfg.Range, result, scalebench.DefaultTolerance)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	scalebench.RenderReport(os.Stdout, rows, scalebench.ReportOptions{})
//	if bad {
//	    os.Exit(1) // at least one superlinear counter
//	}
//
// # Measurement Strategies
//
// Two mutually exclusive collectors are provided:
//
//   - CounterCollector: asks the subject to emit its self-describing counter
//     report (a directory of JSON stats files) and parses that.
//   - TraceCollector: runs the subject under dtrace and counts entries into
//     every symbol matching a substring over the process lifetime. Requires
//     a binary without debug metadata; Preflight enforces this.
//
// Both are synchronous: exactly one external process per measurement, with
// scratch files scoped to the measurement and removed on every exit path.
//
// # Testing
//
// Use assertions to gate CI on growth properties:
//
//	func TestParserScalesLinearly(t *testing.T) {
//	    result := runSweep(...)
//
//	    // Assert the parse counter stays below O(n^1.2)
//	    scalebench.AssertGrowthAtMost(t, rng, result, "Parse.NumFunctionsParsed", 1.2)
//
//	    // Assert a setup counter does not grow at all
//	    scalebench.AssertConstantGrowth(t, rng, result, "AST.NumLoadedModules")
//	}
//
// # Philosophy
//
// Traditional benchmarks answer: "How fast is this?"
// scalebench answers: "How does cost grow when the input doubles?"
//
// A compiler can be fast at N=100 and unusable at N=10000. The growth
// exponent is visible long before the absolute numbers hurt, which is why
// every counter is classified, not just wall-clock time.
package scalebench
