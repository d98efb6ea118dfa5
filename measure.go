package scalebench

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Sample maps metric name to numeric value for exactly one measurement.
// Samples are immutable once returned by a Collector.
type Sample map[string]float64

// Primary designates which input file, if any, is the unit under active
// compilation. The zero value is Standalone: compile the sole input as a
// self-contained unit with no peers.
type Primary struct {
	set   bool
	index int
}

// Standalone means "compile the sole input as a standalone unit".
func Standalone() Primary { return Primary{} }

// PrimaryFile designates input i as the primary unit; all other inputs are
// supplied as peers.
func PrimaryFile(i int) Primary { return Primary{set: true, index: i} }

// Index returns the designated primary index, or false for standalone mode.
func (p Primary) Index() (int, bool) { return p.index, p.set }

// Collector turns one set of materialized inputs into one Sample by invoking
// the measurable subject exactly once. Implementations must not retain the
// input paths: their backing scratch directory is deleted when the
// measurement returns.
type Collector interface {
	// Preflight validates the collector's environment before a sweep starts.
	// It runs once per sweep, not once per sample, so a misconfigured run
	// fails immediately instead of deep into a long sweep.
	Preflight() error

	// Collect invokes the subject over the given inputs and returns the
	// collected metrics, filtered to the collector's configured substring.
	Collect(ctx context.Context, inputs []string, primary Primary) (Sample, error)
}

// subjectArgs builds the frontend argument list shared by both strategies.
func subjectArgs(inputs []string, primary Primary, parseOnly bool) []string {
	args := []string{"-frontend"}
	if parseOnly {
		args = append(args, "-parse")
	} else {
		args = append(args, "-c")
	}
	if i, ok := primary.Index(); ok {
		args = append(args, "-primary-file", inputs[i])
	}
	return append(args, inputs...)
}

// filtered returns the subset of s whose keys contain substr. The empty
// substring keeps everything.
func (s Sample) filtered(substr string) Sample {
	if substr == "" {
		return s
	}
	out := make(Sample, len(s))
	for k, v := range s {
		if strings.Contains(k, substr) {
			out[k] = v
		}
	}
	return out
}

// CounterCollector measures via the structured-counter strategy: the subject
// is asked to emit its self-describing statistics report (a directory of
// JSON files mapping counter name to value) which is parsed after a clean
// exit. Nonzero exit is fatal and surfaces as a *SubjectError.
type CounterCollector struct {
	Binary    string // Subject binary (compiler frontend)
	ParseOnly bool   // Stop after parsing instead of full lowering
	Select    string // Substring filter on counter names ("" = keep all)
	Debug     bool   // Wrap the invocation in an interactive debugger
	Logger    *slog.Logger
}

// Preflight is a no-op: the counter strategy needs nothing beyond the
// subject binary itself.
func (c *CounterCollector) Preflight() error { return nil }

func (c *CounterCollector) Collect(ctx context.Context, inputs []string, primary Primary) (Sample, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to measure")
	}

	// A fresh stats dir per invocation: in sum-multi mode several collections
	// share one scratch directory, and a report left behind by an earlier
	// primary must not be counted again.
	statsDir, err := os.MkdirTemp(filepath.Dir(inputs[0]), "stats-")
	if err != nil {
		return nil, fmt.Errorf("creating stats dir: %w", err)
	}
	defer os.RemoveAll(statsDir)

	args := subjectArgs(inputs, primary, c.ParseOnly)
	args = append(args, "-stats-output-dir", statsDir)

	var cmd *exec.Cmd
	if c.Debug {
		cmd = exec.CommandContext(ctx, "lldb", append([]string{"--", c.Binary}, args...)...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return nil, &SubjectError{Cmd: cmd.Args, Err: err}
		}
	} else {
		cmd = exec.CommandContext(ctx, c.Binary, args...)
		logger(c.Logger).Debug("running subject", "cmd", cmd.Args)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return nil, &SubjectError{Cmd: cmd.Args, Output: out, Err: err}
		}
	}

	sample, err := readCounterReports(statsDir)
	if err != nil {
		return nil, err
	}
	return sample.filtered(c.Select), nil
}

// readCounterReports parses every JSON report in dir into one Sample.
// A counter emitted by more than one report (one report per frontend job)
// contributes the sum of its values.
func readCounterReports(dir string) (Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stats dir: %w", err)
	}

	sample := Sample{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading counter report: %w", err)
		}
		report, err := parseCounterReport(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		for k, v := range report {
			sample[k] += v
		}
	}
	return sample, nil
}

// parseCounterReport decodes one self-describing counter dump. Non-numeric
// entries (timestamps, version strings) are ignored.
func parseCounterReport(data []byte) (Sample, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	sample := make(Sample, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			sample[k] = f
		}
	}
	return sample, nil
}

// TraceCollector measures via the sampling strategy: the subject runs under
// dtrace, which counts entries into every symbol matching Select over the
// process's full lifetime. Requires root (dtrace is launched through sudo)
// and a subject binary without debug metadata; see Preflight.
type TraceCollector struct {
	Binary    string // Subject binary (compiler frontend)
	ParseOnly bool   // Stop after parsing instead of full lowering
	Select    string // Substring matched against symbol names
	Logger    *slog.Logger
}

// Preflight verifies the subject binary carries no debug metadata. dtrace
// entry probes interact unreliably with populated debug sections, producing
// silently wrong counts, so a populated binary aborts the whole sweep with
// a *PreflightError before any measurement runs.
func (c *TraceCollector) Preflight() error {
	return CheckStripped(c.Binary)
}

func (c *TraceCollector) Collect(ctx context.Context, inputs []string, primary Primary) (Sample, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs to measure")
	}

	// Same ownership rule as the counter strategy: each invocation gets its
	// own trace file, so a sum-multi collection never rereads (or appends to)
	// an earlier primary's aggregation output.
	f, err := os.CreateTemp(filepath.Dir(inputs[0]), "trace-")
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	traceFile := f.Name()
	f.Close()
	defer os.Remove(traceFile)

	script := fmt.Sprintf("pid$target:*:*%s*:entry { @[probefunc] = count(); }", c.Select)

	subject := append([]string{c.Binary}, subjectArgs(inputs, primary, c.ParseOnly)...)
	args := []string{
		"dtrace", "-q",
		"-o", traceFile,
		"-b", "256",
		"-n", script,
		"-c", strings.Join(subject, " "),
	}

	cmd := exec.CommandContext(ctx, "sudo", args...)
	logger(c.Logger).Debug("running subject under dtrace", "cmd", cmd.Args)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &SubjectError{Cmd: cmd.Args, Output: out, Err: err}
	}

	data, err := os.ReadFile(traceFile)
	if err != nil {
		return nil, fmt.Errorf("reading trace output: %w", err)
	}
	return parseTraceOutput(data).filtered(c.Select), nil
}

// parseTraceOutput decodes dtrace aggregation output: one "symbol count"
// pair per line, whitespace separated, blank lines in between.
func parseTraceOutput(data []byte) Sample {
	sample := Sample{}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		count, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		sample[fields[0]] += count
	}
	return sample
}

// debugPopulatedMax is the near-zero ceiling for the tracked debug-section
// population percentages. dwarfdump reports rounded figures, so exact zero
// is too strict.
const debugPopulatedMax = 0.1

// CheckStripped verifies a binary carries no embedded debug metadata, using
// the percentage-populated figures from `dwarfdump --file-stats`.
func CheckStripped(binary string) error {
	out, err := exec.Command("dwarfdump", "--file-stats", binary).Output()
	if err != nil {
		return fmt.Errorf("inspecting %s for debug metadata: %w", binary, err)
	}
	return evalDebugStats(binary, out)
}

// evalDebugStats interprets the file-stats summary line. The two tracked
// fields are the populated percentages of the debug-info and debug-line
// sections; both must be (near) zero for tracing to be reliable.
func evalDebugStats(binary string, out []byte) error {
	var last string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			last = line
		}
	}

	fields := strings.Fields(last)
	if len(fields) < 11 {
		return fmt.Errorf("unrecognized debug-metadata report for %s: %q", binary, last)
	}

	for _, f := range []struct {
		idx  int
		name string
	}{
		{8, "debug info"},
		{10, "debug line"},
	} {
		populated, err := parsePercent(fields[f.idx])
		if err != nil {
			return fmt.Errorf("unrecognized debug-metadata report for %s: %w", binary, err)
		}
		if populated > debugPopulatedMax {
			return &PreflightError{Binary: binary, Section: f.name, Populated: populated}
		}
	}
	return nil
}

func parsePercent(field string) (float64, error) {
	s := strings.Trim(field, "(),%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a percentage: %q", field)
	}
	return v, nil
}

// logger returns l, or the process-default logger when nil.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
