package scalebench

import (
	"errors"
	"fmt"
)

// ErrNoData reports that no metric survived the sweep: the intersection of
// counter names across all sweep points was empty. It is a soft failure;
// callers print a diagnostic and exit nonzero, nothing crashed.
var ErrNoData = errors.New("no data found")

// PreflightError reports that the sampling strategy was requested against a
// subject binary carrying non-trivial debug metadata. dtrace entry probes
// misfire on binaries with populated debug sections, so the run is aborted
// before any measurement is taken.
type PreflightError struct {
	Binary    string  // Subject binary that failed the check
	Section   string  // Debug section found populated
	Populated float64 // Percentage populated (0 expected)
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf(
		"binary %s has %s %.2f%% populated; strip the binary (or pick a stripped one) before tracing",
		e.Binary, e.Section, e.Populated)
}

// SubjectError reports that the measurable subject (or its wrapping sampler)
// exited with nonzero status. Fatal: the sweep aborts with no retry, since a
// partially measured sweep cannot be classified honestly.
type SubjectError struct {
	Cmd    []string // Full command line that was run
	Output []byte   // Combined stdout/stderr of the failed process
	Err    error    // Underlying exec error (exit status)
}

func (e *SubjectError) Error() string {
	return fmt.Sprintf("subject invocation %v failed: %v", e.Cmd, e.Err)
}

func (e *SubjectError) Unwrap() error { return e.Err }

// DegenerateInputError reports a regression request with no variance on the
// x axis (fewer than 2 distinct sweep points). Failing loudly here beats a
// silent division by zero deep in the fit.
type DegenerateInputError struct {
	N int // Number of data points supplied
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("regression needs at least 2 distinct x values, got %d point(s)", e.N)
}
