package scalebench

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Suite is a YAML-defined batch of scale tests, so a tree of templates can
// be swept and classified in one run.
type Suite struct {
	Version int         `yaml:"version"`
	Tests   []SuiteTest `yaml:"tests"`
}

// SuiteTest is one scale test in a suite. Zero-valued range fields take the
// CLI defaults (begin 10, end 100, step 10); a zero tolerance means
// DefaultTolerance.
type SuiteTest struct {
	Name      string  `yaml:"name"`
	Template  string  `yaml:"template"`
	Begin     int     `yaml:"begin,omitempty"`
	End       int     `yaml:"end,omitempty"`
	Step      int     `yaml:"step,omitempty"`
	MultiFile bool    `yaml:"multi_file,omitempty"`
	SumMulti  bool    `yaml:"sum_multi,omitempty"`
	ParseOnly bool    `yaml:"parse_only,omitempty"`
	Select    string  `yaml:"select,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// tolerance returns the test's verdict threshold with the default applied.
func (t SuiteTest) tolerance() float64 {
	if t.Tolerance == 0 {
		return DefaultTolerance
	}
	return t.Tolerance
}

// rng returns the test's sweep axis with defaults applied.
func (t SuiteTest) rng() SizeRange {
	r := SizeRange{Begin: t.Begin, End: t.End, Step: t.Step}
	if r.Begin == 0 && r.End == 0 {
		r.Begin, r.End = 10, 100
	}
	if r.Step == 0 {
		r.Step = 10
	}
	return r
}

// LoadSuite reads a YAML suite file from disk.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing suite YAML: %w", err)
	}
	if len(s.Tests) == 0 {
		return nil, fmt.Errorf("suite %s defines no tests", path)
	}
	return &s, nil
}

// SuiteOptions carries per-run settings shared by every test in a suite.
type SuiteOptions struct {
	Binary     string // Subject binary
	ExpandTool string // External template tool ("gyb"-style)
	Trace      bool   // Use the sampling strategy instead of counters
	TmpDir     string // Parent for scratch directories
	Logger     *slog.Logger
}

// SuiteResult is the verdict for one suite test. Tolerance is the threshold
// the verdict was computed under, so reports filter with the same figure.
type SuiteResult struct {
	Name      string
	Rows      []GrowthRow
	Tolerance float64
	Bad       bool
}

// Run sweeps and classifies every test in order. A fatal measurement error
// aborts the whole suite (same policy as a single sweep); superlinear
// verdicts are soft and collected per test.
func (s *Suite) Run(ctx context.Context, opts SuiteOptions) ([]SuiteResult, error) {
	results := make([]SuiteResult, 0, len(s.Tests))

	for _, test := range s.Tests {
		var collector Collector
		if opts.Trace {
			collector = &TraceCollector{
				Binary:    opts.Binary,
				ParseOnly: test.ParseOnly,
				Select:    test.Select,
				Logger:    opts.Logger,
			}
		} else {
			collector = &CounterCollector{
				Binary:    opts.Binary,
				ParseOnly: test.ParseOnly,
				Select:    test.Select,
				Logger:    opts.Logger,
			}
		}

		cfg := Config{
			Range:     test.rng(),
			Expand:    CommandExpander(opts.ExpandTool, test.Template),
			Collector: collector,
			MultiFile: test.MultiFile,
			SumMulti:  test.SumMulti,
			TmpDir:    opts.TmpDir,
			Logger:    opts.Logger,
		}

		result, err := Sweep(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("suite test %s: %w", test.Name, err)
		}

		tolerance := test.tolerance()
		rows, bad, err := Classify(cfg.Range, result, tolerance)
		if err != nil {
			return nil, fmt.Errorf("suite test %s: %w", test.Name, err)
		}

		results = append(results, SuiteResult{Name: test.Name, Rows: rows, Tolerance: tolerance, Bad: bad})
	}

	return results, nil
}
