// Command scalebench sweeps a parametric source template through a range of
// sizes, compiles every rendering, and classifies the growth of the
// compiler's internal counters. Exit status 1 means a superlinear counter
// was found (or no data could be collected).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/alexshd/scalebench"
)

var (
	// Flags
	showValues   bool
	quiet        bool
	parseOnly    bool
	useTrace     bool
	multiFile    bool
	sumMulti     bool
	begin        int
	end          int
	step         int
	subjectBin   string
	expandTool   string
	selectFilter string
	debugSubject bool
	tmpDir       string
	tolerance    float64
	verbose      bool
)

// errSuperlinear marks a completed run whose verdict is FAILED. The report
// is already rendered by the time it is returned; it only drives the exit
// status.
var errSuperlinear = errors.New("superlinear growth detected")

var rootCmd = &cobra.Command{
	Use:   "scalebench [template]",
	Short: "Measure asymptotic growth of compiler cost metrics",
	Long: `scalebench renders a parametric template at increasing sizes N, compiles
each rendering, collects the compiler's numeric counters, and fits a growth
exponent per counter via log-log linear regression.

The template is read from the positional argument, or from standard input
when omitted. Counters fitting O(n^b) with b at or above the tolerance are
classified superlinear and fail the run.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}),
		))
	},
	RunE: runScaleTest,
}

var suiteCmd = &cobra.Command{
	Use:   "suite [suite.yaml]",
	Short: "Run a YAML-defined batch of scale tests",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuite,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&showValues, "values", false, "print raw values alongside exponents")
	flags.BoolVar(&quiet, "quiet", false, "print only superlinear metrics")
	flags.BoolVar(&parseOnly, "parse", false, "invoke the subject in parse-only mode")
	flags.BoolVar(&multiFile, "multi-file", false, "grow the input-set size with N")
	flags.BoolVar(&sumMulti, "sum-multi", false, "multi-file plus per-primary cost summation")
	flags.IntVar(&begin, "begin", 10, "first N value of the sweep")
	flags.IntVar(&end, "end", 100, "end of the sweep (exclusive)")
	flags.IntVar(&step, "step", 10, "N increment per sweep point")
	flags.BoolVar(&debugSubject, "debug", false, "wrap the subject invocation in a debugger")
	flags.Float64Var(&tolerance, "tolerance", scalebench.DefaultTolerance, "growth exponent at which a metric fails")

	for _, f := range []*cobra.Command{rootCmd, suiteCmd} {
		pf := f.Flags()
		pf.BoolVar(&useTrace, "dtrace", false, "use the sampling strategy instead of structured counters")
		pf.StringVar(&subjectBin, "swiftc-binary", "swiftc", "path or name of the subject compiler")
		pf.StringVar(&expandTool, "gyb-binary", "gyb", "path or name of the template expansion tool")
		pf.StringVar(&tmpDir, "tmpdir", "", "parent directory for scratch files")
	}
	rootCmd.Flags().StringVar(&selectFilter, "select", "", "substring filter on metric names")
	suiteCmd.Flags().BoolVar(&showValues, "values", false, "print raw values alongside exponents")
	suiteCmd.Flags().BoolVar(&quiet, "quiet", false, "print only superlinear metrics")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(suiteCmd)
}

func runScaleTest(cmd *cobra.Command, args []string) error {
	if debugSubject && useTrace {
		return fmt.Errorf("--debug cannot be combined with --dtrace")
	}

	template, cleanup, err := templatePath(args)
	if err != nil {
		return err
	}
	defer cleanup()

	var collector scalebench.Collector
	if useTrace {
		collector = &scalebench.TraceCollector{
			Binary:    subjectBin,
			ParseOnly: parseOnly,
			Select:    selectFilter,
		}
	} else {
		collector = &scalebench.CounterCollector{
			Binary:    subjectBin,
			ParseOnly: parseOnly,
			Select:    selectFilter,
			Debug:     debugSubject,
		}
	}

	cfg := scalebench.Config{
		Range:     scalebench.SizeRange{Begin: begin, End: end, Step: step},
		Expand:    scalebench.CommandExpander(expandTool, template),
		Collector: collector,
		MultiFile: multiFile,
		SumMulti:  sumMulti,
		TmpDir:    tmpDir,
	}

	result, err := scalebench.Sweep(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rows, bad, err := scalebench.Classify(cfg.Range, result, tolerance)
	if err != nil {
		return err
	}

	opts := scalebench.ReportOptions{Quiet: quiet, Values: showValues, Tolerance: tolerance}
	if err := scalebench.RenderReport(os.Stdout, rows, opts); err != nil {
		return err
	}

	if bad {
		slog.Warn("superlinear growth detected", "tolerance", tolerance)
		return errSuperlinear
	}
	return nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	suite, err := scalebench.LoadSuite(args[0])
	if err != nil {
		return err
	}

	results, err := suite.Run(cmd.Context(), scalebench.SuiteOptions{
		Binary:     subjectBin,
		ExpandTool: expandTool,
		Trace:      useTrace,
		TmpDir:     tmpDir,
	})
	if err != nil {
		return err
	}

	anyBad := false
	for _, r := range results {
		fmt.Printf("== %s ==\n", r.Name)
		opts := scalebench.ReportOptions{Quiet: quiet, Values: showValues, Tolerance: r.Tolerance}
		if err := scalebench.RenderReport(os.Stdout, r.Rows, opts); err != nil {
			return err
		}
		if r.Bad {
			anyBad = true
			slog.Warn("superlinear growth detected", "test", r.Name)
		}
	}

	if anyBad {
		return errSuperlinear
	}
	return nil
}

// templatePath resolves the positional template argument, spooling standard
// input to a scratch file when no argument is given (the expansion tool
// needs a real path).
func templatePath(args []string) (string, func(), error) {
	if len(args) == 1 {
		return args[0], func() {}, nil
	}

	f, err := os.CreateTemp(tmpDir, "scalebench-stdin-")
	if err != nil {
		return "", nil, fmt.Errorf("spooling stdin: %w", err)
	}
	if _, err := io.Copy(f, os.Stdin); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("spooling stdin: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("spooling stdin: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errSuperlinear) {
			slog.Error(err.Error())
		}
		os.Exit(1)
	}
}
