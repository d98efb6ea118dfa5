package scalebench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectArgs(t *testing.T) {
	inputs := []string{"/tmp/in0.swift", "/tmp/in1.swift"}

	t.Run("FullCompileStandalone", func(t *testing.T) {
		got := subjectArgs(inputs[:1], Standalone(), false)
		assert.Equal(t, []string{"-frontend", "-c", "/tmp/in0.swift"}, got)
	})

	t.Run("ParseOnly", func(t *testing.T) {
		got := subjectArgs(inputs[:1], Standalone(), true)
		assert.Equal(t, []string{"-frontend", "-parse", "/tmp/in0.swift"}, got)
	})

	t.Run("PrimaryWithPeers", func(t *testing.T) {
		got := subjectArgs(inputs, PrimaryFile(1), false)
		assert.Equal(t, []string{
			"-frontend", "-c",
			"-primary-file", "/tmp/in1.swift",
			"/tmp/in0.swift", "/tmp/in1.swift",
		}, got)
	})
}

func TestParseCounterReport(t *testing.T) {
	data := []byte(`{
		"AST.NumSourceLines": 120,
		"Frontend.NumInstructionsExecuted": 4.2e9,
		"strategy": "structured",
		"timestamp": "2026-08-31T10:00:00Z"
	}`)

	sample, err := parseCounterReport(data)
	require.NoError(t, err)

	assert.Equal(t, Sample{
		"AST.NumSourceLines":               120,
		"Frontend.NumInstructionsExecuted": 4.2e9,
	}, sample, "non-numeric entries must be dropped")
}

func TestParseCounterReport_Malformed(t *testing.T) {
	_, err := parseCounterReport([]byte("not json"))
	assert.Error(t, err)
}

func TestReadCounterReports_SumsAcrossJobs(t *testing.T) {
	dir := t.TempDir()
	writeReport := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	writeReport("stats-job1.json", `{"calls": 3, "allocs": 100}`)
	writeReport("stats-job2.json", `{"calls": 4}`)
	writeReport("notes.txt", "ignored")

	sample, err := readCounterReports(dir)
	require.NoError(t, err)

	assert.Equal(t, Sample{"calls": 7, "allocs": 100}, sample)
}

func TestSampleFiltered(t *testing.T) {
	sample := Sample{
		"AST.NumSourceLines": 1,
		"Sema.NumTypes":      2,
		"Sema.NumDecls":      3,
	}

	assert.Equal(t, Sample{"Sema.NumTypes": 2, "Sema.NumDecls": 3}, sample.filtered("Sema"))
	assert.Equal(t, sample, sample.filtered(""), "empty filter keeps everything")
	assert.Empty(t, sample.filtered("IRGen"))
}

func TestParseTraceOutput(t *testing.T) {
	data := []byte(`
  swift::Lexer::lex                     120
  swift::Parser::parseDecl               45

  malformed line with extra fields here
  notacount abc
`)

	sample := parseTraceOutput(data)

	assert.Equal(t, Sample{
		"swift::Lexer::lex":        120,
		"swift::Parser::parseDecl": 45,
	}, sample)
}

func TestEvalDebugStats(t *testing.T) {
	t.Run("StrippedBinary", func(t *testing.T) {
		out := []byte(`object file, debug sections
swiftc 16.2M 1.2M 0.5M 7.4% 0.3M 1.8% 0.9M (0.00%) 0.1M (0.00%)
`)
		assert.NoError(t, evalDebugStats("swiftc", out))
	})

	t.Run("PopulatedDebugInfo", func(t *testing.T) {
		out := []byte(`object file, debug sections
swiftc 16.2M 1.2M 0.5M 7.4% 0.3M 1.8% 0.9M (42.50%) 0.1M (0.00%)
`)
		err := evalDebugStats("swiftc", out)

		var preflight *PreflightError
		require.True(t, errors.As(err, &preflight), "expected PreflightError, got %v", err)
		assert.Equal(t, "swiftc", preflight.Binary)
		assert.Equal(t, "debug info", preflight.Section)
		assert.InDelta(t, 42.5, preflight.Populated, 1e-9)
	})

	t.Run("PopulatedDebugLine", func(t *testing.T) {
		out := []byte("swiftc 16.2M 1.2M 0.5M 7.4% 0.3M 1.8% 0.9M (0.00%) 0.1M (3.10%)\n")
		err := evalDebugStats("swiftc", out)

		var preflight *PreflightError
		require.True(t, errors.As(err, &preflight))
		assert.Equal(t, "debug line", preflight.Section)
	})

	t.Run("UnrecognizedReport", func(t *testing.T) {
		assert.Error(t, evalDebugStats("swiftc", []byte("too short\n")))
	})
}

// TestCounterCollector_SumMultiCountsEachPrimaryOnce drives a real
// CounterCollector against a script subject that drops one {"calls": 1}
// report per invocation. With two inputs sharing one scratch directory,
// sum-multi aggregation must total exactly 2: a report written by an earlier
// primary must never be read again by a later one.
func TestCounterCollector_SumMultiCountsEachPrimaryOnce(t *testing.T) {
	dir := t.TempDir()

	subject := filepath.Join(dir, "subject.sh")
	script := `#!/bin/sh
while [ $# -gt 1 ]; do
  if [ "$1" = "-stats-output-dir" ]; then
    echo '{"calls": 1}' > "$2/stats-$$.json"
  fi
  shift
done
`
	require.NoError(t, os.WriteFile(subject, []byte(script), 0o755))

	inputs, err := materializeInputs(dir, LiteralExpander([]byte("${N}")), []int{0, 1})
	require.NoError(t, err)

	collector := &CounterCollector{Binary: subject}
	sample, err := aggregate(context.Background(), collector, inputs, true)
	require.NoError(t, err)

	assert.Equal(t, Sample{"calls": 2}, sample,
		"each primary's report must be counted exactly once")

	// The per-invocation stats dirs must be gone; only the subject script and
	// the two inputs remain in the shared scratch directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "stats dirs leaked into the scratch directory")
}

func TestParsePercent(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want float64
	}{
		{"(0.00%)", 0},
		{"(42.50%)", 42.5},
		{"7.4%", 7.4},
	} {
		got, err := parsePercent(tc.in)
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, tc.in)
	}

	_, err := parsePercent("n/a")
	assert.Error(t, err)
}
