package scalebench

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Expander renders a parametric template into concrete source text for one
// value of the size parameter N. The template itself is an external concern;
// the pipeline only ever calls this function.
type Expander func(n int) ([]byte, error)

// CommandExpander shells out to an external template tool for every
// rendering, binding the template's free size parameter:
//
//	<tool> -DN=<n> <template>
//
// The rendered text is read from the tool's stdout. This matches the gyb
// convention used by the Swift tree, but any tool with the same argument
// shape works.
func CommandExpander(tool, template string) Expander {
	return func(n int) ([]byte, error) {
		out, err := exec.Command(tool, fmt.Sprintf("-DN=%d", n), template).Output()
		if err != nil {
			return nil, fmt.Errorf("expanding %s at N=%d: %w", template, n, err)
		}
		return out, nil
	}
}

// LiteralExpander substitutes every occurrence of ${N} in the template text.
// Useful for templates that need no real template engine, and as the seam
// for tests.
func LiteralExpander(template []byte) Expander {
	return func(n int) ([]byte, error) {
		return []byte(strings.ReplaceAll(string(template), "${N}", strconv.Itoa(n))), nil
	}
}

// materializeInputs renders one input file per size into dir and returns the
// ordered file paths. The directory is owned by the caller: on error the
// already-written files are left for the caller's scoped cleanup to remove.
func materializeInputs(dir string, expand Expander, sizes []int) ([]string, error) {
	paths := make([]string, 0, len(sizes))

	for i, n := range sizes {
		text, err := expand(n)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, fmt.Sprintf("in%d.swift", i))
		if err := os.WriteFile(path, text, 0o644); err != nil {
			return nil, fmt.Errorf("writing input %d: %w", i, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
