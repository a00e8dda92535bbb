package diag

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// RoundTripDiff renders a unified diff between two structural dumps, used
// by the lowering round-trip law (spec §8: "parse → lower → re-print ...
// the two lowered trees are structurally equal modulo fresh variable
// names") and by the `sushic diff` debug subcommand. It mirrors how the
// teacher's tooling diffs two source strings, applied here to pretty-
// printed tree dumps instead of file contents.
func RoundTripDiff(label string, want, got string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: label + " (expected)",
		ToFile:   label + " (actual)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("rendering round-trip diff: %w", err)
	}
	return text, nil
}
