// Package diag implements the core's only channel for surfacing problems
// to a host: diagnostics are plain data accumulated in a Bag, never
// exceptions or panics (spec §7 "Propagation policy").
package diag

import (
	"fmt"
	"sort"

	"github.com/oxhq/sushic/internal/ast"
)

// Severity is a diagnostic's level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable diagnostic code (spec §6 "CEXXXX" / "CWXXXX"). Codes are
// stable across versions; removing one is a breaking change — see the
// const block in codes.go for the allocation ranges of §6.
type Code string

// Label attaches an explanatory note to a secondary span.
type Label struct {
	Span ast.Span
	Text string
}

// Diagnostic is one reported problem: a stable code, severity, primary
// span, zero-or-more secondary spans, and free-form text.
type Diagnostic struct {
	Code      Code
	Severity  Severity
	Primary   ast.Span
	Secondary []Label
	Message   string
}

func (d Diagnostic) dedupKey() string {
	return fmt.Sprintf("%s:%d:%d:%s", d.Primary.File, d.Primary.Start, d.Primary.End, d.Code)
}

// Bag accumulates diagnostics across a pass. It deduplicates by
// (span, code) and always yields them in a deterministic, position-sorted
// order (map-keyed dedup, sort-on-read) so that testable property 1
// ("the set of emitted diagnostics is deterministic across runs") holds
// regardless of traversal order.
type Bag struct {
	byKey map[string]Diagnostic
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{byKey: make(map[string]Diagnostic)}
}

// Add records a diagnostic, overwriting any earlier one at the same
// (span, code).
func (b *Bag) Add(d Diagnostic) {
	if b.byKey == nil {
		b.byKey = make(map[string]Diagnostic)
	}
	b.byKey[d.dedupKey()] = d
}

// Errorf is a convenience for the common case of a single-span error.
func (b *Bag) Errorf(code Code, span ast.Span, format string, args ...any) {
	b.Add(Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Primary:  span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf is a convenience for the common case of a single-span warning.
func (b *Bag) Warnf(code Code, span ast.Span, format string, args ...any) {
	b.Add(Diagnostic{
		Code:     code,
		Severity: SeverityWarning,
		Primary:  span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Merge folds another bag's diagnostics into this one.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.All() {
		b.Add(d)
	}
}

// All returns every diagnostic sorted by (file, start offset, code).
func (b *Bag) All() []Diagnostic {
	result := make([]Diagnostic, 0, len(b.byKey))
	for _, d := range b.byKey {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		a, c := result[i], result[j]
		if a.Primary.File != c.Primary.File {
			return a.Primary.File < c.Primary.File
		}
		if a.Primary.Start != c.Primary.Start {
			return a.Primary.Start < c.Primary.Start
		}
		return a.Code < c.Code
	})
	return result
}

// HasErrors reports whether any accumulated diagnostic is fatal severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.byKey {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of unique diagnostics currently held.
func (b *Bag) Len() int {
	return len(b.byKey)
}

// ExitCode maps the bag's contents to the driver's exit-code contract
// (spec §7 "User-visible failure"): 0 clean, 1 warnings only, 2 error
// present.
func (b *Bag) ExitCode() int {
	if b.HasErrors() {
		return 2
	}
	if b.Len() > 0 {
		return 1
	}
	return 0
}
