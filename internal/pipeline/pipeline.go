// Package pipeline wires C1 through C9 into the single sequential driver
// described by §5 and §7: each pass runs to completion against the
// shared symbol table before the next begins, and the driver halts at
// the first stage whose bag is fatal rather than attempting to recover
// a table later passes can no longer trust.
//
// The driver takes a Source in and returns a Result, threading one
// shared set of tables through a fixed phase sequence and stopping at
// the first phase that produces a fatal bag rather than running the
// rest against a broken table. The host seam (UnitSource) hands the
// core an already-ordered slice of parsed units; the core never
// touches the filesystem itself.
package pipeline

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/borrow"
	"github.com/oxhq/sushic/internal/collect"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/fingerprint"
	"github.com/oxhq/sushic/internal/hashderive"
	"github.com/oxhq/sushic/internal/instantiate"
	"github.com/oxhq/sushic/internal/lower"
	"github.com/oxhq/sushic/internal/mono"
	"github.com/oxhq/sushic/internal/scope"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/typecheck"
)

// Stage names a pipeline pass, in run order, for reporting where a
// halted run stopped.
type Stage string

const (
	StageCollect     Stage = "C1-collect"
	StageScope       Stage = "C2-scope"
	StageInstantiate Stage = "C3-instantiate"
	StageMono        Stage = "C4-mono"
	StageLower       Stage = "C5-lower"
	StageHashDerive  Stage = "C6-hashderive"
	StageTypecheck   Stage = "C7-typecheck"
	StageBorrow      Stage = "C8-borrow"
	StageFingerprint Stage = "C9-fingerprint"
)

// UnitSource hands the driver an ordered slice of already-parsed units
// and their source text, so the core never reaches into the filesystem
// (or a fixture loader, or a future real parser) itself. A host
// implements this over whatever it actually loads units from.
type UnitSource interface {
	// Units returns every unit to compile, in the external loader's
	// topological (dependency-then-dependent) order.
	Units() []*ast.Unit
	// Source returns the raw text a unit was parsed from, keyed by its
	// Path, for C9's content hash.
	Source(path string) []byte
}

// Result is the driver's aggregate output: the final symbol table, the
// stage that halted the run (empty if every stage completed), and one
// diagnostic bag per stage that actually ran.
type Result struct {
	Table      *symbols.Table
	Index      *symbols.UnitIndex
	HaltedAt   Stage
	Bags       map[Stage]*diag.Bag
	Fingerprint fingerprint.Result
}

// Diagnostics flattens every stage's bag into one, in run order, for a
// host that wants a single combined report regardless of where the run
// stopped.
func (r Result) Diagnostics() *diag.Bag {
	all := diag.NewBag()
	for _, st := range runOrder {
		if b, ok := r.Bags[st]; ok {
			all.Merge(b)
		}
	}
	return all
}

var runOrder = []Stage{
	StageCollect, StageScope, StageInstantiate, StageMono, StageLower,
	StageHashDerive, StageTypecheck, StageBorrow, StageFingerprint,
}

// Run drives the nine passes in sequence over the units src provides,
// halting immediately after any stage whose bag is fatal (spec §7 "a
// fatal diagnostic in any pass aborts compilation of the whole program
// before the next pass begins") rather than running further stages
// against a table that pass could not finish trusting.
func Run(src UnitSource) Result {
	units := src.Units()
	res := Result{Bags: map[Stage]*diag.Bag{}}

	collected := collect.Collect(units)
	res.Table, res.Index = collected.Table, collected.Index
	res.Bags[StageCollect] = collected.Bag
	if collected.Bag.HasErrors() {
		res.HaltedAt = StageCollect
		return res
	}

	scopeBag := diag.NewBag()
	analyzer := scope.NewAnalyzer(scopeBag)
	for _, fn := range res.Table.Functions() {
		analyzer.Analyze(fn.Decl)
	}
	res.Bags[StageScope] = scopeBag
	if scopeBag.HasErrors() {
		res.HaltedAt = StageScope
		return res
	}

	instResult := instantiate.Collect(res.Table)
	res.Bags[StageInstantiate] = instResult.Bag
	if instResult.Bag.HasErrors() {
		res.HaltedAt = StageInstantiate
		return res
	}

	monoResult := mono.Monomorphize(res.Table, instResult)
	res.Bags[StageMono] = monoResult.Bag
	if monoResult.Bag.HasErrors() {
		res.HaltedAt = StageMono
		return res
	}

	lowerResult := lower.Lower(res.Table)
	res.Bags[StageLower] = lowerResult.Bag
	if lowerResult.Bag.HasErrors() {
		res.HaltedAt = StageLower
		return res
	}

	hashResult := hashderive.Derive(res.Table)
	res.Bags[StageHashDerive] = hashResult.Bag
	if hashResult.Bag.HasErrors() {
		res.HaltedAt = StageHashDerive
		return res
	}

	checkResult := typecheck.Check(res.Table)
	res.Bags[StageTypecheck] = checkResult.Bag
	if checkResult.Bag.HasErrors() {
		res.HaltedAt = StageTypecheck
		return res
	}

	borrowResult := borrow.Check(res.Table)
	res.Bags[StageBorrow] = borrowResult.Bag
	if borrowResult.Bag.HasErrors() {
		res.HaltedAt = StageBorrow
		return res
	}

	sources := make(map[string][]byte, len(units))
	for _, u := range units {
		sources[u.Path] = src.Source(u.Path)
	}
	res.Fingerprint = fingerprint.Compute(units, sources, res.Table)
	res.Bags[StageFingerprint] = diag.NewBag()

	return res
}
