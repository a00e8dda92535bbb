package symbols

import "github.com/oxhq/sushic/internal/types"

// ValueKind tags the shape of an evaluated constant value (spec §4.1).
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueBool
	ValueString
	ValueArray
)

// Value is the result of evaluating a constant expression at C1.
type Value struct {
	Kind  ValueKind
	Type  *types.Type
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Elems []Value // ValueArray
}
