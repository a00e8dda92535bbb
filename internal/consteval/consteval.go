// Package consteval implements the tiny constant evaluator C1 uses to
// eagerly evaluate constant declarations (spec §4.1).
//
// Supported: integer/float/bool/string literals (including 0x/0b/0o
// prefixes with underscore separators — parsed upstream by the external
// lexer, so here they arrive as already-clean ast.Expr literals);
// arithmetic/comparison operators; bitwise ops on integers only; logical
// ops on booleans only; as-casts between numeric types; references to
// earlier constants (with cycle detection); fixed-array literals over
// constant elements. Anything else fails with NonConstExpression.
package consteval

import (
	"fmt"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Lookup resolves an earlier constant by qualified name, for the
// "references to earlier constants" rule. The evaluator never reaches
// into the table for anything else.
type Lookup interface {
	Constant(name string) (*symbols.Constant, bool)
}

// NonConstError reports an expression outside the supported constant
// subset (spec §4.1 "NonConstExpression").
type NonConstError struct {
	Span   ast.Span
	Reason string
}

func (e *NonConstError) Error() string {
	return fmt.Sprintf("not a constant expression: %s", e.Reason)
}

// CircularError reports a constant whose expression references the
// constant itself, with the cycle path (spec §4.1 "CircularConstant").
type CircularError struct {
	Span  ast.Span
	Cycle []string
}

func (e *CircularError) Error() string {
	return fmt.Sprintf("circular constant dependency: %v", e.Cycle)
}

// Evaluator evaluates constant expressions against a symbol table of
// already-evaluated earlier constants.
type Evaluator struct {
	lookup  Lookup
	inStack map[string]bool // names currently being evaluated, for cycle detection
	path    []string
}

// New returns an evaluator backed by lookup.
func New(lookup Lookup) *Evaluator {
	return &Evaluator{lookup: lookup, inStack: make(map[string]bool)}
}

// Eval evaluates e, returning its constant value or an error (either
// *NonConstError or *CircularError).
func (ev *Evaluator) Eval(e *ast.Expr) (symbols.Value, error) {
	if e == nil {
		return symbols.Value{}, &NonConstError{Reason: "empty expression"}
	}
	switch e.Kind {
	case ast.KindLiteral:
		return ev.evalLiteral(e)
	case ast.KindIdent:
		return ev.evalIdent(e)
	case ast.KindBinary:
		return ev.evalBinary(e)
	case ast.KindUnary:
		return ev.evalUnary(e)
	case ast.KindCast:
		return ev.evalCast(e)
	case ast.KindArrayLiteral:
		return ev.evalArrayLiteral(e)
	default:
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: fmt.Sprintf("%s is not constant-evaluable", e.Kind)}
	}
}

func (ev *Evaluator) evalLiteral(e *ast.Expr) (symbols.Value, error) {
	switch e.LitKind {
	case ast.LitInt:
		return symbols.Value{Kind: symbols.ValueInt, Type: types.Prim(types.I64), Int: e.IntVal}, nil
	case ast.LitFloat:
		return symbols.Value{Kind: symbols.ValueFloat, Type: types.Prim(types.F64), Float: e.FloatVal}, nil
	case ast.LitBool:
		return symbols.Value{Kind: symbols.ValueBool, Type: types.Prim(types.Bool), Bool: e.BoolVal}, nil
	case ast.LitString:
		return symbols.Value{Kind: symbols.ValueString, Type: types.Prim(types.String), Str: e.StrVal}, nil
	}
	return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "unknown literal kind"}
}

func (ev *Evaluator) evalIdent(e *ast.Expr) (symbols.Value, error) {
	if ev.inStack[e.Name] {
		cycle := append(append([]string{}, ev.path...), e.Name)
		return symbols.Value{}, &CircularError{Span: e.Span, Cycle: cycle}
	}
	c, ok := ev.lookup.Constant(e.Name)
	if !ok {
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: fmt.Sprintf("%q is not a known constant", e.Name)}
	}
	return c.Value, nil
}

func (ev *Evaluator) evalUnary(e *ast.Expr) (symbols.Value, error) {
	operand, err := ev.Eval(e.Left)
	if err != nil {
		return symbols.Value{}, err
	}
	switch e.Op {
	case "-":
		switch operand.Kind {
		case symbols.ValueInt:
			return symbols.Value{Kind: symbols.ValueInt, Type: operand.Type, Int: -operand.Int}, nil
		case symbols.ValueFloat:
			return symbols.Value{Kind: symbols.ValueFloat, Type: operand.Type, Float: -operand.Float}, nil
		}
	case "!":
		if operand.Kind == symbols.ValueBool {
			return symbols.Value{Kind: symbols.ValueBool, Type: types.Prim(types.Bool), Bool: !operand.Bool}, nil
		}
	case "~":
		if operand.Kind == symbols.ValueInt {
			return symbols.Value{Kind: symbols.ValueInt, Type: operand.Type, Int: ^operand.Int}, nil
		}
	}
	return symbols.Value{}, &NonConstError{Span: e.Span, Reason: fmt.Sprintf("unary %q not supported on this operand", e.Op)}
}

func (ev *Evaluator) evalBinary(e *ast.Expr) (symbols.Value, error) {
	left, err := ev.Eval(e.Left)
	if err != nil {
		return symbols.Value{}, err
	}
	right, err := ev.Eval(e.Right)
	if err != nil {
		return symbols.Value{}, err
	}

	switch e.Op {
	case "&&", "||":
		if left.Kind != symbols.ValueBool || right.Kind != symbols.ValueBool {
			return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "logical ops require boolean operands"}
		}
		var result bool
		if e.Op == "&&" {
			result = left.Bool && right.Bool
		} else {
			result = left.Bool || right.Bool
		}
		return symbols.Value{Kind: symbols.ValueBool, Type: types.Prim(types.Bool), Bool: result}, nil

	case "&", "|", "^", "<<", ">>":
		if left.Kind != symbols.ValueInt || right.Kind != symbols.ValueInt {
			return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "bitwise ops require integer operands"}
		}
		return symbols.Value{Kind: symbols.ValueInt, Type: left.Type, Int: bitwise(e.Op, left.Int, right.Int)}, nil

	case "==", "!=", "<", "<=", ">", ">=":
		return evalComparison(e, left, right)

	case "+", "-", "*", "/", "%":
		return evalArithmetic(e, left, right)
	}

	return symbols.Value{}, &NonConstError{Span: e.Span, Reason: fmt.Sprintf("operator %q is not constant-evaluable", e.Op)}
}

func bitwise(op string, a, b int64) int64 {
	switch op {
	case "&":
		return a & b
	case "|":
		return a | b
	case "^":
		return a ^ b
	case "<<":
		return a << uint(b)
	case ">>":
		return a >> uint(b)
	}
	return 0
}

func evalComparison(e *ast.Expr, left, right symbols.Value) (symbols.Value, error) {
	var cmp int
	switch {
	case left.Kind == symbols.ValueInt && right.Kind == symbols.ValueInt:
		cmp = compareInt(left.Int, right.Int)
	case left.Kind == symbols.ValueFloat && right.Kind == symbols.ValueFloat:
		cmp = compareFloat(left.Float, right.Float)
	case left.Kind == symbols.ValueString && right.Kind == symbols.ValueString:
		cmp = compareString(left.Str, right.Str)
	case left.Kind == symbols.ValueBool && right.Kind == symbols.ValueBool:
		return symbols.Value{Kind: symbols.ValueBool, Type: types.Prim(types.Bool), Bool: boolCompare(e.Op, left.Bool, right.Bool)}, nil
	default:
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "comparison requires operands of identical kind"}
	}
	return symbols.Value{Kind: symbols.ValueBool, Type: types.Prim(types.Bool), Bool: applyCmp(e.Op, cmp)}, nil
}

func applyCmp(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func boolCompare(op string, a, b bool) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalArithmetic(e *ast.Expr, left, right symbols.Value) (symbols.Value, error) {
	switch {
	case left.Kind == symbols.ValueInt && right.Kind == symbols.ValueInt:
		v, err := intArith(e.Op, left.Int, right.Int)
		if err != nil {
			return symbols.Value{}, &NonConstError{Span: e.Span, Reason: err.Error()}
		}
		return symbols.Value{Kind: symbols.ValueInt, Type: left.Type, Int: v}, nil
	case left.Kind == symbols.ValueFloat && right.Kind == symbols.ValueFloat:
		v, err := floatArith(e.Op, left.Float, right.Float)
		if err != nil {
			return symbols.Value{}, &NonConstError{Span: e.Span, Reason: err.Error()}
		}
		return symbols.Value{Kind: symbols.ValueFloat, Type: left.Type, Float: v}, nil
	default:
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "arithmetic requires operands of identical kind"}
	}
}

func intArith(op string, a, b int64) (int64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, fmt.Errorf("division by zero in constant expression")
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, fmt.Errorf("modulo by zero in constant expression")
		}
		return a % b, nil
	}
	return 0, fmt.Errorf("unsupported integer operator %q", op)
}

func floatArith(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	}
	return 0, fmt.Errorf("unsupported float operator %q", op)
}

func (ev *Evaluator) evalCast(e *ast.Expr) (symbols.Value, error) {
	inner, err := ev.Eval(e.CastExpr)
	if err != nil {
		return symbols.Value{}, err
	}
	if e.CastType == nil || e.CastType.Kind != ast.TypePrimitive {
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "as-cast target must be a primitive"}
	}
	target := e.CastType.Primitive
	switch {
	case types.IsInt(target) && inner.Kind == symbols.ValueInt:
		return symbols.Value{Kind: symbols.ValueInt, Type: types.Prim(target), Int: inner.Int}, nil
	case types.IsFloat(target) && inner.Kind == symbols.ValueFloat:
		return symbols.Value{Kind: symbols.ValueFloat, Type: types.Prim(target), Float: inner.Float}, nil
	case types.IsInt(target) && inner.Kind == symbols.ValueFloat:
		return symbols.Value{Kind: symbols.ValueInt, Type: types.Prim(target), Int: int64(inner.Float)}, nil
	case types.IsFloat(target) && inner.Kind == symbols.ValueInt:
		return symbols.Value{Kind: symbols.ValueFloat, Type: types.Prim(target), Float: float64(inner.Int)}, nil
	default:
		return symbols.Value{}, &NonConstError{Span: e.Span, Reason: "as-cast is only defined between numeric types"}
	}
}

func (ev *Evaluator) evalArrayLiteral(e *ast.Expr) (symbols.Value, error) {
	elems := make([]symbols.Value, len(e.Elems))
	var elemType *types.Type
	for i, el := range e.Elems {
		v, err := ev.Eval(el)
		if err != nil {
			return symbols.Value{}, err
		}
		elems[i] = v
		if elemType == nil {
			elemType = v.Type
		}
	}
	var arrType *types.Type
	if elemType != nil {
		arrType = types.FixedArray(elemType, int64(len(elems)))
	}
	return symbols.Value{Kind: symbols.ValueArray, Type: arrType, Elems: elems}, nil
}

// EvalWithCycleGuard evaluates the constant named name whose expression is
// e, pushing name onto the in-progress stack so a reference to name from
// within e surfaces as a CircularError instead of infinite recursion.
// Other constants resolve only once they have been evaluated and
// declared; a reference to one that has not is not followed.
func (ev *Evaluator) EvalWithCycleGuard(name string, e *ast.Expr) (symbols.Value, error) {
	ev.inStack[name] = true
	ev.path = append(ev.path, name)
	defer func() {
		delete(ev.inStack, name)
		ev.path = ev.path[:len(ev.path)-1]
	}()
	return ev.Eval(e)
}
