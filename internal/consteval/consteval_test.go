package consteval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/symbols"
)

type fakeLookup struct {
	values map[string]symbols.Value
}

func (f *fakeLookup) Constant(name string) (*symbols.Constant, bool) {
	v, ok := f.values[name]
	if !ok {
		return nil, false
	}
	return &symbols.Constant{Value: v}, true
}

func intLit(n int64) *ast.Expr { return &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: n} }

func TestEvalArithmeticOverEarlierConstants(t *testing.T) {
	lookup := &fakeLookup{values: map[string]symbols.Value{
		"BASE": {Kind: symbols.ValueInt, Int: 10},
	}}
	ev := New(lookup)

	// BASE * 2
	expr := &ast.Expr{
		Kind: ast.KindBinary, Op: "*",
		Left:  &ast.Expr{Kind: ast.KindIdent, Name: "BASE"},
		Right: intLit(2),
	}
	v, err := ev.Eval(expr)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Int)
}

func TestFixedArrayLiteralOverConstants(t *testing.T) {
	lookup := &fakeLookup{values: map[string]symbols.Value{
		"BASE": {Kind: symbols.ValueInt, Int: 10},
	}}
	ev := New(lookup)

	mk := func(mult int64) *ast.Expr {
		return &ast.Expr{Kind: ast.KindBinary, Op: "*", Left: &ast.Expr{Kind: ast.KindIdent, Name: "BASE"}, Right: intLit(mult)}
	}
	arr := &ast.Expr{Kind: ast.KindArrayLiteral, Elems: []*ast.Expr{mk(1), mk(2), mk(3)}}

	v, err := ev.Eval(arr)
	require.NoError(t, err)
	require.Len(t, v.Elems, 3)
	assert.Equal(t, int64(10), v.Elems[0].Int)
	assert.Equal(t, int64(20), v.Elems[1].Int)
	assert.Equal(t, int64(30), v.Elems[2].Int)
}

func TestNonConstExpression(t *testing.T) {
	ev := New(&fakeLookup{values: map[string]symbols.Value{}})
	call := &ast.Expr{Kind: ast.KindCall, Name: "foo"}
	_, err := ev.Eval(call)
	require.Error(t, err)
	var nce *NonConstError
	require.ErrorAs(t, err, &nce)
}

func TestCircularConstant(t *testing.T) {
	ev := New(&fakeLookup{values: map[string]symbols.Value{}})
	self := &ast.Expr{Kind: ast.KindIdent, Name: "A"}
	_, err := ev.EvalWithCycleGuard("A", &ast.Expr{
		Kind: ast.KindBinary, Op: "+", Left: self, Right: intLit(1),
	})
	require.Error(t, err)
	var circ *CircularError
	require.ErrorAs(t, err, &circ)
}

func TestDivisionByZero(t *testing.T) {
	ev := New(&fakeLookup{})
	expr := &ast.Expr{Kind: ast.KindBinary, Op: "/", Left: intLit(1), Right: intLit(0)}
	_, err := ev.Eval(expr)
	require.Error(t, err)
}
