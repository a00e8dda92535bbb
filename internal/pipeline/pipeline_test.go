package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
)

type fakeSource struct {
	units   []*ast.Unit
	sources map[string][]byte
}

func (f fakeSource) Units() []*ast.Unit { return f.units }
func (f fakeSource) Source(path string) []byte {
	return f.sources[path]
}

func primType(name string) *ast.TypeExpr { return &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: name} }

func stdErrType() *ast.TypeExpr { return &ast.TypeExpr{Kind: ast.TypeNominal, Name: "StdError.Error"} }

func resultShort(ok, err *ast.TypeExpr) *ast.TypeExpr {
	return &ast.TypeExpr{Kind: ast.TypeResultShort, Ok: ok, Err: err}
}

func okExpr(v *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.KindEnumLit, TypeName: "Result", Variant: "Ok", Tuple: []*ast.Expr{v}}
}

func intLit(v int64) *ast.Expr { return &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitInt, IntVal: v} }

func cleanUnit() *ast.Unit {
	return &ast.Unit{
		Path: "a.sushi",
		Functions: []*ast.FunctionDecl{{
			Name:       "answer",
			Visibility: ast.VisPublic,
			ReturnType: resultShort(primType("i64"), stdErrType()),
			Body: []ast.Stmt{
				{Kind: ast.KindReturn, ReturnValue: okExpr(intLit(42))},
			},
		}},
	}
}

func TestRunCleanProgramReachesFingerprint(t *testing.T) {
	unit := cleanUnit()
	src := fakeSource{units: []*ast.Unit{unit}, sources: map[string][]byte{"a.sushi": []byte("fn answer() -> i64!StdError.Error { return Ok(42) }")}}

	res := Run(src)

	require.Equal(t, Stage(""), res.HaltedAt)
	assert.Equal(t, 0, res.Diagnostics().Len())
	require.Len(t, res.Fingerprint.Units, 1)
	assert.Equal(t, "a.sushi", res.Fingerprint.Units[0].Unit)
	assert.NotEqual(t, [32]byte{}, res.Fingerprint.Units[0].Hash)
}

func TestRunHaltsAtCollectOnDuplicateFunction(t *testing.T) {
	a := &ast.Unit{Path: "a.sushi", Functions: []*ast.FunctionDecl{{Name: "main"}}}
	b := &ast.Unit{Path: "b.sushi", Functions: []*ast.FunctionDecl{{Name: "main"}}}
	src := fakeSource{units: []*ast.Unit{a, b}, sources: map[string][]byte{}}

	res := Run(src)

	assert.Equal(t, StageCollect, res.HaltedAt)
	assert.NotZero(t, res.Bags[StageCollect].Len())
	_, ran := res.Bags[StageScope]
	assert.False(t, ran)
}

func TestRunHaltsAtTypecheckOnMismatchWithoutRunningBorrow(t *testing.T) {
	unit := &ast.Unit{
		Path: "a.sushi",
		Functions: []*ast.FunctionDecl{{
			Name:       "add",
			ReturnType: resultShort(primType("i64"), stdErrType()),
			Body: []ast.Stmt{
				{Kind: ast.KindExprStmt, Expr: &ast.Expr{
					Kind: ast.KindBinary, Op: "+",
					Left:  intLit(1),
					Right: &ast.Expr{Kind: ast.KindLiteral, LitKind: ast.LitBool, BoolVal: true},
				}},
			},
		}},
	}
	src := fakeSource{units: []*ast.Unit{unit}, sources: map[string][]byte{"a.sushi": []byte("")}}

	res := Run(src)

	assert.Equal(t, StageTypecheck, res.HaltedAt)
	assert.NotZero(t, res.Bags[StageTypecheck].Len())
	_, ran := res.Bags[StageBorrow]
	assert.False(t, ran)
}

func TestResultDiagnosticsFlattensTheHaltedStagesBag(t *testing.T) {
	a := &ast.Unit{Path: "a.sushi", Functions: []*ast.FunctionDecl{{Name: "main"}}}
	b := &ast.Unit{Path: "b.sushi", Functions: []*ast.FunctionDecl{{Name: "main"}}}
	src := fakeSource{units: []*ast.Unit{a, b}, sources: map[string][]byte{}}

	res := Run(src)

	combined := res.Diagnostics()
	assert.Equal(t, res.Bags[StageCollect].Len(), combined.Len())
}
