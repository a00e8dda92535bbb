package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
)

func TestDeclareFunctionDuplicate(t *testing.T) {
	tbl := NewTable()
	fn := &ast.FunctionDecl{Name: "main", Span: ast.Span{File: "a.sushi", Start: 0, End: 10}}
	require.NoError(t, tbl.DeclareFunction("main", &Function{Decl: fn, Unit: "a.sushi"}))

	dup := &ast.FunctionDecl{Name: "main", Span: ast.Span{File: "a.sushi", Start: 20, End: 30}}
	err := tbl.DeclareFunction("main", &Function{Decl: dup, Unit: "a.sushi"})
	require.Error(t, err)

	var dupErr *DuplicateError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, 0, dupErr.First.Start)
	assert.Equal(t, 20, dupErr.Duplicate.Start)
}

func TestStructEnumPerkCollideAcrossKinds(t *testing.T) {
	tbl := NewTable()
	s := &ast.StructDecl{Name: "Shape", Span: ast.Span{Start: 0}}
	require.NoError(t, tbl.DeclareStruct("Shape", &Struct{Decl: s}))

	e := &ast.EnumDecl{Name: "Shape", Span: ast.Span{Start: 50}}
	err := tbl.DeclareEnum("Shape", &Enum{Decl: e})
	require.Error(t, err)
}

func TestFunctionsDoNotCollideWithStructs(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.DeclareStruct("Point", &Struct{Decl: &ast.StructDecl{Name: "Point"}}))
	require.NoError(t, tbl.DeclareFunction("Point", &Function{Decl: &ast.FunctionDecl{Name: "Point"}}))
}

func TestAnnotateAndRetrieve(t *testing.T) {
	tbl := NewTable()
	tbl.Annotate("fn:main", "linkage", "public")
	v, ok := tbl.Annotation("fn:main", "linkage")
	require.True(t, ok)
	assert.Equal(t, "public", v)

	_, ok = tbl.Annotation("fn:main", "missing")
	assert.False(t, ok)
}
