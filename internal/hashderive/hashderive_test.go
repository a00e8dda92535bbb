package hashderive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
)

func primType(name string) *ast.TypeExpr { return &ast.TypeExpr{Kind: ast.TypePrimitive, Primitive: name} }

func TestDeriveStructMixesFieldsInOrder(t *testing.T) {
	table := symbols.NewTable()
	point := &ast.StructDecl{
		Name: "Point",
		Fields: []ast.FieldDecl{
			{Name: "x", Type: primType("i32")},
			{Name: "y", Type: primType("i32")},
		},
	}
	require.NoError(t, table.DeclareStruct("Point", &symbols.Struct{Decl: point}))

	res := Derive(table)
	require.Equal(t, 0, res.Bag.Len())

	fn, ok := table.Function("hash__Point")
	require.True(t, ok)
	assert.Equal(t, "self", fn.Decl.Receiver.Name)
	assert.Equal(t, "u64", fn.Decl.ReturnType.Primitive)
	// acc-init + 2 mix-rebinds + return
	require.Len(t, fn.Decl.Body, 4)
	assert.Equal(t, ast.KindLet, fn.Decl.Body[0].Kind)
	assert.Equal(t, ast.KindRebind, fn.Decl.Body[1].Kind)
	assert.Equal(t, ast.KindRebind, fn.Decl.Body[2].Kind)
	assert.Equal(t, ast.KindReturn, fn.Decl.Body[3].Kind)
}

func TestDeriveStructRejectsDynArrayField(t *testing.T) {
	table := symbols.NewTable()
	bag := &ast.StructDecl{
		Name: "Bag",
		Fields: []ast.FieldDecl{
			{Name: "items", Type: &ast.TypeExpr{Kind: ast.TypeDynArray, Elem: primType("i32")}},
		},
	}
	require.NoError(t, table.DeclareStruct("Bag", &symbols.Struct{Decl: bag}))

	res := Derive(table)
	require.Equal(t, 1, res.Bag.Len())
	assert.Equal(t, diag.CodeNonHashableKey, res.Bag.All()[0].Code)

	_, ok := table.Function("hash__Bag")
	assert.False(t, ok)
}

func TestDeriveEnumMixesDiscriminantAndPayload(t *testing.T) {
	table := symbols.NewTable()
	opt := &ast.EnumDecl{
		Name: "Choice",
		Variants: []ast.VariantDecl{
			{Name: "None"},
			{Name: "Some", Payload: []*ast.TypeExpr{primType("i32")}},
		},
	}
	require.NoError(t, table.DeclareEnum("Choice", &symbols.Enum{Decl: opt}))

	res := Derive(table)
	require.Equal(t, 0, res.Bag.Len())

	fn, ok := table.Function("hash__Choice")
	require.True(t, ok)
	require.Len(t, fn.Decl.Body, 1)
	matchStmt := fn.Decl.Body[0]
	assert.Equal(t, ast.KindMatch, matchStmt.Kind)
	require.Len(t, matchStmt.Arms, 2)
	assert.Equal(t, "None", matchStmt.Arms[0].Pattern.Variant)
	assert.Equal(t, "Some", matchStmt.Arms[1].Pattern.Variant)
	assert.Equal(t, []string{"a"}, matchStmt.Arms[1].Pattern.Bindings)
}

func TestDeriveSkipsGenericShells(t *testing.T) {
	table := symbols.NewTable()
	box := &ast.StructDecl{
		Name:       "Box",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Fields:     []ast.FieldDecl{{Name: "value", Type: &ast.TypeExpr{Kind: ast.TypeParam, ParamName: "T"}}},
	}
	require.NoError(t, table.DeclareStruct("Box", &symbols.Struct{Decl: box}))

	res := Derive(table)
	require.Equal(t, 0, res.Bag.Len())
	_, ok := table.Function("hash__Box")
	assert.False(t, ok)
}
