package ast

// BorrowMode distinguishes shared (peek) from exclusive (poke) references.
type BorrowMode string

const (
	BorrowPeek BorrowMode = "peek"
	BorrowPoke BorrowMode = "poke"
)

// TypeKind tags the syntactic shape of a type-annotation node.
type TypeKind string

const (
	TypePrimitive   TypeKind = "primitive"
	TypeFixedArray  TypeKind = "fixed_array"
	TypeDynArray    TypeKind = "dyn_array"
	TypeReference   TypeKind = "reference"
	TypeNominal     TypeKind = "nominal"
	TypeOwn         TypeKind = "own"
	TypeParam       TypeKind = "type_param"
	TypeResultShort TypeKind = "result_shorthand" // `T | E`
	TypeResult      TypeKind = "result_explicit"  // `Result<T, E>`
)

// TypeExpr is the surface syntax for a type, exactly as produced by the
// external parser (spec §6: "type syntax (primitives, arrays, references
// with mode, nominal with optional type-argument list, T | E result-with-
// error shorthand, explicit Result<T,E>)").
type TypeExpr struct {
	Kind TypeKind
	Span Span

	// TypePrimitive
	Primitive string // "i8".."i64", "u8".."u64", "f32", "f64", "bool", "string", "~"

	// TypeFixedArray / TypeDynArray
	Elem *TypeExpr
	Len  int64 // only meaningful for TypeFixedArray; populated from a constant

	// TypeReference
	Mode    BorrowMode
	Pointee *TypeExpr

	// TypeNominal
	Name     string // fully-qualified name as written
	TypeArgs []*TypeExpr

	// TypeParam: the parameter's own name (meaningful only inside the
	// declaration that introduces it, per §3 invariants)
	ParamName string
	Bounds    []string // perk names

	// TypeResultShort / TypeResult
	Ok  *TypeExpr
	Err *TypeExpr
}
