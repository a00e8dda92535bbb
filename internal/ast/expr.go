package ast

// LitKind tags a literal's surface form.
type LitKind string

const (
	LitInt    LitKind = "int"
	LitFloat  LitKind = "float"
	LitBool   LitKind = "bool"
	LitString LitKind = "string"
)

// Expr is a single expression-tree node. Every Expr carries a Span, but
// there is no underlying source buffer to re-slice — content is
// reconstructed only where §6 requires it (string interpolation
// fragments).
type Expr struct {
	Kind NodeKind
	Span Span

	// KindLiteral
	LitKind LitKind
	IntVal  int64
	FloatVal float64
	BoolVal  bool
	StrVal   string

	// KindIdent
	Name string

	// KindBinary / KindUnary
	Op    string
	Left  *Expr
	Right *Expr // nil for unary

	// KindCall / KindMethodCall
	Callee    *Expr // nil for free calls where Name is set directly
	Receiver  *Expr // KindMethodCall only
	Method    string
	Args      []*Expr

	// KindFieldAccess
	Object *Expr
	Field  string

	// KindArrayIndex
	Array *Expr
	Index *Expr

	// KindArrayLiteral
	Elems []*Expr

	// KindRange
	From      *Expr
	To        *Expr
	Inclusive bool // `..=` vs `..`

	// KindBorrow
	Mode   BorrowMode
	Target *Expr

	// KindCast
	CastType *TypeExpr
	CastExpr *Expr

	// KindInterpolation
	Fragments []InterpFragment

	// KindPropagate (`??`)
	Inner *Expr

	// KindStructLit / KindEnumLit
	TypeName string
	Variant  string
	Fields   []FieldInit
	Tuple    []*Expr

	// ResolvedType is filled in by C7; every expression carries exactly
	// one type after the type checker runs (§3 invariant).
	ResolvedType any
}

// InterpFragment is either a literal text run or an embedded expression
// inside a `"...{expr}..."` string.
type InterpFragment struct {
	Text string
	Expr *Expr // nil when Text is a literal run
}

// FieldInit is a single `name: value` pair in a struct literal.
type FieldInit struct {
	Name  string
	Value *Expr
}
