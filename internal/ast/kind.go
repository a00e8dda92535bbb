package ast

// NodeKind tags every node in the parse tree with its grammar
// production. The kinds are Sushi's own, not a language-agnostic lowest
// common denominator.
type NodeKind string

const (
	KindUnit      NodeKind = "unit"
	KindFunction  NodeKind = "function"
	KindStruct    NodeKind = "struct"
	KindEnum      NodeKind = "enum"
	KindPerk      NodeKind = "perk"
	KindExtension NodeKind = "extension"
	KindImpl      NodeKind = "impl"
	KindConstant  NodeKind = "constant"
	KindUse       NodeKind = "use"

	KindLet      NodeKind = "let"
	KindRebind   NodeKind = "rebind"
	KindIf       NodeKind = "if"
	KindWhile    NodeKind = "while"
	KindForeach  NodeKind = "foreach"
	KindMatch    NodeKind = "match"
	KindBreak    NodeKind = "break"
	KindContinue NodeKind = "continue"
	KindReturn   NodeKind = "return"
	KindExprStmt NodeKind = "expr_stmt"

	KindLiteral       NodeKind = "literal"
	KindIdent         NodeKind = "ident"
	KindBinary        NodeKind = "binary"
	KindUnary         NodeKind = "unary"
	KindCall          NodeKind = "call"
	KindMethodCall    NodeKind = "method_call"
	KindFieldAccess   NodeKind = "field_access"
	KindArrayIndex    NodeKind = "array_index"
	KindArrayLiteral  NodeKind = "array_literal"
	KindRange         NodeKind = "range"
	KindBorrow        NodeKind = "borrow"
	KindCast          NodeKind = "cast"
	KindInterpolation NodeKind = "interpolation"
	KindPropagate     NodeKind = "propagate" // the `??` operator
	KindStructLit     NodeKind = "struct_literal"
	KindEnumLit       NodeKind = "enum_literal"
)
