package ast

// PatternKind tags a match-arm pattern's shape.
type PatternKind string

const (
	PatternLiteral  PatternKind = "literal"
	PatternWildcard PatternKind = "wildcard"
	PatternVariant  PatternKind = "variant"
	PatternNested   PatternKind = "nested"
)

// Pattern is a single match-arm pattern (literal, wildcard `_`, variant
// with positional bindings, or a nested decomposition).
type Pattern struct {
	Kind PatternKind
	Span Span

	// PatternLiteral
	Lit *Expr

	// PatternVariant / PatternNested
	EnumName string
	Variant  string
	Bindings []string  // positional binding names, "_" for discard
	Nested   []Pattern // when a positional slot decomposes further
}
