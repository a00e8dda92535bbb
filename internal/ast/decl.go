package ast

// Visibility is a declaration's cross-unit visibility (spec §3, §4.9).
type Visibility string

const (
	VisPrivate Visibility = "private"
	VisPublic  Visibility = "public"
)

// TypeParamDecl introduces a generic type parameter with its perk bounds.
type TypeParamDecl struct {
	Name   string
	Bounds []string
}

// Param is a single function parameter: name and type. A reference
// parameter's borrow mode is carried by its Type's Mode.
type Param struct {
	Name string
	Type *TypeExpr
}

// FunctionDecl is a top-level or method function declaration.
type FunctionDecl struct {
	Span       Span
	Name       string // qualified once owned by a unit
	Visibility Visibility
	TypeParams []TypeParamDecl
	Params     []Param
	ReturnType *TypeExpr
	Body       []Stmt

	// Receiver is non-nil for methods declared inside a struct/enum/perk
	// impl block; nil for free functions.
	Receiver *Param

	Unit string // owning unit path
}

// FieldDecl is one field of a struct.
type FieldDecl struct {
	Name string
	Type *TypeExpr
}

// StructDecl is a top-level struct shell (spec §3 "Lifecycle").
type StructDecl struct {
	Span       Span
	Name       string
	Visibility Visibility
	TypeParams []TypeParamDecl
	Fields     []FieldDecl
	Methods    []*FunctionDecl
	Unit       string
}

// VariantDecl is one enum variant with an optional positional payload.
type VariantDecl struct {
	Name    string
	Payload []*TypeExpr // empty when the variant carries no payload
}

// EnumDecl is a top-level enum shell.
type EnumDecl struct {
	Span       Span
	Name       string
	Visibility Visibility
	TypeParams []TypeParamDecl
	Variants   []VariantDecl
	Methods    []*FunctionDecl
	Unit       string
}

// PerkMethodSig is one method signature required by a perk (trait).
type PerkMethodSig struct {
	Name       string
	Params     []Param
	ReturnType *TypeExpr
}

// PerkDecl declares an interface/trait bundle used as a generic bound.
type PerkDecl struct {
	Span       Span
	Name       string
	Visibility Visibility
	Methods    []PerkMethodSig
	Unit       string
}

// ImplDecl is `impl <Perk> for <Type>`, associating a method table with a
// (perk, type) pair.
type ImplDecl struct {
	Span      Span
	PerkName  string
	ForType   *TypeExpr
	Methods   []*FunctionDecl
	Unit      string
}

// ExtensionDecl attaches extra methods to a receiver-type pattern without
// declaring a new perk.
type ExtensionDecl struct {
	Span       Span
	ForType    *TypeExpr
	TypeParams []TypeParamDecl
	Methods    []*FunctionDecl
	Unit       string
}

// ConstDecl is a top-level constant, evaluated eagerly at C1.
type ConstDecl struct {
	Span       Span
	Name       string
	Visibility Visibility
	Type       *TypeExpr
	Value      *Expr
	Unit       string
}

// UseDecl is a `use <path>` import statement; resolution is the external
// loader's job (§6) — the core only observes the resulting unit set.
type UseDecl struct {
	Span Span
	Path string
}

// Unit is a single source file and the scope of its top-level
// declarations (GLOSSARY: "Unit").
type Unit struct {
	Path       string
	Functions  []*FunctionDecl
	Structs    []*StructDecl
	Enums      []*EnumDecl
	Perks      []*PerkDecl
	Impls      []*ImplDecl
	Extensions []*ExtensionDecl
	Consts     []*ConstDecl
	Uses       []*UseDecl
}
