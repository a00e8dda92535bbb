// Package symbols implements the global symbol table produced by C1 and
// consumed (append-only after C1) by every later pass (spec §3, §5).
//
// The table is a mutex-guarded map keyed by identifier with conflict
// detection on register. Declarations live in three separate subspaces
// (functions, structs/enums/perks, constants) per §3's "Name
// uniqueness" rule.
package symbols

import (
	"fmt"
	"sync"

	"github.com/oxhq/sushic/internal/ast"
)

// Kind tags which subspace a symbol lives in.
type Kind int

const (
	KindFunction Kind = iota
	KindStruct
	KindEnum
	KindPerk
	KindConstant
	KindExtension
)

// Function is the C1-collected view of a function: signature plus the
// still-generic body AST. Monomorphized copies are registered separately
// by C4 under their mangled name (spec §3 "Lifecycle").
type Function struct {
	Decl *ast.FunctionDecl
	Unit string
}

// Struct is the C1-collected shell of a struct: fields and generic
// parameters, owned exclusively by its unit until C4 instantiates it.
type Struct struct {
	Decl *ast.StructDecl
	Unit string
}

// Enum is the C1-collected shell of an enum.
type Enum struct {
	Decl *ast.EnumDecl
	Unit string
}

// Perk is a trait/interface bundle of method signatures.
type Perk struct {
	Decl *ast.PerkDecl
	Unit string
}

// Impl records a (perk, concrete-type) -> method-table association.
type Impl struct {
	Decl *ast.ImplDecl
	Unit string
}

// Extension records a receiver-type-pattern -> method-set association.
type Extension struct {
	Decl *ast.ExtensionDecl
	Unit string
}

// Constant is the C1-evaluated value of a constant declaration.
type Constant struct {
	Decl  *ast.ConstDecl
	Value Value
	Unit  string
}

// DuplicateError reports two declarations colliding on a qualified name,
// with both source locations attached (spec §4.1 "surface a
// DuplicateSymbol error with both source locations").
type DuplicateError struct {
	Name      string
	Kind      Kind
	First     ast.Span
	Duplicate ast.Span
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate symbol %q: first declared at %s, redeclared at %s",
		e.Name, e.First, e.Duplicate)
}

// Table is the whole-program symbol table. Internal mutability is
// confined to the annotation maps described in §5/§9; the declaration
// maps are populated during C1, and later passes only add the
// monomorphized entries of C4/C6 through the RegisterMonomorphized*
// methods.
type Table struct {
	mu sync.RWMutex

	functions  map[string]*Function
	structs    map[string]*Struct
	enums      map[string]*Enum
	perks      map[string]*Perk
	constants  map[string]*Constant
	impls      map[string][]*Impl // keyed by perk name
	extensions []*Extension       // matched structurally, not by name

	// Annotation side-tables keyed by stable symbol id, attached by
	// passes after C1 (spec §9 "AST identity via object references...
	// cross-referencing annotations index into side tables").
	annotations map[string]map[string]any
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{
		functions:   make(map[string]*Function),
		structs:     make(map[string]*Struct),
		enums:       make(map[string]*Enum),
		perks:       make(map[string]*Perk),
		constants:   make(map[string]*Constant),
		impls:       make(map[string][]*Impl),
		annotations: make(map[string]map[string]any),
	}
}

// DeclareFunction registers a function under its qualified name. Functions
// live in their own subspace (spec §3 "Name uniqueness": "structs/enums/
// functions live in separate subspaces").
func (t *Table) DeclareFunction(name string, f *Function) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.functions[name]; ok {
		return &DuplicateError{Name: name, Kind: KindFunction, First: existing.Decl.Span, Duplicate: f.Decl.Span}
	}
	t.functions[name] = f
	return nil
}

// DeclareStruct registers a struct. Structs, enums, and perks collide with
// each other on an identical name (spec §3), so the check spans all three.
func (t *Table) DeclareStruct(name string, s *Struct) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if span, ok := t.typeNamespaceSpan(name); ok {
		return &DuplicateError{Name: name, Kind: KindStruct, First: span, Duplicate: s.Decl.Span}
	}
	t.structs[name] = s
	return nil
}

// DeclareEnum registers an enum, subject to the same cross-kind collision
// rule as DeclareStruct.
func (t *Table) DeclareEnum(name string, e *Enum) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if span, ok := t.typeNamespaceSpan(name); ok {
		return &DuplicateError{Name: name, Kind: KindEnum, First: span, Duplicate: e.Decl.Span}
	}
	t.enums[name] = e
	return nil
}

// DeclarePerk registers a perk, subject to the same cross-kind collision
// rule as DeclareStruct.
func (t *Table) DeclarePerk(name string, p *Perk) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if span, ok := t.typeNamespaceSpan(name); ok {
		return &DuplicateError{Name: name, Kind: KindPerk, First: span, Duplicate: p.Decl.Span}
	}
	t.perks[name] = p
	return nil
}

// DeclareConstant registers a constant under its qualified name.
func (t *Table) DeclareConstant(name string, c *Constant) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.constants[name]; ok {
		return &DuplicateError{Name: name, Kind: KindConstant, First: existing.Decl.Span, Duplicate: c.Decl.Span}
	}
	t.constants[name] = c
	return nil
}

// AddImpl registers a perk implementation for a concrete type. Multiple
// impls of distinct perks for the same type are expected and not a
// collision.
func (t *Table) AddImpl(perkName string, impl *Impl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.impls[perkName] = append(t.impls[perkName], impl)
}

// AddExtension registers a method-set extension.
func (t *Table) AddExtension(ext *Extension) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extensions = append(t.extensions, ext)
}

// typeNamespaceSpan returns the span of whichever of struct/enum/perk
// already owns name, if any. Caller holds t.mu.
func (t *Table) typeNamespaceSpan(name string) (ast.Span, bool) {
	if s, ok := t.structs[name]; ok {
		return s.Decl.Span, true
	}
	if e, ok := t.enums[name]; ok {
		return e.Decl.Span, true
	}
	if p, ok := t.perks[name]; ok {
		return p.Decl.Span, true
	}
	return ast.Span{}, false
}

// Function looks up a function by qualified name.
func (t *Table) Function(name string) (*Function, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.functions[name]
	return f, ok
}

// Struct looks up a struct by qualified name.
func (t *Table) Struct(name string) (*Struct, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.structs[name]
	return s, ok
}

// Enum looks up an enum by qualified name.
func (t *Table) Enum(name string) (*Enum, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.enums[name]
	return e, ok
}

// Perk looks up a perk by qualified name.
func (t *Table) Perk(name string) (*Perk, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.perks[name]
	return p, ok
}

// Constant looks up an evaluated constant by qualified name.
func (t *Table) Constant(name string) (*Constant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.constants[name]
	return c, ok
}

// Impls returns every registered implementation of perkName.
func (t *Table) Impls(perkName string) []*Impl {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Impl(nil), t.impls[perkName]...)
}

// HasImpl reports whether ty has a registered implementation of perkName.
// typeName is the nominal name to match impls against (primitives match
// by their own name, e.g. "i32").
func (t *Table) HasImpl(perkName, typeName string) bool {
	for _, impl := range t.Impls(perkName) {
		if nominalName(impl.Decl.ForType) == typeName {
			return true
		}
	}
	return false
}

func nominalName(te *ast.TypeExpr) string {
	if te == nil {
		return ""
	}
	if te.Kind == ast.TypeNominal {
		return te.Name
	}
	if te.Kind == ast.TypePrimitive {
		return te.Primitive
	}
	return ""
}

// Extensions returns every registered extension whose receiver pattern
// names typeName.
func (t *Table) Extensions(typeName string) []*Extension {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Extension
	for _, ext := range t.extensions {
		if nominalName(ext.Decl.ForType) == typeName {
			out = append(out, ext)
		}
	}
	return out
}

// Functions returns every declared function, for passes that must walk
// the whole program (e.g. C2, C7, C8 run once per function).
func (t *Table) Functions() []*Function {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Function, 0, len(t.functions))
	for _, f := range t.functions {
		out = append(out, f)
	}
	return out
}

// Structs returns every declared struct.
func (t *Table) Structs() []*Struct {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Struct, 0, len(t.structs))
	for _, s := range t.structs {
		out = append(out, s)
	}
	return out
}

// Enums returns every declared enum.
func (t *Table) Enums() []*Enum {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Enum, 0, len(t.enums))
	for _, e := range t.enums {
		out = append(out, e)
	}
	return out
}

// Constants returns every declared constant, for passes that must walk
// the whole program (e.g. C9's linkage classification).
func (t *Table) Constants() []*Constant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Constant, 0, len(t.constants))
	for _, c := range t.constants {
		out = append(out, c)
	}
	return out
}

// Perks returns every declared perk, for passes that must search by
// method name rather than perk name (e.g. C7's bound check).
func (t *Table) Perks() []*Perk {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Perk, 0, len(t.perks))
	for _, p := range t.perks {
		out = append(out, p)
	}
	return out
}

// AllExtensions returns every registered extension, unfiltered by
// receiver type — used by passes (e.g. C5) that need to recognize an
// extension method's declaration by identity rather than look one up by
// name.
func (t *Table) AllExtensions() []*Extension {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Extension(nil), t.extensions...)
}

// Annotate attaches an annotation value to a stable symbol id under key,
// the interior-mutability seam described in §5/§9. Safe for concurrent
// use even though the core itself runs single-threaded (spec §5); the
// lock exists so a host embedding the core need not add its own.
func (t *Table) Annotate(symbolID, key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.annotations[symbolID]
	if !ok {
		m = make(map[string]any)
		t.annotations[symbolID] = m
	}
	m[key] = value
}

// Annotation retrieves a previously attached annotation.
func (t *Table) Annotation(symbolID, key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.annotations[symbolID]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// RegisterMonomorphized adds a C4-produced concrete function under its
// mangled name. Monomorphizer outputs exclusively own their mangled
// clones (spec §3 "Ownership in this design").
func (t *Table) RegisterMonomorphized(mangledName string, f *Function) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.functions[mangledName] = f
}

// RegisterMonomorphizedStruct adds a C4-produced concrete struct.
func (t *Table) RegisterMonomorphizedStruct(mangledName string, s *Struct) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.structs[mangledName] = s
}

// RegisterMonomorphizedEnum adds a C4-produced concrete enum.
func (t *Table) RegisterMonomorphizedEnum(mangledName string, e *Enum) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enums[mangledName] = e
}
