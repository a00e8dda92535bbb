// Package scope implements C2, the Scope & Move Analyzer (spec §4.2): a
// per-function scope tree with variable states and move tracking, the
// prerequisite the borrow checker (C8) later builds on.
package scope

import "github.com/oxhq/sushic/internal/ast"

// State is a variable's lifecycle state (spec §3 "Variables").
type State int

const (
	StateLive State = iota
	StateMoved
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateMoved:
		return "moved"
	case StateDestroyed:
		return "destroyed"
	}
	return "?"
}

// Variable tracks one declared name's lifecycle within a function.
type Variable struct {
	Name    string
	Decl    ast.Span
	State   State
	IsOwned bool // affine-typed at declaration (dynamic array/HashMap/List/Own<T>)

	// MovedAt / DestroyedAt record where the terminal transition
	// happened, for diagnostic secondary spans.
	MovedAt     ast.Span
	DestroyedAt ast.Span
}

// Scope is one node of the per-function scope tree: the variables
// declared directly within it (spec §3 "a scope exclusively owns the
// variables declared within it").
type Scope struct {
	Parent   *Scope
	Children []*Scope
	Vars     map[string]*Variable
	Span     ast.Span
}

func newScope(parent *Scope, span ast.Span) *Scope {
	s := &Scope{Parent: parent, Vars: make(map[string]*Variable), Span: span}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare registers a new variable as Live in this scope.
func (s *Scope) Declare(name string, decl ast.Span, owned bool) *Variable {
	v := &Variable{Name: name, Decl: decl, State: StateLive, IsOwned: owned}
	s.Vars[name] = v
	return v
}

// Lookup finds name in this scope or any enclosing scope (lexical
// scoping).
func (s *Scope) Lookup(name string) (*Variable, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// MoveDelta records, per statement, which variables transitioned to
// Moved — the "move delta" the contract asks for (spec §4.2).
type MoveDelta struct {
	Stmt  ast.Span
	Moved []string
}

// Tree is the complete result of analyzing one function: its scope tree
// root plus the ordered move deltas observed across its body.
type Tree struct {
	Root    *Scope
	Deltas  []MoveDelta
}
