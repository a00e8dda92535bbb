package scope

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/types"
)

// Analyzer walks one function body at a time, building its scope tree
// and move deltas and reporting UndefinedVariable / UseAfterMove /
// RebindWithoutDeclare into a shared bag: a small stateful struct
// threaded through a recursive statement/expression walk, accumulating
// into a diagnostic bag rather than halting on the first problem (spec
// §4.2 "all are recoverable; the pass continues and reports more").
type Analyzer struct {
	bag   *diag.Bag
	stmt  ast.Span // span of the statement currently being walked
	moved []string
}

// NewAnalyzer returns an analyzer reporting into bag.
func NewAnalyzer(bag *diag.Bag) *Analyzer {
	return &Analyzer{bag: bag}
}

// Analyze walks fn's body and returns its scope tree.
func (a *Analyzer) Analyze(fn *ast.FunctionDecl) *Tree {
	root := newScope(nil, fn.Span)
	if fn.Receiver != nil {
		root.Declare(fn.Receiver.Name, fn.Span, isAffineType(fn.Receiver.Type))
	}
	for _, p := range fn.Params {
		root.Declare(p.Name, fn.Span, isAffineType(p.Type))
	}

	tree := &Tree{Root: root}
	for i := range fn.Body {
		a.walkStmt(root, &fn.Body[i], tree)
	}
	return tree
}

func isAffineType(te *ast.TypeExpr) bool {
	if te == nil {
		return false
	}
	if te.Kind == ast.TypeReference {
		return false // passing by reference never moves (§4.2)
	}
	return types.IsAffine(types.FromExpr(te))
}

func (a *Analyzer) walkBlock(s *Scope, stmts []*ast.Stmt, tree *Tree) {
	for _, st := range stmts {
		a.walkStmt(s, st, tree)
	}
}

func (a *Analyzer) walkStmt(s *Scope, st *ast.Stmt, tree *Tree) {
	prevStmt := a.stmt
	a.stmt = st.Span
	a.moved = nil
	defer func() { a.stmt = prevStmt }()

	switch st.Kind {
	case ast.KindLet:
		if st.VarValue != nil {
			a.walkExpr(s, st.VarValue)
			a.moveBareIdent(s, st.VarValue)
		}
		s.Declare(st.VarName, st.Span, isAffineType(st.VarType))

	case ast.KindRebind:
		v, ok := s.Lookup(st.VarName)
		if !ok {
			a.bag.Errorf(diag.CodeRebindWithoutDeclare, st.Span,
				"%q is rebound with := before being declared with let", st.VarName)
		} else {
			if st.VarValue != nil {
				a.walkExpr(s, st.VarValue)
				a.moveBareIdent(s, st.VarValue)
			}
			// := reassigns storage; the variable's type is unchanged
			// and its state returns to Live (spec §3 "Lifecycle").
			v.State = StateLive
		}

	case ast.KindIf:
		a.walkExpr(s, st.Cond)
		a.walkBlock(newScope(s, st.Span), st.Then, tree)
		for _, el := range st.Elifs {
			a.walkExpr(s, el.Cond)
			a.walkBlock(newScope(s, st.Span), el.Body, tree)
		}
		if st.Else != nil {
			a.walkBlock(newScope(s, st.Span), st.Else, tree)
		}

	case ast.KindWhile:
		a.walkExpr(s, st.Cond)
		a.walkBlock(newScope(s, st.Span), st.Body, tree)

	case ast.KindForeach:
		a.walkExpr(s, st.IterExpr)
		loopScope := newScope(s, st.Span)
		loopScope.Declare(st.IterVar, st.Span, false)
		a.walkBlock(loopScope, st.Body, tree)

	case ast.KindMatch:
		a.walkExpr(s, st.Subject)
		for _, arm := range st.Arms {
			armScope := newScope(s, st.Span)
			declarePatternBindings(armScope, arm.Pattern, st.Span)
			a.walkBlock(armScope, arm.Body, tree)
		}

	case ast.KindReturn:
		if st.ReturnValue != nil {
			a.walkExpr(s, st.ReturnValue)
			// Returning by value moves the result out (§4.2); if the
			// returned expression is a bare identifier naming an owned
			// local, mark it moved so any (impossible, post-return)
			// further use in the same scope is still tracked correctly
			// by nested analyses such as the borrow checker.
			a.moveBareIdent(s, st.ReturnValue)
		}

	case ast.KindExprStmt:
		a.walkExpr(s, st.Expr)

	case ast.KindBreak, ast.KindContinue:
		// no variable references
	}

	if len(a.moved) > 0 {
		tree.Deltas = append(tree.Deltas, MoveDelta{Stmt: st.Span, Moved: append([]string(nil), a.moved...)})
	}
}

func declarePatternBindings(s *Scope, p ast.Pattern, site ast.Span) {
	switch p.Kind {
	case ast.PatternVariant:
		for _, b := range p.Bindings {
			if b != "_" {
				s.Declare(b, site, false)
			}
		}
	case ast.PatternNested:
		for _, n := range p.Nested {
			declarePatternBindings(s, n, site)
		}
	}
}

// walkExpr visits e for variable references, applying move/use-checks.
// It does not itself resolve e's type (that is C7's job); it only needs
// enough shape to know whether a use is "by value" or "by reference".
func (a *Analyzer) walkExpr(s *Scope, e *ast.Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.KindIdent:
		a.checkUse(s, e.Name, e.Span)

	case ast.KindBinary:
		a.walkExpr(s, e.Left)
		a.walkExpr(s, e.Right)

	case ast.KindUnary:
		a.walkExpr(s, e.Left)

	case ast.KindBorrow:
		// A borrow never moves its target; only record the use so
		// UndefinedVariable still fires for an unknown name.
		a.checkUseNoMove(s, e.Target, e.Span)

	case ast.KindCall:
		for _, arg := range e.Args {
			a.walkCallArg(s, arg)
		}

	case ast.KindMethodCall:
		a.walkCallArg(s, e.Receiver)
		for _, arg := range e.Args {
			a.walkCallArg(s, arg)
		}

	case ast.KindFieldAccess:
		a.walkExpr(s, e.Object)

	case ast.KindArrayIndex:
		a.walkExpr(s, e.Array)
		a.walkExpr(s, e.Index)

	case ast.KindArrayLiteral:
		for _, el := range e.Elems {
			a.walkExpr(s, el)
		}

	case ast.KindRange:
		a.walkExpr(s, e.From)
		a.walkExpr(s, e.To)

	case ast.KindCast:
		a.walkExpr(s, e.CastExpr)

	case ast.KindPropagate:
		a.walkExpr(s, e.Inner)

	case ast.KindStructLit:
		for _, f := range e.Fields {
			a.walkCallArg(s, f.Value)
		}

	case ast.KindEnumLit:
		for _, el := range e.Tuple {
			a.walkCallArg(s, el)
		}

	case ast.KindInterpolation:
		for _, frag := range e.Fragments {
			if frag.Expr != nil {
				a.walkExpr(s, frag.Expr)
			}
		}
	}
}

// walkCallArg handles one call argument: a bare &peek/&poke borrow
// expression never moves; anything else passed by value moves an affine
// argument (§4.2).
func (a *Analyzer) walkCallArg(s *Scope, arg *ast.Expr) {
	if arg == nil {
		return
	}
	if arg.Kind == ast.KindBorrow {
		a.checkUseNoMove(s, arg.Target, arg.Span)
		return
	}
	a.walkExpr(s, arg)
	a.moveBareIdent(s, arg)
}

// moveBareIdent marks e moved when it is a bare identifier naming an
// owned local — the shared rule behind passing an owned value to a call
// (walkCallArg) and binding it into a new name with let/:= (walkStmt):
// both move the value out of its old binding (§4.2).
func (a *Analyzer) moveBareIdent(s *Scope, e *ast.Expr) {
	if e == nil || e.Kind != ast.KindIdent {
		return
	}
	if v, ok := s.Lookup(e.Name); ok && v.IsOwned {
		a.markMoved(s, e.Name, e.Span)
	}
}

// checkUse resolves name, reporting UndefinedVariable or UseAfterMove.
func (a *Analyzer) checkUse(s *Scope, name string, span ast.Span) {
	v, ok := s.Lookup(name)
	if !ok {
		a.bag.Errorf(diag.CodeUndefinedVariable, span, "%q is not declared in this scope", name)
		return
	}
	if v.State == StateMoved {
		a.bag.Add(diag.Diagnostic{
			Code:     diag.CodeUseAfterMove,
			Severity: diag.SeverityError,
			Primary:  span,
			Secondary: []diag.Label{
				{Span: v.MovedAt, Text: "value moved here"},
			},
			Message: "use of moved value " + name,
		})
		return
	}
	if v.State == StateDestroyed {
		a.bag.Add(diag.Diagnostic{
			Code:     diag.CodeUseAfterMove,
			Severity: diag.SeverityError,
			Primary:  span,
			Secondary: []diag.Label{
				{Span: v.DestroyedAt, Text: "value destroyed here"},
			},
			Message: "use of destroyed value " + name,
		})
	}
}

// checkUseNoMove resolves a borrow target without ever marking it moved.
func (a *Analyzer) checkUseNoMove(s *Scope, target *ast.Expr, span ast.Span) {
	if target == nil {
		return
	}
	root := target
	for root.Kind == ast.KindFieldAccess {
		root = root.Object
	}
	if root.Kind == ast.KindIdent {
		a.checkUse(s, root.Name, span)
	} else {
		a.walkExpr(s, target)
	}
}

func (a *Analyzer) markMoved(s *Scope, name string, at ast.Span) {
	v, ok := s.Lookup(name)
	if !ok {
		return
	}
	v.State = StateMoved
	v.MovedAt = at
	a.moved = append(a.moved, name)
}
