// Package borrow implements C8, the Borrow Checker (spec §4.8): a
// two-mode affine borrow discipline enforced per variable over its
// defining function's lifetime. Runs after C7, so every expression
// already carries its resolved type (§3) — this pass reads those
// annotations rather than re-deriving them.
package borrow

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Result is C8's diagnostic output. Borrow violations are always fatal
// (spec §4.8 "no recovery inside C8"), but the bag still accumulates
// every violation found in one run rather than stopping at the first,
// consistent with the rest of the pipeline's reporting discipline —
// only the *pipeline driver* treats this stage's bag as halting.
type Result struct {
	Bag *diag.Bag
}

// Check runs the borrow discipline over every function in table.
func Check(table *symbols.Table) Result {
	c := &checker{table: table, bag: diag.NewBag()}
	for _, fn := range table.Functions() {
		c.checkFunction(fn.Decl)
	}
	return Result{Bag: c.bag}
}

// borrowState is one variable's current borrow standing: unborrowed
// (shared == 0 && !exclusive), N shared peek borrows, or one exclusive
// poke borrow (spec §4.8 "exactly one of... unborrowed, N shared
// borrows, or one exclusive borrow").
type borrowState struct {
	shared    int
	exclusive bool
}

func (b *borrowState) active() bool { return b.shared > 0 || b.exclusive }

type checker struct {
	table *symbols.Table
	bag   *diag.Bag

	env   map[string]*types.Type  // declared/let-annotated type per variable, for write-through-shared detection
	state map[string]*borrowState // current borrow standing per variable
}

func (c *checker) stateOf(name string) *borrowState {
	s, ok := c.state[name]
	if !ok {
		s = &borrowState{}
		c.state[name] = s
	}
	return s
}

func (c *checker) checkFunction(fn *ast.FunctionDecl) {
	c.env = map[string]*types.Type{}
	c.state = map[string]*borrowState{}

	if fn.Receiver != nil {
		c.env[fn.Receiver.Name] = types.FromExpr(fn.Receiver.Type)
	}
	for _, p := range fn.Params {
		c.env[p.Name] = types.FromExpr(p.Type)
	}

	stmts := make([]*ast.Stmt, len(fn.Body))
	for i := range fn.Body {
		stmts[i] = &fn.Body[i]
	}
	c.walkBlock(stmts)
}

// walkBlock processes a block scope: any `let`-bound `&peek`/`&poke`
// borrow introduced directly in this block lives until the block ends
// (spec §4.8 "at the end of the block that introduced them, for
// longer-lived &peek"), released here rather than by the statement that
// introduced it.
func (c *checker) walkBlock(stmts []*ast.Stmt) {
	var boundHere []string
	for _, st := range stmts {
		c.walkStmt(st, &boundHere)
	}
	for _, name := range boundHere {
		c.release(name)
	}
}

func (c *checker) release(name string) {
	st, ok := c.state[name]
	if !ok {
		return
	}
	if st.exclusive {
		st.exclusive = false
	} else if st.shared > 0 {
		st.shared--
	}
}

func (c *checker) walkStmt(st *ast.Stmt, boundHere *[]string) {
	var ephemeral []string
	defer func() {
		for _, name := range ephemeral {
			c.release(name)
		}
	}()

	switch st.Kind {
	case ast.KindLet:
		if st.VarValue != nil && st.VarValue.Kind == ast.KindBorrow {
			target := identName(st.VarValue.Target)
			// Bound to a named variable: this borrow outlives the
			// statement, released only when the enclosing block ends
			// (spec §4.8 "longer-lived &peek"), so it is tracked in
			// boundHere rather than this statement's ephemeral list.
			c.takeBorrow(st.VarValue, target, boundHere)
			c.state[st.VarName] = &borrowState{}
			c.env[st.VarName] = types.Reference(types.BorrowMode(st.VarValue.Mode), c.env[target])
		} else {
			c.checkMoveConflicts(st.VarValue, &ephemeral)
			if st.VarType != nil {
				c.env[st.VarName] = types.FromExpr(st.VarType)
			} else if t := resolvedType(st.VarValue); t != nil {
				c.env[st.VarName] = t
			}
		}

	case ast.KindRebind:
		if s, ok := c.state[st.VarName]; ok && s.active() {
			c.bag.Errorf(diag.CodeBorrowConflict, st.Span, "cannot rebind %q while it has an active borrow", st.VarName)
		}
		c.checkMoveConflicts(st.VarValue, &ephemeral)

	case ast.KindIf:
		c.checkMoveConflicts(st.Cond, &ephemeral)
		c.walkBlock(st.Then)
		for i := range st.Elifs {
			c.checkMoveConflicts(st.Elifs[i].Cond, &ephemeral)
			c.walkBlock(st.Elifs[i].Body)
		}
		c.walkBlock(st.Else)

	case ast.KindWhile:
		c.checkMoveConflicts(st.Cond, &ephemeral)
		c.walkBlock(st.Body)

	case ast.KindForeach:
		c.checkMoveConflicts(st.IterExpr, &ephemeral)
		c.walkBlock(st.Body)

	case ast.KindMatch:
		c.checkMoveConflicts(st.Subject, &ephemeral)
		for i := range st.Arms {
			c.walkBlock(st.Arms[i].Body)
		}

	case ast.KindReturn:
		c.checkMoveConflicts(st.ReturnValue, &ephemeral)

	case ast.KindExprStmt:
		c.checkMoveConflicts(st.Expr, &ephemeral)
	}
}

// checkMoveConflicts walks e looking for two things: inline
// `&peek`/`&poke` borrows (call-scoped — tracked in ephemeral for
// release at the end of this statement) and bare-identifier uses of an
// affine value while that variable has any active borrow (spec §4.8
// "moving or destroying x while it has any active borrow").
func (c *checker) checkMoveConflicts(e *ast.Expr, ephemeral *[]string) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.KindIdent:
		if t := c.env[e.Name]; t != nil && types.IsAffine(t) {
			if s, ok := c.state[e.Name]; ok && s.active() {
				c.bag.Errorf(diag.CodeBorrowConflict, e.Span, "cannot move %q while it has an active borrow", e.Name)
			}
		}

	case ast.KindBorrow:
		target := identName(e.Target)
		c.takeBorrow(e, target, ephemeral)

	case ast.KindBinary:
		c.checkMoveConflicts(e.Left, ephemeral)
		c.checkMoveConflicts(e.Right, ephemeral)
	case ast.KindUnary:
		c.checkMoveConflicts(e.Left, ephemeral)
	case ast.KindCall, ast.KindMethodCall:
		c.checkMoveConflicts(e.Receiver, ephemeral)
		for _, a := range e.Args {
			c.checkMoveConflicts(a, ephemeral)
		}
	case ast.KindFieldAccess:
		// A field borrow counts as a borrow of the containing struct for
		// exclusivity purposes (spec §4.8); reading a field for any other
		// purpose does not itself move or borrow the struct.
		if e.Object != nil && e.Object.Kind == ast.KindIdent {
			break
		}
		c.checkMoveConflicts(e.Object, ephemeral)
	case ast.KindArrayIndex:
		c.checkMoveConflicts(e.Array, ephemeral)
		c.checkMoveConflicts(e.Index, ephemeral)
	case ast.KindArrayLiteral:
		for _, el := range e.Elems {
			c.checkMoveConflicts(el, ephemeral)
		}
	case ast.KindRange:
		c.checkMoveConflicts(e.From, ephemeral)
		c.checkMoveConflicts(e.To, ephemeral)
	case ast.KindCast:
		c.checkMoveConflicts(e.CastExpr, ephemeral)
	case ast.KindInterpolation:
		for _, frag := range e.Fragments {
			c.checkMoveConflicts(frag.Expr, ephemeral)
		}
	case ast.KindPropagate:
		c.checkMoveConflicts(e.Inner, ephemeral)
	case ast.KindStructLit:
		for _, f := range e.Fields {
			c.checkMoveConflicts(f.Value, ephemeral)
		}
	case ast.KindEnumLit:
		for _, el := range e.Tuple {
			c.checkMoveConflicts(el, ephemeral)
		}
	}
}

// takeBorrow applies e's borrow (Mode/Target) against target's current
// state, reporting BorrowConflict or WriteThroughShared as appropriate,
// and — on success — updates state and records target for later
// release via *tracked.
func (c *checker) takeBorrow(e *ast.Expr, target string, tracked *[]string) {
	if target == "" {
		return
	}
	s := c.stateOf(target)

	if e.Mode == ast.BorrowPoke {
		if t := c.env[target]; t != nil && t.Kind == types.KindReference && t.Mode == types.BorrowPeek {
			// target is itself a shared reference value; taking &poke
			// through it is writing through a peek (spec §4.8).
			c.bag.Errorf(diag.CodeWriteThroughShared, e.Span, "cannot take `&poke` of %q through an existing `&peek` reference", target)
			return
		}
		if s.active() {
			c.bag.Errorf(diag.CodeBorrowConflict, e.Span, "cannot take `&poke %s`: already borrowed", target)
			return
		}
		s.exclusive = true
	} else {
		if s.exclusive {
			c.bag.Errorf(diag.CodeBorrowConflict, e.Span, "cannot take `&peek %s`: already exclusively borrowed", target)
			return
		}
		s.shared++
	}
	*tracked = append(*tracked, target)
}

func identName(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.KindIdent:
		return e.Name
	case ast.KindFieldAccess:
		return identName(e.Object)
	}
	return ""
}

func resolvedType(e *ast.Expr) *types.Type {
	if e == nil {
		return nil
	}
	t, _ := e.ResolvedType.(*types.Type)
	return t
}
