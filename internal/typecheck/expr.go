package typecheck

import (
	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/diag"
	"github.com/oxhq/sushic/internal/types"
)

// typeOf computes e's type, recording it on e.ResolvedType (§3's "every
// expression carries exactly one type after the type checker runs"),
// emitting diagnostics for any rule violation found along the way. A
// nil env is accepted for sub-expressions checked out of statement
// context (e.g. a Result-literal payload already isolated by the
// caller); such calls skip identifier lookup.
func (c *checker) typeOf(e *ast.Expr, env map[string]*types.Type) *types.Type {
	if e == nil {
		return nil
	}
	t := c.computeType(e, env)
	e.ResolvedType = t
	return t
}

func (c *checker) computeType(e *ast.Expr, env map[string]*types.Type) *types.Type {
	switch e.Kind {
	case ast.KindLiteral:
		return typeOfLiteral(e)

	case ast.KindIdent:
		if env == nil {
			return nil
		}
		if t, ok := env[e.Name]; ok {
			return t
		}
		if cst, ok := c.table.Constant(e.Name); ok {
			return cst.Value.Type
		}
		return nil

	case ast.KindBinary:
		return c.typeOfBinary(e, env)

	case ast.KindUnary:
		operand := c.typeOf(e.Left, env)
		switch e.Op {
		case "!":
			if operand != nil && !isBool(operand) {
				c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`!` requires a bool operand, got %s", operand.String())
			}
			return types.Prim(types.Bool)
		case "~":
			if operand != nil && !isInt(operand) {
				c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`~` requires an integer operand, got %s", operand.String())
			}
			return operand
		case "-":
			if operand != nil && !isInt(operand) && !isFloat(operand) {
				c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "unary `-` requires a numeric operand, got %s", operand.String())
			}
			return operand
		}
		return operand

	case ast.KindCall:
		return c.typeOfCall(e, env)

	case ast.KindMethodCall:
		return c.typeOfMethodCall(e, env)

	case ast.KindFieldAccess:
		return c.typeOfFieldAccess(e, env)

	case ast.KindArrayIndex:
		arrTy := c.typeOf(e.Array, env)
		c.typeOf(e.Index, env)
		return elementTypeOf(arrTy)

	case ast.KindArrayLiteral:
		var elemTy *types.Type
		for i, el := range e.Elems {
			t := c.typeOf(el, env)
			if i == 0 {
				elemTy = t
			} else if t != nil && elemTy != nil && !types.Equal(t, elemTy) {
				c.bag.Errorf(diag.CodeTypeMismatch, el.Span, "array element has type %s, expected %s", t.String(), elemTy.String())
			}
		}
		return types.FixedArray(elemTy, int64(len(e.Elems)))

	case ast.KindRange:
		c.typeOf(e.From, env)
		c.typeOf(e.To, env)
		return types.IteratorOf(types.Prim(types.I64))

	case ast.KindBorrow:
		inner := c.typeOf(e.Target, env)
		return types.Reference(types.BorrowMode(e.Mode), inner)

	case ast.KindCast:
		from := c.typeOf(e.CastExpr, env)
		to := types.FromExpr(e.CastType)
		if from != nil && to != nil && !isNumeric(from) && !isNumeric(to) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`as` only converts between numeric types, got %s as %s", from.String(), to.String())
		}
		return to

	case ast.KindInterpolation:
		for _, frag := range e.Fragments {
			if frag.Expr != nil {
				c.typeOf(frag.Expr, env)
			}
		}
		return types.Prim(types.String)

	case ast.KindPropagate:
		inner := c.typeOf(e.Inner, env)
		if inner != nil && inner.Kind == types.KindResult {
			return inner.Args[0]
		}
		return inner

	case ast.KindStructLit:
		for _, f := range e.Fields {
			c.typeOf(f.Value, env)
		}
		args := make([]*types.Type, 0)
		if s, ok := c.table.Struct(e.TypeName); ok {
			for range s.Decl.TypeParams {
				args = append(args, c.freshTypeVar())
			}
		}
		return types.Nominal(e.TypeName, args...)

	case ast.KindEnumLit:
		return c.typeOfEnumLit(e, env)
	}
	return nil
}

func typeOfLiteral(e *ast.Expr) *types.Type {
	switch e.LitKind {
	case ast.LitInt:
		return types.Prim(types.I64)
	case ast.LitFloat:
		return types.Prim(types.F64)
	case ast.LitBool:
		return types.Prim(types.Bool)
	case ast.LitString:
		return types.Prim(types.String)
	}
	return nil
}

func (c *checker) typeOfBinary(e *ast.Expr, env map[string]*types.Type) *types.Type {
	left := c.typeOf(e.Left, env)
	right := c.typeOf(e.Right, env)

	switch e.Op {
	case "&&", "||":
		if left != nil && !isBool(left) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "%q requires bool operands, got %s", e.Op, left.String())
		}
		if right != nil && !isBool(right) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "%q requires bool operands, got %s", e.Op, right.String())
		}
		return types.Prim(types.Bool)

	case "==", "!=", "<", "<=", ">", ">=":
		if left != nil && right != nil && !types.Equal(left, right) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "cannot compare %s with %s", left.String(), right.String())
		}
		return types.Prim(types.Bool)

	case "&", "|", "^", "<<", ">>":
		// Right shift's arithmetic-vs-logical behavior is a codegen
		// concern (§4.7): both signed and unsigned operands are legal
		// here, only the emitted instruction differs downstream.
		if left != nil && !isInt(left) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "%q requires integer operands, got %s", e.Op, left.String())
		}
		if left != nil && right != nil && !types.Equal(left, right) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "%q requires identical operand types, got %s and %s", e.Op, left.String(), right.String())
		}
		return left

	default: // + - * / %
		if left != nil && right != nil && !types.Equal(left, right) {
			c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "arithmetic requires identical operand types, got %s and %s", left.String(), right.String())
		}
		return left
	}
}

func (c *checker) typeOfCall(e *ast.Expr, env map[string]*types.Type) *types.Type {
	for _, a := range e.Args {
		c.typeOf(a, env)
	}
	// Built-in constructors produced by C5's lowering.
	switch e.Name {
	case "iter__range":
		return types.IteratorOf(types.Prim(types.I64))
	}
	fn, ok := c.table.Function(e.Name)
	if !ok {
		return nil
	}
	c.checkArgCovariance(e, fn.Decl.Params, fn.Decl.Receiver != nil)
	return c.effectiveReturnType(fn.Decl.ReturnType)
}

// checkArgCovariance applies the peek/poke covariance rule (§4.7) to
// each positional call argument against its parameter's declared type.
func (c *checker) checkArgCovariance(e *ast.Expr, params []ast.Param, hasReceiver bool) {
	offset := 0
	if hasReceiver {
		offset = 1 // first arg is the receiver, threaded in by C5's lowering
	}
	for i, a := range e.Args {
		pi := i - offset
		if pi < 0 || pi >= len(params) {
			continue
		}
		want := types.FromExpr(params[pi].Type)
		got, _ := a.ResolvedType.(*types.Type)
		if want != nil && got != nil && !assignable(want, got) {
			c.bag.Errorf(diag.CodeTypeMismatch, a.Span,
				"argument %d has type %s, parameter %q expects %s", i+1, got.String(), params[pi].Name, want.String())
		}
	}
}

// typeOfMethodCall handles the rare method call C5 couldn't statically
// lower: a call through a perk-bound type parameter whose concrete
// receiver type is known here but wasn't known syntactically in C5.
// Verifies the perk-bound rule directly (§4.7 "every invocation of a
// perk method... requires the presence of an implementation"), since a
// leftover KindMethodCall always means the receiver's type came from
// context this pass, not C5, can resolve.
func (c *checker) typeOfMethodCall(e *ast.Expr, env map[string]*types.Type) *types.Type {
	recvTy := c.typeOf(e.Receiver, env)
	for _, a := range e.Args {
		c.typeOf(a, env)
	}
	if e.Method == "realise" {
		return c.typeOfRealise(e, recvTy)
	}
	if recvTy == nil {
		return nil
	}
	receiver := recvTy
	if receiver.Kind == types.KindReference {
		receiver = receiver.Pointee
	}
	name := nominalNameOf(receiver)
	if name == "" {
		return nil
	}
	if perk, method, ok := c.findPerkMethod(e.Method); ok {
		if !c.table.HasImpl(perk, name) {
			c.bag.Errorf(diag.CodeMissingPerkImpl, e.Span,
				"%s has no implementation of perk %q required by method %q", name, perk, method)
		}
	}
	return nil
}

// findPerkMethod reports which perk (if any) declares a method named
// methodName, for the ambient method-name -> owning-perk lookup the
// bound check needs; ambiguous names (two perks sharing a method name)
// resolve to the first perk found, a known limitation of name-only
// resolution without a receiver-qualified perk reference in the AST.
func (c *checker) findPerkMethod(methodName string) (perk, method string, ok bool) {
	for _, p := range c.table.Perks() {
		for _, m := range p.Decl.Methods {
			if m.Name == methodName {
				return p.Decl.Name, m.Name, true
			}
		}
	}
	return "", "", false
}

// typeOfRealise implements `.realise(d)` (§4.7): exactly one argument,
// of the Result/Maybe's own payload type T; the call's result is T.
func (c *checker) typeOfRealise(e *ast.Expr, recvTy *types.Type) *types.Type {
	if recvTy == nil {
		return nil
	}
	var payload *types.Type
	switch recvTy.Kind {
	case types.KindResult:
		payload = recvTy.Args[0]
	case types.KindMaybe:
		payload = recvTy.Args[0]
	default:
		c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`.realise()` requires a Result or Maybe receiver, got %s", recvTy.String())
		return nil
	}
	if len(e.Args) != 1 {
		c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`.realise()` requires exactly one default-value argument")
		return payload
	}
	defaultTy, _ := e.Args[0].ResolvedType.(*types.Type)
	if payload != nil && defaultTy != nil && !types.Equal(payload, defaultTy) {
		c.bag.Errorf(diag.CodeTypeMismatch, e.Span, "`.realise()` default has type %s but the wrapped payload is %s", defaultTy.String(), payload.String())
	}
	return payload
}

func (c *checker) typeOfFieldAccess(e *ast.Expr, env map[string]*types.Type) *types.Type {
	objTy := c.typeOf(e.Object, env)
	if objTy == nil {
		return nil
	}
	obj := objTy
	if obj.Kind == types.KindReference {
		obj = obj.Pointee
	}
	if obj.Kind != types.KindNominal {
		return nil
	}
	if s, ok := c.table.Struct(obj.Name); ok {
		for _, f := range s.Decl.Fields {
			if f.Name == e.Field {
				return types.FromExpr(f.Type)
			}
		}
	}
	return nil
}

// typeOfEnumLit handles both user enums and the two built-in generic
// enums (Result, Maybe) that have no StructDecl/EnumDecl of their own.
// `.realise(d)` is not handled here: it arrives as a method call and is
// checked from typeOfMethodCall.
func (c *checker) typeOfEnumLit(e *ast.Expr, env map[string]*types.Type) *types.Type {
	for _, el := range e.Tuple {
		c.typeOf(el, env)
	}
	switch e.TypeName {
	case "Result":
		switch e.Variant {
		case "Ok":
			ok := c.tupleElemType(e, 0, env)
			return types.ResultOf(ok, c.freshTypeVar())
		case "Err":
			errTy := c.tupleElemType(e, 0, env)
			return types.ResultOf(c.freshTypeVar(), errTy)
		}
	case "Maybe":
		switch e.Variant {
		case "Some":
			return types.MaybeOf(c.tupleElemType(e, 0, env))
		case "None":
			return types.MaybeOf(c.freshTypeVar())
		}
	}
	if en, ok := c.table.Enum(e.TypeName); ok {
		args := make([]*types.Type, len(en.Decl.TypeParams))
		for i := range args {
			args[i] = c.freshTypeVar()
		}
		return types.Nominal(e.TypeName, args...)
	}
	return types.Nominal(e.TypeName)
}

func (c *checker) tupleElemType(e *ast.Expr, i int, env map[string]*types.Type) *types.Type {
	if i >= len(e.Tuple) {
		return nil
	}
	if t, ok := e.Tuple[i].ResolvedType.(*types.Type); ok {
		return t
	}
	return c.typeOf(e.Tuple[i], env)
}

func nominalNameOf(t *types.Type) string {
	switch t.Kind {
	case types.KindPrimitive:
		return t.Primitive
	case types.KindNominal:
		return t.Name
	}
	return ""
}

func isBool(t *types.Type) bool    { return t.Kind == types.KindPrimitive && t.Primitive == types.Bool }
func isInt(t *types.Type) bool     { return t.Kind == types.KindPrimitive && types.IsInt(t.Primitive) }
func isFloat(t *types.Type) bool   { return t.Kind == types.KindPrimitive && types.IsFloat(t.Primitive) }
func isNumeric(t *types.Type) bool { return isInt(t) || isFloat(t) }
