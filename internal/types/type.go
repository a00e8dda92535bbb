// Package types implements Sushi's type algebra (spec §3 "Types"): the
// closed set of shapes every resolved expression carries exactly one of,
// after C7.
package types

import (
	"strconv"
	"strings"
)

// Kind tags a resolved type's shape.
type Kind int

const (
	KindPrimitive Kind = iota
	KindFixedArray
	KindDynArray
	KindReference
	KindNominal
	KindOwn
	KindTypeParam
	KindResult
	KindMaybe
	KindList
	KindHashMap
	KindIterator
)

// BorrowMode mirrors ast.BorrowMode without importing the ast package, so
// the type algebra has no dependency on parse-tree shapes.
type BorrowMode string

const (
	BorrowPeek BorrowMode = "peek"
	BorrowPoke BorrowMode = "poke"
)

// Primitive name constants.
const (
	I8     = "i8"
	I16    = "i16"
	I32    = "i32"
	I64    = "i64"
	U8     = "u8"
	U16    = "u16"
	U32    = "u32"
	U64    = "u64"
	F32    = "f32"
	F64    = "f64"
	Bool   = "bool"
	String = "string"
	Unit   = "~"
)

var signedInts = map[string]bool{I8: true, I16: true, I32: true, I64: true}
var unsignedInts = map[string]bool{U8: true, U16: true, U32: true, U64: true}
var floats = map[string]bool{F32: true, F64: true}

// IsSignedInt reports whether name is a signed integer primitive.
func IsSignedInt(name string) bool { return signedInts[name] }

// IsUnsignedInt reports whether name is an unsigned integer primitive.
func IsUnsignedInt(name string) bool { return unsignedInts[name] }

// IsInt reports whether name is any integer primitive.
func IsInt(name string) bool { return signedInts[name] || unsignedInts[name] }

// IsFloat reports whether name is a floating-point primitive.
func IsFloat(name string) bool { return floats[name] }

// Type is a fully resolved type: a primitive, a fixed/dynamic array, a
// reference, a nominal struct/enum, Own<T>, a type parameter, or one of
// the built-in generics (Result, Maybe, List, HashMap, Iterator).
//
// Type values are immutable once constructed; the monomorphizer (C4)
// never mutates a Type in place, it builds fresh ones (spec §9
// "Monomorphization via tree cloning... avoid shared substructure").
type Type struct {
	Kind Kind

	// KindPrimitive
	Primitive string

	// KindFixedArray / KindDynArray
	Elem *Type
	Len  int64 // meaningful only for KindFixedArray

	// KindReference
	Mode    BorrowMode
	Pointee *Type

	// KindNominal: fully-qualified name plus instantiation arguments.
	// A nominal with len(Args) == 0 is a non-generic struct/enum.
	Name string
	Args []*Type

	// KindOwn
	Owned *Type

	// KindTypeParam: meaningful only inside the declaration that
	// introduced it (spec §3 invariant); resolved away by C4.
	ParamName string
	Bounds    []string

	// KindResult / KindMaybe / KindList / KindHashMap / KindIterator:
	// reuse Args: Result/HashMap take two, Maybe/List/Iterator take one.
}

// Prim constructs a primitive type.
func Prim(name string) *Type { return &Type{Kind: KindPrimitive, Primitive: name} }

// FixedArray constructs a `T[N]` type.
func FixedArray(elem *Type, n int64) *Type {
	return &Type{Kind: KindFixedArray, Elem: elem, Len: n}
}

// DynArray constructs a `T[]` type.
func DynArray(elem *Type) *Type { return &Type{Kind: KindDynArray, Elem: elem} }

// Reference constructs a `&peek T` / `&poke T` type.
func Reference(mode BorrowMode, pointee *Type) *Type {
	return &Type{Kind: KindReference, Mode: mode, Pointee: pointee}
}

// Nominal constructs a user-defined (struct/enum) type, with zero or more
// instantiation arguments.
func Nominal(name string, args ...*Type) *Type {
	return &Type{Kind: KindNominal, Name: name, Args: args}
}

// OwnOf constructs `Own<T>`.
func OwnOf(inner *Type) *Type { return &Type{Kind: KindOwn, Owned: inner} }

// Param constructs an unresolved type parameter with its perk bounds.
func Param(name string, bounds ...string) *Type {
	return &Type{Kind: KindTypeParam, ParamName: name, Bounds: bounds}
}

// ResultOf constructs `Result<T, E>`.
func ResultOf(ok, err *Type) *Type { return &Type{Kind: KindResult, Args: []*Type{ok, err}} }

// MaybeOf constructs `Maybe<T>`.
func MaybeOf(inner *Type) *Type { return &Type{Kind: KindMaybe, Args: []*Type{inner}} }

// ListOf constructs `List<T>`.
func ListOf(inner *Type) *Type { return &Type{Kind: KindList, Args: []*Type{inner}} }

// HashMapOf constructs `HashMap<K, V>`.
func HashMapOf(key, val *Type) *Type { return &Type{Kind: KindHashMap, Args: []*Type{key, val}} }

// IteratorOf constructs `Iterator<T>`.
func IteratorOf(inner *Type) *Type { return &Type{Kind: KindIterator, Args: []*Type{inner}} }

// ResultOk / ResultErr extract the two arguments of a Result type; panics
// if t is not KindResult — callers must check Kind first.
func (t *Type) ResultOk() *Type  { return t.Args[0] }
func (t *Type) ResultErr() *Type { return t.Args[1] }

// Equal reports structural equality between two resolved types.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPrimitive:
		return a.Primitive == b.Primitive
	case KindFixedArray:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case KindDynArray:
		return Equal(a.Elem, b.Elem)
	case KindReference:
		return a.Mode == b.Mode && Equal(a.Pointee, b.Pointee)
	case KindNominal:
		if a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case KindOwn:
		return Equal(a.Owned, b.Owned)
	case KindTypeParam:
		return a.ParamName == b.ParamName
	case KindResult, KindMaybe, KindList, KindHashMap, KindIterator:
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsAffine reports whether t moves when passed by value (spec §4.2): a
// dynamic array, HashMap, List or Own<T>, or a fixed array of one of
// those. Struct and enum types are reported as not affine; their fields
// are not inspected.
func IsAffine(t *Type) bool {
	switch t.Kind {
	case KindDynArray, KindHashMap, KindList, KindOwn:
		return true
	case KindFixedArray:
		return IsAffine(t.Elem)
	case KindNominal:
		// Struct/enum fields are not visible to this package, so a
		// nominal type is reported as not affine.
		return false
	default:
		return false
	}
}

// String renders a type in surface syntax for diagnostics (e.g. "&peek i32").
// Primitives render as in the mangling scheme (spec §4.4); references and
// other shapes do not.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive
	case KindFixedArray:
		return t.Elem.String() + "[" + strconv.FormatInt(t.Len, 10) + "]"
	case KindDynArray:
		return t.Elem.String() + "[]"
	case KindReference:
		return "&" + string(t.Mode) + " " + t.Pointee.String()
	case KindNominal:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return t.Name + "<" + strings.Join(parts, ", ") + ">"
	case KindOwn:
		return "Own<" + t.Owned.String() + ">"
	case KindTypeParam:
		return t.ParamName
	case KindResult:
		return "Result<" + t.Args[0].String() + ", " + t.Args[1].String() + ">"
	case KindMaybe:
		return "Maybe<" + t.Args[0].String() + ">"
	case KindList:
		return "List<" + t.Args[0].String() + ">"
	case KindHashMap:
		return "HashMap<" + t.Args[0].String() + ", " + t.Args[1].String() + ">"
	case KindIterator:
		return "Iterator<" + t.Args[0].String() + ">"
	}
	return "?"
}
