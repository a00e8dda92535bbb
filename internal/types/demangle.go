package types

import (
	"regexp"
	"strings"
)

// builtinArity is the number of type arguments Mangle joins onto each
// built-in generic's name with a "__" separator (spec §4.4). A user
// struct/enum's own arity isn't recoverable from the mangled string
// alone — see Demangle's doc comment.
var builtinArity = map[string]int{
	"Maybe":    1,
	"List":     1,
	"Iterator": 1,
	"Result":   2,
	"HashMap":  2,
	"Own":      1,
	"arr":      1,
}

var fixedArrayName = regexp.MustCompile(`^arr\d+$`)

var refPrefix = regexp.MustCompile(`^ref_(peek|poke)_`)

// Demangle inverts Mangle/MangledName (spec §8 law 4: "the mangled name
// ... round-trips with a demangler"), recovering the outermost
// template name and its type-argument vector, each argument itself
// still in mangled form (call Demangle again to descend further).
//
// Built-in generics (Maybe, List, Iterator, Result, HashMap, arr/arrN,
// Own, ref_peek/ref_poke) round-trip exactly, since Mangle's "__"-join
// arity for each of them is fixed and known here. A user-defined
// generic struct or enum's arity is not encoded in the mangled string
// itself — Mangle<Pair<i32, string>> and a 3-argument generic both
// just look like `Name__a__b...`-shaped text — so for any template not
// in the built-in table, Demangle returns every remaining "__"-joined
// segment as a separate top-level argument without attempting to
// regroup nested ones; a caller that needs an exact split for a
// user-defined generic must consult the symbol table for its declared
// arity instead.
func Demangle(mangled string) (template string, args []string) {
	if m := refPrefix.FindStringSubmatchIndex(mangled); m != nil {
		mode := mangled[m[2]:m[3]]
		rest := mangled[m[1]:]
		return "ref_" + mode, []string{rest}
	}

	tokens := strings.Split(mangled, "__")
	if len(tokens) == 1 {
		return tokens[0], nil
	}

	head := tokens[0]
	arity, known := arityOf(head)
	if !known {
		return head, tokens[1:]
	}

	idx := 1
	for i := 0; i < arity; i++ {
		args = append(args, consumeArg(tokens, &idx))
	}
	return head, args
}

func arityOf(name string) (int, bool) {
	if n, ok := builtinArity[name]; ok {
		return n, true
	}
	if fixedArrayName.MatchString(name) {
		return 1, true
	}
	return 0, false
}

// consumeArg greedily pulls however many tokens the argument starting
// at *idx needs to stay self-contained, recursing when that argument
// is itself a known built-in generic.
func consumeArg(tokens []string, idx *int) string {
	if *idx >= len(tokens) {
		return ""
	}
	start := *idx
	name := tokens[*idx]
	*idx++

	arity, known := arityOf(name)
	if !known {
		return name
	}
	for i := 0; i < arity; i++ {
		consumeArg(tokens, idx)
	}
	return strings.Join(tokens[start:*idx], "__")
}
