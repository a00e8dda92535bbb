// Package fingerprint implements C9, the Fingerprint & Linkage Engine
// (spec §4.9): a per-unit content hash over exactly the semantic
// dependencies visible to other units, plus a classification of every
// table symbol's cross-unit linkage. internal/cache persists both to
// SQLite so a host can skip recompiling a unit whose fingerprint and
// dependency fingerprints are unchanged.
//
// The hash is crypto/sha256 over an ordered byte stream, streamed with
// repeated h.Write calls rather than one-shot sha256.Sum256 on an
// assembled buffer, since the inputs arrive as several independently
// ordered sections (spec §4.9 "source text; public signatures of
// dependencies; structural summary; required instantiations").
package fingerprint

import (
	"crypto/sha256"
	"io"
	"sort"
	"strings"

	"github.com/oxhq/sushic/internal/ast"
	"github.com/oxhq/sushic/internal/symbols"
	"github.com/oxhq/sushic/internal/types"
)

// Linkage is a symbol's cross-unit visibility classification (spec
// §4.9).
type Linkage string

const (
	LinkagePrivate       Linkage = "private"
	LinkagePublic        Linkage = "public"
	LinkageWeakODR       Linkage = "weak-odr"
	LinkageWeakODRInline Linkage = "weak-odr-inline"
)

// UnitFingerprint is the per-unit content hash the incremental cache
// keys on.
type UnitFingerprint struct {
	Unit string
	Hash [32]byte
}

// SymbolLinkage is one table symbol's linkage classification.
type SymbolLinkage struct {
	Name  string
	Unit  string
	Class Linkage
}

// Result is C9's output: every unit's fingerprint and every symbol's
// linkage class.
type Result struct {
	Units   []UnitFingerprint
	Symbols []SymbolLinkage
}

// Compute derives both halves of C9's contract from the parsed unit set
// (with raw source text keyed by unit path, as the external loader
// delivered it) and the table left by C1..C8.
func Compute(units []*ast.Unit, sources map[string][]byte, table *symbols.Table) Result {
	byPath := make(map[string]*ast.Unit, len(units))
	for _, u := range units {
		byPath[u.Path] = u
	}

	var res Result
	for _, u := range units {
		res.Units = append(res.Units, UnitFingerprint{Unit: u.Path, Hash: hashUnit(u, byPath, sources[u.Path])})
	}
	res.Symbols = classifyLinkage(units, table)
	return res
}

func hashUnit(u *ast.Unit, byPath map[string]*ast.Unit, source []byte) [32]byte {
	h := sha256.New()
	h.Write(source)
	writeSep(h)

	for _, use := range u.Uses {
		dep, ok := byPath[use.Path]
		if !ok {
			// Unresolved use: the external loader already reports this
			// as a load error before the core ever sees the unit set
			// (spec §6); nothing to fold into the hash.
			continue
		}
		writePublicSignatures(h, dep)
	}
	writeSep(h)

	writeStructuralSummary(h, u)
	writeSep(h)

	for _, key := range requiredInstantiations(u) {
		h.Write([]byte(key))
		writeSep(h)
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeSep(h io.Writer) {
	h.Write([]byte{0})
}

// writePublicSignatures folds dep's externally-visible declarations —
// never bodies — into h, per spec §4.9's "public symbol signatures of
// each unit it depends on (not bodies)".
func writePublicSignatures(h io.Writer, dep *ast.Unit) {
	for _, fn := range dep.Functions {
		if fn.Visibility != ast.VisPublic {
			continue
		}
		h.Write([]byte(functionSignature(fn)))
		writeSep(h)
	}
	for _, s := range dep.Structs {
		if s.Visibility != ast.VisPublic {
			continue
		}
		h.Write([]byte(structSignature(s)))
		writeSep(h)
	}
	for _, e := range dep.Enums {
		if e.Visibility != ast.VisPublic {
			continue
		}
		h.Write([]byte(enumSignature(e)))
		writeSep(h)
	}
	for _, c := range dep.Consts {
		if c.Visibility != ast.VisPublic {
			continue
		}
		h.Write([]byte("const " + c.Name + " " + typeString(c.Type)))
		writeSep(h)
	}
}

// writeStructuralSummary folds u's own structs, enums, extensions, perk
// impls, and use statements into h (spec §4.9), regardless of
// visibility: a private struct's shape is still part of what makes this
// unit's compiled output what it is.
func writeStructuralSummary(h io.Writer, u *ast.Unit) {
	for _, s := range u.Structs {
		h.Write([]byte(structSignature(s)))
		writeSep(h)
	}
	for _, e := range u.Enums {
		h.Write([]byte(enumSignature(e)))
		writeSep(h)
	}
	for _, ext := range u.Extensions {
		var names []string
		for _, m := range ext.Methods {
			names = append(names, m.Name)
		}
		h.Write([]byte("extension " + typeString(ext.ForType) + " {" + strings.Join(names, ",") + "}"))
		writeSep(h)
	}
	for _, impl := range u.Impls {
		var names []string
		for _, m := range impl.Methods {
			names = append(names, m.Name)
		}
		h.Write([]byte("impl " + impl.PerkName + " for " + typeString(impl.ForType) + " {" + strings.Join(names, ",") + "}"))
		writeSep(h)
	}
	for _, use := range u.Uses {
		h.Write([]byte("use " + use.Path))
		writeSep(h)
	}
}

func functionSignature(fn *ast.FunctionDecl) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Name+":"+typeString(p.Type))
	}
	recv := ""
	if fn.Receiver != nil {
		recv = typeString(fn.Receiver.Type) + "."
	}
	return "fn " + recv + fn.Name + "(" + strings.Join(params, ",") + ") " + typeString(fn.ReturnType)
}

func structSignature(s *ast.StructDecl) string {
	var fields []string
	for _, f := range s.Fields {
		fields = append(fields, f.Name+":"+typeString(f.Type))
	}
	return "struct " + s.Name + "{" + strings.Join(fields, ",") + "}"
}

func enumSignature(e *ast.EnumDecl) string {
	var variants []string
	for _, v := range e.Variants {
		var payload []string
		for _, p := range v.Payload {
			payload = append(payload, typeString(p))
		}
		variants = append(variants, v.Name+"("+strings.Join(payload, ",")+")")
	}
	return "enum " + e.Name + "{" + strings.Join(variants, ",") + "}"
}

func typeString(te *ast.TypeExpr) string {
	t := types.FromExpr(te)
	if t == nil {
		return "()"
	}
	return t.String()
}

// requiredInstantiations returns the sorted, deduplicated set of generic
// instantiations syntactically named by u's own declarations — params,
// return types, fields, and variant payloads. This is a conservative
// structural scan, not a full call-site walk (that duplicates C3's
// reachability analysis over the whole program); an expression-level
// instantiation this scan misses still affects this unit's compiled
// output only through a symbol C4 registers, which is covered
// separately by the "public signatures of dependencies" section when
// that symbol is public.
func requiredInstantiations(u *ast.Unit) []string {
	seen := map[string]bool{}
	collect := func(te *ast.TypeExpr) { collectInstantiations(te, seen) }

	for _, fn := range u.Functions {
		walkFunctionTypes(fn, collect)
	}
	for _, s := range u.Structs {
		for _, f := range s.Fields {
			collect(f.Type)
		}
		for _, m := range s.Methods {
			walkFunctionTypes(m, collect)
		}
	}
	for _, e := range u.Enums {
		for _, v := range e.Variants {
			for _, p := range v.Payload {
				collect(p)
			}
		}
		for _, m := range e.Methods {
			walkFunctionTypes(m, collect)
		}
	}
	for _, ext := range u.Extensions {
		collect(ext.ForType)
		for _, m := range ext.Methods {
			walkFunctionTypes(m, collect)
		}
	}
	for _, impl := range u.Impls {
		collect(impl.ForType)
		for _, m := range impl.Methods {
			walkFunctionTypes(m, collect)
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func walkFunctionTypes(fn *ast.FunctionDecl, collect func(*ast.TypeExpr)) {
	if fn.Receiver != nil {
		collect(fn.Receiver.Type)
	}
	for _, p := range fn.Params {
		collect(p.Type)
	}
	collect(fn.ReturnType)
}

func collectInstantiations(te *ast.TypeExpr, seen map[string]bool) {
	if te == nil {
		return
	}
	switch te.Kind {
	case ast.TypeNominal:
		if len(te.TypeArgs) > 0 {
			if t := types.FromExpr(te); t != nil {
				seen[types.Mangle(t)] = true
			}
		}
		for _, a := range te.TypeArgs {
			collectInstantiations(a, seen)
		}
	case ast.TypeFixedArray, ast.TypeDynArray:
		collectInstantiations(te.Elem, seen)
	case ast.TypeReference:
		collectInstantiations(te.Pointee, seen)
	case ast.TypeOwn:
		collectInstantiations(te.Pointee, seen)
	case ast.TypeResultShort, ast.TypeResult:
		collectInstantiations(te.Ok, seen)
		collectInstantiations(te.Err, seen)
	}
}

// classifyLinkage walks every symbol the table holds and assigns it a
// linkage class (spec §4.9). A symbol is weak-odr-inline if its name
// carries C6's "hash__" runtime-support prefix; weak-odr if the table
// holds it but no unit in the program declared it directly (i.e. it is
// one of C4's monomorphized clones); otherwise private or public per its
// own declared Visibility.
func classifyLinkage(units []*ast.Unit, table *symbols.Table) []SymbolLinkage {
	declared := declaredNames(units)

	var out []SymbolLinkage
	for _, fn := range table.Functions() {
		out = append(out, SymbolLinkage{Name: fn.Decl.Name, Unit: fn.Unit, Class: classify(fn.Decl.Name, fn.Decl.Visibility, declared)})
	}
	for _, s := range table.Structs() {
		out = append(out, SymbolLinkage{Name: s.Decl.Name, Unit: s.Unit, Class: classify(s.Decl.Name, s.Decl.Visibility, declared)})
	}
	for _, e := range table.Enums() {
		out = append(out, SymbolLinkage{Name: e.Decl.Name, Unit: e.Unit, Class: classify(e.Decl.Name, e.Decl.Visibility, declared)})
	}
	for _, c := range table.Constants() {
		out = append(out, SymbolLinkage{Name: c.Decl.Name, Unit: c.Unit, Class: classify(c.Decl.Name, c.Decl.Visibility, declared)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Unit != out[j].Unit {
			return out[i].Unit < out[j].Unit
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func classify(name string, vis ast.Visibility, declared map[string]bool) Linkage {
	if strings.HasPrefix(name, "hash__") {
		return LinkageWeakODRInline
	}
	if !declared[name] {
		return LinkageWeakODR
	}
	if vis == ast.VisPublic {
		return LinkagePublic
	}
	return LinkagePrivate
}

// declaredNames is the set of names written directly in the parsed
// units, as opposed to names C4/C6 synthesized afterward.
func declaredNames(units []*ast.Unit) map[string]bool {
	out := map[string]bool{}
	for _, u := range units {
		for _, fn := range u.Functions {
			out[fn.Name] = true
		}
		for _, s := range u.Structs {
			out[s.Name] = true
			for _, m := range s.Methods {
				out[m.Name] = true
			}
		}
		for _, e := range u.Enums {
			out[e.Name] = true
			for _, m := range e.Methods {
				out[m.Name] = true
			}
		}
		for _, impl := range u.Impls {
			for _, m := range impl.Methods {
				out[m.Name] = true
			}
		}
		for _, ext := range u.Extensions {
			for _, m := range ext.Methods {
				out[m.Name] = true
			}
		}
		for _, c := range u.Consts {
			out[c.Name] = true
		}
	}
	return out
}
