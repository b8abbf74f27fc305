package codegen

import "sort"

// SymbolKind classifies an object-file symbol.
type SymbolKind uint8

const (
	// SymbolCode is a compiled method body.
	SymbolCode SymbolKind = iota + 1
	// SymbolStub is a generated interop stub.
	SymbolStub
	// SymbolImport references a method compiled outside this module
	// group.
	SymbolImport
	// SymbolData is synthesized read-only data (runtime configuration
	// blob, helper tables).
	SymbolData
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolCode:
		return "code"
	case SymbolStub:
		return "stub"
	case SymbolImport:
		return "import"
	case SymbolData:
		return "data"
	default:
		return "unknown"
	}
}

// Symbol is one emitted object-file symbol.
type Symbol struct {
	Name string     `msgpack:"name"`
	Kind SymbolKind `msgpack:"kind"`
	Size int        `msgpack:"size,omitempty"`
}

// Result is the concrete universe produced by the compile phase.
type Result struct {
	// Methods is the compiled-method set: code and stubs, excluding
	// imports.
	Methods map[string]struct{}
	// Types is the constructed-type set.
	Types map[string]struct{}
	// Symbols lists emitted symbols sorted by name.
	Symbols []Symbol
	// VerifierExclusions are name prefixes of entities the scanner does
	// not model: compiler-synthesized helpers and intrinsic expansions.
	// The consistency verifier filters them from both directions.
	VerifierExclusions []string
}

// IncludesMethod reports membership in the compiled-method set.
func (r *Result) IncludesMethod(identity string) bool {
	_, ok := r.Methods[identity]
	return ok
}

// SortedMethods returns the compiled set sorted, for diagnostics.
func (r *Result) SortedMethods() []string {
	out := make([]string, 0, len(r.Methods))
	for m := range r.Methods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
