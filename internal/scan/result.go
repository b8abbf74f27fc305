package scan

import (
	"sort"

	"aotc/internal/image"
	"aotc/internal/metadata"
)

// Result is the immutable output of one scan: the over-approximated
// reachable universe plus the layout decisions derived from it.
type Result struct {
	methods map[string]struct{}
	types   map[string]struct{}

	vtables map[string][]string
	dicts   map[string][]string
	devirt  map[image.VirtualSite]string
	stubs   []string
}

// Methods returns the scanned method universe (read-only).
func (r *Result) Methods() map[string]struct{} { return r.methods }

// Types returns the scanned constructed-type universe (read-only).
func (r *Result) Types() map[string]struct{} { return r.types }

// IncludesMethod reports membership in the scanned method universe.
func (r *Result) IncludesMethod(identity string) bool {
	_, ok := r.methods[identity]
	return ok
}

// IncludesType reports membership in the scanned constructed-type
// universe.
func (r *Result) IncludesType(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Universe snapshots the scanned sets for the metadata-manager freeze.
func (r *Result) Universe() metadata.Universe {
	return metadata.Universe{Methods: r.methods, Types: r.types}
}

// UsedSlots returns the virtual-dispatch-table slice for a type: the
// slot names the scan saw dispatched, in declared slot order.
func (r *Result) UsedSlots(typeName string) []string {
	return r.vtables[typeName]
}

// Layout returns the generic-dictionary layout for an instantiated
// method identity.
func (r *Result) Layout(identity string) []string {
	return r.dicts[identity]
}

// Devirtualize answers whether a virtual call site resolves to exactly
// one target under the scanned universe.
func (r *Result) Devirtualize(site image.VirtualSite) (string, bool) {
	target, ok := r.devirt[site]
	return target, ok
}

// Stubs returns the interop stubs the scanned call patterns require,
// in first-seen order.
func (r *Result) Stubs() []string {
	return append([]string(nil), r.stubs...)
}

// SortedMethods returns the method universe sorted, for diagnostics.
func (r *Result) SortedMethods() []string {
	out := make([]string, 0, len(r.methods))
	for m := range r.methods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
