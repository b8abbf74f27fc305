// Package interop manages the native interop stubs a compilation needs.
// Like the metadata manager, the stub manager starts usage-based and is
// replaced after a scan by one derived from the scanned call patterns.
package interop

import "sort"

// StubManager collects the interop stub methods required by the build.
type StubManager struct {
	derived bool
	stubs   map[string]struct{}
	order   []string
}

// NewUsageBased starts a stub manager that records stubs as they are
// requested during root discovery and scanning.
func NewUsageBased() *StubManager {
	return &StubManager{stubs: make(map[string]struct{})}
}

// NewDerived builds the scan-derived manager: the stub set fixed by the
// scanner's devirtualization-aware call pattern analysis.
func NewDerived(stubs []string) *StubManager {
	m := &StubManager{derived: true, stubs: make(map[string]struct{}, len(stubs))}
	for _, s := range stubs {
		if _, ok := m.stubs[s]; ok {
			continue
		}
		m.stubs[s] = struct{}{}
		m.order = append(m.order, s)
	}
	return m
}

// Derived reports whether the manager came from a scan result.
func (m *StubManager) Derived() bool { return m.derived }

// Request records a stub demand. Requests against a derived manager are
// ignored: its set is already fixed by analysis.
func (m *StubManager) Request(method string) {
	if m.derived {
		return
	}
	if _, ok := m.stubs[method]; ok {
		return
	}
	m.stubs[method] = struct{}{}
	m.order = append(m.order, method)
}

// Requires reports whether a stub for the method is in the set.
func (m *StubManager) Requires(method string) bool {
	_, ok := m.stubs[method]
	return ok
}

// RootMethods returns the stub methods as compilation-root demands, in
// first-request order.
func (m *StubManager) RootMethods() []string {
	return append([]string(nil), m.order...)
}

// Sorted returns the stub set sorted, for diagnostics.
func (m *StubManager) Sorted() []string {
	out := make([]string, 0, len(m.stubs))
	for s := range m.stubs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
