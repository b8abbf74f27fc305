// Package metadata tracks which types and methods need runtime metadata.
//
// The manager is a tagged variant with a one-way lifecycle:
//
//	UsageBased -> AnalysisBased        (Freeze, exactly once, after a scan)
//	UsageBased                         (stays, when no scan runs)
//	Empty                              (reflection compiled out entirely)
//
// UsageBased is the only mutable state and has a single writer at a
// time: root discovery, then the scanner. AnalysisBased answers
// inclusion queries from the frozen scan universe; any attempt to
// record into it is an internal error, not a silent no-op.
package metadata

import (
	"sort"

	"aotc/internal/diag"
)

// State tags the manager variant.
type State uint8

const (
	// StateUsageBased records every type/method touched while roots are
	// discovered and while the scanner runs.
	StateUsageBased State = iota + 1
	// StateAnalysisBased is the frozen snapshot derived from the scan
	// result; read-only.
	StateAnalysisBased
	// StateEmpty means reflection support is disabled for this target.
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateUsageBased:
		return "usage-based"
	case StateAnalysisBased:
		return "analysis-based"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Universe is the snapshot an AnalysisBased manager answers from.
type Universe struct {
	Methods map[string]struct{}
	Types   map[string]struct{}
}

// Manager answers metadata-inclusion queries for the compilation.
type Manager struct {
	state State

	// usage-based accumulation
	usageMethods map[string]struct{}
	usageTypes   map[string]struct{}
	methodOrder  []string

	// analysis-based snapshot
	universe Universe
}

// NewUsageBased starts a manager in usage-tracking mode.
func NewUsageBased() *Manager {
	return &Manager{
		state:        StateUsageBased,
		usageMethods: make(map[string]struct{}),
		usageTypes:   make(map[string]struct{}),
	}
}

// NewEmpty builds the manager used when reflection is compiled out.
func NewEmpty() *Manager {
	return &Manager{state: StateEmpty}
}

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// RecordMethod notes a metadata demand for a method. Only legal while
// usage-based.
func (m *Manager) RecordMethod(identity string) error {
	switch m.state {
	case StateUsageBased:
		if _, ok := m.usageMethods[identity]; !ok {
			m.usageMethods[identity] = struct{}{}
			m.methodOrder = append(m.methodOrder, identity)
		}
		return nil
	case StateEmpty:
		return nil
	default:
		return diag.Internalf(diag.VerifyInfo, "metadata manager mutated in %s state (method %s)", m.state, identity)
	}
}

// RecordType notes a metadata demand for a type. Only legal while
// usage-based.
func (m *Manager) RecordType(name string) error {
	switch m.state {
	case StateUsageBased:
		m.usageTypes[name] = struct{}{}
		return nil
	case StateEmpty:
		return nil
	default:
		return diag.Internalf(diag.VerifyInfo, "metadata manager mutated in %s state (type %s)", m.state, name)
	}
}

// IncludesMethod answers whether the method gets metadata.
func (m *Manager) IncludesMethod(identity string) bool {
	switch m.state {
	case StateUsageBased:
		_, ok := m.usageMethods[identity]
		return ok
	case StateAnalysisBased:
		_, ok := m.universe.Methods[identity]
		return ok
	default:
		return false
	}
}

// IncludesType answers whether the type gets metadata.
func (m *Manager) IncludesType(name string) bool {
	switch m.state {
	case StateUsageBased:
		_, ok := m.usageTypes[name]
		return ok
	case StateAnalysisBased:
		_, ok := m.universe.Types[name]
		return ok
	default:
		return false
	}
}

// RootMethods returns the methods the manager itself demands as
// compilation roots: the usage recorded during root discovery. The
// slice is in first-recorded order and safe to retain.
func (m *Manager) RootMethods() []string {
	if m.state == StateEmpty {
		return nil
	}
	return append([]string(nil), m.methodOrder...)
}

// Freeze converts a usage-based manager into an analysis-based one.
// It is one-way and must run exactly once, immediately after scanning.
func Freeze(m *Manager, universe Universe) (*Manager, error) {
	if m.state != StateUsageBased {
		return nil, diag.Internalf(diag.VerifyInfo, "cannot freeze metadata manager in %s state", m.state)
	}
	frozen := &Manager{
		state:       StateAnalysisBased,
		universe:    universe,
		methodOrder: m.methodOrder,
	}
	// The old handle must not keep accepting writes.
	m.state = StateAnalysisBased
	m.universe = universe
	return frozen, nil
}

// UsageSnapshot returns the usage-recorded universes sorted, for
// diagnostics.
func (m *Manager) UsageSnapshot() (methods, types []string) {
	for k := range m.usageMethods {
		methods = append(methods, k)
	}
	for k := range m.usageTypes {
		types = append(types, k)
	}
	sort.Strings(methods)
	sort.Strings(types)
	return methods, types
}
