package metadata

import (
	"reflect"
	"testing"
)

func TestUsageTracking(t *testing.T) {
	m := NewUsageBased()
	if m.State() != StateUsageBased {
		t.Fatalf("state = %v", m.State())
	}
	if err := m.RecordMethod("A.B"); err != nil {
		t.Fatalf("RecordMethod: %v", err)
	}
	if err := m.RecordMethod("A.B"); err != nil {
		t.Fatalf("duplicate RecordMethod: %v", err)
	}
	if err := m.RecordType("A"); err != nil {
		t.Fatalf("RecordType: %v", err)
	}
	if !m.IncludesMethod("A.B") || !m.IncludesType("A") {
		t.Fatalf("usage-based inclusion broken")
	}
	if m.IncludesMethod("A.C") {
		t.Fatalf("unrecorded method must not be included")
	}
	if got := m.RootMethods(); !reflect.DeepEqual(got, []string{"A.B"}) {
		t.Fatalf("RootMethods = %v", got)
	}
}

func TestFreezeSwitchesToAnalysis(t *testing.T) {
	m := NewUsageBased()
	_ = m.RecordMethod("A.B")

	universe := Universe{
		Methods: map[string]struct{}{"A.B": {}, "C.D": {}},
		Types:   map[string]struct{}{"C": {}},
	}
	frozen, err := Freeze(m, universe)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if frozen.State() != StateAnalysisBased {
		t.Fatalf("state = %v", frozen.State())
	}
	// Inclusion now comes from the scan universe, not live usage.
	if !frozen.IncludesMethod("C.D") || !frozen.IncludesType("C") {
		t.Fatalf("analysis-based inclusion must answer from the universe")
	}
	// The root demands recorded before the freeze survive.
	if got := frozen.RootMethods(); !reflect.DeepEqual(got, []string{"A.B"}) {
		t.Fatalf("RootMethods after freeze = %v", got)
	}
}

func TestFreezeIsOneWay(t *testing.T) {
	m := NewUsageBased()
	frozen, err := Freeze(m, Universe{})
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if _, err := Freeze(frozen, Universe{}); err == nil {
		t.Fatalf("second Freeze must fail")
	}
	// The pre-freeze handle is dead for writes too.
	if _, err := Freeze(m, Universe{}); err == nil {
		t.Fatalf("freezing the stale handle must fail")
	}
	if err := m.RecordMethod("X.Y"); err == nil {
		t.Fatalf("mutation after freeze must fail")
	}
	if err := frozen.RecordType("X"); err == nil {
		t.Fatalf("mutation of frozen manager must fail")
	}
}

func TestEmptyManager(t *testing.T) {
	m := NewEmpty()
	if err := m.RecordMethod("A.B"); err != nil {
		t.Fatalf("empty manager ignores records: %v", err)
	}
	if m.IncludesMethod("A.B") || m.IncludesType("A") {
		t.Fatalf("empty manager must answer false")
	}
	if m.RootMethods() != nil {
		t.Fatalf("empty manager has no root demands")
	}
	if _, err := Freeze(m, Universe{}); err == nil {
		t.Fatalf("empty manager cannot be frozen")
	}
}
