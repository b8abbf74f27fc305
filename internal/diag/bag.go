package diag

import (
	"sort"

	"fortio.org/safecast"
)

// Bag accumulates diagnostics up to a limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(max int) *Bag {
	capped, err := safecast.Conv[uint16](max)
	if err != nil {
		capped = ^uint16(0)
	}
	return &Bag{
		items: make([]Diagnostic, 0, capped),
		max:   capped,
	}
}

// Add appends a diagnostic, honouring the limit.
// Returns false if the diagnostic was not added.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// HasErrors reports whether any diagnostic is SevError or above.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is SevWarning or above.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the accumulated diagnostics.
// Callers must not modify the returned slice.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge folds another bag into this one, growing the limit if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if total, err := safecast.Conv[uint16](newTotal); err == nil && total > b.max {
		b.max = total
	}
	b.items = append(b.items, other.items...)
}

// SortStable orders diagnostics by severity (errors first), then code,
// then subject, keeping insertion order for equal keys.
func (b *Bag) SortStable() {
	sort.SliceStable(b.items, func(i, j int) bool {
		if b.items[i].Severity != b.items[j].Severity {
			return b.items[i].Severity > b.items[j].Severity
		}
		if b.items[i].Code != b.items[j].Code {
			return b.items[i].Code < b.items[j].Code
		}
		return b.items[i].Subject < b.items[j].Subject
	})
}
