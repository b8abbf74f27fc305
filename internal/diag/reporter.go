package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Reporter is the minimal contract for phases to emit diagnostics.
// Implementations: BagReporter (stores into a Bag), ConsoleReporter
// (renders to a writer), NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter stores diagnostics into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards diagnostics.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// ConsoleReporter renders diagnostics one per line. Safe for
// concurrent use.
type ConsoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	colored bool

	errColor  *color.Color
	warnColor *color.Color
	infoColor *color.Color
}

// NewConsoleReporter writes rendered diagnostics to w. When colored is
// false all styling is suppressed regardless of terminal support.
func NewConsoleReporter(w io.Writer, colored bool) *ConsoleReporter {
	r := &ConsoleReporter{
		w:         w,
		colored:   colored,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
		infoColor: color.New(color.FgCyan),
	}
	if !colored {
		r.errColor.DisableColor()
		r.warnColor.DisableColor()
		r.infoColor.DisableColor()
	}
	return r
}

func (r *ConsoleReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := r.infoColor
	switch d.Severity {
	case SevError:
		label = r.errColor
	case SevWarning:
		label = r.warnColor
	}
	head := label.Sprintf("%s %s", d.Severity, d.Code)
	if d.Subject != "" {
		fmt.Fprintf(r.w, "%s: %s: %s\n", head, d.Subject, d.Message)
	} else {
		fmt.Fprintf(r.w, "%s: %s\n", head, d.Message)
	}
	for _, n := range d.Notes {
		if n.Subject != "" {
			fmt.Fprintf(r.w, "  note: %s: %s\n", n.Subject, n.Msg)
		} else {
			fmt.Fprintf(r.w, "  note: %s\n", n.Msg)
		}
	}
}

// MultiReporter fans out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}
