// Package observ holds the driver's lightweight self-observation
// helpers.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Span is one timed pipeline stage, annotated with the stage's result
// detail (input counts, symbol counts and so on).
type Span struct {
	Name   string
	Start  time.Time
	Dur    time.Duration
	Detail string
}

// Timer collects stage spans in execution order. The pipeline times
// its stages sequentially, so no locking is needed.
type Timer struct {
	spans []Span
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{spans: make([]Span, 0, 8)} }

// Begin opens a span and returns its index for the matching End call.
func (t *Timer) Begin(name string) int {
	t.spans = append(t.spans, Span{Name: name, Start: time.Now()})
	return len(t.spans) - 1
}

// End closes the span at idx and attaches the stage's detail line.
func (t *Timer) End(idx int, detail string) {
	if idx < 0 || idx >= len(t.spans) {
		return
	}
	s := &t.spans[idx]
	s.Dur = time.Since(s.Start)
	s.Detail = detail
}

// Total sums the durations of all closed spans.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, s := range t.spans {
		total += s.Dur
	}
	return total
}

// Summary renders the spans as an aligned stage table.
func (t *Timer) Summary() string {
	var sb strings.Builder
	sb.WriteString("stage timings:\n")
	for _, s := range t.spans {
		fmt.Fprintf(&sb, "  %-10s %8.2f ms", s.Name, millis(s.Dur))
		if s.Detail != "" {
			sb.WriteString("  " + s.Detail)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-10s %8.2f ms\n", "total", millis(t.Total()))
	return sb.String()
}

// SpanReport is the serialisable form of one span.
type SpanReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Detail     string  `json:"detail,omitempty"`
}

// Report aggregates the timer for serialisation.
type Report struct {
	TotalMS float64      `json:"total_ms"`
	Spans   []SpanReport `json:"spans"`
}

// Report converts the collected spans to milliseconds.
func (t *Timer) Report() Report {
	if len(t.spans) == 0 {
		return Report{}
	}
	r := Report{Spans: make([]SpanReport, len(t.spans))}
	for i, s := range t.spans {
		r.Spans[i] = SpanReport{Name: s.Name, DurationMS: millis(s.Dur), Detail: s.Detail}
	}
	r.TotalMS = millis(t.Total())
	return r
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
