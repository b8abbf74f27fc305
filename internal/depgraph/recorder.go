// Package depgraph records reachability edges discovered by the scan and
// compile phases and writes them as a node/edge log on request.
package depgraph

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Fidelity controls how much of the graph is kept.
type Fidelity uint8

const (
	// FirstEdge keeps only the first edge that reaches each node, enough
	// to answer "why is this here".
	FirstEdge Fidelity = iota + 1
	// AllEdges keeps every edge.
	AllEdges
)

// ParseFidelity converts a flag value to a Fidelity.
func ParseFidelity(all bool) Fidelity {
	if all {
		return AllEdges
	}
	return FirstEdge
}

func (f Fidelity) String() string {
	switch f {
	case FirstEdge:
		return "first-edge"
	case AllEdges:
		return "all-edges"
	default:
		return "unknown"
	}
}

// Edge is one recorded reachability edge.
type Edge struct {
	From   string
	To     string
	Reason string
}

// Recorder accumulates a dependency graph. Safe for concurrent use; the
// compile phase records from worker goroutines.
type Recorder struct {
	mu       sync.Mutex
	fidelity Fidelity
	nodes    map[string]struct{}
	edges    []Edge
	reached  map[string]struct{}
	seen     map[string]struct{}
}

// NewRecorder builds a recorder at the given fidelity.
func NewRecorder(f Fidelity) *Recorder {
	return &Recorder{
		fidelity: f,
		nodes:    make(map[string]struct{}),
		reached:  make(map[string]struct{}),
		seen:     make(map[string]struct{}),
	}
}

// Fidelity returns the recorder's fidelity.
func (r *Recorder) Fidelity() Fidelity { return r.fidelity }

// Node registers a root node with no incoming edge.
func (r *Recorder) Node(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[name] = struct{}{}
}

// Record adds an edge, subject to fidelity dedup rules.
func (r *Recorder) Record(from, to, reason string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[from] = struct{}{}
	r.nodes[to] = struct{}{}

	if r.fidelity == FirstEdge {
		if _, ok := r.reached[to]; ok {
			return
		}
		r.reached[to] = struct{}{}
	} else {
		key := from + "\x00" + to + "\x00" + reason
		if _, ok := r.seen[key]; ok {
			return
		}
		r.seen[key] = struct{}{}
	}
	r.edges = append(r.edges, Edge{From: from, To: to, Reason: reason})
}

// Len returns the number of recorded edges.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.edges)
}

// Edges returns a copy of the recorded edges in first-seen order.
func (r *Recorder) Edges() []Edge {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edge(nil), r.edges...)
}

// WriteLog emits a deterministic node/edge log: sorted node list, then
// edges in first-seen order.
func (r *Recorder) WriteLog(w io.Writer) error {
	r.mu.Lock()
	nodes := make([]string, 0, len(r.nodes))
	for n := range r.nodes {
		nodes = append(nodes, n)
	}
	edges := append([]Edge(nil), r.edges...)
	fidelity := r.fidelity
	r.mu.Unlock()

	sort.Strings(nodes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# dependency trace (%s): %d nodes, %d edges\n", fidelity, len(nodes), len(edges))
	for _, n := range nodes {
		fmt.Fprintf(&sb, "node %s\n", n)
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "edge %s -> %s (%s)\n", e.From, e.To, e.Reason)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
