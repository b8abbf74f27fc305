package driver

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageResolve loads and partitions the module images.
	StageResolve Stage = "resolve"
	// StageRoots selects the module group and the compilation roots.
	StageRoots Stage = "roots"
	// StageScan runs the conservative reachability pre-pass.
	StageScan Stage = "scan"
	// StageCompile runs the code generation backend.
	StageCompile Stage = "compile"
	// StageVerify cross-checks the scan and compile universes.
	StageVerify Stage = "verify"
	// StageEmit writes the object file and auxiliary artifacts.
	StageEmit Stage = "emit"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the stage is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is currently working.
	StatusWorking Status = "working"
	// StatusSkipped indicates the stage was not applicable.
	StatusSkipped Status = "skipped"
	// StatusDone indicates the stage is done.
	StatusDone Status = "done"
	// StatusError indicates the stage encountered an error.
	StatusError Status = "error"
)

// Event reports progress for one stage. Detail carries a short
// stage-specific summary ("4 modules", "1523 methods").
type Event struct {
	Stage   Stage
	Status  Status
	Detail  string
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel, dropping them when the
// consumer falls behind. Progress display must never block the build.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink builds a sink with a buffered channel.
func NewChannelSink(buf int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, buf)}
}

func (s *ChannelSink) OnEvent(e Event) {
	select {
	case s.C <- e:
	default:
	}
}

// Close closes the underlying channel once the pipeline is finished.
func (s *ChannelSink) Close() { close(s.C) }

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
