package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"aotc/internal/driver"
	"aotc/internal/ui"
)

type runOutcome struct {
	outcome *driver.Outcome
	err     error
}

// runPipelineWithUI runs the compilation under the interactive progress
// display. The pipeline runs in its own goroutine; the UI owns the
// terminal until the event channel closes.
func runPipelineWithUI(ctx context.Context, title string, req *driver.Request) (*driver.Outcome, error) {
	if req == nil {
		return nil, fmt.Errorf("missing compile request")
	}
	sink := driver.NewChannelSink(256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = sink
		out, err := driver.Run(ctx, &reqCopy)
		outcomeCh <- runOutcome{outcome: out, err: err}
		sink.Close()
	}()

	model := ui.NewProgressModel(title, sink.C)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	result := <-outcomeCh
	if uiErr != nil {
		return result.outcome, uiErr
	}
	return result.outcome, result.err
}
