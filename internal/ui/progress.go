// Package ui renders interactive pipeline progress for terminal runs.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"aotc/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []stageItem
	index   map[driver.Stage]int
	width   int
	done    bool
}

type stageItem struct {
	stage  driver.Stage
	status driver.Status
	detail string
}

type eventMsg driver.Event
type doneMsg struct{}

// pipelineStages is the display order; every stage is shown even when
// it ends up skipped.
var pipelineStages = []driver.Stage{
	driver.StageResolve,
	driver.StageRoots,
	driver.StageScan,
	driver.StageCompile,
	driver.StageVerify,
	driver.StageEmit,
}

// NewProgressModel returns a Bubble Tea model that renders pipeline
// progress for one compilation.
func NewProgressModel(title string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]stageItem, 0, len(pipelineStages))
	index := make(map[driver.Stage]int, len(pipelineStages))
	for i, stage := range pipelineStages {
		items = append(items, stageItem{stage: stage, status: driver.StatusQueued})
		index[stage] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 10
	detailWidth := m.width - statusWidth - 14
	if detailWidth < 20 {
		detailWidth = 20
	}

	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%10s", item.status))
		line := fmt.Sprintf("  %s %-8s", status, item.stage)
		if item.detail != "" {
			line += "  " + truncate(item.detail, detailWidth)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	m.items[idx].status = ev.Status
	if ev.Detail != "" {
		m.items[idx].detail = ev.Detail
	}
	if ev.Err != nil {
		m.items[idx].detail = ev.Err.Error()
	}

	settled := 0.0
	for _, item := range m.items {
		switch item.status {
		case driver.StatusDone, driver.StatusSkipped, driver.StatusError:
			settled += 1.0
		case driver.StatusWorking:
			settled += 0.5
		}
	}
	return m.prog.SetPercent(settled / float64(len(m.items)))
}

func styleStatus(status driver.Status) lipgloss.Style {
	switch status {
	case driver.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case driver.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case driver.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case driver.StatusSkipped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
