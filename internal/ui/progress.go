package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// StepStatus represents the status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusSkipped
)

// Step is one target range in the progress list.
type Step struct {
	Name    string
	Status  StepStatus
	Message string // pass counts or error details
	// Missed marks a completed step with values outside the target range.
	Missed bool
}

// progressModel is the Bubble Tea model behind ProgressTracker.
type progressModel struct {
	spinner  spinner.Model
	steps    []Step
	title    string
	started  time.Time
	elapsed  time.Duration
	done     bool
	err      error
	quitting bool
}

func newProgressModel(title string, names []string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	steps := make([]Step, len(names))
	for i, n := range names {
		steps[i] = Step{Name: n}
	}
	return progressModel{spinner: s, steps: steps, title: title, started: time.Now()}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// ProgressMsg updates the step at StepIndex.
type ProgressMsg struct {
	StepIndex int
	Status    StepStatus
	Message   string
	Missed    bool
}

// DoneMsg signals that the run is over.
type DoneMsg struct {
	Err error
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ProgressMsg:
		if msg.StepIndex >= 0 && msg.StepIndex < len(m.steps) {
			st := &m.steps[msg.StepIndex]
			st.Status = msg.Status
			st.Message = msg.Message
			st.Missed = msg.Missed
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) counts() (finished, failed, missed int) {
	for _, s := range m.steps {
		switch s.Status {
		case StatusComplete:
			finished++
			if s.Missed {
				missed++
			}
		case StatusFailed:
			finished++
			failed++
		case StatusSkipped:
			finished++
		}
	}
	return finished, failed, missed
}

func (m progressModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	var b strings.Builder
	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, step := range m.steps {
		var icon string
		style := StepPending
		switch step.Status {
		case StatusPending:
			icon = Muted.Render("○")
		case StatusRunning:
			icon = m.spinner.View()
			style = StepRunning
		case StatusComplete:
			icon = GetCheckMark()
			style = StepComplete
			if step.Missed {
				icon = GetWarnMark()
				style = StepSkipped
			}
		case StatusFailed:
			icon = GetCrossMark()
			style = StepFailed
		case StatusSkipped:
			icon = Warning.Render("⊘")
			style = StepSkipped
		}
		b.WriteString(icon + " " + style.Render(step.Name))
		if step.Message != "" && step.Status != StatusPending {
			b.WriteString(Dim.Render(" → " + step.Message))
		}
		if i < len(m.steps)-1 {
			b.WriteString("\n")
		}
	}

	finished, failed, missed := m.counts()
	b.WriteString("\n\n")
	if !m.done {
		b.WriteString(Dim.Render(fmt.Sprintf("%d/%d target ranges", finished, len(m.steps))))
		return tea.NewView(b.String())
	}
	if m.err != nil {
		b.WriteString(ErrorBox.Render(GetCrossMark() + " " + m.err.Error()))
		return tea.NewView(b.String())
	}
	line := fmt.Sprintf("Evaluated %d/%d target ranges in %s", finished-failed, len(m.steps), m.elapsed.Round(time.Millisecond))
	switch {
	case failed > 0:
		b.WriteString(Error.Render(fmt.Sprintf("%s, %d failed", line, failed)))
	case missed > 0:
		b.WriteString(Warning.Render(fmt.Sprintf("%s, %d with values out of range", line, missed)))
	default:
		b.WriteString(Success.Render(line))
	}
	return tea.NewView(b.String())
}

// ProgressTracker shows the target ranges of a run with live status,
// without callers having to deal with Bubble Tea.
type ProgressTracker struct {
	program *tea.Program
	out     io.Writer
	title   string
	steps   []string
	mu      sync.Mutex
	running bool
	exited  chan struct{}
}

// NewProgressTracker creates a tracker writing to w with one step per name.
func NewProgressTracker(w io.Writer, title string, steps []string) *ProgressTracker {
	return &ProgressTracker{out: w, title: title, steps: steps}
}

// Start begins the progress display
func (pt *ProgressTracker) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.running {
		return
	}
	pt.program = tea.NewProgram(newProgressModel(pt.title, pt.steps),
		tea.WithOutput(pt.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	pt.running = true
	pt.exited = make(chan struct{})
	go func() {
		defer close(pt.exited)
		_, _ = pt.program.Run()
	}()
}

// UpdateStep updates a specific step's status
func (pt *ProgressTracker) UpdateStep(index int, status StepStatus, message string) {
	pt.send(ProgressMsg{StepIndex: index, Status: status, Message: message})
}

// CompleteStep marks a step done; missed flags values outside the range.
func (pt *ProgressTracker) CompleteStep(index int, message string, missed bool) {
	pt.send(ProgressMsg{StepIndex: index, Status: StatusComplete, Message: message, Missed: missed})
}

func (pt *ProgressTracker) send(msg tea.Msg) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.program == nil || !pt.running {
		return
	}
	pt.program.Send(msg)
}

// Complete renders the final state and waits for the display to exit.
func (pt *ProgressTracker) Complete(err error) {
	pt.finish(func(p *tea.Program) { p.Send(DoneMsg{Err: err}) })
}

// Stop stops the progress display without marking complete
func (pt *ProgressTracker) Stop() {
	pt.finish(func(p *tea.Program) { p.Quit() })
}

func (pt *ProgressTracker) finish(fn func(*tea.Program)) {
	pt.mu.Lock()
	if pt.program == nil || !pt.running {
		pt.mu.Unlock()
		return
	}
	fn(pt.program)
	pt.running = false
	exited := pt.exited
	pt.mu.Unlock()

	select {
	case <-exited:
	case <-time.After(time.Second):
	}
}
