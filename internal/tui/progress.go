package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	progressStyleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	progressStyleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// ========================================
// Bubbletea Progress Model
// ========================================

// progressModel is a bubbletea model for rendering progress
type progressModel struct {
	current int
	total   int
	label   string
	message string
	done    bool
	failed  bool
	err     error
	width   int
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case progressIncrementMsg:
		m.current++
		m.message = msg.message
	case progressSetTotalMsg:
		m.total = msg.total
	case progressCompleteMsg:
		m.done = true
		return m, tea.Quit
	case progressFailMsg:
		m.failed = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return progressStyleSuccess.Render(fmt.Sprintf("✓ %s (completed: %d/%d)", m.label, m.current, m.total))
	}

	if m.failed {
		return progressStyleErr.Render(fmt.Sprintf("✗ %s (failed: %v)", m.label, m.err))
	}

	if m.total <= 0 {
		return fmt.Sprintf("%s\n%s", progressStyleTitle.Render(m.label), "enumerating installed packages...")
	}

	percent := float64(m.current) / float64(m.total)
	if percent > 1 {
		percent = 1
	}
	barWidth := 40
	if m.width < 80 {
		barWidth = 20
	}
	filled := int(percent * float64(barWidth))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := fmt.Sprintf("[%s] %d/%d", bar, m.current, m.total)
	if m.message != "" {
		status += fmt.Sprintf(" - %s", m.message)
	}

	return fmt.Sprintf("%s\n%s", progressStyleTitle.Render(m.label), status)
}

// ========================================
// Bubbletea Messages
// ========================================

type progressIncrementMsg struct {
	message string
}

type progressSetTotalMsg struct {
	total int
}

type progressCompleteMsg struct{}

type progressFailMsg struct {
	err error
}

// ========================================
// BubbletaeProgressTracker Implementation
// ========================================

// BubbletaeProgressTracker manages progress using bubbletea. The program is
// started by the first SetTotal so nothing is drawn for builds that never
// enumerate packages, and a finished tracker can be started again.
type BubbletaeProgressTracker struct {
	mu      sync.Mutex
	label   string
	program *tea.Program
	done    chan struct{}
}

// NewBubbletaeProgressTracker creates a new bubbletea progress tracker that
// renders on stderr. A positive total starts rendering immediately.
func NewBubbletaeProgressTracker(total int, label string) *BubbletaeProgressTracker {
	t := &BubbletaeProgressTracker{label: label}
	if total > 0 {
		t.SetTotal(total)
	}
	return t
}

func (t *BubbletaeProgressTracker) start(total int) {
	m := progressModel{
		total: total,
		label: t.label,
		width: 80,
	}
	p := tea.NewProgram(m, tea.WithOutput(output), tea.WithInput(nil))
	done := make(chan struct{})

	// Start program in background
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	t.program, t.done = p, done
}

// Increment updates progress with a message. Safe for concurrent use.
func (t *BubbletaeProgressTracker) Increment(message string) {
	t.mu.Lock()
	p := t.program
	t.mu.Unlock()
	if p != nil {
		p.Send(progressIncrementMsg{message: message})
	}
}

// SetTotal sets the total count, starting the program if needed.
func (t *BubbletaeProgressTracker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program == nil {
		t.start(total)
		return
	}
	t.program.Send(progressSetTotalMsg{total: total})
}

// Complete marks the operation as complete and waits for the final render.
func (t *BubbletaeProgressTracker) Complete() {
	t.finish(progressCompleteMsg{})
}

// Fail marks the operation as failed with an error.
func (t *BubbletaeProgressTracker) Fail(err error) {
	t.finish(progressFailMsg{err: err})
}

func (t *BubbletaeProgressTracker) finish(msg tea.Msg) {
	t.mu.Lock()
	p, done := t.program, t.done
	t.program, t.done = nil, nil
	t.mu.Unlock()
	if p == nil {
		return
	}

	p.Send(msg)
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

// ========================================
// Text Progress (Non-TTY)
// ========================================

// textProgressStep is the percentage between two text progress lines.
const textProgressStep = 10

// TextProgressTracker provides simple text-based progress. It prints a line
// each time another tenth of the work is done rather than one per item.
type TextProgressTracker struct {
	mu       sync.Mutex
	current  int
	total    int
	label    string
	reported int
}

// NewTextProgressTracker creates a new text progress tracker
func NewTextProgressTracker(total int, label string) *TextProgressTracker {
	fmt.Fprintf(output, "Starting: %s\n", label)
	return &TextProgressTracker{
		current: 0,
		total:   total,
		label:   label,
	}
}

// Increment updates progress with a message. Safe for concurrent use.
func (t *TextProgressTracker) Increment(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current++
	if t.total <= 0 {
		return
	}
	percent := t.current * 100 / t.total
	if percent < t.reported+textProgressStep && t.current != t.total {
		return
	}
	t.reported = percent - percent%textProgressStep

	msg := fmt.Sprintf("  [%d/%d] %d%%", t.current, t.total, percent)
	if message != "" {
		msg += " " + message
	}
	fmt.Fprintln(output, msg)
}

// SetTotal sets the total count for the progress tracker.
func (t *TextProgressTracker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
}

// Complete marks the operation as complete.
func (t *TextProgressTracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(output, "✓ %s: Completed (%d/%d)\n", t.label, t.current, t.total)
}

// Fail marks the operation as failed with an error.
func (t *TextProgressTracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(output, "✗ %s: Failed - %v\n", t.label, err)
}

// ========================================
// No-Op Progress (Quiet/JSON)
// ========================================

// NoOpProgressTracker does nothing (for quiet/JSON/testing modes)
type NoOpProgressTracker struct{}

// NewNoOpProgressTracker creates a new no-op progress tracker
func NewNoOpProgressTracker() *NoOpProgressTracker {
	return &NoOpProgressTracker{}
}

// Increment does nothing (no-op implementation).
func (t *NoOpProgressTracker) Increment(_ string) {}

// SetTotal does nothing (no-op implementation).
func (t *NoOpProgressTracker) SetTotal(_ int) {}

// Complete does nothing (no-op implementation).
func (t *NoOpProgressTracker) Complete() {}

// Fail does nothing (no-op implementation).
func (t *NoOpProgressTracker) Fail(_ error) {}
