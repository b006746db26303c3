// Package tui renders a live terminal dashboard for the normalization stage.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slsk-audio-pipeline/internal/normalize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const recentLimit = 8

type (
	eventMsg        normalize.Event
	streamClosedMsg struct{}
)

// Model tracks normalization progress fed over an event channel. The channel
// is closed by the caller once the stage drains; the program quits on close.
type Model struct {
	events <-chan normalize.Event

	spinner spinner.Model
	bar     progress.Model

	total    int
	finished int
	failed   int
	active   map[string]string
	recent   []string
	quitting bool
}

// NewModel builds a dashboard reading from events.
func NewModel(events <-chan normalize.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50

	return Model{
		events:  events,
		spinner: sp,
		bar:     bar,
		active:  make(map[string]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan normalize.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 16
		if m.bar.Width > 70 {
			m.bar.Width = 70
		}
		if m.bar.Width < 20 {
			m.bar.Width = 20
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(normalize.Event(msg))
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(ev normalize.Event) {
	switch ev.Kind {
	case normalize.EventDiscovered:
		m.total = ev.Total
	case normalize.EventFileStarted:
		m.active[ev.File.Path] = "measuring"
	case normalize.EventFileMeasured:
		m.active[ev.File.Path] = "writing"
	case normalize.EventFileFinished:
		delete(m.active, ev.File.Path)
		m.finished++
		line := okStyle.Render("✓ " + ev.Result.Source.Path)
		if !ev.Result.OK {
			m.failed++
			line = failStyle.Render(fmt.Sprintf("✗ %s: %s", ev.Result.Source.Path, ev.Result.Reason))
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Normalizing"))
	b.WriteString("\n\n")

	if m.total > 0 {
		b.WriteString(m.bar.ViewAs(float64(m.finished) / float64(m.total)))
		b.WriteString("\n")
		counts := fmt.Sprintf("%d/%d files", m.finished, m.total)
		if m.failed > 0 {
			counts += failStyle.Render(fmt.Sprintf("  (%d failed)", m.failed))
		}
		b.WriteString(counts)
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" scanning for audio files...")
		b.WriteString("\n\n")
	}

	if len(m.active) > 0 {
		paths := make([]string, 0, len(m.active))
		for p := range m.active {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			b.WriteString(fmt.Sprintf("%s %s %s\n", m.spinner.View(), p, dimStyle.Render(m.active[p])))
		}
		b.WriteString("\n")
	}

	for _, line := range m.recent {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q: detach (run continues)"))
	b.WriteString("\n")
	return b.String()
}

// Run drives the dashboard until the event channel closes or the user quits.
// The normalization stage must run on another goroutine and close the channel
// when it finishes.
func Run(events <-chan normalize.Event) error {
	p := tea.NewProgram(NewModel(events))
	_, err := p.Run()
	return err
}
