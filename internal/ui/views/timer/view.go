package timer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	timerdto "studyhub/internal/modules/timer/dto"
	"studyhub/internal/ui/theme"
)

type TimerPort interface {
	Start(ctx context.Context) (timerdto.StatusOutput, error)
	Pause(ctx context.Context) (timerdto.StatusOutput, error)
	Resume(ctx context.Context) (timerdto.StatusOutput, error)
	Stop(ctx context.Context) (timerdto.StatusOutput, error)
	Status(ctx context.Context) timerdto.StatusOutput
}

// ChangedMsg carries the timer after a user action.
type ChangedMsg struct {
	Status timerdto.StatusOutput
	Err    error
}

type Model struct {
	port       TimerPort
	status     timerdto.StatusOutput
	completion *timerdto.CompletionOutput
	bar        progress.Model
	err        error
	width      int
	height     int
}

func New(port TimerPort) Model {
	bar := progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage())
	return Model{port: port, bar: bar}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		return ChangedMsg{Status: m.port.Status(context.Background())}
	}
}

// SetStatus applies a status observed elsewhere, e.g. by the app's tick.
func (m *Model) SetStatus(status timerdto.StatusOutput) {
	m.status = status
}

// SetCompletion records the summary of the run that just finished.
func (m *Model) SetCompletion(c timerdto.CompletionOutput) {
	m.completion = &c
}

func (m Model) Status() timerdto.StatusOutput { return m.status }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(60, msg.Width-8))

	case ChangedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			if msg.Status.Running() {
				m.completion = nil
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			return m, m.toggleCmd()
		case "x":
			return m, m.act(m.port.Stop)
		}
	}
	return m, nil
}

func (m Model) View() string {
	s := m.status
	var sb strings.Builder

	label := lipgloss.NewStyle().Foreground(theme.StatusColor(s.Status)).Bold(true).Render(strings.ToUpper(s.Status))
	sb.WriteString(label)
	if s.Category != "" {
		sb.WriteString(theme.Muted.Render("  " + s.Category))
	}
	sb.WriteString("\n\n")
	sb.WriteString(theme.Clock.Render(FormatClock(s.RemainingSeconds)))
	sb.WriteString(theme.Muted.Render(" / " + FormatClock(s.DurationSeconds)))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(Elapsed(s)))
	sb.WriteString("\n\n")

	if c := m.completion; c != nil {
		line := fmt.Sprintf("Done: %d min, +%d coins", c.LoggedMinutes, c.EarnedCoins)
		if c.AwardCommitted {
			sb.WriteString(theme.Good.Render(line) + theme.Muted.Render(fmt.Sprintf("  balance %d", c.BalanceAfter)))
		} else {
			sb.WriteString(theme.Bad.Render(line + " not awarded: " + c.AwardError))
		}
		sb.WriteString("\n")
	}
	if s.MemoryOnly {
		sb.WriteString(theme.Bad.Render("timer state is not being saved") + "\n")
	}
	if m.err != nil {
		sb.WriteString(theme.Bad.Render(m.err.Error()) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("space: start/pause  x: stop"))

	body := theme.Pane.Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) toggleCmd() tea.Cmd {
	switch m.status.Status {
	case "running":
		return m.act(m.port.Pause)
	case "paused":
		return m.act(m.port.Resume)
	default:
		return m.act(m.port.Start)
	}
}

func (m Model) act(fn func(context.Context) (timerdto.StatusOutput, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(context.Background())
		return ChangedMsg{Status: status, Err: err}
	}
}

// Elapsed is the completed fraction of the configured duration.
func Elapsed(s timerdto.StatusOutput) float64 {
	if s.DurationSeconds <= 0 {
		return 0
	}
	if s.Status == "completed" {
		return 1
	}
	done := float64(s.DurationSeconds-s.RemainingSeconds) / float64(s.DurationSeconds)
	return max(0, min(1, done))
}

func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
