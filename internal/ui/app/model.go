package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	syncdto "studyhub/internal/modules/balancesync/dto"
	ledgerdto "studyhub/internal/modules/ledger/dto"
	streakdto "studyhub/internal/modules/streak/dto"
	timerdto "studyhub/internal/modules/timer/dto"
	"studyhub/internal/ui/components"
	"studyhub/internal/ui/theme"
	coinsview "studyhub/internal/ui/views/coins"
	timerview "studyhub/internal/ui/views/timer"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type timerPort interface {
	timerview.TimerPort
	Tick(ctx context.Context) (timerdto.TickOutput, error)
	SetDuration(ctx context.Context, minutes int) (timerdto.SetDurationOutput, error)
	SetCategory(ctx context.Context, category string) (timerdto.StatusOutput, error)
}

type ledgerPort interface {
	coinsview.LedgerPort
	CompleteTask(ctx context.Context, title string) (ledgerdto.AwardOutput, error)
	CreateFlashcard(ctx context.Context, front string) (ledgerdto.AwardOutput, error)
	Reconcile(ctx context.Context) (ledgerdto.ReconcileOutput, error)
	Snapshot() ledgerdto.SnapshotOutput
}

type streakPort interface {
	Show(ctx context.Context) (streakdto.StreakOutput, int, error)
	Check(ctx context.Context) (streakdto.RefreshOutput, error)
}

type syncPort interface {
	Status() syncdto.StatusOutput
	Applied() (<-chan syncdto.AppliedOutput, func())
}

// ─── tabs ────────────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabCoins
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "Coins"}

// TickInterval drives the countdown while the UI is open.
const TickInterval = time.Second

// ─── async messages ───────────────────────────────────────────────────────────

type tickMsg time.Time

type tickedMsg struct {
	out timerdto.TickOutput
	err error
}

type streakLoadedMsg struct {
	streak streakdto.StreakOutput
	next   int
	err    error
}

// remoteBalanceMsg carries a balance pushed by another device. ok is false
// once the stream has closed.
type remoteBalanceMsg struct {
	applied syncdto.AppliedOutput
	ok      bool
}

type actionDoneMsg struct {
	status string
	reload bool
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Toggle  key.Binding
	Stop    key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Toggle, k.Stop},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the once-a-second
// timer tick, the help overlay and the command palette.
type Model struct {
	timer  timerPort
	ledger ledgerPort
	streak streakPort
	sync   syncPort

	remote      <-chan syncdto.AppliedOutput
	unsubscribe func()

	timerView timerview.Model
	coinsView coinsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	streakOut streakdto.StreakOutput
	nextBonus int
	status    string
	width     int
	height    int
}

func NewModel(timer timerPort, ledger ledgerPort, streak streakPort, sync syncPort) Model {
	m := Model{
		timer:     timer,
		ledger:    ledger,
		streak:    streak,
		sync:      sync,
		timerView: timerview.New(timer),
		coinsView: coinsview.New(ledger),
		activeTab: tabTimer,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
	if sync != nil {
		m.remote, m.unsubscribe = sync.Applied()
	}
	return m
}

// Close stops listening for pushed balances.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.timerView.Init(),
		m.coinsView.Init(),
		m.loadStreakCmd(),
		tickCmd(),
		m.waitRemoteCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
		m.timerView, _ = m.timerView.Update(sz)
		m.coinsView, _ = m.coinsView.Update(sz)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tickTimerCmd(), tickCmd())

	case tickedMsg:
		if msg.err != nil {
			m.status = "timer: " + msg.err.Error()
			return m, nil
		}
		m.timerView.SetStatus(msg.out.Status)
		if c := msg.out.Completion; c != nil {
			m.timerView.SetCompletion(*c)
			m.status = fmt.Sprintf("session complete: +%d coins", c.EarnedCoins)
			return m, tea.Batch(m.coinsView.Reload(), m.loadStreakCmd())
		}
		return m, nil

	case streakLoadedMsg:
		if msg.err == nil {
			m.streakOut = msg.streak
			m.nextBonus = msg.next
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.status + ": " + msg.err.Error()
		} else {
			m.status = msg.status
		}
		if msg.reload {
			return m, tea.Batch(m.coinsView.Reload(), m.loadStreakCmd(), m.timerView.Init())
		}
		return m, m.timerView.Init()

	case remoteBalanceMsg:
		if !msg.ok {
			m.remote = nil
			return m, nil
		}
		snap := m.ledger.Snapshot()
		if !snap.Known || snap.UserID != msg.applied.UserID {
			return m, m.waitRemoteCmd()
		}
		m.coinsView.SetBalance(ledgerdto.BalanceOutput{
			UserID:    snap.UserID,
			Balance:   snap.Balance,
			UpdatedAt: msg.applied.UpdatedAt,
		})
		m.status = fmt.Sprintf("balance synced: %d", snap.Balance)
		return m, m.waitRemoteCmd()

	case coinsview.LoadedMsg:
		var cmd tea.Cmd
		m.coinsView, cmd = m.coinsView.Update(msg)
		return m, cmd

	case timerview.ChangedMsg:
		var cmd tea.Cmd
		m.timerView, cmd = m.timerView.Update(msg)
		if msg.Err != nil {
			m.status = msg.Err.Error()
			return m, cmd
		}
		m.status = "timer " + msg.Status.Status
		if msg.Status.Completed() {
			return m, tea.Batch(cmd, m.coinsView.Reload(), m.loadStreakCmd())
		}
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabCoins && m.coinsView.Filtering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, cmd = m.timerView.Update(msg)
	case tabCoins:
		m.coinsView, cmd = m.coinsView.Update(msg)
	}
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabCoins:
		content = m.coinsView.View()
	default:
		content = m.timerView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "studyhub  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	var facts []string
	if b, ok := m.coinsView.Balance(); ok {
		facts = append(facts, theme.Hot.Render(fmt.Sprintf("● %d coins", b.Balance)))
	}
	if m.streakOut.Days > 0 {
		facts = append(facts, fmt.Sprintf("%d-day streak", m.streakOut.Days))
		if m.nextBonus > 0 {
			facts = append(facts, theme.Muted.Render(fmt.Sprintf("+%d tomorrow", m.nextBonus)))
		}
	}
	if m.sync != nil && m.sync.Status().Subscribed {
		facts = append(facts, theme.Muted.Render("synced"))
	}
	left := strings.Join(append(facts, m.status), "  ")
	right := theme.Muted.Render("?:help  tab:switch  ::command  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "timer:start":
		return m, m.timerAction("timer started", m.timer.Start)
	case "timer:pause":
		return m, m.timerAction("timer paused", m.timer.Pause)
	case "timer:resume":
		return m, m.timerAction("timer resumed", m.timer.Resume)
	case "timer:stop":
		return m, m.timerAction("timer stopped", m.timer.Stop)

	case "timer:duration":
		minutes, err := strconv.Atoi(rest)
		if err != nil {
			m.status = "usage: timer:duration <minutes>"
			return m, nil
		}
		return m, func() tea.Msg {
			out, err := m.timer.SetDuration(context.Background(), minutes)
			status := fmt.Sprintf("duration set to %d min", minutes)
			if err == nil && !out.Applied {
				status = "duration unchanged while " + out.Status.Status
			}
			return actionDoneMsg{status: status, err: err}
		}

	case "timer:category":
		return m, func() tea.Msg {
			_, err := m.timer.SetCategory(context.Background(), rest)
			return actionDoneMsg{status: "category: " + rest, err: err}
		}

	case "coins:task":
		if rest == "" {
			m.status = "usage: coins:task <title>"
			return m, nil
		}
		return m, m.awardAction("task recorded", func(ctx context.Context) (ledgerdto.AwardOutput, error) {
			return m.ledger.CompleteTask(ctx, rest)
		})

	case "coins:flashcard":
		if rest == "" {
			m.status = "usage: coins:flashcard <front>"
			return m, nil
		}
		return m, m.awardAction("flashcard recorded", func(ctx context.Context) (ledgerdto.AwardOutput, error) {
			return m.ledger.CreateFlashcard(ctx, rest)
		})

	case "coins:reconcile":
		return m, func() tea.Msg {
			out, err := m.ledger.Reconcile(context.Background())
			return actionDoneMsg{status: fmt.Sprintf("reconciled (drift %+d)", out.Drift), reload: true, err: err}
		}

	case "streak:check":
		return m, func() tea.Msg {
			out, err := m.streak.Check(context.Background())
			status := fmt.Sprintf("streak %d", out.Streak)
			if out.Awarded {
				status += fmt.Sprintf(", bonus +%d", out.Bonus)
			}
			return actionDoneMsg{status: status, reload: true, err: err}
		}

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── async commands ───────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) tickTimerCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.timer.Tick(context.Background())
		return tickedMsg{out: out, err: err}
	}
}

// waitRemoteCmd blocks for the next pushed balance. It is nil when nothing
// is subscribed.
func (m Model) waitRemoteCmd() tea.Cmd {
	if m.remote == nil {
		return nil
	}
	remote := m.remote
	return func() tea.Msg {
		applied, ok := <-remote
		return remoteBalanceMsg{applied: applied, ok: ok}
	}
}

func (m Model) loadStreakCmd() tea.Cmd {
	return func() tea.Msg {
		out, next, err := m.streak.Show(context.Background())
		return streakLoadedMsg{streak: out, next: next, err: err}
	}
}

func (m Model) timerAction(done string, fn func(context.Context) (timerdto.StatusOutput, error)) tea.Cmd {
	return func() tea.Msg {
		_, err := fn(context.Background())
		return actionDoneMsg{status: done, err: err}
	}
}

func (m Model) awardAction(done string, fn func(context.Context) (ledgerdto.AwardOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background())
		status := fmt.Sprintf("%s (+%d)", done, out.Amount)
		if out.MilestoneNotified {
			status += fmt.Sprintf(", milestone %d reached", out.Milestone)
		}
		return actionDoneMsg{status: status, reload: true, err: err}
	}
}
