package coins

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ledgerdto "studyhub/internal/modules/ledger/dto"
	"studyhub/internal/ui/theme"
)

const historyLimit = 100

type LedgerPort interface {
	Balance(ctx context.Context) (ledgerdto.BalanceOutput, error)
	History(ctx context.Context, limit int) ([]ledgerdto.TransactionOutput, error)
}

type LoadedMsg struct {
	Balance ledgerdto.BalanceOutput
	History []ledgerdto.TransactionOutput
	Err     error
}

type txItem struct {
	tx ledgerdto.TransactionOutput
}

func (i txItem) Title() string {
	return fmt.Sprintf("%+d  %s", i.tx.Amount, i.tx.Description)
}

func (i txItem) Description() string {
	return i.tx.Source + "  " + i.tx.CreatedAt.Local().Format("Jan 2 15:04")
}

func (i txItem) FilterValue() string { return i.tx.Description }

type Model struct {
	port    LedgerPort
	list    list.Model
	spinner spinner.Model
	balance ledgerdto.BalanceOutput
	known   bool
	loading bool
	err     error
	width   int
	height  int
}

func New(port LedgerPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches a fresh balance and history.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		balance, err := m.port.Balance(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		history, err := m.port.History(ctx, historyLimit)
		return LoadedMsg{Balance: balance, History: history, Err: err}
	}
}

func (m Model) Balance() (ledgerdto.BalanceOutput, bool) {
	return m.balance, m.known
}

// SetBalance shows a balance that arrived outside a reload, such as a push
// from another device.
func (m *Model) SetBalance(b ledgerdto.BalanceOutput) {
	m.balance = b
	m.known = true
}

// Filtering reports whether the history filter is taking keystrokes.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(1, msg.Height-4))

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.balance = msg.Balance
		m.known = true
		items := make([]list.Item, len(msg.History))
		for i, tx := range msg.History {
			items[i] = txItem{tx: tx}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading coins…")
	}
	header := theme.Hot.Render(fmt.Sprintf("%d coins", m.balance.Balance))
	if m.balance.Cached {
		header += theme.Muted.Render("  (offline, last known)")
	}
	if m.err != nil {
		header += "  " + theme.Bad.Render(m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.list.View())
}
