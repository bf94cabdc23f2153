// Package tui is a terminal watch screen that re-renders every zone once a second.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"telegram-fasting-tracker/internal/messages"
	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/progress"
	"telegram-fasting-tracker/internal/session"
	"telegram-fasting-tracker/internal/zones"
)

const barWidth = 30

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	baseStyle    = lipgloss.NewStyle().Margin(1, 2)
	nameColWidth = 16
)

// --- Messages ---
type tickMsg time.Time

type loadedMsg struct{ session *models.FastingSession }

type savedMsg struct{ err error }

// --- Model ---
type Model struct {
	ctx     context.Context
	store   *session.Store
	wallet  string
	table   []models.ZoneDefinition
	bars    []bar.Model
	clock   clockwork.Clock
	loc     *time.Location
	session *models.FastingSession
	loaded  bool
	now     time.Time
	warning string
}

func New(ctx context.Context, store *session.Store, wallet string, clock clockwork.Clock, loc *time.Location) Model {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	table := zones.List()
	bars := make([]bar.Model, len(table))
	for i, z := range table {
		bars[i] = bar.New(bar.WithSolidFill(z.DisplayColor), bar.WithoutPercentage(), bar.WithWidth(barWidth))
	}
	return Model{
		ctx:    ctx,
		store:  store,
		wallet: wallet,
		table:  table,
		bars:   bars,
		clock:  clock,
		loc:    loc,
		now:    clock.Now(),
	}
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.tickCmd())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg(m.clock.Now()) })
}

// loadCmd runs off the update loop so ticks keep rendering while it is pending.
func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{session: m.store.Load(m.ctx, m.wallet)}
	}
}

func (m Model) beginCmd(start time.Time) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: m.store.Begin(m.ctx, m.wallet, start, start)}
	}
}

func (m Model) resetCmd(now time.Time) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.Reset(m.ctx, m.wallet, now)
		return savedMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = time.Time(msg)
		return m, m.tickCmd()

	case loadedMsg:
		m.session = msg.session
		m.loaded = true
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.warning = "not saved: " + msg.err.Error()
		} else {
			m.warning = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if !m.loaded || m.session != nil {
				return m, nil
			}
			start := m.clock.Now().UTC().Truncate(time.Millisecond)
			// optimistic: the screen shows the fast even if the write fails
			m.session = &models.FastingSession{WalletID: m.wallet, StartTime: start}
			m.now = start
			return m, m.beginCmd(start)
		case "r":
			if m.session == nil {
				return m, nil
			}
			m.session = nil
			return m, m.resetCmd(m.clock.Now())
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Fasting zones · "+messages.ShortWallet(m.wallet)) + "\n\n")

	switch {
	case !m.loaded:
		b.WriteString(dimStyle.Render("Loading…") + "\n")
	case m.session == nil:
		b.WriteString("No active fast.\n\n" + dimStyle.Render("s start now · q quit") + "\n")
	default:
		s := m.session
		fmt.Fprintf(&b, "%s\n%s\n\n", progress.FormatSince(s.StartTime, m.loc), progress.FormatElapsed(s.StartTime, m.now))
		for i, p := range progress.ComputeAll(m.table, s.StartTime, m.now) {
			b.WriteString(m.zoneRow(i, p) + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("r reset · q quit") + "\n")
	}

	if m.warning != "" {
		b.WriteString("\n" + warnStyle.Render(m.warning) + "\n")
	}
	return baseStyle.Render(b.String())
}

func (m Model) zoneRow(i int, p models.ZoneProgress) string {
	name := lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Zone.DisplayColor)).
		Width(nameColWidth).
		Render(p.Zone.Name)
	status := doneStyle.Render("done")
	if !p.IsCompleted {
		status = fmt.Sprintf("%3.0f%%  %s left · %s", p.ProgressPercent,
			progress.FormatRemaining(p.Remaining), progress.FormatTarget(p.TargetTime, m.now, m.loc))
	}
	return fmt.Sprintf("%s %s  %s", name, m.bars[i].ViewAs(p.ProgressPercent/100), status)
}
