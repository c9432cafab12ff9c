package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/store"
	"github.com/medchain/inventory-console/internal/theme"
	"github.com/medchain/inventory-console/internal/ui"
)

const pageSize = 50

// BackMsg signals the parent to navigate back to the previous view.
type BackMsg struct{}

// LoadedMsg carries one page of journal entries.
type LoadedMsg struct {
	Entries []model.HistoryEntry
	Total   int
	Err     error
}

// Source is the read side of the journal.
type Source interface {
	History(ctx context.Context, filter store.HistoryFilter) ([]model.HistoryEntry, error)
	HistoryCount(ctx context.Context, filter store.HistoryFilter) (int, error)
}

var eventFilters = []model.HistoryEvent{"", model.HistoryAdded, model.HistoryRead, model.HistoryDismissed}

// Model is the notification history view.
type Model struct {
	ctx      context.Context
	source   Source
	entries  []model.HistoryEntry
	total    int
	page     int
	eventIdx int
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
	loading  bool
}

// New creates a history view over the journal.
func New(ctx context.Context, src Source, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		ctx:      ctx,
		source:   src,
		viewport: vp,
		keys:     k,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Filter returns the journal query for the current page and event filter.
func (m Model) Filter() store.HistoryFilter {
	f := store.HistoryFilter{Limit: pageSize, Offset: m.page * pageSize}
	if ev := eventFilters[m.eventIdx]; ev != "" {
		s := string(ev)
		f.Event = &s
	}
	return f
}

// Load queries the current page.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, src, filter := m.ctx, m.source, m.Filter()
	return func() tea.Msg {
		entries, err := src.History(ctx, filter)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		count := filter
		count.Limit, count.Offset = 0, 0
		total, err := src.HistoryCount(ctx, count)
		return LoadedMsg{Entries: entries, Total: total, Err: err}
	}
}

// Update handles messages for the history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		m.entries = msg.Entries
		m.total = msg.Total
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.CycleFilter):
			m.eventIdx = (m.eventIdx + 1) % len(eventFilters)
			m.page = 0
			return m, m.Load()

		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()

		case key.Matches(msg, m.keys.NextPage):
			if (m.page+1)*pageSize < m.total {
				m.page++
				return m, m.Load()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevPage):
			if m.page > 0 {
				m.page--
				return m, m.Load()
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Entries returns the entries on the current page.
func (m Model) Entries() []model.HistoryEntry {
	return m.entries
}

// View renders the history view.
func (m Model) View() string {
	if m.loading && len(m.entries) == 0 {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading history...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderStatus(), m.viewport.View())
}

func (m Model) renderStatus() string {
	label := "all events"
	if ev := eventFilters[m.eventIdx]; ev != "" {
		label = string(ev)
	}
	pages := max(1, (m.total+pageSize-1)/pageSize)
	line := fmt.Sprintf("%s · %d entries · page %d/%d · f filter · [ ] page",
		label, m.total, m.page+1, pages)
	if m.err != nil {
		return lipgloss.NewStyle().Foreground(theme.ColorRed).Render("⚠ " + m.err.Error())
	}
	return theme.HelpStyle.Render(line)
}

// renderContent builds the viewport body, one block per entry.
func (m Model) renderContent() string {
	if len(m.entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No history yet")
	}

	now := m.now()
	timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	msgStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).PaddingLeft(12)

	var sections []string
	for _, e := range m.entries {
		header := lipgloss.JoinHorizontal(lipgloss.Top,
			timeStyle.Render(ui.RelativeTime(e.RecordedAt, now)),
			eventStyle(e.Event).Render(strings.ToUpper(string(e.Event))),
			"  ",
			theme.KindIcon(string(e.Kind)), " ",
			theme.SeverityStyle(string(e.Severity)).Render(e.Title),
		)
		sections = append(sections, header)
		if e.Message != "" {
			sections = append(sections, msgStyle.Render(ui.Truncate(e.Message, max(10, m.width-14))))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func eventStyle(ev model.HistoryEvent) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Width(10)
	switch ev {
	case model.HistoryAdded:
		return s.Foreground(theme.ColorBlue)
	case model.HistoryRead:
		return s.Foreground(theme.ColorGreen)
	case model.HistoryDismissed:
		return s.Foreground(theme.ColorGray)
	default:
		return s
	}
}

// SetSize updates the history view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
