package notifpanel

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
	"github.com/medchain/inventory-console/internal/theme"
)

// DismissResultMsg reports the backend half of a dismiss.
type DismissResultMsg struct {
	ID  string
	Err error
}

// RefreshRequestMsg asks the root model to run a snapshot fetch.
type RefreshRequestMsg struct{}

// OpenItemMsg is sent when the user opens a notification that points at
// an inventory item.
type OpenItemMsg struct {
	ItemID    string
	ActionURL string
}

// Filter narrows the rows shown in the panel.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
	FilterLowStock
	FilterExpiry
	FilterCritical
	filterCount
)

// Label is the status bar text for the filter.
func (f Filter) Label() string {
	switch f {
	case FilterUnread:
		return "unread"
	case FilterLowStock:
		return "low stock"
	case FilterExpiry:
		return "expiry"
	case FilterCritical:
		return "critical"
	default:
		return "all"
	}
}

// Apply returns the notifications that pass f, preserving order.
func Apply(list []model.Notification, f Filter) []model.Notification {
	if f == FilterAll {
		return list
	}
	out := make([]model.Notification, 0, len(list))
	for _, n := range list {
		var keep bool
		switch f {
		case FilterUnread:
			keep = !n.Read
		case FilterLowStock:
			keep = n.Kind == model.KindLowStock
		case FilterExpiry:
			keep = n.Kind == model.KindExpiry
		case FilterCritical:
			keep = n.Severity == model.SeverityCritical
		}
		if keep {
			out = append(out, n)
		}
	}
	return out
}

// Model is the notification panel view.
type Model struct {
	ctx    context.Context
	list   list.Model
	store  *notify.Store
	keys   *keys.KeyMap
	filter Filter
	now    func() time.Time
	width  int
	height int
}

// New creates the panel over the shared store. ctx bounds backend
// dismiss calls.
func New(ctx context.Context, s *notify.Store, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{now: time.Now}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("notification", "notifications")

	return Model{
		ctx:    ctx,
		list:   l,
		store:  s,
		keys:   k,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Init loads the current store contents.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload rebuilds the rows from the store. The root model calls it
// whenever the store reports a change.
func (m *Model) Reload() tea.Cmd {
	rows := Apply(m.store.List(), m.filter)
	items := make([]list.Item, len(rows))
	for i, n := range rows {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Select):
			n, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.store.MarkRead(n.ID)
			if n.ItemID == "" && n.ActionURL == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return OpenItemMsg{ItemID: n.ItemID, ActionURL: n.ActionURL}
			}

		case key.Matches(msg, m.keys.MarkRead):
			if n, ok := m.selected(); ok {
				m.store.MarkRead(n.ID)
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkAllRead):
			m.store.MarkAllRead()
			return m, nil

		case key.Matches(msg, m.keys.Dismiss):
			n, ok := m.selected()
			if !ok {
				return m, nil
			}
			return m, WaitDismiss(n.ID, m.store.Dismiss(m.ctx, n.ID))

		case key.Matches(msg, m.keys.Refresh):
			return m, func() tea.Msg { return RefreshRequestMsg{} }

		case key.Matches(msg, m.keys.CycleFilter):
			m.filter = (m.filter + 1) % filterCount
			return m, m.Reload()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// WaitDismiss turns the store's dismiss result channel into a message.
func WaitDismiss(id string, result <-chan error) tea.Cmd {
	return func() tea.Msg {
		return DismissResultMsg{ID: id, Err: <-result}
	}
}

func (m Model) selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// FilterSummary describes the active filter for the status bar.
func (m Model) FilterSummary() string {
	if m.filter == FilterAll {
		return ""
	}
	return "filter: " + m.filter.Label()
}

// View renders the panel.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter != FilterAll {
		return style.Render(fmt.Sprintf(
			"No %s notifications.\nPress f to change the filter.", m.filter.Label(),
		))
	}
	return style.Render("No notifications.\n\nYou're all caught up!")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
