package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	backend "github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/theme"
)

// Backend is the part of the inventory client the view drives.
type Backend interface {
	FetchSnapshot(ctx context.Context) (*backend.Snapshot, error)
	CheckAlerts(ctx context.Context) error
	AutoGenerateOrders(ctx context.Context) error
}

// SnapshotLoadedMsg carries a (possibly partial) snapshot.
type SnapshotLoadedMsg struct {
	Snapshot *backend.Snapshot
	Err      error
}

// ActionDoneMsg reports a trigger-only backend call.
type ActionDoneMsg struct {
	Action string
	Err    error
}

// DismissAlertMsg asks the root model to dismiss an alert through the
// shared notification store.
type DismissAlertMsg struct {
	AlertID string
}

// Tab selects the visible collection.
type Tab int

const (
	TabSupplies Tab = iota
	TabAlerts
	TabOrders
	TabSuppliers
	tabCount
)

var tabNames = [tabCount]string{"Supplies", "Alerts", "Purchase Orders", "Suppliers"}

// tabOptions are the values the f key cycles through per tab.
var tabOptions = [tabCount][]string{
	TabSupplies:  {"all", model.SupplyStatusLowStock, model.SupplyStatusNormal},
	TabAlerts:    {"all", "critical", "high", "medium", "low"},
	TabOrders:    {"all", model.OrderPending, model.OrderSent, model.OrderConfirmed, model.OrderReceived, model.OrderCancelled},
	TabSuppliers: {"all"},
}

// Model is the tabbed inventory view.
type Model struct {
	ctx         context.Context
	backend     Backend
	keys        *keys.KeyMap
	tab         Tab
	optionIdx   [tabCount]int
	query       string
	table       table.Model
	snap        backend.Snapshot
	loading     bool
	err         error
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates the inventory view.
func New(ctx context.Context, b Backend, k *keys.KeyMap, width, height int) Model {
	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue)
	t.SetStyles(styles)

	si := textinput.New()
	si.Placeholder = "search supplies, alerts, orders, suppliers..."
	si.Prompt = "/ "
	si.Width = width - 4

	m := Model{
		ctx:         ctx,
		backend:     b,
		keys:        k,
		table:       t,
		searchInput: si,
		width:       width,
		height:      height,
	}
	m.SetSize(width, height)
	return m
}

// Init loads the first snapshot.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load fetches all four collections.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		snap, err := b.FetchSnapshot(ctx)
		return SnapshotLoadedMsg{Snapshot: snap, Err: err}
	}
}

// FocusItem switches to the supplies tab filtered to one item.
func (m *Model) FocusItem(itemID string) {
	m.tab = TabSupplies
	m.query = itemID
	m.searchInput.SetValue(itemID)
	m.rebuild()
}

// Criteria returns the active filter for the current tab.
func (m Model) Criteria() Criteria {
	c := Criteria{Query: m.query}
	opt := tabOptions[m.tab][m.optionIdx[m.tab]]
	if m.tab == TabAlerts {
		c.Severity = opt
	} else {
		c.Status = opt
	}
	return c
}

// Update handles messages for the inventory view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Snapshot != nil {
			m.snap = *msg.Snapshot
		}
		m.rebuild()
		return m, nil

	case ActionDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		m.rebuild()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		m.rebuild()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.CycleFilter):
		m.optionIdx[m.tab] = (m.optionIdx[m.tab] + 1) % len(tabOptions[m.tab])
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.Dismiss):
		if m.tab != TabAlerts {
			return m, nil
		}
		row := m.table.SelectedRow()
		if len(row) == 0 {
			return m, nil
		}
		id := row[0]
		return m, func() tea.Msg { return DismissAlertMsg{AlertID: id} }

	case key.Matches(msg, m.keys.CheckAlerts):
		return m, m.CheckAlerts()

	case key.Matches(msg, m.keys.GenerateOrders):
		return m, m.AutoGenerateOrders()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// CheckAlerts triggers a backend alert evaluation and reloads.
func (m Model) CheckAlerts() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		return ActionDoneMsg{Action: "check alerts", Err: b.CheckAlerts(ctx)}
	}
}

// AutoGenerateOrders triggers purchase order generation and reloads.
func (m Model) AutoGenerateOrders() tea.Cmd {
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		return ActionDoneMsg{Action: "auto-generate orders", Err: b.AutoGenerateOrders(ctx)}
	}
}

// rebuild recomputes columns and rows for the current tab and filter.
func (m *Model) rebuild() {
	c := m.Criteria()
	var (
		cols []table.Column
		rows []table.Row
	)

	switch m.tab {
	case TabSupplies:
		cols = m.columns([]string{"ID", "Name", "Stock", "Threshold", "Unit", "Supplier", "Expiry", "Status"},
			[]int{8, 24, 7, 9, 8, 16, 12, 10})
		for _, s := range FilterSupplies(m.snap.Supplies, c) {
			expiry := ""
			if s.ExpiryDate != nil && !s.ExpiryDate.IsZero() {
				expiry = s.ExpiryDate.Format("2006-01-02")
			}
			rows = append(rows, table.Row{
				s.ID, s.Name, strconv.Itoa(s.CurrentStock), strconv.Itoa(s.ThresholdQuantity),
				s.Unit, s.SupplierName, expiry, s.Status,
			})
		}

	case TabAlerts:
		cols = m.columns([]string{"ID", "Item", "Type", "Severity", "Message", "Created"},
			[]int{10, 18, 10, 9, 36, 16})
		for _, a := range FilterAlerts(m.snap.Alerts, c) {
			rows = append(rows, table.Row{
				a.AlertID, a.ItemName, a.Type, a.Severity, a.Message,
				a.CreatedAt.Local().Format("2006-01-02 15:04"),
			})
		}

	case TabOrders:
		cols = m.columns([]string{"Order", "Item", "Qty", "Supplier", "Status", "Total", "Created"},
			[]int{14, 20, 6, 16, 10, 10, 16})
		for _, o := range FilterOrders(m.snap.PurchaseOrders, c) {
			total := ""
			if o.TotalAmount != nil {
				total = fmt.Sprintf("%.2f", *o.TotalAmount)
			}
			rows = append(rows, table.Row{
				o.OrderID, o.ItemName, strconv.Itoa(o.Quantity), o.SupplierName,
				o.Status, total, o.CreatedAt.Local().Format("2006-01-02 15:04"),
			})
		}

	case TabSuppliers:
		cols = m.columns([]string{"ID", "Name", "Email", "Phone", "Lead days", "Min qty"},
			[]int{8, 22, 26, 16, 9, 8})
		for _, s := range FilterSuppliers(m.snap.Suppliers, c) {
			rows = append(rows, table.Row{
				s.ID, s.Name, deref(s.Email), deref(s.Phone),
				strconv.Itoa(s.LeadTimeDays), strconv.Itoa(s.MinimumOrderQuantity),
			})
		}
	}

	// Rows must be cleared before columns shrink or the table panics on
	// rows wider than the new column set.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

// columns scales the preferred widths down to the available width.
func (m Model) columns(titles []string, widths []int) []table.Column {
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	avail := m.width - 2
	cols := make([]table.Column, len(titles))
	for i, t := range titles {
		w := widths[i]
		if total > avail && avail > 0 {
			w = max(4, w*avail/total)
		}
		cols[i] = table.Column{Title: t, Width: w}
	}
	return cols
}

// RowCount returns the number of rows currently shown.
func (m Model) RowCount() int {
	return len(m.table.Rows())
}

// ActiveTab returns the visible tab.
func (m Model) ActiveTab() Tab {
	return m.tab
}

// View renders tabs, the summary line and the table.
func (m Model) View() string {
	var tabs []string
	for i, name := range tabNames {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(theme.ColorGray)
		if Tab(i) == m.tab {
			style = style.Bold(true).Foreground(theme.ColorWhite).Background(theme.ColorBlue)
		}
		tabs = append(tabs, style.Render(name))
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	c := Criteria{Query: m.query}
	sum := Summarize(
		FilterSupplies(m.snap.Supplies, c),
		FilterAlerts(m.snap.Alerts, c),
		FilterOrders(m.snap.PurchaseOrders, c),
		FilterSuppliers(m.snap.Suppliers, c),
	)
	summary := theme.HelpStyle.Render(fmt.Sprintf(
		"%d supplies (%d low stock) · %d alerts (%d critical) · %d orders (%d pending) · %d suppliers",
		sum.Supplies, sum.LowStock, sum.Alerts, sum.CriticalAlerts,
		sum.Orders, sum.PendingOrders, sum.Suppliers,
	))

	var status string
	switch {
	case m.loading:
		status = theme.HelpStyle.Render("loading...")
	case m.err != nil:
		status = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("⚠ " + m.err.Error())
	}

	parts := []string{tabBar, summary}
	if m.searchMode {
		parts = append(parts, m.searchInput.View())
	} else if m.query != "" {
		parts = append(parts, theme.HelpStyle.Render("search: "+m.query))
	}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, m.table.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// FilterSummary describes the active filter for the status bar.
func (m Model) FilterSummary() string {
	opt := tabOptions[m.tab][m.optionIdx[m.tab]]
	if opt == "all" && m.query == "" {
		return ""
	}
	return fmt.Sprintf("%s filter: %s", strings.ToLower(tabNames[m.tab]), opt)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
	m.table.SetWidth(width)
	m.table.SetHeight(max(3, height-6))
	m.rebuild()
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}
