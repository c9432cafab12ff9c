package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
	appsync "github.com/medchain/inventory-console/internal/sync"
	"github.com/medchain/inventory-console/internal/ui"
	"github.com/medchain/inventory-console/internal/ui/command"
	configview "github.com/medchain/inventory-console/internal/ui/config"
	helpview "github.com/medchain/inventory-console/internal/ui/help"
	"github.com/medchain/inventory-console/internal/ui/history"
	"github.com/medchain/inventory-console/internal/ui/inventory"
	"github.com/medchain/inventory-console/internal/ui/notifpanel"
)

const appTitle = "MedChain Inventory"

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewInventory
	ViewHistory
	ViewSettings
	ViewHelp
	ViewCommand
)

// Deps are the long-lived services the root model drives.
type Deps struct {
	Ctx         context.Context
	Config      *model.AppConfig
	ConfigPath  string
	Store       *notify.Store
	Poller      *appsync.Poller
	Inventory   inventory.Backend
	History     history.Source // nil when the journal is disabled
	Credentials configview.Credentials
	Validator   configview.Validator
	Logger      *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the notification store.
type Model struct {
	currentView   ViewState
	previousView  ViewState
	layout        ui.Layout
	ctx           context.Context
	cfg           *model.AppConfig
	store         *notify.Store
	poller        *appsync.Poller
	logger        *zap.Logger
	keys          *keys.KeyMap
	notifPanel    notifpanel.Model
	inventoryView inventory.Model
	historyView   history.Model
	configView    configview.Model
	helpView      helpview.Model
	commandView   command.Model
	hasHistory    bool
	invLoaded     bool
	ready         bool
	unreadCount   int
	pushConnected bool

	authErrorMessage string
	statusMessage    string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := d.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	m := Model{
		currentView:   ViewNotifications,
		ctx:           ctx,
		cfg:           d.Config,
		store:         d.Store,
		poller:        d.Poller,
		logger:        logger.Named("app"),
		keys:          k,
		notifPanel:    notifpanel.New(ctx, d.Store, k, 80, 24),
		inventoryView: inventory.New(ctx, d.Inventory, k, 80, 24),
		configView:    configview.New(d.Config, d.ConfigPath, d.Credentials, d.Validator, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		hasHistory:    d.History != nil,
		unreadCount:   d.Store.UnreadCount(),
	}
	if d.History != nil {
		m.historyView = history.New(ctx, d.History, k, 80, 24)
	}
	return m
}

// Init loads the panel and starts fetching and listening.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.notifPanel.Init(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.notifPanel.SetSize(contentWidth, contentHeight)
		m.inventoryView.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Result.Err == nil {
			m.authErrorMessage = ""
		}
		m.statusMessage = fetchStatus(msg.Result)
		return m, m.poller.WaitForNextResult()

	case appsync.StoreChangedMsg:
		m.unreadCount = m.store.UnreadCount()
		return m, tea.Batch(m.notifPanel.Reload(), m.poller.WaitForChange())

	case appsync.PushStateMsg:
		m.pushConnected = msg.Connected
		return m, m.poller.WaitForPush()

	case notifpanel.RefreshRequestMsg:
		m.poller.RefreshAll()
		m.statusMessage = "refreshing alerts..."
		return m, nil

	case notifpanel.DismissResultMsg:
		if msg.Err != nil {
			m.statusMessage = "dismissed locally; backend did not confirm"
		} else {
			m.statusMessage = ""
		}
		if m.invLoaded {
			return m, m.inventoryView.Load()
		}
		return m, nil

	case notifpanel.OpenItemMsg:
		if msg.ItemID == "" {
			return m, nil
		}
		m.inventoryView.FocusItem(msg.ItemID)
		return m, m.switchTo(ViewInventory)

	case inventory.DismissAlertMsg:
		return m, notifpanel.WaitDismiss(msg.AlertID, m.store.Dismiss(m.ctx, msg.AlertID))

	case inventory.SnapshotLoadedMsg, inventory.ActionDoneMsg:
		var cmd tea.Cmd
		m.inventoryView, cmd = m.inventoryView.Update(msg)
		if done, ok := msg.(inventory.ActionDoneMsg); ok {
			m.statusMessage = actionStatus(done)
		}
		return m, cmd

	case history.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case history.BackMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case configview.ConfigDoneMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigSavedMsg:
		m.cfg = msg.Config
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.inputFocused() {
			break
		}

		switch msg.String() {
		case "q":
			if m.currentView == ViewNotifications || m.currentView == ViewInventory {
				return m, m.quit()
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
		}

		if m.currentView == ViewNotifications || m.currentView == ViewInventory {
			switch msg.String() {
			case "n":
				return m, m.switchTo(ViewNotifications)
			case "i":
				return m, m.switchTo(ViewInventory)
			case "H":
				return m, m.switchTo(ViewHistory)
			case "s":
				return m, m.switchTo(ViewSettings)
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// inputFocused reports whether the active view is consuming text input,
// in which case global single-key shortcuts must not fire.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewCommand:
		return true
	case ViewSettings:
		return m.configView.Mode() != configview.ModeSummary
	case ViewNotifications:
		return m.notifPanel.Filtering()
	case ViewInventory:
		return m.inventoryView.Searching()
	}
	return false
}

// switchTo activates a top-level view, loading it on first use.
func (m *Model) switchTo(v ViewState) tea.Cmd {
	if v == ViewHistory && !m.hasHistory {
		m.statusMessage = "history journal is disabled"
		return nil
	}
	if v != m.currentView {
		m.previousView = m.currentView
	}
	m.currentView = v

	switch v {
	case ViewInventory:
		if !m.invLoaded {
			m.invLoaded = true
			return m.inventoryView.Load()
		}
	case ViewHistory:
		return m.historyView.Load()
	}
	return nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifPanel, cmd = m.notifPanel.Update(msg)
	case ViewInventory:
		m.inventoryView, cmd = m.inventoryView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewSettings:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(ui.HeaderInfo{
		Title:  appTitle,
		Tabs:   headerTabs,
		Active: m.activeTab(),
		Unread: m.unreadCount,
		Link:   m.syncStatus(),
	})
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifPanel.View()
	case ViewInventory:
		return m.inventoryView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewSettings:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerTabs are the primary views in key order (n, i, H).
var headerTabs = []string{"Notifications", "Inventory", "History"}

// activeTab maps the current view to its header tab, or -1 for overlays.
func (m Model) activeTab() int {
	switch m.currentView {
	case ViewNotifications:
		return 0
	case ViewInventory:
		return 1
	case ViewHistory:
		return 2
	default:
		return -1
	}
}

// syncStatus summarizes push and fetch state for the header.
func (m Model) syncStatus() ui.LinkState {
	if m.pushConnected {
		return ui.LinkLive
	}

	st := m.poller.Status()
	switch {
	case st.State == appsync.SyncRunning:
		return ui.LinkSyncing
	case st.Outcome == notify.FetchFallback:
		return ui.LinkOffline
	case st.State == appsync.SyncError:
		return ui.LinkError
	case !m.cfg.Push.Enabled:
		return ui.LinkPolling
	default:
		return ui.LinkReconnecting
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Show auth error prominently when present.
	if m.authErrorMessage != "" && m.currentView == ViewNotifications {
		return m.authErrorMessage
	}

	var hints string
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewSettings:
		return "e edit | t token | v test | esc back"
	case ViewHistory:
		return "f event filter | [ ] page | r reload | esc back"
	case ViewInventory:
		hints = "tab next tab | / search | f filter | c check alerts | g generate orders | x dismiss | n notifications"
		if s := m.inventoryView.FilterSummary(); s != "" {
			hints = s + " | " + hints
		}
	default:
		hints = "q quit | ? help | enter open | m read | M read all | x dismiss | f filter | r refresh | i inventory"
		if s := m.notifPanel.FilterSummary(); s != "" {
			hints = s + " | " + hints
		}
	}
	if m.statusMessage != "" {
		return m.statusMessage + " | " + hints
	}
	return hints
}

// quit stops background work and exits.
func (m Model) quit() tea.Cmd {
	m.poller.Stop()
	return tea.Quit
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		m.poller.RefreshAll()
		m.statusMessage = "refreshing alerts..."
		return nil
	case "read all":
		n := m.store.MarkAllRead()
		m.statusMessage = fmt.Sprintf("marked %d read", n)
		return nil
	case "demo":
		for _, d := range notify.DemoBatch() {
			m.store.Publish(d)
		}
		return nil
	case "demo random":
		m.store.Publish(notify.RandomDemo())
		return nil
	case "notifications":
		return m.switchTo(ViewNotifications)
	case "inventory":
		return m.switchTo(ViewInventory)
	case "history":
		return m.switchTo(ViewHistory)
	case "check alerts":
		cmd := m.switchTo(ViewInventory)
		return tea.Batch(cmd, m.inventoryView.CheckAlerts())
	case "auto orders":
		cmd := m.switchTo(ViewInventory)
		return tea.Batch(cmd, m.inventoryView.AutoGenerateOrders())
	case "settings", "config":
		return m.switchTo(ViewSettings)
	case "token":
		m.switchTo(ViewSettings)
		var c tea.Cmd
		m.configView, c = m.configView.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
		return c
	case "quit", "q":
		return m.quit()
	default:
		m.statusMessage = fmt.Sprintf("unknown command %q", cmd)
		return nil
	}
}

// fetchStatus describes a finished snapshot fetch for the status bar.
func fetchStatus(r notify.FetchResult) string {
	switch r.Outcome {
	case notify.FetchApplied:
		return fmt.Sprintf("loaded %d alerts", r.Count)
	case notify.FetchFallback:
		return "backend unreachable; showing demo notifications"
	case notify.FetchKept:
		return "refresh failed; keeping current notifications"
	default:
		return ""
	}
}

func actionStatus(msg inventory.ActionDoneMsg) string {
	if msg.Err != nil {
		return msg.Action + " failed"
	}
	return msg.Action + " done"
}
