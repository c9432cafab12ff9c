package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Views
	Notifications key.Binding
	Inventory     key.Binding
	History       key.Binding
	Settings      key.Binding
	NextTab       key.Binding
	CycleFilter   key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Dismiss     key.Binding

	// Inventory actions
	CheckAlerts    key.Binding
	GenerateOrders key.Binding

	// History paging
	NextPage key.Binding
	PrevPage key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Inventory: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "inventory"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x", "d"),
			key.WithHelp("x", "dismiss"),
		),
		CheckAlerts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "check alerts"),
		),
		GenerateOrders: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate orders"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous page"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Notifications, k.Inventory,
		k.Quit, k.Help, k.Command,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.Notifications, k.Inventory, k.History, k.Settings},
		{k.NextTab, k.CycleFilter},
		{k.MarkRead, k.MarkAllRead, k.Dismiss},
	}
}

// Section is a titled group of bindings shown in the help overlay.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections groups the bindings by the view they act in.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{"Global", []key.Binding{k.Notifications, k.Inventory, k.History, k.Settings, k.Command, k.Help, k.Quit}},
		{"Notifications", []key.Binding{k.Up, k.Down, k.Select, k.MarkRead, k.MarkAllRead, k.Dismiss, k.CycleFilter, k.Search, k.Refresh}},
		{"Inventory", []key.Binding{k.NextTab, k.CycleFilter, k.Search, k.Dismiss, k.CheckAlerts, k.GenerateOrders, k.Refresh}},
		{"History", []key.Binding{k.CycleFilter, k.PrevPage, k.NextPage, k.Refresh, k.Back}},
	}
}
