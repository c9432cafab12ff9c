package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/theme"
	"github.com/medchain/inventory-console/internal/ui/command"
)

// columnGap separates side-by-side sections.
const columnGap = 4

var sectionTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(theme.ColorBlue).
	MarginBottom(1)

// Model is the help overlay: key bindings grouped by view, followed by
// the command palette vocabulary.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	h.Width = width - 8
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view. The overlay is static;
// the root model closes it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) renderSection(s keys.Section) string {
	body := m.help.FullHelpView([][]key.Binding{s.Bindings})
	return lipgloss.JoinVertical(lipgloss.Left, sectionTitleStyle.Render(s.Title), body)
}

// arrange lays sections out in as many columns as fit the inner width.
func arrange(blocks []string, width int) string {
	var rows []string
	var row []string
	rowWidth := 0
	for _, b := range blocks {
		w := lipgloss.Width(b) + columnGap
		if len(row) > 0 && rowWidth+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, rowWidth = nil, 0
		}
		row = append(row, lipgloss.NewStyle().PaddingRight(columnGap).Render(b))
		rowWidth += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// View renders the help overlay.
func (m Model) View() string {
	inner := m.width - 8

	var blocks []string
	for _, s := range m.keys.Sections() {
		blocks = append(blocks, m.renderSection(s))
	}

	cmds := make([]string, len(command.Known))
	for i, c := range command.Known {
		cmds[i] = ":" + c
	}
	palette := lipgloss.JoinVertical(lipgloss.Left,
		sectionTitleStyle.Render("Commands"),
		theme.HelpStyle.Width(inner).Render(strings.Join(cmds, "  ")),
	)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Keyboard Shortcuts")

	content := lipgloss.JoinVertical(lipgloss.Left, title, arrange(blocks, inner), "", palette)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 8
}
