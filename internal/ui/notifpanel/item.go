package notifpanel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/theme"
	"github.com/medchain/inventory-console/internal/ui"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a notification as a headline and a message line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification
	isSelected := index == m.Index()

	marker := " "
	if !n.Read {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("•")
	}

	icon := theme.KindStyle(string(n.Kind)).Render(theme.KindIcon(string(n.Kind)))
	sev := theme.SeverityStyle(string(n.Severity)).Render(strings.ToUpper(string(n.Severity)))

	titleStyle := theme.ReadStyle
	if !n.Read {
		titleStyle = theme.UnreadStyle
	}

	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ui.RelativeTime(n.CreatedAt, d.now()))

	width := m.Width() - 6
	headline := fmt.Sprintf("%s %s %s %s  %s",
		marker, icon, titleStyle.Render(ui.Truncate(n.Title, width/2)), sev, when)

	message := n.Message
	if n.ItemID != "" {
		message += "  [" + n.ItemID + "]"
	}
	body := "    " + theme.ReadStyle.Render(ui.Truncate(message, width-4))

	block := headline + "\n" + body
	if isSelected {
		block = theme.SelectedItemStyle.Render(block)
	} else {
		block = theme.ListItemStyle.Render(block)
	}

	fmt.Fprint(w, block)
}
