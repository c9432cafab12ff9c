package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/medchain/inventory-console/internal/theme"
)

// LinkState summarizes how the console is receiving notifications.
type LinkState int

const (
	// LinkReconnecting means push is enabled but the channel is down.
	LinkReconnecting LinkState = iota
	// LinkLive means the push channel is open.
	LinkLive
	// LinkSyncing means a snapshot fetch is in flight.
	LinkSyncing
	// LinkPolling means push is disabled and snapshots are pulled.
	LinkPolling
	// LinkOffline means the last fetch failed and demo data is shown.
	LinkOffline
	// LinkError means the backend answered with an error.
	LinkError
)

// String returns the header label for s.
func (s LinkState) String() string {
	switch s {
	case LinkLive:
		return "● live"
	case LinkSyncing:
		return "syncing..."
	case LinkPolling:
		return "polling"
	case LinkOffline:
		return "⚠ offline (demo data)"
	case LinkError:
		return "⚠ backend error"
	default:
		return "○ reconnecting"
	}
}

func (s LinkState) style() lipgloss.Style {
	st := theme.HeaderStyle
	switch s {
	case LinkLive:
		return st.Foreground(theme.ColorGreen)
	case LinkOffline, LinkError:
		return st.Foreground(theme.ColorYellow)
	default:
		return st
	}
}

// HeaderInfo is what the top bar shows.
type HeaderInfo struct {
	Title string
	// Tabs are the primary views; Active indexes into it, or is -1 when
	// an overlay (help, settings, palette) is showing.
	Tabs   []string
	Active int
	Unread int
	Link   LinkState
}

// Layout splits the terminal into a one-line header, the content area
// and a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout for the given terminal size.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the width available to views.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left between header and status bar.
func (l Layout) ContentHeight() int {
	if h := l.Height - l.HeaderHeight - l.StatusBarHeight; h > 0 {
		return h
	}
	return 0
}

// RenderHeader renders the title with its unread badge, the view tabs
// and the link state right-aligned.
func (l Layout) RenderHeader(h HeaderInfo) string {
	left := theme.HeaderStyle.Render(h.Title)
	if badge := Badge(h.Unread); badge != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top, left, theme.BadgeStyle.Render(badge))
	}

	tabs := make([]string, len(h.Tabs))
	for i, name := range h.Tabs {
		if i == h.Active {
			tabs[i] = theme.HeaderStyle.Underline(true).Render(name)
			continue
		}
		tabs[i] = theme.HeaderStyle.Bold(false).Foreground(theme.ColorSubtle).Render(name)
	}
	if len(tabs) > 0 {
		left = lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Join(tabs, ""))
	}

	right := h.Link.style().Render(h.Link.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, l.fill(theme.HeaderStyle, left, right), right)
}

// RenderStatusBar renders the hints, cut to the terminal width.
func (l Layout) RenderStatusBar(hints string) string {
	// StatusBarStyle pads one cell on each side.
	hints = Truncate(hints, l.Width-2)
	rendered := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, l.fill(theme.StatusBarStyle, rendered, ""))
}

// fill returns a background-colored gap that stretches left and right
// to the full width.
func (l Layout) fill(bar lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(bar.GetBackground()).
		Render("")
}

// RenderWithFrame stacks header, content and status bar. The content is
// clipped to ContentHeight so the status bar stays on the last line.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}
