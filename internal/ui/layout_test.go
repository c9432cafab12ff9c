package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderHeader(t *testing.T) {
	l := NewLayout(100, 30)
	out := l.RenderHeader(HeaderInfo{
		Title:  "MedChain",
		Tabs:   []string{"Notifications", "Inventory"},
		Active: 1,
		Unread: 12,
		Link:   LinkLive,
	})

	assert.Contains(t, out, "MedChain")
	assert.Contains(t, out, "9+")
	assert.Contains(t, out, "Inventory")
	assert.Contains(t, out, "● live")
	assert.Equal(t, 100, lipgloss.Width(out))
}

func TestRenderHeaderWithoutUnread(t *testing.T) {
	out := NewLayout(80, 24).RenderHeader(HeaderInfo{Title: "MedChain", Active: -1})
	assert.NotContains(t, out, "9+")
	assert.Contains(t, out, LinkReconnecting.String())
}

func TestLinkStateLabels(t *testing.T) {
	assert.Equal(t, "⚠ offline (demo data)", LinkOffline.String())
	assert.Equal(t, "polling", LinkPolling.String())
	assert.Equal(t, "○ reconnecting", LinkState(99).String())
}

func TestStatusBarIsCutToWidth(t *testing.T) {
	l := NewLayout(20, 10)
	out := l.RenderStatusBar(strings.Repeat("hint ", 20))
	assert.Equal(t, 20, lipgloss.Width(out))
	assert.Contains(t, out, "…")
}

func TestFrameKeepsStatusBarOnLastLine(t *testing.T) {
	l := NewLayout(40, 6)
	out := l.RenderWithFrame("HEAD", "one\ntwo", "STATUS")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[0], "HEAD")
	assert.Contains(t, lines[5], "STATUS")

	clipped := l.RenderWithFrame("HEAD", strings.Repeat("row\n", 20), "STATUS")
	assert.Len(t, strings.Split(clipped, "\n"), 6)
	assert.Equal(t, 0, NewLayout(10, 1).ContentHeight())
}
