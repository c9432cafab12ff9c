package notifpanel

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
)

func sample() []model.Notification {
	return []model.Notification{
		{ID: "1", Kind: model.KindLowStock, Title: "Low", Severity: model.SeverityHigh, ItemID: "ms_001"},
		{ID: "2", Kind: model.KindExpiry, Title: "Exp", Severity: model.SeverityCritical, Read: true},
		{ID: "3", Kind: model.KindSystem, Title: "Sys", Severity: model.SeverityLow},
	}
}

func TestApplyFilters(t *testing.T) {
	list := sample()

	ids := func(in []model.Notification) []string {
		var out []string
		for _, n := range in {
			out = append(out, n.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Apply(list, FilterAll)))
	assert.Equal(t, []string{"1", "3"}, ids(Apply(list, FilterUnread)))
	assert.Equal(t, []string{"1"}, ids(Apply(list, FilterLowStock)))
	assert.Equal(t, []string{"2"}, ids(Apply(list, FilterExpiry)))
	assert.Equal(t, []string{"2"}, ids(Apply(list, FilterCritical)))
}

func newPanel(t *testing.T) (Model, *notify.Store) {
	t.Helper()
	s := notify.NewStore(nil)
	s.ReplaceAll(sample())
	m := New(context.Background(), s, keys.DefaultKeyMap(), 80, 30)
	m.Reload()
	return m, s
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMarkReadKeyMarksSelection(t *testing.T) {
	m, s := newPanel(t)

	m, _ = m.Update(press("m"))

	n, ok := s.Get("1")
	require.True(t, ok)
	assert.True(t, n.Read)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestMarkAllReadKey(t *testing.T) {
	m, s := newPanel(t)
	m, _ = m.Update(press("M"))
	assert.Zero(t, s.UnreadCount())
}

func TestDismissKeyRemovesAndReports(t *testing.T) {
	m, s := newPanel(t)

	m, cmd := m.Update(press("x"))
	require.NotNil(t, cmd)
	assert.False(t, s.Dismissed("2"))
	assert.True(t, s.Dismissed("1"))
	assert.Equal(t, 2, s.Len())

	msg := cmd()
	assert.Equal(t, DismissResultMsg{ID: "1"}, msg)
}

func TestSelectOpensItem(t *testing.T) {
	m, s := newPanel(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, OpenItemMsg{ItemID: "ms_001"}, cmd())

	n, _ := s.Get("1")
	assert.True(t, n.Read)
}

func TestCycleFilterNarrowsRows(t *testing.T) {
	m, _ := newPanel(t)

	m, _ = m.Update(press("f"))
	assert.Equal(t, "filter: unread", m.FilterSummary())
	assert.Len(t, m.list.Items(), 2)
}

func TestRefreshKeyRequestsFetch(t *testing.T) {
	m, _ := newPanel(t)
	_, cmd := m.Update(press("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, RefreshRequestMsg{}, cmd())
}
