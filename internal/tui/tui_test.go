package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgbatch/internal/batch"
)

func TestModelTracksUpdates(t *testing.T) {
	cancelled := 0
	m := NewModel(nil, 3, func() { cancelled++ })

	next, cmd := m.Update(updateMsg(batch.ProgressUpdate{Input: "/in/a.png", Processed: 1, Failures: 1, Total: 3}))
	require.NotNil(t, cmd)
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Files: 1/3")
	assert.Contains(t, view, "failed:1")
	assert.Contains(t, view, "a.png")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	assert.Equal(t, 1, cancelled)
	assert.Contains(t, m.View(), "cancelling")

	next, _ = m.Update(updateMsg(batch.ProgressUpdate{Processed: 2, Total: 3, Done: true}))
	m = next.(Model)
	assert.Empty(t, m.View())
	assert.Equal(t, 2, m.processed)
}

func TestListenForUpdatesClosedChannel(t *testing.T) {
	ch := make(chan batch.ProgressUpdate)
	close(ch)
	assert.Equal(t, doneMsg{}, listenForUpdates(ch)())
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[==  ]", renderBar(4, 0.5))
	assert.Equal(t, "[====]", renderBar(4, 2))
	assert.Equal(t, "[    ]", renderBar(4, -1))
}

func TestRenderSummaryAndResults(t *testing.T) {
	s := RenderSummary([]SummaryRow{{Label: "Processed", Value: "2/2"}, {Label: "Failed", Value: "0"}})
	assert.Contains(t, s, "Processed")
	assert.Contains(t, s, "2/2")
	assert.Equal(t, 4, strings.Count(s, "\n")+1)

	r := RenderResults([]string{"/in/a.png\t[OK]", "/in/b.png\t[FAIL]"})
	assert.Contains(t, r, "/in/a.png")
	assert.Contains(t, r, "[FAIL]")
}
