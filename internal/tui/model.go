// Package tui renders batch progress in the terminal.
package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AnyUserName/imgbatch/internal/batch"
)

// Model is a bubbletea model fed by an engine's progress channel.
type Model struct {
	updates    <-chan batch.ProgressUpdate
	cancel     func()
	started    time.Time
	width      int
	total      int
	processed  int
	failures   int
	last       string
	cancelling bool
	quitting   bool
}

type doneMsg struct{}

type updateMsg batch.ProgressUpdate

// NewModel returns a model reading updates. cancel is called when the user
// presses ctrl+c or q; the model keeps running until the engine drains.
func NewModel(updates <-chan batch.ProgressUpdate, total int, cancel func()) Model {
	return Model{updates: updates, cancel: cancel, total: total, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total = msg.Total
		m.processed = msg.Processed
		m.failures = msg.Failures
		if msg.Done {
			m.quitting = true
			return m, tea.Quit
		}
		m.last = msg.Input
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1, float64(m.processed)/float64(m.total))
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	failures := dimStyle.Render(fmt.Sprintf("  failed:%d", m.failures))
	if m.failures > 0 {
		failures = failStyle.Render(fmt.Sprintf("  failed:%d", m.failures))
	}

	lines := []string{
		titleStyle.Render("imgbatch"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) + failures,
	}
	if m.last != "" {
		lines = append(lines, dimStyle.Render("Last: "+filepath.Base(m.last)))
	}
	lines = append(lines,
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(renderBar(barWidth, ratio)),
	)
	if m.cancelling {
		lines = append(lines, warnStyle.Render("cancelling, waiting for running files..."))
	}
	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan batch.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
