package ui

import (
	"fmt"
	"strings"

	"client-chat/internal/session"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	statusHeight   = 1
	headerHeight   = 1
	composerHeight = 3
	helpHeight     = 1
	minBodyHeight  = 5
)

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, right := m.paneWidths()

	bodyHeight := m.bodyHeight()
	m.history.SetSize(m.historyWidth()-4, bodyHeight-2)
	m.viewport.Width = right - 4
	m.viewport.Height = bodyHeight - 2

	inner := m.width - 4
	w := inner - lipgloss.Width(m.sendControl()) - lipgloss.Width(m.composer.Prompt) - 2
	if w < 10 {
		w = 10
	}
	m.composer.Width = w
	m.search.Width = m.width / 2
}

func (m Model) bodyHeight() int {
	h := m.height - statusHeight - headerHeight - composerHeight - helpHeight
	if m.ctrl.State().ModeMenuOpen {
		h -= m.modeMenuHeight()
	}
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

func (m Model) modeMenuHeight() int {
	return len(session.Modes) + 2
}

// paneWidths returns the outer widths of the history panel and the thread
// panel. The history width is zero while the panel is closed.
func (m Model) paneWidths() (int, int) {
	if !m.ctrl.State().HistoryOpen {
		return 0, m.width
	}
	left := m.historyWidth()
	right := m.width - left
	if right < 20 {
		right = 20
	}
	return left, right
}

func (m Model) historyWidth() int {
	left := m.width / 3
	if left < 28 {
		left = 28
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	return left
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}
	st := m.ctrl.State()
	left, right := m.paneWidths()
	bodyHeight := m.bodyHeight()

	thread := m.theme.panel(!st.HistoryOpen).
		Width(right - 2).
		Height(bodyHeight - 2).
		Render(m.viewport.View())
	body := thread
	if st.HistoryOpen {
		historyPane := m.theme.panel(true).
			Width(left - 2).
			Height(bodyHeight - 2).
			Render(m.history.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, historyPane, thread)
	}

	parts := []string{m.statusLine(), m.headerLine(), body}
	if st.ModeMenuOpen {
		parts = append(parts, m.modeMenuView())
	}
	parts = append(parts, m.composerView())

	helpView := m.help.View(m.keys)
	if m.searchMode {
		helpView = m.search.View() + "  " + helpView
	} else if m.searchQuery != "" {
		helpView = "search: " + m.searchQuery + "  " + helpView
	}
	parts = append(parts, helpView)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) statusLine() string {
	st := m.ctrl.State()
	status := fmt.Sprintf(
		"channel=%s  messages=%d  mode=%s",
		shorten(st.ActiveChannel, 18),
		m.ctrl.Store().Len(st.ActiveChannel),
		st.Mode,
	)
	if st.Sending {
		status += "  " + m.spinner.View() + " [sending]"
	}
	if m.searchQuery != "" || m.searchMode {
		status += "  [search]"
		if m.searchQuery != "" {
			if m.matchCount > 0 {
				cur := m.matchIndex + 1
				if cur < 1 {
					cur = 1
				}
				status += fmt.Sprintf("  [match %d/%d]", cur, m.matchCount)
			} else {
				status += "  [match 0]"
			}
		}
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 80)
	}
	if m.err != nil {
		status += "  err=" + m.err.Error()
	}
	return m.theme.status.Width(m.width).Render(ansi.Truncate(status, m.width-2, "…"))
}

func (m Model) headerLine() string {
	arrow := "▾"
	if m.ctrl.State().HistoryOpen {
		arrow = "▴"
	}
	pill := m.theme.pill.Render("● Chat history " + arrow)
	badge := m.theme.badge.Render("Chat")

	room := m.width - lipgloss.Width(pill) - lipgloss.Width(badge) - 4
	if room < 4 {
		room = 4
	}
	name := ansi.Truncate(m.registry.Name(m.ctrl.State().ActiveChannel, "Current client"), room, "…")
	return lipgloss.JoinHorizontal(lipgloss.Center, pill, "  ", m.theme.title.Render(name), " ", badge)
}

func (m Model) sendControl() string {
	st := m.ctrl.State()
	arrow := "▾"
	if st.ModeMenuOpen {
		arrow = "▴"
	}
	label := "Send ➤ │ " + string(st.Mode) + " " + arrow
	if st.Sending {
		return m.theme.sendOff.Render(m.spinner.View() + " Sending │ " + string(st.Mode) + " " + arrow)
	}
	if strings.TrimSpace(m.composer.Value()) == "" {
		return m.theme.sendOff.Render(label)
	}
	return m.theme.sendOn.Render(label)
}

func (m Model) composerView() string {
	row := lipgloss.JoinHorizontal(lipgloss.Center, m.composer.View(), "  ", m.sendControl())
	return m.theme.panel(!m.ctrl.State().HistoryOpen).Width(m.width - 2).Render(row)
}

func (m Model) modeMenuView() string {
	current := m.ctrl.State().Mode
	rows := make([]string, 0, len(session.Modes))
	for i, mode := range session.Modes {
		cursor := "  "
		if i == m.modeCursor {
			cursor = "› "
		}
		label := string(mode)
		if mode == current {
			label += " ✓"
		}
		style := m.theme.menuItem
		if i == m.modeCursor {
			style = m.theme.menuActive
		}
		rows = append(rows, style.Render(cursor+label))
	}
	menu := m.theme.panel(true).Render(strings.Join(rows, "\n"))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, menu)
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	return ansi.Truncate(s, n, "...")
}
