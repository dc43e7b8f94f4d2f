package ui

import (
	"strconv"
	"strings"

	"client-chat/internal/config"
	"client-chat/internal/conversation"
	"client-chat/internal/highlight"
	"client-chat/internal/index"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// refreshThread re-renders the active channel into the viewport. The scroll
// position is kept unless gotoBottom is set.
func (m *Model) refreshThread(gotoBottom bool) {
	content := m.renderThread()

	if query := strings.TrimSpace(m.searchQuery); query != "" {
		res := highlight.Terms(content, index.Terms(query), func(s string) string {
			return m.theme.match.Render(s)
		})
		content = res.Text
		m.setMatchMeta(res)
	} else {
		m.clearMatches()
	}

	oldOffset := m.viewport.YOffset
	m.viewport.SetContent(content)
	if gotoBottom {
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetYOffset(m.clampViewportOffset(oldOffset))
}

func (m *Model) renderThread() string {
	width := m.viewport.Width
	if width < 20 {
		width = 20
	}
	msgs := m.ctrl.ActiveMessages()
	if len(msgs) == 0 {
		text := "Start by asking a question about " + m.activeChannel().Name + "."
		return m.theme.empty.Width(width - 2).Render(text)
	}

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg conversation.Message, width int) string {
	bubble := width * 7 / 10
	if bubble < 16 {
		bubble = width
	}

	switch msg.Role {
	case conversation.RoleUser:
		text := strings.TrimSpace(msg.Text)
		w := lipgloss.Width(text) + 2
		if w > bubble {
			w = bubble
		}
		rendered := m.theme.user.Width(w).Render(text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, rendered)
	case conversation.RoleSystem:
		return m.theme.system.Width(bubble).Render("! " + strings.TrimSpace(msg.Text))
	default:
		return m.renderMarkdown(msg, bubble)
	}
}

func (m *Model) renderMarkdown(msg conversation.Message, width int) string {
	cacheKey := msg.ID + "|" + strconv.Itoa(width) + "|" + m.theme.name
	if out, ok := m.rendered[cacheKey]; ok {
		return out
	}

	out := msg.Text
	if r := m.markdownRenderer(width); r != nil {
		if rendered, err := r.Render(msg.Text); err == nil {
			out = strings.Trim(rendered, "\n")
		} else {
			m.log.Debug().Err(err).Str("message", msg.ID).Msg("markdown render failed")
		}
	}
	out = m.theme.assistant.Render(out)
	m.rendered[cacheKey] = out
	return out
}

func (m *Model) markdownRenderer(width int) *glamour.TermRenderer {
	if m.md != nil && m.mdWidth == width {
		return m.md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(config.GlamourStyle(m.theme.name)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn().Err(err).Msg("markdown renderer unavailable")
		return nil
	}
	m.md = r
	m.mdWidth = width
	return r
}
