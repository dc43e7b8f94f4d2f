package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"client-chat/internal/channel"
	"client-chat/internal/clipboard"
	"client-chat/internal/config"
	"client-chat/internal/conversation"
	"client-chat/internal/export"
	"client-chat/internal/highlight"
	"client-chat/internal/index"
	"client-chat/internal/reply"
	"client-chat/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"
)

const searchLimit = 50

// Copier puts text on the system clipboard.
type Copier interface {
	Copy(ctx context.Context, text string) error
}

// Deps is everything the chat screen needs from the outside.
type Deps struct {
	Config     config.AppConfig
	Registry   *channel.Registry
	Controller *session.Controller
	Index      *index.Index
	Exporter   *export.Exporter
	Copier     Copier
	Logger     zerolog.Logger
}

type Model struct {
	cfg      config.AppConfig
	registry *channel.Registry
	ctrl     *session.Controller
	index    *index.Index
	exporter *export.Exporter
	copier   Copier
	log      zerolog.Logger

	history  list.Model
	viewport viewport.Model
	composer textinput.Model
	search   textinput.Model
	help     help.Model
	spinner  spinner.Model
	keys     keyMap
	theme    theme

	width  int
	height int

	modeCursor  int
	searchMode  bool
	searchQuery string
	hits        []index.Hit

	md         *glamour.TermRenderer
	mdWidth    int
	rendered   map[string]string
	matchLines []int
	matchCount int
	matchIndex int

	status string
	err    error
}

type replyMsg struct {
	req  reply.Request
	resp reply.Response
	err  error
}
type searchMsg struct {
	query string
	hits  []index.Hit
	err   error
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct {
	err error
}

func NewModel(d Deps) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 32, 20)
	l.Title = "Chat history"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	composer := textinput.New()
	composer.Prompt = "› "
	composer.CharLimit = 4000

	search := textinput.New()
	search.Placeholder = "Search across chats..."
	search.Prompt = "/ "
	search.CharLimit = 256

	registry := d.Registry
	if registry == nil {
		registry = channel.DefaultRegistry()
	}
	copier := d.Copier
	if copier == nil {
		copier = clipboard.New()
	}

	m := Model{
		cfg:        d.Config,
		registry:   registry,
		ctrl:       d.Controller,
		index:      d.Index,
		exporter:   d.Exporter,
		copier:     copier,
		log:        d.Logger,
		history:    l,
		viewport:   vp,
		composer:   composer,
		search:     search,
		help:       h,
		spinner:    sp,
		keys:       defaultKeys(),
		theme:      newTheme(d.Config.Theme),
		rendered:   make(map[string]string),
		matchIndex: -1,
	}
	m.composer.Focus()
	m.syncComposer()
	m.rebuildHistory()
	m.refreshThread(true)
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) fetchCmd(req reply.Request) tea.Cmd {
	ctrl := m.ctrl
	timeout := m.cfg.ReplyTimeout
	if timeout <= 0 {
		timeout = config.DefaultReplyTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := ctrl.Fetch(ctx, req)
		return replyMsg{req: req, resp: resp, err: err}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	if m.index == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	idx := m.index
	return func() tea.Msg {
		hits, err := idx.Search(context.Background(), query, searchLimit)
		return searchMsg{query: query, hits: hits, err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	if m.exporter == nil {
		return nil
	}
	ch := m.activeChannel()
	msgs := m.ctrl.ActiveMessages()
	exp := m.exporter
	return func() tea.Msg {
		path, err := exp.Export(ch, msgs)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	last, ok := m.ctrl.Store().LastByRole(m.ctrl.State().ActiveChannel, conversation.RoleAssistant)
	if !ok {
		return nil
	}
	copier := m.copier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return copyMsg{err: copier.Copy(ctx, last.Text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshThread(true)

	case replyMsg:
		effects := m.ctrl.CompleteSubmit(msg.req, msg.resp, msg.err)
		if msg.err != nil {
			m.err = msg.err
			m.status = "Reply failed for " + m.registry.Name(msg.req.ChannelID, msg.req.ChannelID)
		} else {
			m.err = nil
			m.status = "Reply received"
		}
		cmds = append(cmds, m.apply(effects))
		if m.searchQuery != "" {
			cmds = append(cmds, m.searchCmd(m.searchQuery))
		}

	case searchMsg:
		if msg.query != m.searchQuery {
			break
		}
		if msg.err != nil {
			m.err = msg.err
			m.status = "Search failed"
			break
		}
		m.hits = msg.hits
		m.rebuildHistory()
		m.refreshThread(false)
		m.status = fmt.Sprintf("%d chats match", len(msg.hits))

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrToolNotFound) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied last reply to clipboard"
		}

	case spinner.TickMsg:
		if m.ctrl.State().Sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.searchMode {
		return m.updateSearch(msg)
	}

	st := m.ctrl.State()
	if st.HistoryOpen {
		return m.updateHistory(msg)
	}
	if st.ModeMenuOpen {
		return m.updateModeMenu(msg)
	}

	switch {
	case key.Matches(msg, m.keys.History):
		m.ctrl.Dispatch(session.ToggleHistory{})
		m.resize()
		m.rebuildHistory()
		m.syncHistorySelection()
		m.refreshThread(false)
		return m, nil
	case key.Matches(msg, m.keys.Modes):
		m.ctrl.Dispatch(session.ToggleModeMenu{})
		m.modeCursor = modeIndex(m.ctrl.State().Mode)
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.search.SetValue(m.searchQuery)
		m.search.CursorEnd()
		m.composer.Blur()
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Esc):
		if m.searchQuery != "" {
			m.clearSearch()
		}
		return m, nil
	case key.Matches(msg, m.keys.NextMatch):
		m.jumpToMatch(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevMatch):
		m.jumpToMatch(-1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyCmd()
		if cmd == nil {
			m.status = "Nothing to copy yet"
		}
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		cmd := m.submit()
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.ctrl.Dispatch(session.SetDraft{Text: m.composer.Value()})
	return m, cmd
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.History), key.Matches(msg, m.keys.Esc):
		m.ctrl.Dispatch(session.ToggleHistory{})
		m.resize()
		m.refreshThread(false)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		id := m.currentHistoryID()
		if id == "" {
			return m, nil
		}
		cmd := m.selectChannel(id)
		return m, cmd
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m Model) updateModeMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(session.Modes)
	switch {
	case key.Matches(msg, m.keys.Modes), key.Matches(msg, m.keys.Esc):
		m.ctrl.Dispatch(session.ToggleModeMenu{})
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.modeCursor = (m.modeCursor - 1 + n) % n
	case key.Matches(msg, m.keys.Down):
		m.modeCursor = (m.modeCursor + 1) % n
	case key.Matches(msg, m.keys.Submit):
		mode := session.Modes[m.modeCursor]
		m.status = "Send mode: " + string(mode)
		cmd := m.apply(m.ctrl.Dispatch(session.SelectMode{Mode: mode}))
		return m, cmd
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearSearch()
		cmd := m.composer.Focus()
		return m, cmd
	case "enter":
		m.searchMode = false
		m.search.Blur()
		m.searchQuery = strings.TrimSpace(m.search.Value())
		m.refreshThread(false)
		focus := m.composer.Focus()
		if m.searchQuery == "" {
			m.clearSearch()
			return m, focus
		}
		if m.index == nil {
			m.status = "Search unavailable"
		}
		return m, tea.Batch(focus, m.searchCmd(m.searchQuery))
	}

	before := strings.TrimSpace(m.search.Value())
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	cmds = append(cmds, cmd)
	after := strings.TrimSpace(m.search.Value())
	if after != before {
		m.searchQuery = after
		if after == "" {
			m.hits = nil
			m.rebuildHistory()
		}
		m.refreshThread(false)
		cmds = append(cmds, m.searchCmd(after))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) submit() tea.Cmd {
	_, ok, effects := m.ctrl.BeginSubmit(m.composer.Value())
	if !ok {
		if m.ctrl.State().Sending {
			m.status = "Still waiting for the previous reply"
		}
		return nil
	}
	m.composer.SetValue("")
	m.err = nil
	m.status = "Sending to " + m.activeChannel().Name
	return tea.Batch(m.apply(effects), m.spinner.Tick)
}

func (m *Model) selectChannel(id string) tea.Cmd {
	effects := m.ctrl.SelectChannel(id)
	m.syncComposer()
	m.rebuildHistory()
	m.status = "Switched to " + m.activeChannel().Name
	return m.apply(effects)
}

// apply performs the effects that belong to the screen. Store effects were
// already applied by the controller.
func (m *Model) apply(effects []session.Effect) tea.Cmd {
	var cmds []tea.Cmd
	scroll := false
	for _, eff := range effects {
		switch eff := eff.(type) {
		case session.FetchReply:
			cmds = append(cmds, m.fetchCmd(eff.Request))
		case session.ScrollToLatest:
			scroll = true
		case session.FocusComposer:
			cmds = append(cmds, m.composer.Focus())
		}
	}
	m.resize()
	m.rebuildHistory()
	m.refreshThread(scroll)
	return tea.Batch(cmds...)
}

func (m *Model) clearSearch() {
	m.searchMode = false
	m.searchQuery = ""
	m.search.SetValue("")
	m.search.Blur()
	m.hits = nil
	m.rebuildHistory()
	m.refreshThread(false)
}

func (m Model) activeChannel() channel.Channel {
	id := m.ctrl.State().ActiveChannel
	if ch, ok := m.registry.Lookup(id); ok {
		return ch
	}
	return channel.Channel{ID: id, Name: m.registry.Name(id, "Current client")}
}

func (m *Model) syncComposer() {
	m.composer.Placeholder = "Message – " + m.activeChannel().Name
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		m.status = "No search matches in this chat"
		return
	}

	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	} else if delta > 0 {
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	} else if delta < 0 {
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}

	line := m.matchLines[m.matchIndex]
	m.viewport.SetYOffset(m.clampViewportOffset(line))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, m.matchCount)
}

func (m *Model) setMatchMeta(res highlight.Result) {
	if res.Count == 0 || len(res.LineIndex) == 0 {
		m.clearMatches()
		return
	}
	m.matchCount = res.Count
	m.matchLines = append(m.matchLines[:0], res.LineIndex...)
	if m.matchIndex < 0 || m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	}
}

func (m *Model) clearMatches() {
	m.matchLines = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func modeIndex(mode session.Mode) int {
	for i, candidate := range session.Modes {
		if candidate == mode {
			return i
		}
	}
	return 0
}
