package session

import (
	"fmt"
	"strings"
	"time"

	"client-chat/internal/conversation"
	"client-chat/internal/reply"
)

// Mode is the send-mode shown next to the send control. It has no effect on
// how a message is sent.
type Mode string

const (
	ModeGo     Mode = "Go"
	ModeSubmit Mode = "Submit"
	ModeNew    Mode = "New"
)

var Modes = []Mode{ModeGo, ModeSubmit, ModeNew}

const DefaultMode = ModeGo

// State is the transient view state of one chat session.
type State struct {
	ActiveChannel string
	Draft         string
	Sending       bool
	Mode          Mode
	HistoryOpen   bool
	ModeMenuOpen  bool
}

func NewState(activeChannel string) State {
	return State{
		ActiveChannel: activeChannel,
		Mode:          DefaultMode,
	}
}

type Action interface{ isAction() }

type SelectChannel struct{ ID string }

type ToggleHistory struct{}

type ToggleModeMenu struct{}

type SelectMode struct{ Mode Mode }

type SetDraft struct{ Text string }

// Submit carries the composer text and the time the user message is stamped with.
type Submit struct {
	Text string
	At   time.Time
}

type ReplyReceived struct {
	Request reply.Request
	Text    string
	At      time.Time
}

type ReplyFailed struct {
	Request reply.Request
	Err     error
	At      time.Time
}

func (SelectChannel) isAction()  {}
func (ToggleHistory) isAction()  {}
func (ToggleModeMenu) isAction() {}
func (SelectMode) isAction()     {}
func (SetDraft) isAction()       {}
func (Submit) isAction()         {}
func (ReplyReceived) isAction()  {}
func (ReplyFailed) isAction()    {}

type Effect interface{ isEffect() }

type EnsureChannel struct{ ChannelID string }

type AppendMessage struct {
	ChannelID string
	Role      conversation.Role
	Text      string
	At        time.Time
}

type FetchReply struct{ Request reply.Request }

type ScrollToLatest struct{}

type FocusComposer struct{}

func (EnsureChannel) isEffect()  {}
func (AppendMessage) isEffect()  {}
func (FetchReply) isEffect()     {}
func (ScrollToLatest) isEffect() {}
func (FocusComposer) isEffect()  {}

// Reduce is the pure transition function of a session. The returned effects
// must be applied in order.
func Reduce(s State, a Action) (State, []Effect) {
	switch a := a.(type) {
	case SelectChannel:
		s.ActiveChannel = a.ID
		s.HistoryOpen = false
		return s, []Effect{EnsureChannel{ChannelID: a.ID}, ScrollToLatest{}, FocusComposer{}}

	case ToggleHistory:
		s.HistoryOpen = !s.HistoryOpen
		return s, nil

	case ToggleModeMenu:
		s.ModeMenuOpen = !s.ModeMenuOpen
		return s, nil

	case SelectMode:
		s.Mode = a.Mode
		s.ModeMenuOpen = false
		return s, []Effect{FocusComposer{}}

	case SetDraft:
		s.Draft = a.Text
		return s, nil

	case Submit:
		text := strings.TrimSpace(a.Text)
		if text == "" || s.Sending {
			return s, nil
		}
		s.Draft = ""
		s.Sending = true
		req := reply.Request{ChannelID: s.ActiveChannel, Text: text}
		return s, []Effect{
			AppendMessage{ChannelID: req.ChannelID, Role: conversation.RoleUser, Text: text, At: a.At},
			ScrollToLatest{},
			FetchReply{Request: req},
		}

	case ReplyReceived:
		s.Sending = false
		effects := []Effect{
			AppendMessage{ChannelID: a.Request.ChannelID, Role: conversation.RoleAssistant, Text: a.Text, At: a.At},
		}
		if a.Request.ChannelID == s.ActiveChannel {
			effects = append(effects, ScrollToLatest{})
		}
		return s, effects

	case ReplyFailed:
		s.Sending = false
		effects := []Effect{
			AppendMessage{ChannelID: a.Request.ChannelID, Role: conversation.RoleSystem, Text: FailureText(a.Err), At: a.At},
		}
		if a.Request.ChannelID == s.ActiveChannel {
			effects = append(effects, ScrollToLatest{})
		}
		return s, effects
	}
	return s, nil
}

func FailureText(err error) string {
	if err == nil {
		return "Reply failed"
	}
	return fmt.Sprintf("Reply failed: %v", err)
}
