package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"client-chat/internal/conversation"
	"client-chat/internal/reply"
)

// Controller owns a session's State and its conversation store. Every user
// action goes through Dispatch, which runs Reduce and applies the store
// effects. The remaining effects are returned for the presentation layer.
type Controller struct {
	state   State
	store   *conversation.Store
	replier reply.Replier
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func NewController(store *conversation.Store, replier reply.Replier, initialChannel string, opts ...Option) *Controller {
	if store == nil {
		store = conversation.NewStore()
	}
	if replier == nil {
		replier = reply.NewSynthetic()
	}
	c := &Controller{
		state:   NewState(initialChannel),
		store:   store,
		replier: replier,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Dispatch(SelectChannel{ID: initialChannel})
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Store() *conversation.Store {
	return c.store
}

func (c *Controller) ActiveMessages() []conversation.Message {
	return c.store.Messages(c.state.ActiveChannel)
}

// Dispatch reduces a and applies EnsureChannel and AppendMessage effects to
// the store. Other effects are returned in order.
func (c *Controller) Dispatch(a Action) []Effect {
	next, effects := Reduce(c.state, a)
	c.state = next

	rest := make([]Effect, 0, len(effects))
	for _, eff := range effects {
		switch eff := eff.(type) {
		case EnsureChannel:
			c.store.EnsureChannel(eff.ChannelID)
		case AppendMessage:
			c.store.Append(eff.ChannelID, conversation.NewMessage(eff.Role, eff.Text, eff.At))
		default:
			rest = append(rest, eff)
		}
	}
	return rest
}

func (c *Controller) SelectChannel(id string) []Effect {
	c.log.Debug().Str("channel", id).Msg("channel selected")
	return c.Dispatch(SelectChannel{ID: id})
}

// BeginSubmit runs the synchronous half of a submit: the draft is cleared,
// the in-flight flag set, and the user message appended. ok is false when
// the text is blank or a send is already in flight.
func (c *Controller) BeginSubmit(text string) (req reply.Request, ok bool, effects []Effect) {
	before := c.state.Sending
	effects = c.Dispatch(Submit{Text: text, At: c.now()})
	for _, eff := range effects {
		if f, isFetch := eff.(FetchReply); isFetch {
			c.log.Debug().Str("channel", f.Request.ChannelID).Msg("submit accepted")
			return f.Request, true, effects
		}
	}
	c.log.Debug().Bool("in_flight", before).Msg("submit rejected")
	return reply.Request{}, false, effects
}

// CompleteSubmit appends the assistant reply, or a system message when err is
// set, and always clears the in-flight flag.
func (c *Controller) CompleteSubmit(req reply.Request, resp reply.Response, err error) []Effect {
	if err != nil {
		c.log.Warn().Err(err).Str("channel", req.ChannelID).Msg("reply failed")
		return c.Dispatch(ReplyFailed{Request: req, Err: err, At: c.now()})
	}
	c.log.Debug().Str("channel", req.ChannelID).Int("chars", len(resp.Text)).Msg("reply received")
	return c.Dispatch(ReplyReceived{Request: req, Text: resp.Text, At: c.now()})
}

// Fetch calls the replier. A panicking replier is reported as an error so the
// caller can still complete the submit.
func (c *Controller) Fetch(ctx context.Context, req reply.Request) (resp reply.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("replier panicked: %v", r)
		}
	}()
	return c.replier.Reply(ctx, req)
}

// Submit runs a whole submit inline. It reports whether the text was
// accepted, and the reply error if any. The in-flight flag is released on
// every path.
func (c *Controller) Submit(ctx context.Context, text string) (bool, error) {
	req, ok, _ := c.BeginSubmit(text)
	if !ok {
		return false, nil
	}

	var (
		resp     reply.Response
		fetchErr = errors.New("submit interrupted")
	)
	defer func() {
		c.CompleteSubmit(req, resp, fetchErr)
	}()
	resp, fetchErr = c.Fetch(ctx, req)
	return true, fetchErr
}
