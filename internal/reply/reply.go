package reply

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var ErrEmptyReply = errors.New("empty reply")

// Request is what the composer hands to a backend once the user message has
// been appended.
type Request struct {
	ChannelID string `json:"channelId"`
	Text      string `json:"text"`
}

type Response struct {
	Text string `json:"text"`
}

// Replier produces the assistant side of a submit.
type Replier interface {
	Reply(ctx context.Context, req Request) (Response, error)
}

// ReplierFunc adapts a plain function to Replier.
type ReplierFunc func(ctx context.Context, req Request) (Response, error)

func (f ReplierFunc) Reply(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Synthetic answers locally with a fixed template. It never fails.
type Synthetic struct{}

func NewSynthetic() Synthetic {
	return Synthetic{}
}

func (Synthetic) Reply(_ context.Context, req Request) (Response, error) {
	return Response{Text: SyntheticText(req.ChannelID, req.Text)}, nil
}

func SyntheticText(channelID, text string) string {
	return fmt.Sprintf("Reply for %q based on: %s", channelID, text)
}
