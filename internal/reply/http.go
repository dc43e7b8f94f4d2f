package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
)

// HTTP posts the request as JSON to a reply endpoint and expects
// {"text": "..."} back.
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTP{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) Reply(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "encode reply request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrap(err, "build reply request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	res, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, errors.Wrap(err, "reply request")
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return Response{}, errors.Wrap(err, "read reply body")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Response{}, errors.Errorf("reply backend returned %s: %s", res.Status, snippet(payload, 200))
	}

	var out Response
	if err := json.Unmarshal(payload, &out); err != nil {
		return Response{}, errors.Wrap(err, "decode reply body")
	}
	if strings.TrimSpace(out.Text) == "" {
		return Response{}, ErrEmptyReply
	}
	return out, nil
}

func snippet(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	return ansi.Truncate(s, n, "...")
}
