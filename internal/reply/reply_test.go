package reply

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSyntheticEmbedsChannelAndText(t *testing.T) {
	res, err := NewSynthetic().Reply(context.Background(), Request{ChannelID: "client-1", Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, `Reply for "client-1" based on: hello`, res.Text)
	require.Contains(t, res.Text, "client-1")
	require.Contains(t, res.Text, "hello")
}

func TestSyntheticIsDeterministic(t *testing.T) {
	a := SyntheticText("master", "x y")
	b := SyntheticText("master", "x y")
	require.Equal(t, a, b)
}

func TestHTTPReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(Response{Text: req.ChannelID + "/" + strings.ToUpper(req.Text)})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, time.Second)
	res, err := h.Reply(context.Background(), Request{ChannelID: "client-2", Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, "client-2/HI", res.Text)
}

func TestHTTPReplyWireFormat(t *testing.T) {
	var raw map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, time.Second).Reply(context.Background(), Request{ChannelID: "c", Text: "t"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"channelId": "c", "text": "t"}, raw)
}

func TestHTTPReplyErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down"},
		{name: "bad json", status: http.StatusOK, body: "{"},
		{name: "empty text", status: http.StatusOK, body: `{"text":"  "}`, wantErr: ErrEmptyReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTP(srv.URL, time.Second).Reply(context.Background(), Request{ChannelID: "c", Text: "t"})
			require.Error(t, err)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			}
		})
	}
}

func TestHTTPReplyHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewHTTP(srv.URL, time.Minute).Reply(ctx, Request{ChannelID: "c", Text: "t"})
	require.Error(t, err)
}

func TestHTTPErrorSnippetStaysValidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("é", 300)))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, time.Second).Reply(context.Background(), Request{ChannelID: "master", Text: "hi"})
	require.Error(t, err)
	require.True(t, utf8.ValidString(err.Error()))
	require.Contains(t, err.Error(), "...")
}
