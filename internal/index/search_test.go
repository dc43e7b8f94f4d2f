package index

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"client-chat/internal/conversation"
)

func TestBuildFTSQuery(t *testing.T) {
	got := buildFTSQuery(`hello "world" /path:test`)
	want := `"hello"* AND "world"* AND "/path:test"*`
	if got != want {
		t.Fatalf("unexpected fts query\nwant: %s\ngot:  %s", want, got)
	}
}

func TestTokenizeSearchTerms(t *testing.T) {
	got := tokenizeSearchTerms(`  hello,   "world"   (test)  `)
	if len(got) != 3 || got[0] != "hello" || got[1] != "world" || got[2] != "test" {
		t.Fatalf("unexpected tokens: %#v", got)
	}
}

func seed(t *testing.T, idx *Index) {
	t.Helper()
	s := conversation.NewStore()
	s.Subscribe(func(m conversation.Message) {
		require.NoError(t, idx.Add(context.Background(), m))
	})
	at := time.Unix(1_700_000_000, 0)
	s.Append("client-1", conversation.NewMessage(conversation.RoleUser, "weekly sales for the bistro", at))
	s.Append("client-1", conversation.NewMessage(conversation.RoleAssistant, "bistro sales were up", at))
	s.Append("client-2", conversation.NewMessage(conversation.RoleUser, "menu pricing", at))
	s.Append("master", conversation.NewMessage(conversation.RoleUser, "how do sales reports work", at))
}

func openSeeded(t *testing.T, fts bool) *Index {
	t.Helper()
	idx, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	if fts && !idx.FTS() {
		t.Skip("sqlite built without FTS5; run go test -tags sqlite_fts5")
	}
	idx.ftsEnabled = fts
	seed(t, idx)
	return idx
}

func channelIDs(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.ChannelID)
	}
	return out
}

func TestFTSFollowsBuildTags(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	defer idx.Close()
	require.Equal(t, ftsCompiled, idx.FTS())
}

func TestSearchRanksChannelsByHits(t *testing.T) {
	for _, fts := range []bool{true, false} {
		t.Run(map[bool]string{true: "fts", false: "like"}[fts], func(t *testing.T) {
			idx := openSeeded(t, fts)

			hits, err := idx.Search(context.Background(), "sales", 10)
			require.NoError(t, err)
			require.Len(t, hits, 2)
			require.Equal(t, "client-1", hits[0].ChannelID)
			require.Equal(t, 2, hits[0].Score)
			require.Equal(t, "bistro sales were up", hits[0].Preview)
			require.Equal(t, "master", hits[1].ChannelID)
		})
	}
}

func TestLikeRequiresEveryTermAtWordStart(t *testing.T) {
	idx := openSeeded(t, false)
	ctx := context.Background()

	cases := []struct {
		query string
		want  []string
	}{
		{query: "sales menu", want: []string{}},
		{query: "bistro sales", want: []string{"client-1"}},
		{query: "ales", want: []string{}},
		{query: "pric", want: []string{"client-2"}},
		{query: "SALES reports", want: []string{"master"}},
	}
	for _, tc := range cases {
		hits, err := idx.search(ctx, likeMatcher(tc.query), 10)
		require.NoError(t, err)
		require.Equal(t, tc.want, channelIDs(hits), "query=%q", tc.query)
	}
}

func TestFTSAndLikeReturnSameChannels(t *testing.T) {
	idx := openSeeded(t, true)
	ctx := context.Background()

	for _, q := range []string{"sales", "sales menu", "bistro sales", "ales", "pric", "SALES reports", "were up"} {
		fts, err := idx.search(ctx, ftsMatcher(q), 10)
		require.NoError(t, err, "fts query=%q", q)
		like, err := idx.search(ctx, likeMatcher(q), 10)
		require.NoError(t, err, "like query=%q", q)
		require.Equal(t, channelIDs(fts), channelIDs(like), "query=%q", q)
	}
}

func TestLikeEscapesWildcards(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	defer idx.Close()
	idx.ftsEnabled = false

	s := conversation.NewStore()
	s.Subscribe(func(m conversation.Message) {
		require.NoError(t, idx.Add(context.Background(), m))
	})
	at := time.Unix(1_700_000_000, 0)
	s.Append("client-3", conversation.NewMessage(conversation.RoleUser, "50% off this week", at))
	s.Append("client-4", conversation.NewMessage(conversation.RoleUser, "500 units sold", at))
	s.Append("client-1", conversation.NewMessage(conversation.RoleUser, "see a_b report", at))
	s.Append("client-2", conversation.NewMessage(conversation.RoleUser, "see axb report", at))

	hits, err := idx.Search(context.Background(), "50%", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"client-3"}, channelIDs(hits))

	hits, err = idx.Search(context.Background(), "a_b", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"client-1"}, channelIDs(hits))
}

func TestSearchEmptyQuery(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	defer idx.Close()
	seed(t, idx)

	hits, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchNoMatch(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	defer idx.Close()
	seed(t, idx)

	hits, err := idx.Search(context.Background(), "zebra", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestAddIsIdempotentPerMessage(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	defer idx.Close()

	m := conversation.Message{ID: "m1", ChannelID: "c", Role: conversation.RoleUser, Text: "pricing", Seq: 1, CreatedAt: time.Now()}
	require.NoError(t, idx.Add(context.Background(), m))
	require.NoError(t, idx.Add(context.Background(), m))

	hits, err := idx.Search(context.Background(), "pricing", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, 1, hits[0].Score)
}

func TestSearchReportsBothFailures(t *testing.T) {
	idx, err := Open()
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	idx.ftsEnabled = true

	_, err = idx.Search(context.Background(), "sales", 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fts and fallback failed")
	require.Contains(t, err.Error(), "fallback=")
}

func TestTrimPreview(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := trimPreview(string(long))
	require.Len(t, got, 120)
	require.Equal(t, "one two", trimPreview(" one\ntwo "))

	accented := strings.Repeat("é", 200)
	got = trimPreview(accented)
	require.True(t, utf8.ValidString(got))
	require.True(t, strings.HasSuffix(got, "..."))
}
