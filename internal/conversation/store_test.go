package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureChannelIsIdempotent(t *testing.T) {
	s := NewStore()
	require.False(t, s.Has("client-1"))

	s.EnsureChannel("client-1")
	s.Append("client-1", NewMessage(RoleUser, "hi", time.Now()))
	s.EnsureChannel("client-1")

	require.True(t, s.Has("client-1"))
	require.Equal(t, 1, s.Len("client-1"))
}

func TestMessagesDoesNotCreateEntry(t *testing.T) {
	s := NewStore()
	msgs := s.Messages("ghost")
	require.NotNil(t, msgs)
	require.Empty(t, msgs)
	require.False(t, s.Has("ghost"))
}

func TestAppendPreservesOrderAndDuplicates(t *testing.T) {
	s := NewStore()
	at := time.Unix(1_700_000_000, 0)
	s.Append("c", NewMessage(RoleUser, "same", at))
	s.Append("c", NewMessage(RoleUser, "same", at))
	s.Append("c", NewMessage(RoleAssistant, "reply", at))

	msgs := s.Messages("c")
	require.Len(t, msgs, 3)
	require.Equal(t, "same", msgs[0].Text)
	require.Equal(t, "same", msgs[1].Text)
	require.Equal(t, "reply", msgs[2].Text)
	for i := 1; i < len(msgs); i++ {
		require.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt), "createdAt not strictly increasing at %d", i)
		require.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}
	for _, m := range msgs {
		require.Equal(t, "c", m.ChannelID)
		require.NotEmpty(t, m.ID)
	}
}

func TestSeqIsGlobal(t *testing.T) {
	s := NewStore()
	a := s.Append("a", NewMessage(RoleUser, "1", time.Time{}))
	b := s.Append("b", NewMessage(RoleUser, "2", time.Time{}))
	c := s.Append("a", NewMessage(RoleUser, "3", time.Time{}))
	require.Less(t, a.Seq, b.Seq)
	require.Less(t, b.Seq, c.Seq)
	require.False(t, a.CreatedAt.IsZero())
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("c", NewMessage(RoleUser, "keep", time.Now()))
	msgs := s.Messages("c")
	msgs[0].Text = "mutated"
	require.Equal(t, "keep", s.Messages("c")[0].Text)
}

func TestSubscribeSeesAppends(t *testing.T) {
	s := NewStore()
	var seen []string
	s.Subscribe(func(m Message) {
		seen = append(seen, m.ChannelID+":"+m.Text)
		require.Equal(t, m.Seq, s.Messages(m.ChannelID)[len(s.Messages(m.ChannelID))-1].Seq)
	})
	s.Append("x", NewMessage(RoleUser, "one", time.Now()))
	s.Append("y", NewMessage(RoleAssistant, "two", time.Now()))
	require.Equal(t, []string{"x:one", "y:two"}, seen)
}

func TestLastByRole(t *testing.T) {
	s := NewStore()
	_, ok := s.LastByRole("c", RoleAssistant)
	require.False(t, ok)

	s.Append("c", NewMessage(RoleAssistant, "first", time.Now()))
	s.Append("c", NewMessage(RoleUser, "q", time.Now()))
	s.Append("c", NewMessage(RoleAssistant, "second", time.Now()))
	s.Append("c", NewMessage(RoleUser, "q2", time.Now()))

	m, ok := s.LastByRole("c", RoleAssistant)
	require.True(t, ok)
	require.Equal(t, "second", m.Text)
}

func TestChannelsSorted(t *testing.T) {
	s := NewStore()
	s.EnsureChannel("client-2")
	s.EnsureChannel("master")
	s.EnsureChannel("client-1")
	require.Equal(t, []string{"client-1", "client-2", "master"}, s.Channels())
}
