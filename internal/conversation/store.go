package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is immutable once appended. Seq is assigned by the store and is the
// ordering key across every channel.
type Message struct {
	ID        string
	ChannelID string
	Role      Role
	Text      string
	CreatedAt time.Time
	Seq       uint64
}

func NewMessage(role Role, text string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: at,
	}
}

// Store maps channel ids to their ordered message sequences. It lives in
// process memory only.
type Store struct {
	mu        sync.RWMutex
	byChannel map[string][]Message
	seq       uint64
	observers []func(Message)
}

func NewStore() *Store {
	return &Store{byChannel: make(map[string][]Message)}
}

// EnsureChannel creates an empty sequence for channelID when none exists.
func (s *Store) EnsureChannel(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byChannel[channelID]; !ok {
		s.byChannel[channelID] = []Message{}
	}
}

// Append adds msg to the end of channelID's sequence and returns the stored
// copy. CreatedAt is nudged forward when needed so that it sorts strictly
// after the channel's previous message.
func (s *Store) Append(channelID string, msg Message) Message {
	s.mu.Lock()
	msgs := s.byChannel[channelID]
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if n := len(msgs); n > 0 {
		if last := msgs[n-1].CreatedAt; !msg.CreatedAt.After(last) {
			msg.CreatedAt = last.Add(time.Nanosecond)
		}
	}
	s.seq++
	msg.Seq = s.seq
	msg.ChannelID = channelID
	s.byChannel[channelID] = append(msgs, msg)
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}
	return msg
}

// Messages returns a copy of channelID's sequence. Unknown channels yield an
// empty slice and are not created.
func (s *Store) Messages(channelID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.byChannel[channelID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *Store) Has(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byChannel[channelID]
	return ok
}

func (s *Store) Len(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byChannel[channelID])
}

// Channels lists every channel id with an entry, sorted.
func (s *Store) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byChannel))
	for id := range s.byChannel {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Subscribe registers fn to run after every append, outside the store lock.
func (s *Store) Subscribe(fn func(Message)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// LastByRole returns the most recent message with the given role.
func (s *Store) LastByRole(channelID string, role Role) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.byChannel[channelID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i], true
		}
	}
	return Message{}, false
}
