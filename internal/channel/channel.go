package channel

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MasterID is the system channel that onboarding conversations run in.
const MasterID = "master"

var (
	ErrDuplicateID = errors.New("duplicate channel id")
	ErrEmptyID     = errors.New("empty channel id")
)

type Channel struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Registry is the fixed set of channels for a session. It is built once at
// startup and never mutated.
type Registry struct {
	channels []Channel
	byID     map[string]int
}

func Defaults() []Channel {
	return []Channel{
		{ID: MasterID, Name: "Master onboarding"},
		{ID: "client-1", Name: "Client 1"},
		{ID: "client-2", Name: "Client 2"},
		{ID: "client-3", Name: "Client 3"},
		{ID: "client-4", Name: "Client 4"},
	}
}

func NewRegistry(channels []Channel) (*Registry, error) {
	r := &Registry{
		channels: make([]Channel, 0, len(channels)),
		byID:     make(map[string]int, len(channels)),
	}
	for _, c := range channels {
		c.ID = strings.TrimSpace(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		if c.ID == "" {
			return nil, ErrEmptyID
		}
		if _, exists := r.byID[c.ID]; exists {
			return nil, errors.Wrapf(ErrDuplicateID, "channel %q", c.ID)
		}
		if c.Name == "" {
			c.Name = c.ID
		}
		r.byID[c.ID] = len(r.channels)
		r.channels = append(r.channels, c)
	}
	return r, nil
}

func DefaultRegistry() *Registry {
	r, _ := NewRegistry(Defaults())
	return r
}

type file struct {
	Channels []Channel `yaml:"channels"`
}

// Load reads a YAML channel list. An empty path yields the default registry.
//
//	channels:
//	  - id: master
//	    name: Master onboarding
//	  - id: client-1
//	    name: Client 1
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read channels file")
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse channels file %s", path)
	}
	if len(f.Channels) == 0 {
		return nil, errors.Errorf("channels file %s lists no channels", path)
	}
	r, err := NewRegistry(f.Channels)
	if err != nil {
		return nil, errors.Wrapf(err, "channels file %s", path)
	}
	return r, nil
}

func (r *Registry) All() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Clients returns every channel except the master one, in registry order.
func (r *Registry) Clients() []Channel {
	out := make([]Channel, 0, len(r.channels))
	for _, c := range r.channels {
		if c.ID == MasterID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Registry) Lookup(id string) (Channel, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Channel{}, false
	}
	return r.channels[idx], true
}

// Name returns the display label for id, or fallback when id is not registered.
func (r *Registry) Name(id, fallback string) string {
	if c, ok := r.Lookup(id); ok {
		return c.Name
	}
	return fallback
}

// Initial is the channel active at startup: the master channel when present,
// otherwise the first registered one.
func (r *Registry) Initial() string {
	if _, ok := r.byID[MasterID]; ok {
		return MasterID
	}
	if len(r.channels) == 0 {
		return MasterID
	}
	return r.channels[0].ID
}
