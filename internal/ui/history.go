package ui

import (
	"fmt"

	"client-chat/internal/channel"
	"client-chat/internal/index"

	"github.com/charmbracelet/bubbles/list"
)

const (
	sectionClients = "Previous chats"
	sectionSystem  = "System"
	sectionOther   = "Other"
)

type channelItem struct {
	ch       channel.Channel
	section  string
	active   bool
	messages int
	hit      *index.Hit
}

func (i channelItem) Title() string {
	if i.active {
		return "● " + i.ch.Name
	}
	return "  " + i.ch.Name
}

func (i channelItem) Description() string {
	desc := fmt.Sprintf("%s | %d msgs", i.section, i.messages)
	if i.hit == nil {
		return desc
	}
	desc += fmt.Sprintf(" | %d matches", i.hit.Score)
	if i.hit.Preview != "" {
		desc += " | " + i.hit.Preview
	}
	return desc
}

func (i channelItem) FilterValue() string {
	return i.ch.ID + " " + i.ch.Name
}

// rebuildHistory lists client channels under "Previous chats" and the master
// channel under "System". With an active search only matching channels are
// shown, best match first. While the panel is open the cursor stays on the
// channel it was on.
func (m *Model) rebuildHistory() {
	active := m.ctrl.State().ActiveChannel
	keep := ""
	if m.ctrl.State().HistoryOpen {
		keep = m.currentHistoryID()
	}
	store := m.ctrl.Store()

	item := func(ch channel.Channel, section string) channelItem {
		return channelItem{
			ch:       ch,
			section:  section,
			active:   ch.ID == active,
			messages: store.Len(ch.ID),
		}
	}
	sectionOf := func(id string) string {
		if id == channel.MasterID {
			return sectionSystem
		}
		if _, ok := m.registry.Lookup(id); ok {
			return sectionClients
		}
		return sectionOther
	}

	var items []list.Item
	if m.searchQuery != "" && m.index != nil {
		for i := range m.hits {
			hit := m.hits[i]
			ch, ok := m.registry.Lookup(hit.ChannelID)
			if !ok {
				ch = channel.Channel{ID: hit.ChannelID, Name: hit.ChannelID}
			}
			it := item(ch, sectionOf(hit.ChannelID))
			it.hit = &hit
			items = append(items, it)
		}
	} else {
		seen := make(map[string]bool)
		for _, ch := range m.registry.Clients() {
			items = append(items, item(ch, sectionClients))
			seen[ch.ID] = true
		}
		if ch, ok := m.registry.Lookup(channel.MasterID); ok {
			items = append(items, item(ch, sectionSystem))
			seen[ch.ID] = true
		}
		if !seen[active] {
			items = append(items, item(m.activeChannel(), sectionOther))
		}
	}

	m.history.SetItems(items)
	if keep == "" {
		keep = active
	}
	m.selectHistory(keep)
}

func (m *Model) syncHistorySelection() {
	m.selectHistory(m.ctrl.State().ActiveChannel)
}

func (m *Model) selectHistory(id string) {
	for i, it := range m.history.Items() {
		if ci, ok := it.(channelItem); ok && ci.ch.ID == id {
			m.history.Select(i)
			return
		}
	}
	if len(m.history.Items()) > 0 {
		m.history.Select(0)
	}
}

func (m *Model) currentHistoryID() string {
	it, ok := m.history.SelectedItem().(channelItem)
	if !ok {
		return ""
	}
	return it.ch.ID
}
