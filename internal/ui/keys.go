package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Submit    key.Binding
	History   key.Binding
	Modes     key.Binding
	Search    key.Binding
	NextMatch key.Binding
	PrevMatch key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Export    key.Binding
	Copy      key.Binding
	Esc       key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send/select"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+t", "f2"),
			key.WithHelp("ctrl+t", "chat history"),
		),
		Modes: key.NewBinding(
			key.WithKeys("ctrl+o", "f3"),
			key.WithHelp("ctrl+o", "send mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prev match"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export markdown"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy last reply"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close/clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.History, k.Modes, k.Search, k.Export, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Submit, k.Esc},
		{k.History, k.Modes, k.PageUp, k.PageDown},
		{k.Search, k.NextMatch, k.PrevMatch, k.Export, k.Copy, k.Quit},
	}
}
