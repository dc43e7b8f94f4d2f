package ui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	name string

	status     lipgloss.Style
	pill       lipgloss.Style
	title      lipgloss.Style
	badge      lipgloss.Style
	user       lipgloss.Style
	assistant  lipgloss.Style
	system     lipgloss.Style
	empty      lipgloss.Style
	sendOn     lipgloss.Style
	sendOff    lipgloss.Style
	menuItem   lipgloss.Style
	menuActive lipgloss.Style
	match      lipgloss.Style

	borderActive lipgloss.Color
	borderIdle   lipgloss.Color
}

func newTheme(name string) theme {
	if name == "light" {
		return lightTheme()
	}
	return darkTheme()
}

func darkTheme() theme {
	return theme{
		name: "dark",
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		pill: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f5eee1")).
			Background(lipgloss.Color("#26201b")).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true),
		badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Border(lipgloss.RoundedBorder(), false, true).
			BorderForeground(lipgloss.Color("244")),
		user: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#171717")).
			Background(lipgloss.Color("#f5f5f5")).
			Padding(0, 1),
		assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fafafa")).
			Background(lipgloss.Color("#171717")),
		system: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Italic(true),
		empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3f342b")).
			Padding(1, 2),
		sendOn: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#020617")).
			Background(lipgloss.Color("#f4ede1")).
			Padding(0, 1),
		sendOff: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#57534e")).
			Background(lipgloss.Color("#d6d3d1")).
			Padding(0, 1),
		menuItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		menuActive: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
		match: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("220")),
		borderActive: lipgloss.Color("#a16207"),
		borderIdle:   lipgloss.Color("240"),
	}
}

func lightTheme() theme {
	return theme{
		name: "light",
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")).
			Background(lipgloss.Color("254")).
			Padding(0, 1),
		pill: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#404040")).
			Background(lipgloss.Color("#f5f5f5")).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Bold(true),
		badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Border(lipgloss.RoundedBorder(), false, true).
			BorderForeground(lipgloss.Color("246")),
		user: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fafafa")).
			Background(lipgloss.Color("#171717")).
			Padding(0, 1),
		assistant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#171717")).
			Background(lipgloss.Color("#ffffff")),
		system: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b91c1c")).
			Italic(true),
		empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("250")).
			Padding(1, 2),
		sendOn: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#171717")).
			Padding(0, 1),
		sendOff: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a3a3a3")).
			Background(lipgloss.Color("#e5e5e5")).
			Padding(0, 1),
		menuItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		menuActive: lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Bold(true),
		match: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("228")),
		borderActive: lipgloss.Color("#6366f1"),
		borderIdle:   lipgloss.Color("250"),
	}
}

func (t theme) panel(active bool) lipgloss.Style {
	color := t.borderIdle
	if active {
		color = t.borderActive
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		BorderForeground(color).
		Padding(0, 1)
}
