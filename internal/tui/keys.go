package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageDown  key.Binding
	PageUp    key.Binding
	NextFile  key.Binding
	PrevFile  key.Binding
	Select    key.Binding
	Reviewed  key.Binding
	Modified  key.Binding
	Ignored   key.Binding
	Clear     key.Binding
	Transform key.Binding
	Comment   key.Binding
	Edit      key.Binding
	Delete    key.Binding
	DeleteAll key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	NextFile: key.NewBinding(
		key.WithKeys("n", "tab"),
		key.WithHelp("n/tab", "next file"),
	),
	PrevFile: key.NewBinding(
		key.WithKeys("N", "shift+tab"),
		key.WithHelp("N/S-tab", "prev file"),
	),
	Select: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "start/stop selection"),
	),
	Reviewed: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "mark reviewed"),
	),
	Modified: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mark modified"),
	),
	Ignored: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "mark ignored"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear marks"),
	),
	Transform: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "transform"),
	),
	Comment: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "comment"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit last comment"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete last comment"),
	),
	DeleteAll: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "delete thread"),
	),
	Reload: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload comments"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
