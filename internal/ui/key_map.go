package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	tap     key.Binding
	toggle  key.Binding
	retry   key.Binding
	restart key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		tap:     key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space/enter", "stamp line")),
		toggle:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play/pause")),
		retry:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "try again")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tap, k.toggle, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.tap, k.toggle},
		{k.restart, k.retry},
		{k.help, k.quit},
	}
}
