package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	tab     key.Binding
	play    key.Binding
	next    key.Binding
	prev    key.Binding
	seekFwd key.Binding
	seekBck key.Binding
	shuffle key.Binding
	dismiss key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch library")),
		play:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		seekFwd: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "seek +5s")),
		seekBck: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "seek -5s")),
		shuffle: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss notice")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back, k.tab},
		{k.play, k.next, k.prev, k.seekFwd, k.seekBck},
		{k.shuffle, k.dismiss, k.quit},
	}
}
