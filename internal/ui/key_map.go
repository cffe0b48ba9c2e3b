package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	next    key.Binding
	prev    key.Binding
	play    key.Binding
	pause   key.Binding
	stop    key.Binding
	search  key.Binding
	popular key.Binding
	add     key.Binding
	link    key.Binding
	remove  key.Binding
	dismiss key.Binding
	submit  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		play:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		popular: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "popular")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		link:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "paste link")),
		remove:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.pause, k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.play, k.pause, k.stop},
		{k.search, k.popular, k.add, k.link, k.remove},
		{k.dismiss, k.quit},
	}
}
