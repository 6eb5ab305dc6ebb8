package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	add      key.Binding
	next     key.Binding
	prev     key.Binding
	refresh  key.Binding
	switchTo key.Binding
	inc      key.Binding
	dec      key.Binding
	complete key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		add:      key.NewBinding(key.WithKeys("enter", "a"), key.WithHelp("enter", "add")),
		next:     key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
		prev:     key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		switchTo: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		inc:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "episode")),
		dec:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "episode")),
		complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.add},
		{k.next, k.prev, k.refresh, k.switchTo},
		{k.inc, k.dec, k.complete, k.quit},
	}
}
