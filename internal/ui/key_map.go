package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	process key.Binding
	add     key.Binding
	remove  key.Binding
	missing key.Binding
	back    key.Binding
	submit  key.Binding
	yes     key.Binding
	no      key.Binding
	cancel  key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		process: key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter", "process queue")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add label")),
		remove:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		missing: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "fix missing data")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		cancel:  key.NewBinding(key.WithKeys("c", "ctrl+c"), key.WithHelp("c", "cancel run")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "back to queue")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.process},
		{k.add, k.remove, k.missing},
		{k.yes, k.no, k.cancel},
		{k.restart, k.quit},
	}
}
