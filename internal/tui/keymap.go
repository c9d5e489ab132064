package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the picker bindings.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	descend key.Binding
	ascend  key.Binding
	root    key.Binding
	move    key.Binding
	undo    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),
		descend: key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter/l", "open")),
		ascend:  key.NewBinding(key.WithKeys("h", "left", "backspace"), key.WithHelp("h/←", "back")),
		root:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "outline")),
		move:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move here")),
		undo:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.descend, k.ascend, k.move, k.undo, k.quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.descend, k.ascend, k.root},
		{k.move, k.undo, k.quit},
	}
}
