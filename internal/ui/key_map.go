package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings shared by every view.
//
// Navigation and filtering in the playlist list are handled by [list.Model];
// up, down and filter are kept here only so they show in the help line.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	filter  key.Binding
	choose  key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		choose:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "shuffle")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "create copy")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "cancel")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "shuffle another")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView returns the bindings shown in the help line of view.
// The shuffle view takes no input and returns nil.
func (k keyMap) forView(view ViewState) []key.Binding {
	switch view {
	case PlaylistListView:
		return []key.Binding{k.up, k.down, k.filter, k.choose, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no, k.back, k.quit}
	case ResultView:
		return []key.Binding{k.restart, k.quit}
	default:
		return nil
	}
}
