package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down       key.Binding
	Up         key.Binding
	NextColumn key.Binding
	PrevColumn key.Binding

	// Thread
	Toggle  key.Binding
	Comment key.Binding

	// Change requests
	New          key.Binding
	CycleStatus  key.Binding
	Delete       key.Binding
	Refresh      key.Binding
	Notification key.Binding

	// Todo board
	TodoBoard key.Binding
	Left      key.Binding
	Right     key.Binding
	Add       key.Binding
	Block     key.Binding
	Remove    key.Binding

	// Search
	Search key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		NextColumn: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab/→", "next column"),
		),
		PrevColumn: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab/←", "previous column"),
		),
		Left: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "move card left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "move card right"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open/close thread"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new change request"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Notification: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "enable notifications"),
		),
		TodoBoard: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "todos / change requests"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add todo"),
		),
		Block: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "blocked reason"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete todo"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Toggle, k.Comment,
		k.TodoBoard, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Search, k.Back, k.Quit, k.Help},
		{k.Toggle, k.Comment, k.New, k.CycleStatus, k.Delete, k.Refresh},
		{k.TodoBoard, k.NextColumn, k.PrevColumn, k.Left, k.Right},
		{k.Add, k.Block, k.Remove},
		{k.Notification},
	}
}
