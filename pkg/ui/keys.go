package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds the table view keys.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	TabOwn      key.Binding
	TabShared   key.Binding
	Filter      key.Binding
	Toggle      key.Binding
	ToggleAll   key.Binding
	Edit        key.Binding
	Import      key.Binding
	Create      key.Binding
	Export      key.Binding
	Delete      key.Binding
	Share       key.Binding
	SharedUsers key.Binding
	Copy        key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next table")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous table")),
		TabOwn:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "my codes")),
		TabShared:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "shared with me")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select row")),
		ToggleAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Import:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Create:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Export:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Delete:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Share:       key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "share")),
		SharedUsers: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "shared users")),
		Copy:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy code")),
		Reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// FooterBindings are shown in the status line.
func (k KeyMap) FooterBindings() []key.Binding {
	return []key.Binding{k.Toggle, k.Filter, k.Edit, k.Import, k.Create, k.Copy, k.Help, k.Quit}
}
