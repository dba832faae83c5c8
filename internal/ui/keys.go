package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the bindings of the browsing modes
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Open        key.Binding
	Toggle      key.Binding
	SelectAll   key.Binding
	DeselectAll key.Binding
	ClearClass  key.Binding
	Back        key.Binding
	Search      key.Binding
	Name        key.Binding
	Prefix      key.Binding
	Preview     key.Binding
	Export      key.Binding
	Reload      key.Binding
	Reset       key.Binding
	Repos       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:    key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page")),
		NextPage:    key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page")),
		FirstPage:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
		LastPage:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
		Open:        key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter", "open")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		SelectAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all fields")),
		DeselectAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "deselect all fields")),
		ClearClass:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove class")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Name:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "external name")),
		Prefix:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "id prefix")),
		Preview:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview request")),
		Export:      key.NewBinding(key.WithKeys("e", "ctrl+s"), key.WithHelp("e", "export")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Reset:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset form")),
		Repos:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "repositories")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Toggle, k.Search, k.Name, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.FirstPage, k.LastPage},
		{k.Open, k.Back, k.Toggle, k.SelectAll, k.DeselectAll, k.ClearClass},
		{k.Search, k.Name, k.Prefix, k.Preview, k.Export},
		{k.Reload, k.Reset, k.Repos, k.Help, k.Quit},
	}
}
