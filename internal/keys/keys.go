package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Re-read the mailbox source
	Reload key.Binding

	// Status filters
	FilterAll      key.Binding
	FilterPending  key.Binding
	FilterResolved key.Binding
	CycleFilter    key.Binding

	// Email actions
	ToggleStatus key.Binding
	Summarize    key.Binding
	Draft        key.Binding
	EditDraft    key.Binding
	Send         key.Binding

	// Views
	Dashboard key.Binding
	Account   key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next email"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous email"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload mailbox"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all"),
		),
		FilterPending: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "pending"),
		),
		FilterResolved: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "resolved"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle filter"),
		),
		ToggleStatus: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle resolved"),
		),
		Summarize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "summarize"),
		),
		Draft: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate reply"),
		),
		EditDraft: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit draft"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send reply"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dashboard"),
		),
		Account: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "account"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Search, k.CycleFilter,
		k.Summarize, k.Draft, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Quit},
		{k.Search, k.FilterAll, k.FilterPending, k.FilterResolved, k.CycleFilter},
		{k.ToggleStatus, k.Summarize, k.Draft, k.EditDraft, k.Send},
		{k.Dashboard, k.Account, k.Command, k.Reload, k.Help},
	}
}
