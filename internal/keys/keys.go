// Package keys contains keybinding definitions.
package keys

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings for the progress view.
type KeyMap struct {
	Quit key.Binding
}

// DefaultQuitKeys are the keys that end a run.
var DefaultQuitKeys = []string{"q", "ctrl+c"}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return New(DefaultQuitKeys)
}

// New builds a KeyMap with the given quit keys. An empty list falls back to
// DefaultQuitKeys.
func New(quitKeys []string) KeyMap {
	if len(quitKeys) == 0 {
		quitKeys = DefaultQuitKeys
	}
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys(quitKeys...),
			key.WithHelp(quitKeys[0], "quit"),
		),
	}
}

// IsQuit reports whether the key name (as produced by tea.KeyMsg.String)
// is bound to Quit. Names compare exactly, as key.Matches does: "Q" is
// shift+q and only matches a binding for "Q".
func (k KeyMap) IsQuit(name string) bool {
	return k.Quit.Enabled() && slices.Contains(k.Quit.Keys(), name)
}

// ShortHelp returns the bindings shown under the progress view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}
