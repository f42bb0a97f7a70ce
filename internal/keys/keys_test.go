package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Quit(t *testing.T) {
	km := DefaultKeyMap()

	require.True(t, km.IsQuit("q"))
	require.True(t, km.IsQuit("ctrl+c"))
	require.False(t, km.IsQuit("x"))
	require.Equal(t, "quit", km.Quit.Help().Desc)
	require.Equal(t, "q", km.Quit.Help().Key)
}

func TestNew_CustomQuitKeys(t *testing.T) {
	km := New([]string{"esc"})

	require.True(t, km.IsQuit("esc"))
	require.False(t, km.IsQuit("q"))
}

func TestNew_EmptyFallsBack(t *testing.T) {
	km := New(nil)
	require.Equal(t, DefaultQuitKeys, km.Quit.Keys())
}

func TestIsQuit_ShiftedKeyIsDistinct(t *testing.T) {
	km := DefaultKeyMap()
	require.False(t, km.IsQuit("Q"), "shift+q is not bound by default")
}

func TestIsQuit_UppercaseBinding(t *testing.T) {
	km := New([]string{"Q"})

	require.True(t, km.IsQuit("Q"))
	require.False(t, km.IsQuit("q"))
	// Interrupts are delivered as the first bound key.
	require.True(t, km.IsQuit(km.Quit.Keys()[0]))
}

func TestIsQuit_DisabledBinding(t *testing.T) {
	km := DefaultKeyMap()
	km.Quit.SetEnabled(false)
	require.False(t, km.IsQuit("q"))
}

func TestShortHelp(t *testing.T) {
	require.Len(t, DefaultKeyMap().ShortHelp(), 1)
}
