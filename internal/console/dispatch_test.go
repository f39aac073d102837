package console

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestDispatchTableRejectsOverlappingBindings(t *testing.T) {
	noop := func(*Session) tea.Cmd { return nil }

	_, err := newDispatchTable([]binding{
		{"q", anyMode, noop},
		{"q", inMode(ModeWatch), noop},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `key "q" bound twice`)
}

func TestDispatchTableAllowsDisjointGuards(t *testing.T) {
	noop := func(*Session) tea.Cmd { return nil }

	_, err := newDispatchTable([]binding{
		{"pgup", notIn(ModeLogView), noop},
		{"pgup", inMode(ModeLogView), noop},
	})
	require.NoError(t, err)
}

func TestDispatchMatchesByModeGuard(t *testing.T) {
	s, _ := newTestSession(t)

	var fired string
	mark := func(name string) func(*Session) tea.Cmd {
		return func(*Session) tea.Cmd {
			fired = name
			return nil
		}
	}
	table, err := newDispatchTable([]binding{
		{"x", inMode(ModeNormal), mark("normal")},
		{"x", inMode(ModeWatch), mark("watch")},
	})
	require.NoError(t, err)

	_, handled := table.dispatch(s, "x")
	require.True(t, handled)
	require.Equal(t, "normal", fired)

	s.mode = ModeWatch
	_, handled = table.dispatch(s, "x")
	require.True(t, handled)
	require.Equal(t, "watch", fired)
}

func TestDispatchUnmatchedKeyFallsThrough(t *testing.T) {
	s, _ := newTestSession(t)

	cmd, handled := s.table.dispatch(s, "ctrl+x")
	require.False(t, handled)
	require.Nil(t, cmd)

	// Guarded out of the current mode also falls through.
	cmd, handled = s.table.dispatch(s, "home")
	require.False(t, handled)
	require.Nil(t, cmd)
}

func TestDefaultBindingsAreWellFormed(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := newDispatchTable(s.defaultBindings())
	require.NoError(t, err)
}
