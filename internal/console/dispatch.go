package console

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// binding pairs a key with a guard over the session mode and the handler
// to run when the guard holds. Guards must be pure: they read the mode
// value they are handed and nothing else.
type binding struct {
	key   string
	guard func(Mode) bool
	run   func(*Session) tea.Cmd
}

// dispatchTable matches key events against bindings in registration
// order. Keys that match no binding fall through to the command input.
type dispatchTable struct {
	bindings []binding
}

// newDispatchTable rejects tables where two bindings for the same key
// could both be live in some mode. First-match dispatch would make the
// later one unreachable, which is always a wiring mistake.
func newDispatchTable(bindings []binding) (*dispatchTable, error) {
	for i, a := range bindings {
		for _, b := range bindings[i+1:] {
			if a.key != b.key {
				continue
			}
			for _, m := range allModes {
				if a.guard(m) && b.guard(m) {
					return nil, fmt.Errorf("key %q bound twice in %s mode", a.key, m)
				}
			}
		}
	}
	return &dispatchTable{bindings: bindings}, nil
}

// dispatch runs the first binding whose key matches and whose guard holds
// for the session's current mode. The second return reports whether any
// binding fired.
func (t *dispatchTable) dispatch(s *Session, key string) (tea.Cmd, bool) {
	for _, b := range t.bindings {
		if b.key == key && b.guard(s.mode) {
			return b.run(s), true
		}
	}
	return nil, false
}

func anyMode(Mode) bool { return true }

func inMode(want Mode) func(Mode) bool {
	return func(m Mode) bool { return m == want }
}

func notIn(exclude Mode) func(Mode) bool {
	return func(m Mode) bool { return m != exclude }
}
