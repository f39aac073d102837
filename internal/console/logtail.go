package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/dmxctl/internal/api"
)

// filterUINotice is shown for the stubbed tail filter prompt. The real
// filter UI does not exist yet, so the notice points at the command that
// covers the gap.
const filterUINotice = "[Filter UI not yet implemented - use 'logs tail --level LEVEL --logger LOGGER' to set filters]"

// LogTailController streams live bridge logs into the session's tail
// buffer while log-tail mode is active.
type LogTailController struct {
	session *Session
	filter  api.LogFilter

	// followTail is this mode's own follow flag, independent of the
	// session's: it governs auto-scroll of the tail buffer only.
	followTail bool

	events <-chan api.LogStreamEvent
	cancel func()
}

func newLogTailController(s *Session, filter api.LogFilter) *LogTailController {
	return &LogTailController{session: s, filter: filter, followTail: true}
}

func (c *LogTailController) mode() Mode { return ModeLogTail }

// start opens the log subscription and begins pumping events onto the
// update loop.
func (c *LogTailController) start() tea.Cmd {
	c.events, c.cancel = c.session.cfg.Client.SubscribeLogs(context.Background(), c.filter)
	return c.wait()
}

func (c *LogTailController) stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// wait blocks for the next stream event off the update loop and reposts
// it tagged with the generation the subscription was started under.
func (c *LogTailController) wait() tea.Cmd {
	gen := c.session.gen
	events := c.events
	return func() tea.Msg {
		ev, ok := <-events
		return logTailEventMsg{gen: gen, event: ev, closed: !ok}
	}
}

// appendLine writes one line to the tail buffer, following it only while
// this controller's follow flag is on.
func (c *LogTailController) appendLine(line string) {
	c.session.logTail.Append(line + "\n")
	if c.followTail {
		c.session.logTail.ScrollToEnd()
	}
}

// enableFollowTail turns following back on and jumps straight to the
// newest content.
func (c *LogTailController) enableFollowTail() {
	c.followTail = true
	c.session.logTail.ScrollToEnd()
}

type logTailEventMsg struct {
	gen    int
	event  api.LogStreamEvent
	closed bool
}

func (s *Session) handleLogTailEvent(msg logTailEventMsg) tea.Cmd {
	if msg.gen != s.gen {
		return nil
	}
	ctrl, ok := s.active.(*LogTailController)
	if !ok {
		return nil
	}
	if msg.closed {
		ctrl.appendLine("[log stream closed]")
		return nil
	}
	if msg.event.Err != nil {
		ctrl.appendLine(fmt.Sprintf("[log stream error: %v - retrying]", msg.event.Err))
		return ctrl.wait()
	}
	// The server already filters; matching again here keeps the view
	// honest when the stream predates a filter change.
	if ctrl.filter.Matches(msg.event.Entry) {
		ctrl.appendLine(formatLogEntry(msg.event.Entry))
	}
	return ctrl.wait()
}

func tailFollowKey(s *Session) tea.Cmd {
	if t, ok := s.active.(*LogTailController); ok {
		t.enableFollowTail()
	}
	return nil
}

func tailFilterKey(s *Session) tea.Cmd {
	if t, ok := s.active.(*LogTailController); ok {
		t.appendLine(filterUINotice)
	}
	return nil
}
