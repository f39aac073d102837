package console

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/dmxctl/internal/api"
)

// WatchController refreshes a bridge status snapshot into the output
// buffer on a fixed interval while watch mode is active.
type WatchController struct {
	session  *Session
	interval time.Duration

	// running turns false only after stop has issued the cancel, so a
	// false reading means the loop cannot fire again.
	running bool

	last    *api.StatusSnapshot
	lastErr error
	fetched time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func newWatchController(s *Session, interval time.Duration) *WatchController {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if interval < minWatchInterval {
		interval = minWatchInterval
	}
	return &WatchController{session: s, interval: interval}
}

func (c *WatchController) mode() Mode { return ModeWatch }

func (c *WatchController) start() tea.Cmd {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.running = true
	c.render()
	return c.fetch()
}

func (c *WatchController) stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
}

// setInterval replaces the refresh interval, clamped to the floor so the
// bridge is never polled more than twice a second. The next scheduled
// tick picks the new value up; a refresh already in flight is not
// interrupted. There is no ceiling.
func (c *WatchController) setInterval(d time.Duration) {
	if d < minWatchInterval {
		d = minWatchInterval
	}
	c.interval = d
}

// fetch queries the bridge off the update loop and reposts the result.
func (c *WatchController) fetch() tea.Cmd {
	gen := c.session.gen
	ctx := c.ctx
	client := c.session.cfg.Client
	return func() tea.Msg {
		snap, err := client.Status(ctx)
		return watchResultMsg{gen: gen, snapshot: snap, err: err}
	}
}

// tick schedules the next refresh using the interval as it is now.
func (c *WatchController) tick() tea.Cmd {
	gen := c.session.gen
	return tea.Tick(c.interval, func(time.Time) tea.Msg {
		return watchTickMsg{gen: gen}
	})
}

// render replaces the output buffer with the watch view. A failed query
// shows inline, keeping the last good snapshot visible underneath, and
// the refresh loop keeps going.
func (c *WatchController) render() {
	var body string
	switch {
	case c.lastErr != nil && c.last == nil:
		body = fmt.Sprintf("[status query failed: %v]\n", c.lastErr)
	case c.lastErr != nil:
		body = fmt.Sprintf("[status query failed: %v]\n\n%s", c.lastErr, renderStatus(*c.last))
	case c.last == nil:
		body = "Fetching status...\n"
	default:
		body = renderStatus(*c.last)
	}

	header := fmt.Sprintf("Watch - refreshing every %.1fs ('+' faster, '-' slower, q/Esc to return)\n\n",
		c.interval.Seconds())
	footer := ""
	if !c.fetched.IsZero() {
		footer = fmt.Sprintf("\nUpdated %s\n", c.fetched.Format("15:04:05"))
	}
	c.session.output.SetContent(header + body + footer)
}

type watchResultMsg struct {
	gen      int
	snapshot api.StatusSnapshot
	err      error
}

type watchTickMsg struct {
	gen int
}

func (s *Session) handleWatchResult(msg watchResultMsg) tea.Cmd {
	if msg.gen != s.gen {
		return nil
	}
	ctrl, ok := s.active.(*WatchController)
	if !ok {
		return nil
	}
	ctrl.lastErr = msg.err
	if msg.err == nil {
		snap := msg.snapshot
		ctrl.last = &snap
		ctrl.fetched = time.Now()
	}
	ctrl.render()
	return ctrl.tick()
}

func (s *Session) handleWatchTick(msg watchTickMsg) tea.Cmd {
	if msg.gen != s.gen {
		return nil
	}
	ctrl, ok := s.active.(*WatchController)
	if !ok || !ctrl.running {
		return nil
	}
	return ctrl.fetch()
}

func watchIntervalKey(delta time.Duration) func(*Session) tea.Cmd {
	return func(s *Session) tea.Cmd {
		if w, ok := s.active.(*WatchController); ok {
			w.setInterval(w.interval + delta)
			w.render()
		}
		return nil
	}
}
