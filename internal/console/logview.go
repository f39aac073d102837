package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/dmxctl/internal/api"
)

// pageTarget selects a page navigation destination.
type pageTarget int

const (
	pageFirst pageTarget = iota
	pagePrev
	pageNext
	pageLast
)

// levelCycle is the fixed severity rotation for the 'l' key. The empty
// state means unfiltered.
var levelCycle = []string{"", "debug", "info", "warning", "error"}

// Stubbed log-view dialogs. Each notice names the command that covers
// the missing UI so the dead key is observable instead of silent.
const (
	loggerFilterNotice = "[Logger filter UI not yet implemented - use 'logs view --logger LOGGER' instead]"
	searchNotice       = "[Search UI not yet implemented - use 'logs view --search PATTERN' instead]"
	helpNotice         = "[Help overlay not yet implemented - run 'help' from the prompt for key hints]"
)

// LogViewController pages through the bridge's stored logs in the output
// buffer while log-view mode is active.
type LogViewController struct {
	session *Session

	page          int
	totalPages    int // last known; zero until the first result lands
	levelFilter   string
	loggerFilter  string
	searchPattern string
	followMode    bool

	// reqSeq orders refreshes. Only the newest request's result is
	// applied, so a slow query can never overwrite a newer page.
	reqSeq int

	// content is the rendered page text, kept for the clipboard yank.
	content string

	ctx    context.Context
	cancel context.CancelFunc
}

func newLogViewController(s *Session, q api.LogQuery) *LogViewController {
	page := q.Page
	if page < 0 {
		page = 0
	}
	return &LogViewController{
		session:       s,
		page:          page,
		levelFilter:   strings.ToLower(q.Level),
		loggerFilter:  q.Logger,
		searchPattern: q.Search,
	}
}

func (c *LogViewController) mode() Mode { return ModeLogView }

func (c *LogViewController) start() tea.Cmd {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c.refresh()
}

func (c *LogViewController) stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// navigatePage moves between pages, saturating at both ends: prev on the
// first page and next on the last known page stay put.
func (c *LogViewController) navigatePage(target pageTarget) {
	switch target {
	case pageFirst:
		c.page = 0
	case pagePrev:
		if c.page > 0 {
			c.page--
		}
	case pageNext:
		if c.page < c.totalPages-1 {
			c.page++
		}
	case pageLast:
		if c.totalPages > 0 {
			c.page = c.totalPages - 1
		}
	}
}

// cycleLevelFilter advances the severity filter one step, wrapping back
// to unfiltered after the last severity.
func (c *LogViewController) cycleLevelFilter() {
	for i, lvl := range levelCycle {
		if lvl == c.levelFilter {
			c.levelFilter = levelCycle[(i+1)%len(levelCycle)]
			return
		}
	}
	c.levelFilter = ""
}

// setLoggerFilter replaces the logger filter; empty clears it.
func (c *LogViewController) setLoggerFilter(v string) {
	c.loggerFilter = v
}

// toggleFollowMode flips follow mode. Turning it on pins the view to the
// last known page immediately; the periodic re-page is scheduled by the
// key handler.
func (c *LogViewController) toggleFollowMode() {
	c.followMode = !c.followMode
	if c.followMode {
		c.navigatePage(pageLast)
	}
}

// refresh queries the page and filters as they are right now. The result
// carries this request's sequence number; anything but the newest
// sequence is dropped on arrival (last-request-wins).
func (c *LogViewController) refresh() tea.Cmd {
	c.reqSeq++
	seq := c.reqSeq
	gen := c.session.gen
	ctx := c.ctx
	client := c.session.cfg.Client
	q := api.LogQuery{
		Page:     c.page,
		PageSize: c.session.cfg.LogPageSize,
		Level:    c.levelFilter,
		Logger:   c.loggerFilter,
		Search:   c.searchPattern,
	}
	return func() tea.Msg {
		page, err := client.QueryLogs(ctx, q)
		return logViewResultMsg{gen: gen, seq: seq, page: page, err: err}
	}
}

// tick schedules the next follow-mode re-page.
func (c *LogViewController) tick() tea.Cmd {
	gen := c.session.gen
	return tea.Tick(followRepageInterval, func(time.Time) tea.Msg {
		return logViewTickMsg{gen: gen}
	})
}

// render replaces the output buffer with the page view.
func (c *LogViewController) render(page api.LogPage) {
	total := page.TotalPages
	if total < 1 {
		total = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Logs - page %d/%d%s\n", page.Page+1, total, c.filterSummary())
	if len(page.Entries) == 0 {
		b.WriteString("\n(no log entries match)\n")
	} else {
		b.WriteByte('\n')
		for _, e := range page.Entries {
			b.WriteString(formatLogEntry(e))
			b.WriteByte('\n')
		}
	}

	c.content = b.String()
	c.session.output.SetContent(c.content)
	if c.followMode {
		c.session.output.ScrollToEnd()
	} else {
		c.session.output.SetCursor(0)
	}
}

func (c *LogViewController) renderError(err error) {
	c.content = fmt.Sprintf("Logs - page %d%s\n\n[log query failed: %v]\n",
		c.page+1, c.filterSummary(), err)
	c.session.output.SetContent(c.content)
	c.session.output.SetCursor(0)
}

func (c *LogViewController) filterSummary() string {
	var parts []string
	if c.levelFilter != "" {
		parts = append(parts, "level="+c.levelFilter)
	}
	if c.loggerFilter != "" {
		parts = append(parts, "logger="+c.loggerFilter)
	}
	if c.searchPattern != "" {
		parts = append(parts, "search="+c.searchPattern)
	}
	if c.followMode {
		parts = append(parts, "follow")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, " ") + "]"
}

type logViewResultMsg struct {
	gen  int
	seq  int
	page api.LogPage
	err  error
}

type logViewTickMsg struct {
	gen int
}

func (s *Session) handleLogViewResult(msg logViewResultMsg) tea.Cmd {
	if msg.gen != s.gen {
		return nil
	}
	ctrl, ok := s.active.(*LogViewController)
	if !ok {
		return nil
	}
	if msg.seq != ctrl.reqSeq {
		// A newer request is in flight; this result lost the race.
		return nil
	}
	if msg.err != nil {
		ctrl.renderError(msg.err)
		return nil
	}

	ctrl.totalPages = msg.page.TotalPages
	ctrl.render(msg.page)

	if ctrl.followMode && msg.page.TotalPages > 0 && ctrl.page < msg.page.TotalPages-1 {
		// The store grew past the page we asked for; chase the end.
		ctrl.page = msg.page.TotalPages - 1
		return ctrl.refresh()
	}
	return nil
}

func (s *Session) handleLogViewTick(msg logViewTickMsg) tea.Cmd {
	if msg.gen != s.gen {
		return nil
	}
	ctrl, ok := s.active.(*LogViewController)
	if !ok || !ctrl.followMode {
		return nil
	}
	ctrl.navigatePage(pageLast)
	return tea.Batch(ctrl.refresh(), ctrl.tick())
}

func viewNavKey(target pageTarget) func(*Session) tea.Cmd {
	return func(s *Session) tea.Cmd {
		v, ok := s.active.(*LogViewController)
		if !ok {
			return nil
		}
		v.navigatePage(target)
		return v.refresh()
	}
}

func viewCycleLevelKey(s *Session) tea.Cmd {
	v, ok := s.active.(*LogViewController)
	if !ok {
		return nil
	}
	v.cycleLevelFilter()
	return v.refresh()
}

func viewClearLoggerKey(s *Session) tea.Cmd {
	v, ok := s.active.(*LogViewController)
	if !ok {
		return nil
	}
	v.setLoggerFilter("")
	return v.refresh()
}

func viewRefreshKey(s *Session) tea.Cmd {
	v, ok := s.active.(*LogViewController)
	if !ok {
		return nil
	}
	return v.refresh()
}

func viewToggleFollowKey(s *Session) tea.Cmd {
	v, ok := s.active.(*LogViewController)
	if !ok {
		return nil
	}
	v.toggleFollowMode()
	if v.followMode {
		return tea.Batch(v.refresh(), v.tick())
	}
	return v.refresh()
}

func viewYankKey(s *Session) tea.Cmd {
	v, ok := s.active.(*LogViewController)
	if !ok || v.content == "" {
		return nil
	}
	s.output.Append("\n[page copied to clipboard]\n")
	return copyToClipboardCmd(v.content)
}

func viewNoticeKey(notice string) func(*Session) tea.Cmd {
	return func(s *Session) tea.Cmd {
		if _, ok := s.active.(*LogViewController); !ok {
			return nil
		}
		s.output.Append("\n" + notice + "\n")
		s.output.ScrollToEnd()
		return nil
	}
}
