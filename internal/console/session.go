package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/config"
	"github.com/tOgg1/dmxctl/internal/console/styles"
	"github.com/tOgg1/dmxctl/internal/history"
	"github.com/tOgg1/dmxctl/internal/logging"
)

const (
	// assumedLineWidth converts page scrolls to character deltas. Wrapped
	// line counts are not tracked, so scrolling works on a fixed-width
	// approximation of a line.
	assumedLineWidth = 80

	// followThreshold is how close to the end of a buffer the cursor must
	// land for a downward scroll to re-enable follow-tail. A threshold
	// rather than exact equality, so resuming the tail does not require
	// hitting the last character precisely.
	followThreshold = 10

	defaultWatchInterval = 2 * time.Second
	minWatchInterval     = 500 * time.Millisecond
	watchIntervalStep    = 500 * time.Millisecond

	defaultLogPageSize   = 50
	followRepageInterval = 2 * time.Second

	historyRecallLimit = 200
)

// Config wires a session to its collaborators.
type Config struct {
	// Client talks to the bridge. Required.
	Client *api.Client
	// History records executed commands. Optional; nil disables history.
	History *history.Store
	// Contexts persists the default device across sessions. Optional.
	Contexts *config.ContextStore

	Theme         string
	WatchInterval time.Duration
	LogPageSize   int
	Version       string
}

func (c *Config) normalize() error {
	if c.Client == nil {
		return fmt.Errorf("console: api client is required")
	}
	if c.Theme == "" {
		c.Theme = "default"
	}
	if _, ok := styles.Themes[c.Theme]; !ok {
		return fmt.Errorf("unknown console theme %q", c.Theme)
	}
	if c.WatchInterval <= 0 {
		c.WatchInterval = defaultWatchInterval
	}
	if c.WatchInterval < minWatchInterval {
		c.WatchInterval = minWatchInterval
	}
	if c.LogPageSize <= 0 {
		c.LogPageSize = defaultLogPageSize
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return nil
}

// controller is the mode-local state plus background task owned between
// one mode entry and the matching exit. Instances are single-use.
type controller interface {
	mode() Mode
	// start launches the controller's background task and returns the
	// command feeding its first message to the update loop.
	start() tea.Cmd
	// stop cancels the background task. Safe to call on a controller
	// that never started.
	stop()
}

// Session drives the interactive console: one command line, two output
// buffers, four mutually exclusive interaction modes. All state mutation
// happens on the bubbletea update loop; background work runs in commands
// that post messages back here.
type Session struct {
	cfg   Config
	theme styles.Theme
	log   zerolog.Logger

	width  int
	height int

	mode   Mode
	active controller
	// gen is bumped on every mode exit. Messages from background tasks
	// carry the generation they were started under and are discarded on
	// mismatch, so a torn-down mode can never mutate the session again.
	gen int

	// followTail pins the output buffer to its newest content on append.
	// The log-tail controller keeps its own flag for the tail buffer.
	followTail bool

	output  *Buffer
	logTail *Buffer

	input    textinput.Model
	table    *dispatchTable
	commands *commandSet

	// device is the default device ID applied when a command omits one.
	device string

	histLines []string // newest first
	histPos   int      // -1 while not browsing
	histDraft string

	quitting bool
}

// New builds a session ready to hand to a bubbletea program.
func New(cfg Config) (*Session, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	theme := styles.Themes[cfg.Theme]

	ti := textinput.New()
	ti.Prompt = "dmx> "
	ti.Placeholder = "help"
	ti.CharLimit = 512
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Chrome.Prompt))
	ti.Focus()

	s := &Session{
		cfg:        cfg,
		theme:      theme,
		log:        logging.Component("console"),
		mode:       ModeNormal,
		followTail: true,
		output:     NewBuffer(),
		logTail:    NewBuffer(),
		input:      ti,
		histPos:    -1,
	}
	s.commands = newCommandSet()

	table, err := newDispatchTable(s.defaultBindings())
	if err != nil {
		return nil, err
	}
	s.table = table

	if cfg.Contexts != nil {
		if cx, err := cfg.Contexts.Load(); err == nil {
			s.device = cx.DeviceID
		}
	}
	return s, nil
}

// Run starts the console and blocks until it exits.
func Run(cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(s, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// Mode returns the current interaction mode.
func (s *Session) Mode() Mode { return s.mode }

// FollowTail reports whether the output buffer follows new content.
func (s *Session) FollowTail() bool { return s.followTail }

// Output returns the main output buffer.
func (s *Session) Output() *Buffer { return s.output }

// LogTail returns the live log tail buffer.
func (s *Session) LogTail() *Buffer { return s.logTail }

func (s *Session) Init() tea.Cmd {
	s.appendOutput(s.greeting())
	cmds := []tea.Cmd{textinput.Blink, s.checkBridgeCmd()}
	if s.cfg.History != nil {
		cmds = append(cmds, s.loadHistoryCmd())
	}
	return tea.Batch(cmds...)
}

func (s *Session) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.input.Width = maxInt(16, msg.Width-len(s.input.Prompt)-2)
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)

	case bridgeStatusMsg:
		if msg.err != nil {
			s.appendOutput(fmt.Sprintf("[warning] bridge unreachable at %s: %v\n", s.cfg.Client.BaseURL(), msg.err))
		}
		return s, nil

	case historyLoadedMsg:
		s.histLines = msg.lines
		return s, nil

	case cmdOutputMsg:
		s.appendOutput(msg.text)
		return s, nil

	case useResultMsg:
		return s, s.handleUseResult(msg)

	case logTailEventMsg:
		return s, s.handleLogTailEvent(msg)

	case watchResultMsg:
		return s, s.handleWatchResult(msg)

	case watchTickMsg:
		return s, s.handleWatchTick(msg)

	case logViewResultMsg:
		return s, s.handleLogViewResult(msg)

	case logViewTickMsg:
		return s, s.handleLogViewTick(msg)
	}
	return s, nil
}

// handleKey routes a key event through the dispatch table first; keys no
// binding claims fall through to the command input.
func (s *Session) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := s.table.dispatch(s, msg.String()); handled {
		return s, cmd
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// defaultBindings lays out the full key map. Registration order is the
// dispatch order.
func (s *Session) defaultBindings() []binding {
	return []binding{
		{"ctrl+c", anyMode, (*Session).clearOrHint},
		{"ctrl+d", anyMode, (*Session).quit},
		{"ctrl+l", anyMode, (*Session).clearOutput},
		{"ctrl+t", anyMode, (*Session).toggleFollowTail},
		{"pgup", notIn(ModeLogView), scrollKey(true)},
		{"pgdown", notIn(ModeLogView), scrollKey(false)},
		{"up", inMode(ModeNormal), (*Session).historyPrev},
		{"down", inMode(ModeNormal), (*Session).historyNext},
		{"enter", inMode(ModeNormal), (*Session).submitLine},

		{"esc", inMode(ModeLogTail), (*Session).exitModeKey},
		{"q", inMode(ModeLogTail), (*Session).exitModeKey},
		{"end", inMode(ModeLogTail), tailFollowKey},
		{"f", inMode(ModeLogTail), tailFilterKey},

		{"esc", inMode(ModeWatch), (*Session).exitModeKey},
		{"q", inMode(ModeWatch), (*Session).exitModeKey},
		{"+", inMode(ModeWatch), watchIntervalKey(-watchIntervalStep)},
		{"-", inMode(ModeWatch), watchIntervalKey(watchIntervalStep)},

		{"esc", inMode(ModeLogView), (*Session).exitModeKey},
		{"q", inMode(ModeLogView), (*Session).exitModeKey},
		{"pgup", inMode(ModeLogView), viewNavKey(pagePrev)},
		{"pgdown", inMode(ModeLogView), viewNavKey(pageNext)},
		{"home", inMode(ModeLogView), viewNavKey(pageFirst)},
		{"end", inMode(ModeLogView), viewNavKey(pageLast)},
		{"l", inMode(ModeLogView), viewCycleLevelKey},
		{"c", inMode(ModeLogView), viewClearLoggerKey},
		{"r", inMode(ModeLogView), viewRefreshKey},
		{" ", inMode(ModeLogView), viewToggleFollowKey},
		{"y", inMode(ModeLogView), viewYankKey},
		{"f", inMode(ModeLogView), viewNoticeKey(loggerFilterNotice)},
		{"/", inMode(ModeLogView), viewNoticeKey(searchNotice)},
		{"?", inMode(ModeLogView), viewNoticeKey(helpNotice)},
	}
}

// enterMode switches to the controller's mode. Entering the mode the
// session is already in is a no-op; any other active mode is exited
// through its full teardown path first.
func (s *Session) enterMode(ctrl controller) tea.Cmd {
	if s.mode == ctrl.mode() {
		return nil
	}
	if s.mode != ModeNormal {
		s.exitMode()
	}
	s.mode = ctrl.mode()
	s.active = ctrl
	s.log.Debug().Stringer("mode", s.mode).Msg("mode entered")
	return ctrl.start()
}

// exitMode tears down the active mode: cancel the background task, bump
// the generation so in-flight results land dead, clear the controller,
// return to normal. Idempotent; calling it while already in normal mode
// does nothing.
func (s *Session) exitMode() {
	if s.mode == ModeNormal {
		return
	}
	ctrl := s.active
	s.gen++
	ctrl.stop()
	s.active = nil
	s.mode = ModeNormal
	s.log.Debug().Stringer("mode", ctrl.mode()).Msg("mode exited")
	s.appendOutput(fmt.Sprintf("\n[%s mode ended]\n", ctrl.mode()))
}

func (s *Session) exitModeKey() tea.Cmd {
	s.exitMode()
	return nil
}

// appendOutput writes to the main output buffer, following the new
// content only while follow-tail is on.
func (s *Session) appendOutput(text string) {
	s.output.Append(text)
	if s.followTail {
		s.output.ScrollToEnd()
	}
}

// scroll moves the displayed buffer's cursor by pageLines worth of
// characters. Scrolling up always turns the governing follow flag off;
// scrolling down turns it back on once the cursor lands within the
// trailing threshold of the end.
func (s *Session) scroll(up bool, pageLines int) {
	if pageLines < 1 {
		pageLines = 1
	}
	buf := s.displayedBuffer()
	delta := pageLines * assumedLineWidth
	if up {
		buf.ScrollBy(-delta)
		s.setFollow(false)
		return
	}
	buf.ScrollBy(delta)
	if buf.Cursor() >= buf.Len()-followThreshold {
		s.setFollow(true)
	}
}

// displayedBuffer is the buffer the current mode renders: the tail
// buffer in log-tail mode, the output buffer everywhere else.
func (s *Session) displayedBuffer() *Buffer {
	if s.mode == ModeLogTail {
		return s.logTail
	}
	return s.output
}

// setFollow flips whichever follow flag governs the displayed buffer:
// the tail controller's own flag in log-tail mode, the session flag
// otherwise.
func (s *Session) setFollow(v bool) {
	if s.mode == ModeLogTail {
		if t, ok := s.active.(*LogTailController); ok {
			t.followTail = v
		}
		return
	}
	s.followTail = v
}

// quit ends the program from any mode. The active mode is torn down
// first and buffered unsent input is dropped.
func (s *Session) quit() tea.Cmd {
	s.exitMode()
	s.input.Reset()
	s.quitting = true
	s.log.Info().Msg("console exiting")
	return tea.Quit
}

// clearOrHint clears a partially typed command, or nudges toward the
// real quit paths when there is nothing to clear.
func (s *Session) clearOrHint() tea.Cmd {
	if s.input.Value() != "" {
		s.input.Reset()
		s.histPos = -1
		return nil
	}
	s.appendOutput("\nUse 'exit' or Ctrl+D to quit.\n")
	return nil
}

func (s *Session) clearOutput() tea.Cmd {
	s.output.Clear()
	return nil
}

func (s *Session) toggleFollowTail() tea.Cmd {
	s.followTail = !s.followTail
	state := "disabled"
	if s.followTail {
		state = "enabled"
	}
	s.appendOutput(fmt.Sprintf("\nFollow-tail %s\n", state))
	return nil
}

func scrollKey(up bool) func(*Session) tea.Cmd {
	return func(s *Session) tea.Cmd {
		// Leave room for the chrome rows, as the visible page is shorter
		// than the terminal.
		s.scroll(up, maxInt(1, s.height-4))
		return nil
	}
}

// submitLine runs the typed command. The line is echoed to the output
// buffer and remembered in history before execution.
func (s *Session) submitLine() tea.Cmd {
	line := strings.TrimSpace(s.input.Value())
	s.input.Reset()
	s.histPos = -1
	s.histDraft = ""
	if line == "" {
		return nil
	}

	s.appendOutput(fmt.Sprintf("\ndmx> %s\n", line))
	s.rememberHistory(line)

	var cmds []tea.Cmd
	if s.cfg.History != nil {
		cmds = append(cmds, s.persistHistoryCmd(line))
	}
	if cmd := s.commands.execute(s, line); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (s *Session) rememberHistory(line string) {
	if len(s.histLines) > 0 && s.histLines[0] == line {
		return
	}
	s.histLines = append([]string{line}, s.histLines...)
	if len(s.histLines) > historyRecallLimit {
		s.histLines = s.histLines[:historyRecallLimit]
	}
}

// historyPrev recalls older commands into the input, stashing whatever
// was being typed so historyNext can bring it back.
func (s *Session) historyPrev() tea.Cmd {
	if len(s.histLines) == 0 {
		return nil
	}
	if s.histPos == -1 {
		s.histDraft = s.input.Value()
	}
	if s.histPos < len(s.histLines)-1 {
		s.histPos++
	}
	s.input.SetValue(s.histLines[s.histPos])
	s.input.CursorEnd()
	return nil
}

func (s *Session) historyNext() tea.Cmd {
	if s.histPos == -1 {
		return nil
	}
	s.histPos--
	if s.histPos == -1 {
		s.input.SetValue(s.histDraft)
	} else {
		s.input.SetValue(s.histLines[s.histPos])
	}
	s.input.CursorEnd()
	return nil
}

func (s *Session) greeting() string {
	return fmt.Sprintf("dmxctl %s - bridge %s\nType 'help' for commands, Ctrl+D to quit.\n",
		s.cfg.Version, s.cfg.Client.BaseURL())
}

type bridgeStatusMsg struct {
	err error
}

// checkBridgeCmd probes the bridge once at startup so an unreachable
// server shows up immediately instead of on the first command.
func (s *Session) checkBridgeCmd() tea.Cmd {
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return bridgeStatusMsg{err: client.Health(ctx)}
	}
}

type historyLoadedMsg struct {
	lines []string
}

// loadHistoryCmd seeds up/down recall from the persisted history.
func (s *Session) loadHistoryCmd() tea.Cmd {
	store := s.cfg.History
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		entries, err := store.Recent(ctx, historyRecallLimit)
		if err != nil {
			return historyLoadedMsg{}
		}
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, e.Command)
		}
		return historyLoadedMsg{lines: lines}
	}
}

func (s *Session) persistHistoryCmd(line string) tea.Cmd {
	store := s.cfg.History
	log := s.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Append(ctx, line); err != nil {
			log.Warn().Err(err).Msg("recording command history failed")
		}
		return nil
	}
}

// cmdOutputMsg carries the rendered result of an asynchronous command
// back to the output buffer.
type cmdOutputMsg struct {
	text string
}
