package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/config"
	"github.com/tOgg1/dmxctl/internal/history"
)

const commandTimeout = 15 * time.Second

const logsUsage = "Usage: logs tail [--level LEVEL] [--logger LOGGER]\n" +
	"       logs view [--level LEVEL] [--logger LOGGER] [--search PATTERN] [--page N]\n"

// command is one console verb.
type command struct {
	name    string
	usage   string
	summary string
	run     func(*Session, []string) tea.Cmd
}

// commandSet resolves and executes console command lines. Handlers run
// on the update loop; anything that talks to the bridge returns a
// tea.Cmd and reports back through a message.
type commandSet struct {
	order   []*command
	byName  map[string]*command
	aliases map[string]string
}

func newCommandSet() *commandSet {
	cs := &commandSet{
		byName:  make(map[string]*command),
		aliases: map[string]string{"quit": "exit"},
	}
	for _, c := range []*command{
		{"help", "help", "List available commands", cmdHelp},
		{"devices", "devices", "List devices known to the bridge", cmdDevices},
		{"use", "use [device]", "Set or show the default device", cmdUse},
		{"on", "on [device]", "Power a device on", cmdPower(true)},
		{"off", "off [device]", "Power a device off", cmdPower(false)},
		{"brightness", "brightness [device] <0-100>", "Set device brightness", cmdBrightness},
		{"color", "color [device] <#rrggbb>", "Set device color", cmdColor},
		{"scenes", "scenes", "List scenes", cmdScenes},
		{"scene", "scene <name>", "Activate a scene", cmdScene},
		{"status", "status", "Show a bridge status snapshot", cmdStatus},
		{"watch", "watch [interval-seconds]", "Live status view, refreshed periodically", cmdWatch},
		{"logs", "logs tail|view [flags]", "Tail or browse bridge logs", cmdLogs},
		{"history", "history [n|pattern]", "Show command history", cmdHistory},
		{"clear", "clear", "Clear the output buffer", cmdClear},
		{"exit", "exit", "Leave the console", cmdExit},
	} {
		cs.register(c)
	}
	return cs
}

func (cs *commandSet) register(c *command) {
	cs.order = append(cs.order, c)
	cs.byName[c.name] = c
}

func (cs *commandSet) execute(s *Session, line string) tea.Cmd {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if target, ok := cs.aliases[name]; ok {
		name = target
	}
	cmd, ok := cs.byName[name]
	if !ok {
		s.appendOutput(fmt.Sprintf("Unknown command %q. Type 'help' for a list.\n", name))
		return nil
	}
	return cmd.run(s, fields[1:])
}

func (cs *commandSet) helpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, c := range cs.order {
		fmt.Fprintf(&b, "  %-28s %s\n", c.usage, c.summary)
	}
	b.WriteString("\nKeys: PgUp/PgDn scroll, Ctrl+T follow-tail, Ctrl+L clear, Ctrl+D quit.\n")
	return b.String()
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func errorLine(action string, err error) string {
	return fmt.Sprintf("[%s failed: %v]\n", action, err)
}

// deviceRef picks the device argument for a command taking tail trailing
// non-device arguments, falling back to the default set with 'use'.
func (s *Session) deviceRef(args []string, tail int) (string, bool) {
	if len(args) == tail+1 {
		return args[0], true
	}
	if len(args) == tail && s.device != "" {
		return s.device, true
	}
	return "", false
}

func cmdHelp(s *Session, _ []string) tea.Cmd {
	s.appendOutput(s.commands.helpText())
	return nil
}

func cmdClear(s *Session, _ []string) tea.Cmd {
	s.output.Clear()
	return nil
}

func cmdExit(s *Session, _ []string) tea.Cmd {
	return s.quit()
}

func cmdDevices(s *Session, _ []string) tea.Cmd {
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		devices, err := client.Devices(ctx)
		if err != nil {
			return cmdOutputMsg{text: errorLine("listing devices", err)}
		}
		return cmdOutputMsg{text: renderDevices(devices)}
	}
}

func cmdScenes(s *Session, _ []string) tea.Cmd {
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		scenes, err := client.Scenes(ctx)
		if err != nil {
			return cmdOutputMsg{text: errorLine("listing scenes", err)}
		}
		return cmdOutputMsg{text: renderScenes(scenes)}
	}
}

func cmdScene(s *Session, args []string) tea.Cmd {
	if len(args) != 1 {
		s.appendOutput("Usage: scene <name>\n")
		return nil
	}
	name := args[0]
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		if err := client.ActivateScene(ctx, name); err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return cmdOutputMsg{text: fmt.Sprintf("[no scene named %q]\n", name)}
			}
			return cmdOutputMsg{text: errorLine("activating scene", err)}
		}
		return cmdOutputMsg{text: fmt.Sprintf("Scene %q activated.\n", name)}
	}
}

func cmdPower(on bool) func(*Session, []string) tea.Cmd {
	return func(s *Session, args []string) tea.Cmd {
		verb := "off"
		if on {
			verb = "on"
		}
		ref, ok := s.deviceRef(args, 0)
		if !ok {
			s.appendOutput(fmt.Sprintf("Usage: %s <device>  (or set a default with 'use')\n", verb))
			return nil
		}
		client := s.cfg.Client
		return func() tea.Msg {
			ctx, cancel := commandContext()
			defer cancel()
			d, err := api.ResolveDevice(ctx, client, ref)
			if err != nil {
				return cmdOutputMsg{text: fmt.Sprintf("[%v]\n", err)}
			}
			if err := client.SetPower(ctx, d.ID, on); err != nil {
				return cmdOutputMsg{text: errorLine("setting power", err)}
			}
			return cmdOutputMsg{text: fmt.Sprintf("Turned %s %s.\n", d.Name, verb)}
		}
	}
}

func cmdBrightness(s *Session, args []string) tea.Cmd {
	ref, ok := s.deviceRef(args, 1)
	if !ok {
		s.appendOutput("Usage: brightness [device] <0-100>\n")
		return nil
	}
	level, err := strconv.Atoi(args[len(args)-1])
	if err != nil || level < 0 || level > 100 {
		s.appendOutput("Brightness must be a number from 0 to 100.\n")
		return nil
	}
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := api.ResolveDevice(ctx, client, ref)
		if err != nil {
			return cmdOutputMsg{text: fmt.Sprintf("[%v]\n", err)}
		}
		if err := client.SetBrightness(ctx, d.ID, level); err != nil {
			return cmdOutputMsg{text: errorLine("setting brightness", err)}
		}
		return cmdOutputMsg{text: fmt.Sprintf("Set %s brightness to %d%%.\n", d.Name, level)}
	}
}

func cmdColor(s *Session, args []string) tea.Cmd {
	ref, ok := s.deviceRef(args, 1)
	if !ok {
		s.appendOutput("Usage: color [device] <#rrggbb>\n")
		return nil
	}
	color := args[len(args)-1]
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := api.ResolveDevice(ctx, client, ref)
		if err != nil {
			return cmdOutputMsg{text: fmt.Sprintf("[%v]\n", err)}
		}
		if err := client.SetColor(ctx, d.ID, color); err != nil {
			return cmdOutputMsg{text: errorLine("setting color", err)}
		}
		return cmdOutputMsg{text: fmt.Sprintf("Set %s to %s.\n", d.Name, color)}
	}
}

type useResultMsg struct {
	device api.Device
	err    error
}

func cmdUse(s *Session, args []string) tea.Cmd {
	if len(args) == 0 {
		if s.device == "" {
			s.appendOutput("No default device set. Usage: use <device>\n")
		} else {
			s.appendOutput(fmt.Sprintf("Default device: %s\n", s.device))
		}
		return nil
	}
	ref := args[0]
	client := s.cfg.Client
	contexts := s.cfg.Contexts
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		d, err := api.ResolveDevice(ctx, client, ref)
		if err != nil {
			return useResultMsg{err: err}
		}
		if contexts != nil {
			cx, err := contexts.Load()
			if err != nil {
				cx = &config.Context{}
			}
			cx.SetDevice(d.ID, d.Name)
			if err := contexts.Save(cx); err != nil {
				return useResultMsg{device: d, err: fmt.Errorf("saving context: %w", err)}
			}
		}
		return useResultMsg{device: d}
	}
}

func (s *Session) handleUseResult(msg useResultMsg) tea.Cmd {
	if msg.err != nil {
		// A resolved device still becomes the session default even when
		// persisting it failed.
		if msg.device.ID != "" {
			s.device = msg.device.ID
		}
		s.appendOutput(fmt.Sprintf("[use failed: %v]\n", msg.err))
		return nil
	}
	s.device = msg.device.ID
	s.appendOutput(fmt.Sprintf("Default device: %s (%s)\n", msg.device.Name, msg.device.ID))
	return nil
}

func cmdStatus(s *Session, _ []string) tea.Cmd {
	client := s.cfg.Client
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		snap, err := client.Status(ctx)
		if err != nil {
			return cmdOutputMsg{text: errorLine("querying status", err)}
		}
		return cmdOutputMsg{text: renderStatus(snap)}
	}
}

func cmdWatch(s *Session, args []string) tea.Cmd {
	interval := s.cfg.WatchInterval
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs <= 0 {
			s.appendOutput("Usage: watch [interval-seconds]\n")
			return nil
		}
		interval = time.Duration(secs * float64(time.Second))
	}
	return s.enterMode(newWatchController(s, interval))
}

func cmdLogs(s *Session, args []string) tea.Cmd {
	if len(args) == 0 {
		s.appendOutput(logsUsage)
		return nil
	}
	sub := strings.ToLower(args[0])
	flags, rest, err := parseFlags(args[1:])
	if err != nil {
		s.appendOutput(fmt.Sprintf("%v\n%s", err, logsUsage))
		return nil
	}
	if len(rest) > 0 {
		s.appendOutput(logsUsage)
		return nil
	}

	switch sub {
	case "tail":
		if bad := unknownFlag(flags, "level", "logger"); bad != "" {
			s.appendOutput(fmt.Sprintf("Unknown flag --%s\n%s", bad, logsUsage))
			return nil
		}
		filter := api.LogFilter{Level: strings.ToLower(flags["level"]), Logger: flags["logger"]}
		s.logTail.Clear()
		s.logTail.Append(tailBanner(filter))
		return s.enterMode(newLogTailController(s, filter))

	case "view":
		if bad := unknownFlag(flags, "level", "logger", "search", "page"); bad != "" {
			s.appendOutput(fmt.Sprintf("Unknown flag --%s\n%s", bad, logsUsage))
			return nil
		}
		page := 0
		if raw, ok := flags["page"]; ok {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				s.appendOutput("--page takes a page number starting at 1.\n")
				return nil
			}
			page = n - 1
		}
		q := api.LogQuery{
			Page:   page,
			Level:  strings.ToLower(flags["level"]),
			Logger: flags["logger"],
			Search: flags["search"],
		}
		return s.enterMode(newLogViewController(s, q))

	default:
		s.appendOutput(logsUsage)
		return nil
	}
}

func tailBanner(filter api.LogFilter) string {
	banner := "Tailing bridge logs (Esc/q to return, End to follow, f to filter)\n"
	var parts []string
	if filter.Level != "" {
		parts = append(parts, "level="+filter.Level)
	}
	if filter.Logger != "" {
		parts = append(parts, "logger="+filter.Logger)
	}
	if len(parts) > 0 {
		banner += "Filters: " + strings.Join(parts, " ") + "\n"
	}
	return banner
}

func cmdHistory(s *Session, args []string) tea.Cmd {
	if s.cfg.History == nil {
		s.appendOutput("History persistence is disabled.\n")
		return nil
	}
	n := 20
	search := ""
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		} else {
			search = strings.Join(args, " ")
		}
	}
	store := s.cfg.History
	return func() tea.Msg {
		ctx, cancel := commandContext()
		defer cancel()
		var (
			entries []history.Entry
			err     error
		)
		if search != "" {
			entries, err = store.Search(ctx, search, n)
		} else {
			entries, err = store.Recent(ctx, n)
		}
		if err != nil {
			return cmdOutputMsg{text: errorLine("reading history", err)}
		}
		return cmdOutputMsg{text: renderHistory(entries)}
	}
}

// parseFlags splits --flag value and --flag=value pairs from positional
// arguments.
func parseFlags(args []string) (map[string]string, []string, error) {
	flags := map[string]string{}
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--") {
			rest = append(rest, a)
			continue
		}
		name := strings.TrimPrefix(a, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			flags[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag --%s requires a value", name)
		}
		i++
		flags[name] = args[i]
	}
	return flags, rest, nil
}

func unknownFlag(flags map[string]string, allowed ...string) string {
	for name := range flags {
		ok := false
		for _, a := range allowed {
			if name == a {
				ok = true
				break
			}
		}
		if !ok {
			return name
		}
	}
	return ""
}
