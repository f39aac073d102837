package console

import (
	"fmt"
	"os"
	"strings"
	"time"

	osc52 "github.com/aymanbagabas/go-osc52/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/history"
)

// formatLogEntry renders one log line the same way everywhere logs show
// up in the console.
func formatLogEntry(e api.LogEntry) string {
	return fmt.Sprintf("%s %-7s %-18s %s",
		e.Time.Format("15:04:05"),
		strings.ToUpper(e.Level),
		e.Logger,
		e.Message)
}

func renderDevices(devices []api.Device) string {
	if len(devices) == 0 {
		return "No devices found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %-20s %-7s %-15s %-6s %s\n",
		"ID", "NAME", "MODEL", "ADDRESS", "UNI/CH", "STATE")
	for _, d := range devices {
		fmt.Fprintf(&b, "%-18s %-20s %-7s %-15s %-6s %s\n",
			d.ID,
			truncateLine(d.Name, 20),
			d.Model,
			d.Address,
			fmt.Sprintf("%d/%d", d.Universe, d.Channel),
			deviceState(d))
	}
	return b.String()
}

func deviceState(d api.Device) string {
	if !d.Online {
		return "offline"
	}
	if !d.Power {
		return "off"
	}
	state := fmt.Sprintf("on %d%%", d.Brightness)
	if d.Color != "" {
		state += " " + d.Color
	}
	return state
}

func renderScenes(scenes []api.Scene) string {
	if len(scenes) == 0 {
		return "No scenes defined.\n"
	}
	var b strings.Builder
	for _, sc := range scenes {
		marker := " "
		if sc.Active {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-20s %d device(s)\n", marker, sc.Name, len(sc.DeviceIDs))
	}
	b.WriteString("\n* = active\n")
	return b.String()
}

func renderStatus(snap api.StatusSnapshot) string {
	online := 0
	powered := 0
	for _, d := range snap.Devices {
		if d.Online {
			online++
		}
		if d.Power {
			powered++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Bridge %s  up %s\n", snap.Version, formatUptime(snap.UptimeSeconds))
	fmt.Fprintf(&b, "Devices: %d total, %d online, %d powered\n\n",
		len(snap.Devices), online, powered)
	for _, d := range snap.Devices {
		fmt.Fprintf(&b, "  %-20s %s\n", truncateLine(d.Name, 20), deviceStatusState(d))
	}
	b.WriteByte('\n')
	a := snap.ArtNet
	fmt.Fprintf(&b, "Art-Net: %d universe(s)  %.1f pkt/s  %.1f fps  %d packets  %d dropped\n",
		a.Universes, a.PacketsPerSecond, a.FramesPerSecond, a.PacketsTotal, a.DroppedFrames)
	return b.String()
}

func deviceStatusState(d api.DeviceStatus) string {
	if !d.Online {
		return "offline"
	}
	if !d.Power {
		return "off"
	}
	return fmt.Sprintf("on %d%%", d.Brightness)
}

func formatUptime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Truncate(time.Second).String()
}

func renderHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "History is empty.\n"
	}
	var b strings.Builder
	// Queries return newest first; print oldest first like a shell does.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "%s  %s\n", e.RanAt.Format("2006-01-02 15:04"), e.Command)
	}
	return b.String()
}

// copyToClipboardCmd emits an OSC52 sequence so the hosting terminal
// (including tmux and screen) places the text on the local clipboard.
func copyToClipboardCmd(text string) tea.Cmd {
	return func() tea.Msg {
		seq := osc52.New(text).Limit(100 * 1024)

		term := strings.ToLower(os.Getenv("TERM"))
		if tmux := os.Getenv("TMUX"); tmux != "" || strings.HasPrefix(term, "tmux") {
			seq = seq.Tmux()
		} else if strings.HasPrefix(term, "screen") {
			seq = seq.Screen()
		}

		_, _ = seq.WriteTo(os.Stdout)
		return nil
	}
}

func truncateLine(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(w), "...")
}

func padHeight(block string, h int) string {
	lines := strings.Split(block, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
