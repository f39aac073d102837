package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (s *Session) View() string {
	if s.quitting {
		return ""
	}
	if s.width <= 0 || s.height <= 0 {
		return "starting..."
	}

	header := s.renderHeader()
	footer := s.renderFooter()
	prompt := s.input.View()

	contentHeight := s.height - lipgloss.Height(header) - lipgloss.Height(footer) - 1
	if contentHeight < 1 {
		contentHeight = 1
	}
	body := padHeight(s.displayedBuffer().Window(s.width, contentHeight), contentHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, prompt, footer)
}

func (s *Session) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Base.Foreground)).
		Background(lipgloss.Color(s.theme.Chrome.Header)).
		Bold(true).
		Padding(0, 1)

	left := "dmxctl"
	center := fmt.Sprintf("bridge: %s", s.cfg.Client.BaseURL())
	right := s.modeIndicator()
	line := joinHeader(left, center, right, s.width)
	return style.Width(maxInt(0, s.width)).Render(line)
}

func (s *Session) renderFooter() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Base.Foreground)).
		Background(lipgloss.Color(s.theme.Chrome.Footer)).
		Padding(0, 1)

	var hints string
	switch s.mode {
	case ModeLogTail:
		hints = "Esc/q return  End follow  f filter  PgUp/PgDn scroll  Ctrl+D quit"
	case ModeWatch:
		hints = "Esc/q return  + faster  - slower  Ctrl+D quit"
	case ModeLogView:
		hints = "Esc/q return  PgUp/PgDn page  Home/End ends  l level  c logger  r refresh  Space follow  y yank"
	default:
		hints = "Enter run  Up/Down history  PgUp/PgDn scroll  Ctrl+T follow  Ctrl+L clear  Ctrl+D quit"
	}
	return style.Width(maxInt(0, s.width)).Render(truncateLine(hints, maxInt(0, s.width-2)))
}

// modeIndicator is the header's right-hand cell: the active mode plus
// its most useful detail.
func (s *Session) modeIndicator() string {
	switch s.mode {
	case ModeLogTail:
		if t, ok := s.active.(*LogTailController); ok && !t.followTail {
			return "log-tail (paused)"
		}
		return "log-tail"
	case ModeWatch:
		if w, ok := s.active.(*WatchController); ok {
			return fmt.Sprintf("watch %.1fs", w.interval.Seconds())
		}
		return "watch"
	case ModeLogView:
		if v, ok := s.active.(*LogViewController); ok && v.totalPages > 0 {
			return fmt.Sprintf("log-view %d/%d", v.page+1, v.totalPages)
		}
		return "log-view"
	default:
		if !s.followTail {
			return "scroll"
		}
		return "ready"
	}
}

// joinHeader spreads three parts across the width, collapsing to
// left+right when the center no longer fits.
func joinHeader(left, center, right string, width int) string {
	left = strings.TrimSpace(left)
	center = strings.TrimSpace(center)
	right = strings.TrimSpace(right)
	if width <= 0 {
		return left
	}

	space := width - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if space < 2 {
		line := left
		if right != "" {
			line = left + "  " + right
		}
		return truncateLine(line, width)
	}

	leftGap := space / 2
	rightGap := space - leftGap
	return truncateLine(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}
