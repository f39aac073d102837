package console

// Mode identifies which of the four mutually exclusive interaction states
// the console is in.
type Mode int

const (
	// ModeNormal is plain command entry with scrollback.
	ModeNormal Mode = iota
	// ModeLogTail streams live bridge logs into the tail buffer.
	ModeLogTail
	// ModeWatch refreshes a status snapshot on a fixed interval.
	ModeWatch
	// ModeLogView pages through the bridge's stored logs.
	ModeLogView
)

var allModes = []Mode{ModeNormal, ModeLogTail, ModeWatch, ModeLogView}

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLogTail:
		return "log-tail"
	case ModeWatch:
		return "watch"
	case ModeLogView:
		return "log-view"
	default:
		return "unknown"
	}
}
