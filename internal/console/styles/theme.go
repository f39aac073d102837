package styles

import "strings"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
}

// LevelColors defines colors for log severities.
type LevelColors struct {
	Debug   string
	Info    string
	Warning string
	Error   string
}

// DeviceColors defines colors for device power and link state.
type DeviceColors struct {
	On      string
	Off     string
	Offline string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header string
	Footer string
	Mode   string
	Prompt string
	Notice string
}

// Theme defines the console style/theme tokens.
type Theme struct {
	Name string

	Base   BaseColors
	Level  LevelColors
	Device DeviceColors
	Chrome ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// LevelColor maps a log severity string to its theme color. Unknown
// severities fall back to the base foreground.
func (t Theme) LevelColor(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return t.Level.Debug
	case "info":
		return t.Level.Info
	case "warning", "warn":
		return t.Level.Warning
	case "error", "critical", "fatal":
		return t.Level.Error
	default:
		return t.Base.Foreground
	}
}
