package styles

// DefaultTheme is the baseline dark palette for the dmxctl console.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
	},
	Level: LevelColors{
		Debug:   "245",
		Info:    "252",
		Warning: "220",
		Error:   "203",
	},
	Device: DeviceColors{
		On:      "41",
		Off:     "245",
		Offline: "243",
	},
	Chrome: ChromeColors{
		Header: "111",
		Footer: "110",
		Mode:   "214",
		Prompt: "75",
		Notice: "220",
	},
}
