package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
	},
	Level: LevelColors{
		Debug:   "250",
		Info:    "231",
		Warning: "226",
		Error:   "196",
	},
	Device: DeviceColors{
		On:      "46",
		Off:     "250",
		Offline: "244",
	},
	Chrome: ChromeColors{
		Header: "117",
		Footer: "159",
		Mode:   "229",
		Prompt: "51",
		Notice: "226",
	},
}
