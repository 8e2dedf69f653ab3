package styles

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:          "default",
	BorderStyle:   "rounded",
	SenderPalette: append([]string(nil), SenderColorPalette...),
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
	},
	Message: MessageColors{
		Own:   "81",
		Other: "147",
	},
	Presence: PresenceColors{
		Online:  "41",
		Offline: "243",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
		Toast:        "220",
		Error:        "203",
	},
	Borders: BorderColors{
		ActivePane:   "75",
		InactivePane: "240",
		Divider:      "238",
	},
}
