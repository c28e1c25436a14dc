package config

// Keybinds holds all keybinding configuration. Values are plain strings
// matching the tcell.EventKey.Name() format (e.g. "Rune[j]", "Ctrl+W", "Enter").
type Keybinds struct {
	FocusChannels string `toml:"focus_channels"`
	FocusInput    string `toml:"focus_input"`
	ToggleThread  string `toml:"toggle_thread"`
	TeamPicker    string `toml:"team_picker"`
	Quit          string `toml:"quit"`

	TeamPickerKeys PickerKeybinds `toml:"team_picker_keys"`
}

// PickerKeybinds holds keybindings for modal picker popups.
type PickerKeybinds struct {
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Select string `toml:"select"`
	Close  string `toml:"close"`
}
