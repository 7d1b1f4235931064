package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the gallery key bindings. It implements help.KeyMap.
type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Top          key.Binding
	Bottom       key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	Preview      key.Binding
	Download     key.Binding
	Retry        key.Binding
	Debug        key.Binding
	Quit         key.Binding
	Close        key.Binding
	Rotate       key.Binding
	FlipX        key.Binding
	FlipY        key.Binding
	MoreContrast key.Binding
	Dimmer       key.Binding
	Brighter     key.Binding
	LessContrast key.Binding
	Reset        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:          key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:       key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		NextTab:      key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "category")),
		PrevTab:      key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("S-tab", "prev category")),
		Preview:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "preview")),
		Download:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Retry:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry")),
		Debug:        key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Close:        key.NewBinding(key.WithKeys("esc", "enter", "q"), key.WithHelp("esc", "close")),
		Rotate:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rotate")),
		FlipX:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "flip x")),
		FlipY:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "flip y")),
		MoreContrast: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "contrast")),
		LessContrast: key.NewBinding(key.WithKeys("-", "_")),
		Brighter:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]/[", "brightness")),
		Dimmer:       key.NewBinding(key.WithKeys("[")),
		Reset:        key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset")),
	}
}

// ShortHelp is shown in the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.NextTab, k.Preview, k.Download, k.Debug, k.Quit}
}

// FullHelp groups every gallery binding.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.NextTab, k.PrevTab, k.Preview, k.Download, k.Retry},
		{k.Debug, k.Quit},
	}
}

// previewHelp lists the bindings active inside the preview modal.
func (k keyMap) previewHelp() []key.Binding {
	return []key.Binding{k.Rotate, k.FlipX, k.FlipY, k.MoreContrast, k.Brighter, k.Reset, k.Download, k.Close}
}
