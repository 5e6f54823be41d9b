package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/core"
)

// KeyMap holds the preview's key bindings. Game keys become input actions;
// editor keys drive the session.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Tap     key.Binding
	Pause   key.Binding
	Restart key.Binding
	Holes   key.Binding

	NextParam key.Binding
	PrevParam key.Binding
	Increase  key.Binding
	Decrease  key.Binding
	Simple    key.Binding
	Medium    key.Binding
	Hard      key.Binding

	Screenshot key.Binding
	Help       key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑/w", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", "down")),
		Left:    key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←/a", "left")),
		Right:   key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→/d", "right")),
		Tap:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "flap/start/pick")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Restart: key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter/r", "restart")),
		Holes:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "whack hole")),

		NextParam: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next setting")),
		PrevParam: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev setting")),
		Increase:  key.NewBinding(key.WithKeys("]", "+", "="), key.WithHelp("]", "increase")),
		Decrease:  key.NewBinding(key.WithKeys("[", "-"), key.WithHelp("[", "decrease")),
		Simple:    key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "simple")),
		Medium:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "medium")),
		Hard:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "hard")),

		Screenshot: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "screenshot")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Back:       key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tap, k.Pause, k.NextParam, k.Increase, k.Decrease, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Tap, k.Holes},
		{k.Pause, k.Restart, k.Screenshot, k.Back, k.Quit},
		{k.NextParam, k.PrevParam, k.Increase, k.Decrease},
		{k.Simple, k.Medium, k.Hard, k.Help},
	}
}

// Action translates a key to a game action. ActionNone means the key is
// not a game key.
func (k KeyMap) Action(msg tea.KeyMsg) core.Action {
	switch {
	case key.Matches(msg, k.Quit):
		return core.ActionQuit
	case key.Matches(msg, k.Up):
		return core.ActionUp
	case key.Matches(msg, k.Down):
		return core.ActionDown
	case key.Matches(msg, k.Left):
		return core.ActionLeft
	case key.Matches(msg, k.Right):
		return core.ActionRight
	case key.Matches(msg, k.Tap):
		return core.ActionTap
	case key.Matches(msg, k.Pause):
		return core.ActionPause
	case key.Matches(msg, k.Restart):
		return core.ActionRestart
	}
	return core.ActionNone
}

// Preset returns the difficulty a preset key selects.
func (k KeyMap) Preset(msg tea.KeyMsg) (config.Preset, bool) {
	switch {
	case key.Matches(msg, k.Simple):
		return config.PresetSimple, true
	case key.Matches(msg, k.Medium):
		return config.PresetMedium, true
	case key.Matches(msg, k.Hard):
		return config.PresetHard, true
	}
	return "", false
}

// Hole returns the cell a number key addresses on a cols-wide grid,
// counting row by row from 1.
func (k KeyMap) Hole(msg tea.KeyMsg, cols, rows int) (core.Point, bool) {
	if cols <= 0 || !key.Matches(msg, k.Holes) {
		return core.Point{}, false
	}
	n := int(msg.String()[0]-'1')
	if n >= cols*rows {
		return core.Point{}, false
	}
	return core.Point{X: n % cols, Y: n / cols}, true
}
