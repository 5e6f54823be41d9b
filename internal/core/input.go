package core

// Action is a semantic input, independent of the key or click that caused it.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // Arrow up: lane up, hop forward
	ActionDown           // Arrow down: lane down, hop back
	ActionLeft           // Arrow left
	ActionRight          // Arrow right
	ActionTap            // Space or click: flap, start, whack
	ActionPause          // P, Escape
	ActionRestart        // Enter or R after game over
	ActionQuit           // Q, Ctrl+C
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionTap:
		return "Tap"
	case ActionPause:
		return "Pause"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Point addresses a grid cell or hole: Whack-A-Mole holes and Match-3 gems.
type Point struct {
	X, Y int
}

// InputFrame is everything the player did during one tick.
type InputFrame struct {
	Actions map[Action]bool

	// Target is the clicked cell when Targeted is set.
	Target   Point
	Targeted bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// SetTarget records a click on cell (x, y).
func (f *InputFrame) SetTarget(x, y int) {
	f.Target = Point{X: x, Y: y}
	f.Targeted = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets the frame for the next tick.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
	f.Target = Point{}
	f.Targeted = false
}
