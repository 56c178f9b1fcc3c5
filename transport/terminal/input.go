package terminal

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Action is what a key press asks the game to do
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionPrimary
	ActionToggle
	ActionRestart
	ActionQuit
)

// Direction returns the direction name for a turn action, or "" otherwise
func (a Action) Direction() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	default:
		return ""
	}
}

// ActionForKey maps a key event to an action
func ActionForKey(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyUp:
		return ActionUp
	case tcell.KeyDown:
		return ActionDown
	case tcell.KeyLeft:
		return ActionLeft
	case tcell.KeyRight:
		return ActionRight
	case tcell.KeyEnter:
		return ActionPrimary
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch unicode.ToLower(ev.Rune()) {
		case 'w':
			return ActionUp
		case 's':
			return ActionDown
		case 'a':
			return ActionLeft
		case 'd':
			return ActionRight
		case ' ', 'p':
			return ActionToggle
		case 'r':
			return ActionRestart
		case 'q':
			return ActionQuit
		}
	}
	return ActionNone
}
