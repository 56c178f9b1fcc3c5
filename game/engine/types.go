package engine

import (
	"fmt"
	"time"
)

// Engine is the surface the service layer drives. GameSession implements it.
type Engine interface {
	Start() bool
	Pause() bool
	Toggle() error
	Restart() error
	PrimaryAction() error
	SetDirection(d Direction) bool
	Tick() (TickResult, error)
	State() State
	Cause() Cause
	Score() int
	Head() Cell
	Direction() Direction
	SnakeLength() int
	MoveInterval() time.Duration
	Config() GameConfig
	Snapshot() *Snapshot
}

// State is the lifecycle state of a GameSession.
type State int

const (
	StatePaused State = iota
	StateRunning
	StateGameOver
)

var stateNames = map[State]string{
	StatePaused:   "paused",
	StateRunning:  "running",
	StateGameOver: "game_over",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Cause records why a run ended. CauseNone while the run is alive.
type Cause int

const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
	CauseBoardFull
)

var causeNames = map[Cause]string{
	CauseNone:      "",
	CauseWall:      "wall",
	CauseSelf:      "self",
	CauseBoardFull: "board_full",
}

func (c Cause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cause(%d)", int(c))
}

// Describe returns a short human readable sentence for display.
func (c Cause) Describe() string {
	switch c {
	case CauseWall:
		return "Hit the wall"
	case CauseSelf:
		return "Ran into itself"
	case CauseBoardFull:
		return "No room left for food"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Cause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Cause) UnmarshalText(text []byte) error {
	for cause, name := range causeNames {
		if name == string(text) {
			*c = cause
			return nil
		}
	}
	return fmt.Errorf("unknown cause %q", text)
}

// TickResult reports what a single Tick did.
type TickResult struct {
	Moved bool
	Ate   bool
	Ended bool
	Cause Cause

	// IntervalChanged is set when eating shortened the move interval; the
	// tick source must re-arm to Interval.
	IntervalChanged bool
	Interval        time.Duration

	NewHighScore bool
}

// Snapshot is a read-only copy of the session for renderers and transports.
type Snapshot struct {
	Version     uint64    `json:"version"`
	Preset      string    `json:"preset"`
	State       State     `json:"state"`
	Cause       Cause     `json:"cause,omitempty"`
	Grid        Grid      `json:"grid"`
	Body        []Cell    `json:"body"`
	Direction   Direction `json:"direction"`
	GrowPending int       `json:"grow_pending"`
	Food        Cell      `json:"food"`
	Score       int       `json:"score"`
	HighScore   int       `json:"high_score"`
	IntervalMs  int       `json:"interval_ms"`

	// SafeDirections are the turns that survive the next tick.
	SafeDirections []Direction `json:"safe_directions"`
}

// Head returns the first body cell, or the zero Cell for an empty snapshot.
func (s *Snapshot) Head() Cell {
	if len(s.Body) == 0 {
		return Cell{}
	}
	return s.Body[0]
}

// Occupied reports whether the snake body covers c.
func (s *Snapshot) Occupied(c Cell) bool {
	for _, b := range s.Body {
		if b == c {
			return true
		}
	}
	return false
}
