package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a unit step on the grid.
type Direction struct {
	DX int
	DY int
}

var (
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}
)

// Directions lists the four valid directions in display order.
var Directions = []Direction{Up, Down, Left, Right}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return Direction{DX: -d.DX, DY: -d.DY}
}

// IsValid reports whether d is one of the four unit vectors.
func (d Direction) IsValid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("(%d,%d)", d.DX, d.DY)
}

// ParseDirection accepts "up", "down", "left" or "right", case-insensitively.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Direction{}, fmt.Errorf("%w: %q (use up, down, left or right)", ErrInvalidDirection, name)
}

// DirectionFromDelta converts a raw (dx, dy) pair.
func DirectionFromDelta(dx, dy int) (Direction, error) {
	d := Direction{DX: dx, DY: dy}
	if !d.IsValid() {
		return Direction{}, fmt.Errorf("%w: delta (%d,%d)", ErrInvalidDirection, dx, dy)
	}
	return d, nil
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: delta (%d,%d)", ErrInvalidDirection, d.DX, d.DY)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
