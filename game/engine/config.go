package engine

import (
	"fmt"
	"math"
)

// Defaults for the classic board: a 29 x 30 grid, 200ms start, 60ms floor,
// 6% faster per food.
const (
	DefaultCols              = 29
	DefaultRows              = 30
	DefaultInitialIntervalMs = 200
	DefaultMinIntervalMs     = 60
	DefaultSpeedMultiplier   = 0.94
	DefaultInitialLength     = 3

	MinGridDimension = 2
	MaxGridDimension = 200
)

// GameConfig holds the fixed rules of a session. A GameSession keeps its own
// copy, so later changes by the caller have no effect on a running game.
type GameConfig struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Cols              int     `json:"cols"`
	Rows              int     `json:"rows"`
	InitialIntervalMs int     `json:"initial_interval_ms"`
	MinIntervalMs     int     `json:"min_interval_ms"`
	SpeedMultiplier   float64 `json:"speed_multiplier"`
	InitialLength     int     `json:"initial_length"`
}

// DefaultGameConfig returns the classic rules.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Name:              "classic",
		Description:       "Classic board, speeds up with every food",
		Cols:              DefaultCols,
		Rows:              DefaultRows,
		InitialIntervalMs: DefaultInitialIntervalMs,
		MinIntervalMs:     DefaultMinIntervalMs,
		SpeedMultiplier:   DefaultSpeedMultiplier,
		InitialLength:     DefaultInitialLength,
	}
}

func (c GameConfig) Grid() Grid {
	return Grid{Cols: c.Cols, Rows: c.Rows}
}

// NextIntervalMs applies one speed-up step: max(min, floor(cur * multiplier)).
func (c GameConfig) NextIntervalMs(cur int) int {
	next := int(math.Floor(float64(cur) * c.SpeedMultiplier))
	if next < c.MinIntervalMs {
		return c.MinIntervalMs
	}
	return next
}

// ValidateGameConfig checks that a configuration can produce a playable session
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Cols < MinGridDimension || config.Cols > MaxGridDimension {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridDimension, MaxGridDimension, config.Cols)
	}
	if config.Rows < MinGridDimension || config.Rows > MaxGridDimension {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridDimension, MaxGridDimension, config.Rows)
	}

	// The body is laid out leftwards from the center column.
	maxLength := config.Cols/2 + 1
	if config.InitialLength < 1 || config.InitialLength > maxLength {
		return fmt.Errorf("config validation: initial_length must be between 1 and %d for %d columns, got %d",
			maxLength, config.Cols, config.InitialLength)
	}

	if config.InitialIntervalMs <= 0 {
		return fmt.Errorf("config validation: initial_interval_ms must be positive, got %d", config.InitialIntervalMs)
	}
	if config.MinIntervalMs <= 0 || config.MinIntervalMs > config.InitialIntervalMs {
		return fmt.Errorf("config validation: min_interval_ms must be between 1 and initial_interval_ms (%d), got %d",
			config.InitialIntervalMs, config.MinIntervalMs)
	}
	if config.SpeedMultiplier <= 0 || config.SpeedMultiplier > 1 {
		return fmt.Errorf("config validation: speed_multiplier must be in (0, 1], got %v", config.SpeedMultiplier)
	}

	return nil
}
