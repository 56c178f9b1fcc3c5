package engine

import (
	"fmt"
	"time"
)

// GameSession owns one snake, one food, the score and the move interval,
// and runs the paused/running/game-over state machine. It is not safe for
// concurrent use; callers serialize access.
type GameSession struct {
	config     GameConfig
	grid       Grid
	rng        Rand
	highScores *HighScoreKeeper

	snake      *Snake
	food       Food
	score      int
	intervalMs int
	state      State
	cause      Cause
}

var _ Engine = (*GameSession)(nil)

// NewGameSession validates config and builds a Paused session with a fresh
// snake and food. A nil keeper keeps the high score in memory; a nil rng
// is seeded from the clock.
func NewGameSession(config GameConfig, highScores *HighScoreKeeper, rng Rand) (*GameSession, error) {
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	if highScores == nil {
		highScores = NewHighScoreKeeper(nil)
	}
	if rng == nil {
		rng = NewRand(0)
	}

	s := &GameSession{
		config:     config,
		grid:       config.Grid(),
		rng:        rng,
		highScores: highScores,
		snake:      &Snake{},
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	s.state = StatePaused
	return s, nil
}

func (s *GameSession) reset() error {
	s.snake.Reset(s.grid, s.config.InitialLength)
	food, err := PlaceFood(s.grid, s.rng, s.snake.Body())
	if err != nil {
		return fmt.Errorf("failed to place food: %w", err)
	}
	s.food = food
	s.score = 0
	s.intervalMs = s.config.InitialIntervalMs
	s.cause = CauseNone
	return nil
}

// Start moves Paused to Running. Running and GameOver are left alone.
func (s *GameSession) Start() bool {
	if s.state != StatePaused {
		return false
	}
	s.state = StateRunning
	return true
}

// Pause moves Running to Paused.
func (s *GameSession) Pause() bool {
	if s.state != StateRunning {
		return false
	}
	s.state = StatePaused
	return true
}

// Toggle flips Running and Paused. A finished game is restarted.
func (s *GameSession) Toggle() error {
	switch s.state {
	case StateRunning:
		s.state = StatePaused
	case StatePaused:
		s.state = StateRunning
	case StateGameOver:
		return s.Restart()
	}
	return nil
}

// Restart resets snake, food, score and interval and goes straight to
// Running. The high score is untouched.
func (s *GameSession) Restart() error {
	if err := s.reset(); err != nil {
		s.state = StateGameOver
		s.cause = CauseBoardFull
		return err
	}
	s.state = StateRunning
	return nil
}

// PrimaryAction restarts a finished game and starts anything else.
func (s *GameSession) PrimaryAction() error {
	if s.state == StateGameOver {
		return s.Restart()
	}
	s.Start()
	return nil
}

// SetDirection is accepted in every state; it only shows on the next
// running tick.
func (s *GameSession) SetDirection(d Direction) bool {
	return s.snake.SetDirection(d)
}

// Tick advances the snake one cell. It does nothing unless Running.
// A collision ends the run and is reported in the result, not as an error.
// The only error is ErrBoardFull when no cell is left for new food; the run
// is ended with CauseBoardFull in that case as well.
func (s *GameSession) Tick() (TickResult, error) {
	if s.state != StateRunning {
		return TickResult{}, nil
	}

	next := s.snake.NextHead()
	if cause := classifyMove(s.grid, s.snake, next); cause != CauseNone {
		return s.end(cause), nil
	}

	s.snake.MoveHead(next)
	result := TickResult{Moved: true, Interval: s.MoveInterval()}
	if next != s.food.Position {
		return result, nil
	}

	result.Ate = true
	s.score++
	s.snake.Grow(1)

	food, err := PlaceFood(s.grid, s.rng, s.snake.Body())
	if err != nil {
		ended := s.end(CauseBoardFull)
		ended.Moved, ended.Ate = true, true
		return ended, err
	}
	s.food = food

	if interval := s.config.NextIntervalMs(s.intervalMs); interval != s.intervalMs {
		s.intervalMs = interval
		result.IntervalChanged = true
		result.Interval = s.MoveInterval()
	}
	return result, nil
}

// end freezes the run and applies the high-score rule once.
func (s *GameSession) end(cause Cause) TickResult {
	s.state = StateGameOver
	s.cause = cause
	return TickResult{
		Ended:        true,
		Cause:        cause,
		Interval:     s.MoveInterval(),
		NewHighScore: s.highScores.UpdateIfBeaten(s.score),
	}
}

func (s *GameSession) State() State { return s.state }

func (s *GameSession) Cause() Cause { return s.cause }

func (s *GameSession) Score() int { return s.score }

func (s *GameSession) HighScore() int { return s.highScores.Value() }

func (s *GameSession) Food() Cell { return s.food.Position }

func (s *GameSession) Grid() Grid { return s.grid }

func (s *GameSession) Config() GameConfig { return s.config }

func (s *GameSession) SnakeLength() int { return s.snake.Len() }

func (s *GameSession) Direction() Direction { return s.snake.Direction() }

func (s *GameSession) Head() Cell { return s.snake.Head() }

func (s *GameSession) MoveInterval() time.Duration {
	return time.Duration(s.intervalMs) * time.Millisecond
}

// Snapshot copies the current state. Version is left for the caller to set.
func (s *GameSession) Snapshot() *Snapshot {
	return &Snapshot{
		Preset:         s.config.Name,
		State:          s.state,
		Cause:          s.cause,
		Grid:           s.grid,
		Body:           s.snake.Body(),
		Direction:      s.snake.Direction(),
		GrowPending:    s.snake.GrowPending(),
		Food:           s.food.Position,
		Score:          s.score,
		HighScore:      s.highScores.Value(),
		IntervalMs:     s.intervalMs,
		SafeDirections: SafeDirections(s.grid, s.snake),
	}
}
