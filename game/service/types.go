package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

var (
	// ErrNoRecord is returned by a RecordStore that has nothing stored yet.
	ErrNoRecord = errors.New("no record stored")
	// ErrCorruptRecord is returned when stored data cannot be read back.
	ErrCorruptRecord = errors.New("corrupt record")
)

// Event types carried in updates
const (
	EventRunStarted    = "run_started"
	EventPaused        = "paused"
	EventResumed       = "resumed"
	EventFoodEaten     = "food_eaten"
	EventSpeedUp       = "speed_up"
	EventGameOver      = "game_over"
	EventHighScore     = "high_score"
	EventDirection     = "direction"
	EventPresetApplied = "preset_applied"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Position  *engine.Cell `json:"position,omitempty"`
}

// Update is what observers receive after every change
type Update struct {
	Snapshot *engine.Snapshot `json:"snapshot"`
	Events   []GameEvent      `json:"events,omitempty"`
}

// ActionResult contains the result of a state-changing call
type ActionResult struct {
	Action   string           `json:"action"`
	Changed  bool             `json:"changed"`
	Message  string           `json:"message"`
	Snapshot *engine.Snapshot `json:"snapshot"`
	Events   []GameEvent      `json:"events,omitempty"`
}

// HighScoreRecord is the persisted best score in its single global slot
type HighScoreRecord struct {
	HighScore int       `json:"high_score"`
	When      time.Time `json:"when"`
}

// HighScoreInfo is the high score as reported to clients
type HighScoreInfo struct {
	HighScore int        `json:"high_score"`
	When      *time.Time `json:"when,omitempty"`
}

// RunRecord describes one finished game
type RunRecord struct {
	ID           string    `json:"id"`
	Preset       string    `json:"preset"`
	Score        int       `json:"score"`
	Length       int       `json:"length"`
	Cause        string    `json:"cause"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	NewHighScore bool      `json:"new_high_score"`
}

// Duration is how long the run lasted, pauses included.
func (r *RunRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// HistoryOptions configures run history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated run history
type HistoryResponse struct {
	Runs        []*RunRecord `json:"runs"`
	TotalRuns   int          `json:"total_runs"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename          string  `json:"filename"`
	ConfigID          string  `json:"config_id"` // The identifier to use with apply
	Name              string  `json:"name"`      // Display name
	Description       string  `json:"description"`
	Cols              int     `json:"cols"`
	Rows              int     `json:"rows"`
	InitialIntervalMs int     `json:"initial_interval_ms"`
	SpeedMultiplier   float64 `json:"speed_multiplier"`
	InitialLength     int     `json:"initial_length"`
}
