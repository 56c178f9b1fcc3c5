package service

import (
	"context"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// GameService defines all game-related operations. There is one game per
// process; every caller (REST, WebSocket, MCP, terminal) drives the same one.
type GameService interface {
	// Game State
	GetState(ctx context.Context) (*engine.Snapshot, error)

	// Game Operations
	Start(ctx context.Context) (*ActionResult, error)
	Pause(ctx context.Context) (*ActionResult, error)
	Toggle(ctx context.Context) (*ActionResult, error)
	Restart(ctx context.Context) (*ActionResult, error)
	PrimaryAction(ctx context.Context) (*ActionResult, error)
	SetDirection(ctx context.Context, direction string) (*ActionResult, error)

	// Scores
	GetHighScore(ctx context.Context) (*HighScoreInfo, error)
	GetRunHistory(ctx context.Context, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	ApplyConfig(ctx context.Context, configName string) (*ActionResult, error)

	// Subscribe registers an observer for every published update. The
	// returned func removes it.
	Subscribe(observer Observer) (cancel func())

	// Run is the tick source. It blocks until ctx is done.
	Run(ctx context.Context) error
}

// Observer receives updates outside the service lock. Deliveries from
// different goroutines may arrive out of order; compare Snapshot.Version.
type Observer func(update Update)

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// RecordStore persists the global high score and finished runs
type RecordStore interface {
	LoadHighScore(ctx context.Context) (*HighScoreRecord, error)
	SaveHighScore(ctx context.Context, record *HighScoreRecord) error
	AppendRun(ctx context.Context, run *RunRecord) error
	ListRuns(ctx context.Context) ([]*RunRecord, error)
	Close() error
}
