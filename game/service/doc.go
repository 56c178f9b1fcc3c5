// Package service provides the business logic layer for the snake game.
//
// The service package implements:
//   - Ownership of the single process-wide game session
//   - Serialization of every caller (REST, WebSocket, MCP, terminal) behind one lock
//   - The tick source that drives the session at its move interval
//   - Snapshot publishing to observers
//   - Run tracking and high-score persistence through a RecordStore
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// ConfigManager loads game presets. RecordStore persists the global high score
// and finished runs; store failures are logged and never reach the game.
//
// Architecture:
//
// The service layer sits between the transports and the engine. The engine
// is single-threaded, so the service takes its mutex around every call,
// including ticks. After each change it bumps the snapshot version, asks the
// tick source to re-arm if the state or interval changed, and publishes the
// update to observers once the lock is released.
//
// Usage:
//
//	configMgr, _ := config.NewManager("configs")
//	records, _ := store.Open(store.KindFile, "data")
//	gameService, err := service.NewGameService(configMgr, records,
//		service.WithLogger(log.Logger))
//	if err != nil {
//		log.Fatal().Err(err).Msg("init")
//	}
//
//	go gameService.Run(ctx)
//	gameService.Start(ctx)
//	gameService.SetDirection(ctx, "up")
//
// Runs:
//
// A run begins when the game first enters running after construction,
// restart or a preset change, and ends at game over. Each finished run is
// appended to the store with its score, length, cause and timestamps.
package service
