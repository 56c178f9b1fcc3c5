// Package engine provides the core rules of the snake game.
//
// The engine package implements:
//   - A fixed Cols x Rows grid with bounds checking
//   - The snake body, heading, deferred growth and self-collision test
//   - Food placement that avoids the body with a bounded random search
//   - The high-score rule (persist only when strictly beaten)
//   - GameSession, the paused/running/game-over state machine and per-tick update
//
// Core Types:
//
// GameSession implements the Engine interface. GameConfig holds the fixed
// rules and is copied into the session at construction. Snapshot is the
// read-only view handed to renderers and transports.
//
// Usage:
//
//	keeper := engine.NewHighScoreKeeper(store)
//	session, err := engine.NewGameSession(engine.DefaultGameConfig(), keeper, engine.NewRand(0))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session.Start()
//	session.SetDirection(engine.Up)
//	result, err := session.Tick()
//	if result.IntervalChanged {
//		ticker.Reset(result.Interval)
//	}
//
// Tick Order:
//
// Each tick computes the next head, ends the run on a wall, then ends it on
// the body (judged before the move, so the tail cell that is about to be
// vacated is free), then commits the move. Landing on food scores a point,
// grows the snake by one on later moves, places new food and shortens the
// interval to max(min, floor(interval * multiplier)).
//
// The session is single-threaded. The tick source and the input source must
// be serialized by the caller.
package engine
