// Package api provides the HTTP REST API for the snake game.
//
// There is one game per process, so no endpoint takes a session id. Every
// state-changing call returns the action result with the new snapshot.
//
// Endpoints:
//
// Game Operations:
//   - GET /api/state - Current snapshot
//   - POST /api/start, /api/pause, /api/toggle, /api/restart - Lifecycle
//   - POST /api/primary - Start, restart or toggle depending on state
//   - POST /api/direction - Queue a turn: {"direction": "up"}
//
// Scores:
//   - GET /api/highscore - Best score and when it was set
//   - GET /api/history?page=1&limit=20&order=desc - Finished runs
//
// Configuration:
//   - GET /api/configs - List presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs/{name}/apply - Replace the game with a fresh one
//
// Other:
//   - GET /api/health - Health check
//   - GET /ws - WebSocket upgrade, see package websocket
//   - / - Static browser view
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "invalid direction: north"}
//
// Bad directions and invalid presets give 400, unknown presets 404.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, api.WithLogger(logger))
//	http.ListenAndServe(":8080", server)
package api
