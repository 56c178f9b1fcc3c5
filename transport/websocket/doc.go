// Package websocket pushes live snake game state to browser views and takes
// their input.
//
// Every client watches the one process-wide game. The Hub keeps the
// register/unregister/broadcast event loop; each connection gets a read pump
// and a write pump with ping/pong keepalive.
//
// Message Protocol:
//
// Outgoing, after every state change:
//
//	{"event": "state_update", "version": 12, "snapshot": {...}, "events": [...]}
//
// Incoming actions:
//
//	{"action": "direction", "direction": "left"}
//	{"action": "start"}    // also pause, toggle, restart, primary
//
// Malformed messages are ignored. Rejected actions are answered with
// {"event": "error", "error": "..."} to the sender only.
//
// Ordering:
//
// Game observers may be called out of order. The hub drops any update whose
// version is not newer than the last one it sent, and replays the latest
// state to clients as they connect.
//
// Usage:
//
//	hub := websocket.NewHub(gameService, logger)
//	go hub.Run(ctx)
//	cancel := gameService.Subscribe(hub.Broadcast)
//	defer cancel()
//
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
