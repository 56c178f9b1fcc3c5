// Package mcp exposes the snake game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool is one call to the REST API, and the
// answer is rendered as text with an ASCII board.
//
// MCP Tools:
//   - game_state: Board, score, and safe directions for the next tick
//   - start_game, pause_game, toggle_pause, restart_game, primary_action
//   - set_direction: Queue a turn
//   - high_score, run_history: Scores
//   - list_configs, apply_config: Board presets
//   - game_instructions: Rules and tips
//
// Board legend: @ head, o body, * food, . empty, # wall.
//
// Transport Modes:
//   - Stdio: Client.ServeStdio for local MCP clients
//   - HTTP: the server command mounts GetMCPServer().HandleMessage at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
