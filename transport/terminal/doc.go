// Package terminal plays the snake game in a terminal with tcell.
//
// The Client subscribes to the game service for snapshots, draws them with
// the Renderer, and turns key presses into service calls. It also runs the
// service tick loop, so a terminal game needs no server.
//
// Keys:
//   - Arrows or WASD: turn
//   - Enter: primary action (start, resume or restart)
//   - Space or P: pause or resume
//   - R: restart
//   - Q, Esc or Ctrl-C: quit
//
// Board cells are two columns wide. The head, body and food each have their
// own glyph and color.
//
// Sounds are optional. SoundManager plays a short tone on food and a falling
// buzz on game over through the system speaker.
//
// Usage:
//
//	screen, _ := tcell.NewScreen()
//	screen.Init()
//	defer screen.Fini()
//
//	client := terminal.NewClient(gameService, screen)
//	err := client.Run(ctx)
package terminal
