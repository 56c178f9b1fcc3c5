package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// Client plays the game in a terminal. It is both the render consumer and
// the input source, and drives the service tick loop in process.
type Client struct {
	service  service.GameService
	screen   tcell.Screen
	renderer *Renderer
	sounds   Sounds
	logger   zerolog.Logger

	last *engine.Snapshot
}

// Option configures the terminal client
type Option func(*Client)

// WithSounds enables sound effects
func WithSounds(sounds Sounds) Option {
	return func(c *Client) { c.sounds = sounds }
}

// WithLogger sets the logger. The screen owns stdout, so log to a file.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a terminal client on an initialized screen. The caller
// owns the screen and must Fini it after Run returns.
func NewClient(gameService service.GameService, screen tcell.Screen, opts ...Option) *Client {
	c := &Client{
		service:  gameService,
		screen:   screen,
		renderer: NewRenderer(screen),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run renders and handles input until the player quits or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan service.Update, 64)
	unsubscribe := c.service.Subscribe(func(update service.Update) {
		select {
		case updates <- update:
		default:
			c.logger.Warn().Msg("terminal falling behind, dropping update")
		}
	})
	defer unsubscribe()

	ticks := make(chan error, 1)
	go func() {
		ticks <- c.service.Run(ctx)
	}()

	events := make(chan tcell.Event, 16)
	go c.pollEvents(ctx, events)

	snapshot, err := c.service.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get initial state: %w", err)
	}
	c.render(snapshot)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-ticks:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("tick loop stopped: %w", err)
			}
			return nil

		case ev := <-events:
			if !c.handleEvent(ctx, ev) {
				return nil
			}

		case update := <-updates:
			c.playSounds(update.Events)
			c.render(update.Snapshot)
		}
	}
}

// pollEvents forwards screen events until the screen is finalized
func (c *Client) pollEvents(ctx context.Context, events chan<- tcell.Event) {
	for {
		ev := c.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// handleEvent applies one screen event. It returns false when the player quits.
func (c *Client) handleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		action := ActionForKey(ev)
		if action == ActionQuit {
			return false
		}
		if err := c.apply(ctx, action); err != nil {
			c.logger.Debug().Err(err).Msg("key action rejected")
		}

	case *tcell.EventResize:
		c.screen.Sync()
		c.renderer.Draw(c.last)
	}
	return true
}

func (c *Client) apply(ctx context.Context, action Action) error {
	var err error
	switch action {
	case ActionUp, ActionDown, ActionLeft, ActionRight:
		_, err = c.service.SetDirection(ctx, action.Direction())
	case ActionPrimary:
		_, err = c.service.PrimaryAction(ctx)
	case ActionToggle:
		_, err = c.service.Toggle(ctx)
	case ActionRestart:
		_, err = c.service.Restart(ctx)
	}
	return err
}

// render draws snapshot unless a newer one is already on screen
func (c *Client) render(snapshot *engine.Snapshot) {
	if snapshot == nil {
		return
	}
	if c.last != nil && snapshot.Version < c.last.Version {
		return
	}
	c.last = snapshot
	c.renderer.Draw(snapshot)
}

func (c *Client) playSounds(events []service.GameEvent) {
	if c.sounds == nil {
		return
	}
	for _, event := range events {
		switch event.Type {
		case service.EventFoodEaten:
			c.sounds.Eat()
		case service.EventGameOver:
			c.sounds.GameOver()
		}
	}
}
