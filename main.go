// Command snake runs the snake game.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays in the terminal with the game running in process
//
// Settings come from the environment (and a .env file), and flags override
// them. Every command shares the same high score through the record store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snake Game Server"
)

// Settings are the process settings, read from the environment.
type Settings struct {
	Addr      string `env:"SNAKE_ADDR" envDefault:"localhost:8080"`
	ConfigDir string `env:"SNAKE_CONFIG_DIR" envDefault:"configs"`
	StaticDir string `env:"SNAKE_STATIC_DIR" envDefault:"static"`
	Preset    string `env:"SNAKE_PRESET" envDefault:"classic"`
	DataDir   string `env:"SNAKE_DATA_DIR" envDefault:"data"`
	Store     string `env:"SNAKE_STORE" envDefault:"file"`
	Seed      uint64 `env:"SNAKE_SEED" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"SNAKE_LOG_FILE"`

	Sound bool `env:"SNAKE_SOUND" envDefault:"false"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// loadSettings reads .env if present, then the environment.
func loadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	settings := &Settings{}
	if err := env.Parse(settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return settings, nil
}

// newLogger builds the process logger writing to out.
func newLogger(settings *Settings, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(settings.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(settings.LogFormat, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Flags shared by every command. They override the matching env settings.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (SNAKE_ADDR)"},
		&cli.StringFlag{Name: "config-dir", Usage: "directory containing game presets (SNAKE_CONFIG_DIR)"},
		&cli.StringFlag{Name: "preset", Usage: "preset used at start (SNAKE_PRESET)"},
		&cli.StringFlag{Name: "store", Usage: "record store: file, sqlite, or memory (SNAKE_STORE)"},
		&cli.StringFlag{Name: "data-dir", Usage: "directory for the record store (SNAKE_DATA_DIR)"},
		&cli.StringFlag{Name: "log-level", Usage: "log level (LOG_LEVEL)"},
	}
}

// applyFlags copies the flags the user set onto settings.
func applyFlags(cmd *cli.Command, settings *Settings) {
	overrides := map[string]*string{
		"addr":       &settings.Addr,
		"config-dir": &settings.ConfigDir,
		"preset":     &settings.Preset,
		"store":      &settings.Store,
		"data-dir":   &settings.DataDir,
		"log-level":  &settings.LogLevel,
	}
	for name, target := range overrides {
		if cmd.IsSet(name) {
			*target = cmd.String(name)
		}
	}
	if cmd.IsSet("sound") {
		settings.Sound = cmd.Bool("sound")
	}
	if cmd.IsSet("ngrok") {
		settings.NgrokEnabled = cmd.Bool("ngrok")
	}
}

// withSettings loads settings, applies flags, and hands them to run.
func withSettings(run func(ctx context.Context, settings *Settings) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		applyFlags(cmd, settings)
		return run(ctx, settings)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "snake",
		Usage:   "classic snake with a REST API, browser view, MCP tools, and a terminal client",
		Version: Version,
		Flags:   commonFlags(),
		Action:  withSettings(runServerCommand),
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel (NGROK_ENABLED)"},
				},
				Action: withSettings(runServerCommand),
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server, using an internal HTTP API if none is running",
				Action:  withSettings(runMCPCommand),
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "sound", Usage: "play sound effects (SNAKE_SOUND)"},
				},
				Action: withSettings(runPlayCommand),
			},
		},
	}
}

// main parses the command line and runs the selected command until a signal arrives.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("snake exited")
		stop()
		os.Exit(1)
	}
}
