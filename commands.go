package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/snakegame/api"
	"github.com/wricardo/mcp-training/snakegame/game/config"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
	"github.com/wricardo/mcp-training/snakegame/game/store"
	"github.com/wricardo/mcp-training/snakegame/transport/mcp"
	"github.com/wricardo/mcp-training/snakegame/transport/terminal"
	"github.com/wricardo/mcp-training/snakegame/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// services is what every command runs on
type services struct {
	game    service.GameService
	records service.RecordStore
}

func (s *services) Close() {
	if err := s.records.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close record store")
	}
}

// initializeServices wires the preset manager, record store, and game service.
func initializeServices(settings *Settings, logger zerolog.Logger) (*services, error) {
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	records, err := store.Open(settings.Store, settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	gameService, err := service.NewGameService(configManager, records,
		service.WithPreset(settings.Preset),
		service.WithRand(engine.NewRand(settings.Seed)),
		service.WithLogger(logger),
	)
	if err != nil {
		records.Close()
		return nil, fmt.Errorf("failed to create game service: %w", err)
	}

	return &services{game: gameService, records: records}, nil
}

// startGame starts the tick loop and the websocket hub for a served game.
// The returned func unsubscribes the hub.
func startGame(ctx context.Context, game service.GameService, logger zerolog.Logger) (*websocket.Hub, func()) {
	hub := websocket.NewHub(game, logger)
	go hub.Run(ctx)

	unsubscribe := game.Subscribe(hub.Broadcast)
	if snapshot, err := game.GetState(ctx); err == nil {
		hub.Broadcast(service.Update{Snapshot: snapshot})
	}

	go func() {
		if err := game.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("tick loop stopped")
		}
	}()
	return hub, unsubscribe
}

// newHandler mounts the API at the root and the MCP proxy at /mcp.
func newHandler(game service.GameService, hub *websocket.Hub, settings *Settings, mcpClient *mcp.Client, logger zerolog.Logger) http.Handler {
	apiServer := api.NewServer(game, hub, api.WithLogger(logger), api.WithStaticDir(settings.StaticDir))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	if mcpClient != nil {
		mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	}
	return mainRouter
}

// mcpHandler answers one JSON-RPC message per POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// baseURLFor turns a listen address into a URL this process can call.
func baseURLFor(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// runServerCommand runs the HTTP server until ctx is done. If ngrok is
// enabled it also serves through a public tunnel.
func runServerCommand(ctx context.Context, settings *Settings) error {
	logger := newLogger(settings, os.Stderr)
	log.Logger = logger

	svc, err := initializeServices(settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub, unsubscribe := startGame(ctx, svc.game, logger)
	defer unsubscribe()

	mcpClient := mcp.NewClient(baseURLFor(settings.Addr))
	handler := newHandler(svc.game, hub, settings, mcpClient, logger)

	httpServer := &http.Server{
		Addr:         settings.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		base := baseURLFor(settings.Addr)
		logger.Info().
			Str("addr", settings.Addr).
			Str("api", base+"/api").
			Str("websocket", strings.Replace(base, "http", "ws", 1)+"/ws").
			Str("mcp", base+"/mcp").
			Str("version", Version).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, settings, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-serveErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info().Msg("server stopped")
	return nil
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, settings *Settings, handler http.Handler, logger zerolog.Logger) {
	authToken := settings.NgrokAuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		logger.Warn().Msg("ngrok enabled but no auth token provided (use NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
}

// externalAPI reports whether a server is already answering at baseURL.
func externalAPI(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runMCPCommand runs an MCP stdio server. It drives an external server at the
// configured address when one is running; otherwise it starts an internal
// API on a random loopback port. Stdout belongs to the protocol, so logs go
// to stderr.
func runMCPCommand(ctx context.Context, settings *Settings) error {
	logger := newLogger(settings, os.Stderr)
	log.Logger = logger

	baseURL := baseURLFor(settings.Addr)
	if externalAPI(baseURL) {
		logger.Info().Str("url", baseURL).Msg("MCP stdio server ready (using external HTTP server)")
		return mcp.NewClient(baseURL).ServeStdio()
	}

	svc, err := initializeServices(settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub, unsubscribe := startGame(ctx, svc.game, logger)
	defer unsubscribe()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}

	httpServer := &http.Server{Handler: newHandler(svc.game, hub, settings, nil, logger)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	defer httpServer.Close()

	baseURL = "http://" + listener.Addr().String()
	logger.Info().Str("url", baseURL).Msg("MCP stdio server ready (using internal HTTP server)")

	return mcp.NewClient(baseURL).ServeStdio()
}

// playLogger writes to SNAKE_LOG_FILE, or nowhere, since the screen owns the terminal.
func playLogger(settings *Settings) (zerolog.Logger, func(), error) {
	if settings.LogFile == "" {
		return zerolog.Nop(), func() {}, nil
	}

	file, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return newLogger(settings, file), func() { file.Close() }, nil
}

// runPlayCommand plays in the terminal until the player quits.
func runPlayCommand(ctx context.Context, settings *Settings) error {
	logger, closeLog, err := playLogger(settings)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Logger = logger

	svc, err := initializeServices(settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	opts := []terminal.Option{terminal.WithLogger(logger)}
	if settings.Sound {
		sounds := terminal.NewSoundManager()
		if err := sounds.Initialize(); err != nil {
			// Non-fatal, the game can run without sound
			logger.Warn().Err(err).Msg("audio initialization failed")
		} else {
			defer sounds.Close()
			opts = append(opts, terminal.WithSounds(sounds))
		}
	}

	return terminal.NewClient(svc.game, screen, opts...).Run(ctx)
}
