package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// Board characters used in text renderings
const (
	charHead  = '@'
	charBody  = 'o'
	charFood  = '*'
	charEmpty = '.'
	charWall  = '#'
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.
There is one shared game. A browser or terminal may be watching it too.

GAME OBJECTIVE:
Steer the snake (@ is the head) to the food (*). Each food grows the snake by one,
scores a point and makes it faster. Hitting a wall or the body ends the run.

The game runs in real time once started: it keeps moving between your calls.
Pause it whenever you need to think.

AVAILABLE TOOLS:
- game_state: Board, score and the directions that are safe right now
- start_game / pause_game / toggle_pause / restart_game: Lifecycle
- primary_action: What Enter does (start, resume or restart)
- set_direction: Turn the snake (up/down/left/right)
- high_score: Best score so far
- run_history: Finished runs
- list_configs / apply_config: Board presets
- game_instructions: Full rules`),
	)

	// Register all tools
	c.registerTools()
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Game state
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score, state and safe directions",
		InputSchema: noArgs(),
	}, c.handleGameState)

	// Lifecycle
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start or resume the game. Does nothing after game over; use restart_game.",
		InputSchema: noArgs(),
	}, c.actionHandler("/api/start"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_game",
		Description: "Pause a running game",
		InputSchema: noArgs(),
	}, c.actionHandler("/api/pause"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_pause",
		Description: "Pause if running, resume if paused, restart after game over",
		InputSchema: noArgs(),
	}, c.actionHandler("/api/toggle"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Start a fresh run immediately (high score is kept)",
		InputSchema: noArgs(),
	}, c.actionHandler("/api/restart"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "primary_action",
		Description: "Start or resume; restart after game over",
		InputSchema: noArgs(),
	}, c.actionHandler("/api/primary"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_direction",
		Description: "Queue a turn for the next tick. Reversing onto the body is ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to turn",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are turning (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"direction"},
		},
	}, c.handleSetDirection)

	// Scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_score",
		Description: "Get the best score and when it was set",
		InputSchema: noArgs(),
	}, c.handleHighScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_history",
		Description: "List finished runs with score and cause of death",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Runs per page (default 20)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
		},
	}, c.handleRunHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board presets",
		InputSchema: noArgs(),
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "apply_config",
		Description: "Replace the game with a fresh paused one using a preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Preset name from list_configs",
				},
			},
			Required: []string{"config_name"},
		},
	}, c.handleApplyConfig)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of the game",
		InputSchema: noArgs(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// Tool handlers

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var snapshot engine.Snapshot
	if err := c.apiCall(ctx, "GET", "/api/state", nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snapshot)), nil
}

func (c *Client) actionHandler(path string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var result service.ActionResult
		if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatActionResult(&result)), nil
	}
}

func (c *Client) handleSetDirection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	direction, _ := args["direction"].(string)
	if direction == "" {
		return mcp.NewToolResultError("direction is required"), nil
	}

	var result service.ActionResult
	err := c.apiCall(ctx, "POST", "/api/direction", map[string]string{"direction": direction}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleHighScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info service.HighScoreInfo
	if err := c.apiCall(ctx, "GET", "/api/highscore", nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("High score: %d", info.HighScore)
	if info.When != nil {
		result += fmt.Sprintf(" (set %s)", info.When.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRunHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := "/api/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No presets available"), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		result.WriteString(fmt.Sprintf("• %s\n  %s\n  Grid: %dx%d, Start: %dms, Speed-up: x%.2f, Length: %d\n\n",
			config.ConfigID, config.Description, config.Cols, config.Rows,
			config.InitialIntervalMs, config.SpeedMultiplier, config.InitialLength))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleApplyConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configName, _ := args["config_name"].(string)
	if configName == "" {
		return mcp.NewToolResultError("config_name is required"), nil
	}

	var result service.ActionResult
	err := c.apiCall(ctx, "POST", "/api/configs/"+url.PathEscape(configName)+"/apply", nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🐍 Snake Game - Complete Instructions

GAME OBJECTIVE:
Eat as much food as you can without crashing. Each food is one point.

BOARD:
• @ = snake head, o = body, * = food, . = empty, # = wall around the board
• Column 0 is the left edge, row 0 is the top edge

GAME MECHANICS:
• The snake moves one cell per tick in its current direction
• A turn is applied on the next tick; reversing straight onto the body is ignored
• Eating grows the snake by one cell and makes every later tick faster
• Speed bottoms out at the preset's minimum interval
• Moving into the cell the tail is leaving is allowed

GAME OVER:
• Hitting a wall
• Running into your own body
• Filling the board so no food can be placed

STATES:
• paused: fresh game or paused run. start_game or toggle_pause resumes
• running: ticking in real time
• game_over: restart_game or toggle_pause begins a new run

STRATEGY TIPS:
1. Pause before planning longer routes; the game does not wait for you
2. game_state lists the safe directions for the next tick
3. Hug the walls early and leave open space in the middle
4. The high score survives restarts and server restarts`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	} else if !result.Changed {
		b.WriteString(fmt.Sprintf("%s had no effect\n", result.Action))
	}
	for _, event := range result.Events {
		b.WriteString(fmt.Sprintf("• %s\n", event.Message))
	}
	if result.Snapshot != nil {
		b.WriteString("\n")
		b.WriteString(formatSnapshot(result.Snapshot))
	}
	return b.String()
}

func formatSnapshot(snapshot *engine.Snapshot) string {
	if snapshot == nil {
		return "No game state available"
	}

	var result strings.Builder
	head := snapshot.Head()

	// Header
	result.WriteString(fmt.Sprintf("State: %s | Score: %d | High: %d | Length: %d | Interval: %dms\n",
		snapshot.State, snapshot.Score, snapshot.HighScore, len(snapshot.Body), snapshot.IntervalMs))
	result.WriteString(fmt.Sprintf("Head: (%d,%d) heading %s | Food: (%d,%d), %d steps away | Preset: %s\n",
		head.Col, head.Row, snapshot.Direction, snapshot.Food.Col, snapshot.Food.Row,
		engine.ManhattanDistance(head, snapshot.Food), snapshot.Preset))

	if snapshot.State != engine.StateGameOver {
		safe := make([]string, 0, len(snapshot.SafeDirections))
		for _, d := range snapshot.SafeDirections {
			safe = append(safe, d.String())
		}
		if len(safe) == 0 {
			result.WriteString("Safe directions: none\n")
		} else {
			result.WriteString(fmt.Sprintf("Safe directions: %s\n", strings.Join(safe, ", ")))
		}
	}
	result.WriteString("\n")

	result.WriteString(renderBoard(snapshot))

	// Status
	if snapshot.State == engine.StateGameOver {
		result.WriteString(fmt.Sprintf("\n💀 GAME OVER: %s", snapshot.Cause.Describe()))
	}

	return result.String()
}

// renderBoard draws the grid inside a wall border, one line per row
func renderBoard(snapshot *engine.Snapshot) string {
	cols, rows := snapshot.Grid.Cols, snapshot.Grid.Rows
	board := make([][]rune, rows)
	for y := range board {
		board[y] = []rune(strings.Repeat(string(charEmpty), cols))
	}

	set := func(cell engine.Cell, ch rune) {
		if snapshot.Grid.Contains(cell) {
			board[cell.Row][cell.Col] = ch
		}
	}
	if snapshot.State != engine.StateGameOver || !snapshot.Occupied(snapshot.Food) {
		set(snapshot.Food, charFood)
	}
	for i := len(snapshot.Body) - 1; i >= 1; i-- {
		set(snapshot.Body[i], charBody)
	}
	if len(snapshot.Body) > 0 {
		set(snapshot.Body[0], charHead)
	}

	var b strings.Builder
	border := strings.Repeat(string(charWall), cols+2)
	b.WriteString(border + "\n")
	for _, row := range board {
		b.WriteRune(charWall)
		b.WriteString(string(row))
		b.WriteRune(charWall)
		b.WriteString("\n")
	}
	b.WriteString(border + "\n")
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Run History (Page %d/%d) - Total runs: %d\n\n",
		history.Page, history.TotalPages, history.TotalRuns)

	if len(history.Runs) == 0 {
		return result + "(no finished runs yet)"
	}

	for i, run := range history.Runs {
		num := (history.Page-1)*history.PageSize + i + 1
		marker := ""
		if run.NewHighScore {
			marker = " 🏆"
		}
		result += fmt.Sprintf("%d. Score %d, length %d, %s after %s [%s]%s\n",
			num, run.Score, run.Length, run.Cause, run.Duration().Round(time.Second), run.Preset, marker)
	}

	return result
}
