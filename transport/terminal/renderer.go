package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// Each board cell is two screen columns wide so the board looks square.
const cellWidth = 2

const (
	glyphHead = '█'
	glyphBody = '▓'
	glyphFood = '●'

	sidebarGap   = 3
	sidebarWidth = 28
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHead    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleBody    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFood    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	styleDanger  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed)
)

var controls = []string{
	"Arrows/WASD  turn",
	"Enter        start",
	"Space/P      pause",
	"R            restart",
	"Q/Esc        quit",
}

// Renderer draws snapshots onto a tcell screen
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer creates a renderer for screen
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// BoardSize returns the screen area the board takes, border included
func BoardSize(grid engine.Grid) (width, height int) {
	return grid.Cols*cellWidth + 2, grid.Rows + 2
}

// Draw renders a full frame and shows it
func (r *Renderer) Draw(snapshot *engine.Snapshot) {
	r.screen.Clear()
	defer r.screen.Show()

	if snapshot == nil {
		r.text(0, 0, styleDefault, "Waiting for game state...")
		return
	}

	screenWidth, screenHeight := r.screen.Size()
	boardWidth, boardHeight := BoardSize(snapshot.Grid)
	if screenWidth < boardWidth || screenHeight < boardHeight {
		r.text(0, 0, styleDanger, fmt.Sprintf("Terminal too small: need %dx%d, have %dx%d",
			boardWidth, boardHeight, screenWidth, screenHeight))
		return
	}

	r.drawBorder(boardWidth, boardHeight)
	r.drawCell(snapshot.Food, glyphFood, styleFood)
	for i := len(snapshot.Body) - 1; i >= 1; i-- {
		r.drawCell(snapshot.Body[i], glyphBody, styleBody)
	}
	if len(snapshot.Body) > 0 {
		r.drawCell(snapshot.Body[0], glyphHead, styleHead)
	}

	r.drawBanner(snapshot, boardWidth, boardHeight)

	if screenWidth >= boardWidth+sidebarGap+sidebarWidth {
		r.drawSidebar(snapshot, boardWidth+sidebarGap)
	}
}

func (r *Renderer) drawBorder(width, height int) {
	for x := 1; x < width-1; x++ {
		r.screen.SetContent(x, 0, '─', nil, styleBorder)
		r.screen.SetContent(x, height-1, '─', nil, styleBorder)
	}
	for y := 1; y < height-1; y++ {
		r.screen.SetContent(0, y, '│', nil, styleBorder)
		r.screen.SetContent(width-1, y, '│', nil, styleBorder)
	}
	r.screen.SetContent(0, 0, '┌', nil, styleBorder)
	r.screen.SetContent(width-1, 0, '┐', nil, styleBorder)
	r.screen.SetContent(0, height-1, '└', nil, styleBorder)
	r.screen.SetContent(width-1, height-1, '┘', nil, styleBorder)
}

// drawCell fills both screen columns of a board cell
func (r *Renderer) drawCell(cell engine.Cell, glyph rune, style tcell.Style) {
	x, y := screenPos(cell)
	for i := 0; i < cellWidth; i++ {
		r.screen.SetContent(x+i, y, glyph, nil, style)
	}
}

// screenPos maps a board cell to its first screen column inside the border
func screenPos(cell engine.Cell) (x, y int) {
	return 1 + cell.Col*cellWidth, 1 + cell.Row
}

func (r *Renderer) drawBanner(snapshot *engine.Snapshot, boardWidth, boardHeight int) {
	var lines []string
	style := styleBanner

	switch snapshot.State {
	case engine.StatePaused:
		lines = []string{" PAUSED ", " Enter to play "}
	case engine.StateGameOver:
		style = styleDanger
		lines = []string{" GAME OVER ", " " + snapshot.Cause.Describe() + " ", " Enter to restart "}
	default:
		return
	}

	top := boardHeight/2 - len(lines)/2
	for i, line := range lines {
		x := (boardWidth - len([]rune(line))) / 2
		if x < 1 {
			x = 1
		}
		r.text(x, top+i, style, line)
	}
}

func (r *Renderer) drawSidebar(snapshot *engine.Snapshot, x int) {
	y := 1
	r.text(x, y, styleTitle, "SNAKE")
	y += 2

	rows := []struct {
		label string
		value string
	}{
		{"Score", fmt.Sprintf("%d", snapshot.Score)},
		{"High", fmt.Sprintf("%d", snapshot.HighScore)},
		{"Length", fmt.Sprintf("%d", len(snapshot.Body))},
		{"Speed", fmt.Sprintf("%dms", snapshot.IntervalMs)},
		{"Preset", snapshot.Preset},
		{"State", snapshot.State.String()},
	}
	if snapshot.State == engine.StateGameOver {
		rows = append(rows, struct {
			label string
			value string
		}{"Cause", snapshot.Cause.String()})
	}

	for _, row := range rows {
		r.text(x, y, styleLabel, fmt.Sprintf("%-7s", row.label))
		r.text(x+8, y, styleDefault, row.value)
		y++
	}

	y++
	for _, line := range controls {
		r.text(x, y, styleLabel, line)
		y++
	}
}

// text writes s starting at (x, y), clipped to the screen width
func (r *Renderer) text(x, y int, style tcell.Style, s string) {
	width, _ := r.screen.Size()
	for _, ch := range s {
		if x >= width {
			return
		}
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
