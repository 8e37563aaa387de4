package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/snekarena/game"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	hudStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	boostStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF00FF"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3366")).Padding(0, 2)
	arenaStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#00AAAA"))
)

// cell is one character of the minimap.
type cell struct {
	r     rune
	color string
	layer int
}

// Layers, lowest first. A higher layer overwrites a lower one.
const (
	layerFood = iota + 1
	layerBody
	layerHead
	layerPlayerBody
	layerPlayerHead
)

// project maps an arena position to a minimap cell. ok is false outside
// the map.
func project(x, z, arena float64, cols, rows int) (col, row int, ok bool) {
	if arena <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	half := arena / 2
	if x < -half || x > half || z < -half || z > half {
		return 0, 0, false
	}
	col = min(int(math.Floor((x+half)/arena*float64(cols))), cols-1)
	row = min(int(math.Floor((z+half)/arena*float64(rows))), rows-1)
	return col, row, true
}

func plot(grid [][]cell, snap game.Snapshot, x, z float64, c cell) {
	col, row, ok := project(x, z, snap.Arena, len(grid[0]), len(grid))
	if !ok || grid[row][col].layer > c.layer {
		return
	}
	grid[row][col] = c
}

func plotSnake(grid [][]cell, snap game.Snapshot, v game.SnakeView, body, head int) {
	if !v.Alive {
		return
	}
	for i := len(v.Segments) - 1; i >= 0; i-- {
		seg := v.Segments[i]
		c := cell{r: 'o', color: seg.Color, layer: body}
		if i == 0 {
			c = cell{r: '@', color: v.Color, layer: head}
		}
		plot(grid, snap, seg.X, seg.Z, c)
	}
}

// minimap draws the arena into cols x rows characters.
func minimap(snap game.Snapshot, cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
	}

	for _, f := range snap.Foods {
		plot(grid, snap, f.X, f.Z, cell{r: '.', color: f.Color, layer: layerFood})
	}
	for _, e := range snap.Enemies {
		plotSnake(grid, snap, e, layerBody, layerHead)
	}
	if snap.Player != nil {
		plotSnake(grid, snap, *snap.Player, layerPlayerBody, layerPlayerHead)
	}

	var b strings.Builder
	for r, line := range grid {
		// Consecutive cells of one colour share a style run.
		var run strings.Builder
		runColor := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(dimStyle.Render(run.String()))
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range line {
			r, color := c.r, c.color
			if c.layer == 0 {
				r, color = ' ', ""
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteRune(r)
		}
		flush()
		if r < len(grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) hud() string {
	s := m.snap
	length := 0
	scale := 0.0
	if s.Player != nil {
		length = len(s.Player.Segments)
		scale = s.Player.Scale
	}
	line := fmt.Sprintf("SCORE %-6.0f LENGTH %-4d SIZE %.2f  SNAKES %-3d FOOD %-4d TICK %-6d %s  %dfps",
		s.Score, length, scale, s.Living(), len(s.Foods), s.Tick, s.Elapsed().Truncate(1e8), m.fps)
	out := titleStyle.Render("NEON ARENA") + "  " + hudStyle.Render(line)
	if m.boost {
		out += "  " + boostStyle.Render("BOOST")
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cols := m.width - 2
	rows := m.height - 5
	if cols > 2*rows {
		cols = 2 * rows
	}

	var b strings.Builder
	b.WriteString(m.hud())
	b.WriteByte('\n')
	b.WriteString(arenaStyle.Render(minimap(m.snap, cols, rows)))
	b.WriteByte('\n')

	switch {
	case !m.connected:
		b.WriteString(overStyle.Render("DISCONNECTED"))
	case m.snap.Status == game.StatusGameOver.String():
		b.WriteString(overStyle.Render(fmt.Sprintf("GAME OVER  score %.0f  enter to play again", m.snap.Score)))
	case m.snap.Status == game.StatusMenu.String():
		b.WriteString(overStyle.Render("press enter to start"))
	default:
		b.WriteString(dimStyle.Render("arrows/wasd steer  space boost  q quit"))
	}
	if m.lastErr != nil {
		b.WriteString("  " + overStyle.Render(m.lastErr.Error()))
	}
	return b.String()
}
