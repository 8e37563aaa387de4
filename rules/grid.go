package rules

import (
	"math"

	"github.com/brensch/snekarena/game"
)

// DefaultCellSize suits the body radii of scale 1 to 6 snakes.
const DefaultCellSize = 25.0

type cellKey struct {
	cx, cz int
}

type gridEntry struct {
	owner  *game.Snake
	index  int
	pos    game.Vec3
	radius float64
}

// Grid is a planar hash grid of body segments (heads excluded) for
// proximity queries during the collision pass.
type Grid struct {
	cells     map[cellKey][]gridEntry
	cellSize  float64
	maxRadius float64
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cells:    make(map[cellKey][]gridEntry),
		cellSize: cellSize,
	}
}

func (g *Grid) Clear() {
	clear(g.cells)
	g.maxRadius = 0
}

func (g *Grid) keyFor(x, z float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cz: int(math.Floor(z / g.cellSize)),
	}
}

// InsertBody adds every non-head segment of s.
func (g *Grid) InsertBody(s *game.Snake) {
	for i := 1; i < len(s.Segments); i++ {
		seg := s.Segments[i]
		k := g.keyFor(seg.Position[0], seg.Position[2])
		g.cells[k] = append(g.cells[k], gridEntry{owner: s, index: i, pos: seg.Position, radius: seg.Radius})
		g.maxRadius = math.Max(g.maxRadius, seg.Radius)
	}
}

// Near calls fn for every segment whose cell overlaps the square of the
// given radius around p. fn must do its own exact distance check. It stops
// early when fn returns false.
func (g *Grid) Near(p game.Vec3, radius float64, fn func(owner *game.Snake, index int, pos game.Vec3, r float64) bool) {
	minCX := int(math.Floor((p[0] - radius) / g.cellSize))
	maxCX := int(math.Floor((p[0] + radius) / g.cellSize))
	minCZ := int(math.Floor((p[2] - radius) / g.cellSize))
	maxCZ := int(math.Floor((p[2] + radius) / g.cellSize))

	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			for _, e := range g.cells[cellKey{cx, cz}] {
				if !fn(e.owner, e.index, e.pos, e.radius) {
					return
				}
			}
		}
	}
}

// BodyHits returns the snakes whose body s's head currently overlaps,
// using the body collision threshold.
func (g *Grid) BodyHits(s *game.Snake) map[*game.Snake]bool {
	head := s.Head()
	r1 := s.HeadRadius()
	var hits map[*game.Snake]bool
	g.Near(head, (r1+g.maxRadius)*game.BodyHitFactor, func(owner *game.Snake, _ int, pos game.Vec3, r2 float64) bool {
		if owner == s || hits[owner] {
			return true
		}
		if game.Distance(head, pos) < (r1+r2)*game.BodyHitFactor {
			if hits == nil {
				hits = make(map[*game.Snake]bool)
			}
			hits[owner] = true
		}
		return true
	})
	return hits
}
