package rules

import (
	"github.com/brensch/snekarena/game"
)

// Resolve runs the consumption and collision pass once every snake has
// moved. It does nothing while the player is absent or dead.
func Resolve(w *game.World) {
	if w.Player == nil || !w.Player.Alive {
		return
	}
	eatFood(w)
	collide(w, NewGrid(DefaultCellSize))
}

// eatFood walks the food in reverse so removals never skip an item and
// replacements, appended at the end, are not visited this tick. The player
// is tested first; otherwise the first living AI in range eats it.
func eatFood(w *game.World) {
	p := w.Player
	for i := len(w.Foods) - 1; i >= 0; i-- {
		f := w.Foods[i]

		if game.Distance(p.Head(), f.Position) < game.EatRadius*p.Scale {
			p.Grow(true)
			w.AddScore(game.FoodScore * f.Value)
			w.RemoveFood(i)
			w.SpawnAmbientFood()
			continue
		}

		for _, e := range w.Enemies {
			if !e.Alive {
				continue
			}
			if game.Distance(e.Head(), f.Position) < game.EatRadius*e.Scale {
				e.Grow(true)
				w.RemoveFood(i)
				w.SpawnAmbientFood()
				break
			}
		}
	}
}

// collide checks every ordered pair of living snakes. A head touching
// another body kills the head's owner; touching heads are settled by
// headOn. A snake that dies is not checked against anyone else.
func collide(w *game.World, grid *Grid) {
	all := w.Living()
	grid.Clear()
	for _, s := range all {
		grid.InsertBody(s)
	}

	for _, s1 := range all {
		if !s1.Alive {
			continue
		}
		crashed := grid.BodyHits(s1)
		for _, s2 := range all {
			if s1 == s2 || !s2.Alive {
				continue
			}
			if crashed[s2] {
				Kill(w, s1)
				break
			}
			reach := (s1.HeadRadius() + s2.HeadRadius()) * game.HeadHitFactor
			if game.Distance(s1.Head(), s2.Head()) < reach {
				headOn(w, s1, s2)
			}
			if !s1.Alive {
				break
			}
		}
	}
}

// headOn settles a head-to-head touch. Against the player an AI must be
// half again as large to win; between AIs the clearly smaller one dies and
// near-equals both die.
func headOn(w *game.World, s1, s2 *game.Snake) {
	switch {
	case !s1.IsAI():
		if s2.Scale > s1.Scale*game.PlayerDominance {
			Kill(w, s1)
		} else {
			Kill(w, s2)
		}
	case !s2.IsAI():
		if s1.Scale > s2.Scale*game.PlayerDominance {
			Kill(w, s2)
		} else {
			Kill(w, s1)
		}
	case s1.Scale < s2.Scale*game.AIDominance:
		Kill(w, s1)
	case s2.Scale < s1.Scale*game.AIDominance:
		Kill(w, s2)
	default:
		Kill(w, s1)
		Kill(w, s2)
	}
}
