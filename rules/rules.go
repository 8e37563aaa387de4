// Package rules advances a game.World: steering, movement, consumption,
// collisions, deaths and respawns.
package rules

import (
	"slices"

	"github.com/brensch/snekarena/game"
)

// Step runs one tick. It does nothing unless the session is playing.
//
// Order: due respawns, then steering and movement for the player followed
// by each AI, then the collision and consumption pass.
func Step(w *game.World) {
	if w.Status != game.StatusPlaying || w.Player == nil || !w.Player.Alive {
		return
	}
	w.Tick++
	w.Elapsed += w.Config.TickDuration()

	for n := w.DueRespawns(); n > 0; n-- {
		SpawnEnemy(w)
	}

	Steer(w, w.Player)
	w.Player.Update(w.Input.Boost)

	for _, e := range slices.Clone(w.Enemies) {
		Steer(w, e)
		e.Update(false)
	}

	Resolve(w)
}
