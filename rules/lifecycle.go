package rules

import (
	"math"

	"github.com/brensch/snekarena/game"
)

// PlayerOptions are the player's cosmetic choices for a session.
type PlayerOptions struct {
	Skin  game.Skin
	Color game.HSL
}

// DefaultPlayer is a smooth cyan snake.
func DefaultPlayer() PlayerOptions {
	return PlayerOptions{Skin: game.Smooth, Color: game.HSL{H: 0.5, S: 1, L: 0.5}}
}

// Start clears w and begins a new session: the player at the centre
// heading +X, the AI roster filled to its cap and the initial food.
func Start(w *game.World, opts PlayerOptions) {
	w.Reset()
	w.Player = game.NewSnake(w.Config, w.NextID(), game.Player, opts.Skin, opts.Color, game.Vec3{}, game.Vec3{1, 0, 0})
	w.SetStatus(game.StatusPlaying)

	for i := 0; i < w.Config.AICount; i++ {
		SpawnEnemy(w)
	}
	for i := 0; i < w.Config.InitialFood; i++ {
		w.SpawnAmbientFood()
	}
}

// SpawnEnemy adds one AI with a random skin, hue, archetype, position and
// heading. It does nothing unless the session is playing and the roster
// has room.
func SpawnEnemy(w *game.World) *game.Snake {
	if w.Status != game.StatusPlaying || len(w.Enemies) >= w.Config.AICount {
		return nil
	}
	rng := w.Rng

	skin := game.Skins[rng.Intn(len(game.Skins))]
	base := game.HSL{H: rng.Float64(), S: 0.8, L: 0.5}
	archetype := game.WanderAI
	if rng.Float64() < game.SmartAIChance {
		archetype = game.SmartAI
	}
	spread := w.Config.ArenaSize * game.SpawnSpread
	pos := game.Vec3{(rng.Float64() - 0.5) * spread, 0, (rng.Float64() - 0.5) * spread}
	heading := game.Heading(rng.Float64() * 2 * math.Pi)

	s := game.NewSnake(w.Config, w.NextID(), archetype, skin, base, pos, heading)
	w.Enemies = append(w.Enemies, s)
	w.Emit(game.Event{Kind: game.EventSpawn, SnakeID: s.ID, Archetype: s.Archetype, Length: s.Len()})
	return s
}

// Kill turns every segment of s into a death drop. A dead AI leaves the
// roster and, while the session is playing, a replacement is scheduled;
// the player's death ends the session instead. Killing a dead snake is a
// no-op.
func Kill(w *game.World, s *game.Snake) {
	if !s.Alive {
		return
	}
	s.Alive = false
	s.Boosting = false

	color := s.Color()
	for _, seg := range s.Segments {
		w.SpawnDrop(seg.Position, color)
	}
	w.Emit(game.Event{Kind: game.EventDeath, SnakeID: s.ID, Archetype: s.Archetype, Length: s.Len(), Score: w.Score()})

	if s.IsAI() {
		w.RemoveEnemy(s)
		if w.Status == game.StatusPlaying {
			w.ScheduleRespawn()
		}
		return
	}
	w.SetStatus(game.StatusGameOver)
}
