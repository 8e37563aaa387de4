package rules

import (
	"github.com/brensch/snekarena/game"
)

// Steer sets s.TargetDirection for the coming Update.
//
// The player's heading comes from w.Input; a zero heading keeps the
// previous target. AI archetypes combine inertia, their own goal and
// obstacle avoidance. When the combined signal cancels out the previous
// target is kept.
func Steer(w *game.World, s *game.Snake) {
	if !s.Alive {
		return
	}
	if !s.IsAI() {
		s.TargetDirection = game.NormalizeOr(game.Planar(w.Input.Heading), s.TargetDirection)
		return
	}
	steer := aiSteer(w, s, s.Archetype, s.AvoidanceMultiplier)
	s.TargetDirection = game.NormalizeOr(game.Planar(steer), s.TargetDirection)
}

// Autopilot returns the heading a SmartAI would choose in the player's
// place. Headless runs feed it back as the player's input.
func Autopilot(w *game.World) game.Vec3 {
	p := w.Player
	if p == nil || !p.Alive {
		return game.Vec3{}
	}
	steer := aiSteer(w, p, game.SmartAI, game.SmartAvoidance)
	return game.NormalizeOr(game.Planar(steer), p.Direction)
}

func aiSteer(w *game.World, s *game.Snake, a game.Archetype, avoidMult float64) game.Vec3 {
	steer := s.Direction
	switch a {
	case game.SmartAI:
		if target, ok := smartTarget(w, s); ok {
			pull := game.NormalizeOr(target.Sub(s.Head()), game.Vec3{})
			steer = steer.Add(pull.Mul(game.TargetPull))
		}
	case game.WanderAI:
		steer = steer.Add(wander(w, s))
	}

	repel := game.WanderRepel
	if a == game.SmartAI {
		repel = game.SmartRepel
	}
	return steer.Add(avoid(w, s, avoidMult, repel))
}

// smartTarget picks the nearest food within the search radius, then lets
// any smaller snake that is not much further away take priority.
func smartTarget(w *game.World, s *game.Snake) (game.Vec3, bool) {
	head := s.Head()
	best := game.FoodSearchRadius
	var target game.Vec3
	found := false

	for _, f := range w.Foods {
		if d := game.Distance(head, f.Position); d < best {
			best, target, found = d, f.Position, true
		}
	}

	for _, prey := range w.Living() {
		if prey == s || prey.Scale >= s.Scale*game.PreyMargin {
			continue
		}
		if d := game.Distance(head, prey.Head()); d < best*game.PreyReach {
			best, target, found = d, prey.Head(), true
		}
	}
	return target, found
}

// wander counts down the snake's timer and, when it runs out, adds a random
// heading within WanderSpread/2 radians of the current one. Near the arena
// edge it also pulls toward the centre.
func wander(w *game.World, s *game.Snake) game.Vec3 {
	var steer game.Vec3

	s.WanderTimer -= game.WanderTick
	if s.WanderTimer <= 0 {
		angle := game.Angle(s.Direction) + (w.Rng.Float64()-0.5)*game.WanderSpread
		steer = steer.Add(game.Heading(angle))
		s.WanderTimer = w.Rng.Float64()*game.WanderTimerRange + game.WanderTimerMin
	}

	head := game.Planar(s.Head())
	if head.Len() > w.Config.HalfExtent()-game.EdgeMargin {
		home := game.NormalizeOr(head.Mul(-1), game.Vec3{})
		steer = steer.Add(home.Mul(game.CenterPull))
	}
	return steer
}

// avoid sums a repulsion from every segment of every other living snake
// inside the lookahead distance, weighted by how close it is.
func avoid(w *game.World, s *game.Snake, mult, repel float64) game.Vec3 {
	lookahead := game.LookaheadBase * s.Scale * mult
	if lookahead <= 0 {
		return game.Vec3{}
	}

	head := s.Head()
	var push game.Vec3
	for _, other := range w.Living() {
		if other == s {
			continue
		}
		for _, seg := range other.Segments {
			d := game.Distance(head, seg.Position)
			if d >= lookahead {
				continue
			}
			away := game.NormalizeOr(head.Sub(seg.Position), game.Vec3{})
			push = push.Add(away.Mul((lookahead - d) / lookahead * repel))
		}
	}
	return push
}
