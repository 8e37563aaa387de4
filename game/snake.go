package game

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// NewSnake creates a living snake with its head at pos facing heading and
// grows the archetype's starting body behind it.
func NewSnake(cfg Config, id uint64, archetype Archetype, skin Skin, base HSL, pos, heading Vec3) *Snake {
	dir := NormalizeOr(Planar(heading), Vec3{1, 0, 0})
	pos[1] = HeadLift * MinScale

	s := &Snake{
		ID:                  id,
		Archetype:           archetype,
		Skin:                skin,
		Base:                base,
		Alive:               true,
		Scale:               MinScale,
		TargetScale:         MinScale,
		Speed:               cfg.SpeedNormal,
		TargetSpeed:         cfg.SpeedNormal,
		Direction:           dir,
		TargetDirection:     dir,
		TurnRate:            archetype.TurnRate(),
		AvoidanceMultiplier: archetype.AvoidanceMultiplier(),
		cfg:                 cfg,
	}
	s.Segments = []Segment{{
		Position: pos,
		Facing:   dir,
		Scale:    MinScale,
		Radius:   HeadRadius * MinScale,
		Color:    base.Color(),
	}}
	s.PathHistory = []Vec3{Planar(pos)}
	s.LastRecorded = Planar(pos)

	for i := 0; i < archetype.BaseSegments(); i++ {
		s.Grow(false)
	}
	return s
}

func (s *Snake) IsAI() bool { return s.Archetype.IsAI() }

func (s *Snake) Head() Vec3 { return s.Segments[0].Position }

func (s *Snake) HeadRadius() float64 { return s.Segments[0].Radius }

// Color is the head colour; death drops carry it.
func (s *Snake) Color() colorful.Color { return s.Segments[0].Color }

func (s *Snake) Len() int { return len(s.Segments) }

// Config returns the arena parameters the snake was created with.
func (s *Snake) Config() Config { return s.cfg }

// Grow appends a segment at the tail so it unfolds over the next ticks.
// With increaseScale the target scale also rises, by less the bigger the
// snake already is, and never past MaxScale.
func (s *Snake) Grow(increaseScale bool) {
	idx := len(s.Segments)
	tail := s.Segments[idx-1]
	s.Segments = append(s.Segments, Segment{
		Position: tail.Position,
		Facing:   tail.Facing,
		Scale:    tail.Scale,
		Radius:   BodyRadius * tail.Scale,
		Color:    s.segmentColor(idx),
	})

	if increaseScale && s.TargetScale < MaxScale {
		s.TargetScale = math.Min(MaxScale, s.TargetScale+GrowthRate/(s.TargetScale*1.5))
	}
}

func (s *Snake) segmentColor(idx int) colorful.Color {
	hue := math.Mod(s.Base.H+float64(idx)*0.02, 1)
	return HSL{H: hue, S: s.Base.S, L: s.Base.L * 0.9}.Color()
}

// Update advances the snake by one tick. TargetDirection must already hold
// this tick's steering. boost is only honoured for the player.
func (s *Snake) Update(boost bool) {
	if !s.Alive {
		return
	}

	s.Scale += (s.TargetScale - s.Scale) * ScaleEase
	s.Scale = mgl64.Clamp(s.Scale, MinScale, MaxScale)
	s.taper()

	s.TargetSpeed = s.cfg.SpeedNormal
	s.Boosting = false
	if !s.IsAI() && boost && s.Score > 0 {
		s.Boosting = true
		s.TargetSpeed = s.cfg.SpeedBoost
		s.Score = math.Max(0, s.Score-BoostDrain)
		if s.TargetScale > MinScale {
			s.TargetScale -= BoostShrink
			if s.Score <= BoostFloorScore || s.TargetScale < MinScale {
				s.TargetScale = MinScale
			}
		}
	}
	s.Speed += (s.TargetSpeed - s.Speed) * SpeedEase

	turn := s.TurnRate
	if !s.IsAI() {
		turn = PlayerTurn
		if s.Boosting {
			turn = PlayerBoostTurn
		}
	}
	s.Direction = NormalizeOr(Planar(Lerp(s.Direction, s.TargetDirection, turn)), s.Direction)

	head := &s.Segments[0]
	pos := head.Position.Add(s.Direction.Mul(s.Speed))
	pos[1] = HeadLift * s.Scale
	head.Position = pos
	head.Facing = s.Direction

	s.sampleHistory()
	s.placeSegments()
	s.contain()
}

func (s *Snake) taper() {
	head := &s.Segments[0]
	head.Scale = s.Scale
	head.Radius = HeadRadius * s.Scale

	n := float64(len(s.Segments))
	for i := 1; i < len(s.Segments); i++ {
		t := 1.0
		if p := float64(i) / n; p > TaperStart {
			t = math.Max(MinTaper, 1-(p-TaperStart)*TaperSlope)
		}
		seg := &s.Segments[i]
		seg.Scale = s.Scale * t
		seg.Radius = BodyRadius * seg.Scale
	}
}

// HistoryLimit is the number of path samples kept for the current length and scale.
func (s *Snake) HistoryLimit() int {
	return len(s.Segments)*int(math.Ceil(s.cfg.SegmentIndexGap*s.Scale)) + HistoryKeep
}

// sampleHistory records the head's path at fixed arc-length steps so that
// segment spacing does not depend on speed.
func (s *Snake) sampleHistory() {
	step := s.cfg.HistoryStep
	travel := Planar(s.Head()).Sub(s.LastRecorded)
	dist := travel.Len()
	if dist >= step {
		dir := travel.Mul(1 / dist)
		fresh := make([]Vec3, 0, int(dist/step)+1)
		for dist >= step {
			pt := s.LastRecorded.Add(dir.Mul(step))
			fresh = append(fresh, pt)
			s.LastRecorded = pt
			dist -= step
		}
		slices.Reverse(fresh)
		s.PathHistory = append(fresh, s.PathHistory...)
	}

	if limit := s.HistoryLimit(); len(s.PathHistory) > limit {
		s.PathHistory = s.PathHistory[:limit]
	}
}

func (s *Snake) placeSegments() {
	gap := int(math.Ceil(s.cfg.SegmentIndexGap * s.Scale * GapFactor))
	for i := 1; i < len(s.Segments); i++ {
		idx := i * gap
		if idx >= len(s.PathHistory) {
			continue
		}
		seg := &s.Segments[i]
		p := s.PathHistory[idx]
		p[1] = HeadLift * seg.Scale
		seg.Position = p
		if s.Skin != Smooth {
			ahead := s.Segments[i-1].Position
			seg.Facing = NormalizeOr(Planar(ahead.Sub(p)), seg.Facing)
		}
	}
}

// contain turns the snake back toward the centre and clamps the head when
// it leaves the arena.
func (s *Snake) contain() {
	lim := s.cfg.HalfExtent()
	head := &s.Segments[0]
	pos := head.Position
	if math.Abs(pos[0]) <= lim && math.Abs(pos[2]) <= lim {
		return
	}
	s.TargetDirection = NormalizeOr(Planar(pos).Mul(-1), s.TargetDirection)
	s.Direction = NormalizeOr(Planar(Lerp(s.Direction, s.TargetDirection, ContainBlend)), s.TargetDirection)
	pos[0] = mgl64.Clamp(pos[0], -lim, lim)
	pos[2] = mgl64.Clamp(pos[2], -lim, lim)
	head.Position = pos
	head.Facing = s.Direction
}
