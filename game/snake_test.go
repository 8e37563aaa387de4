package game

import (
	"math"
	"math/rand"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 1
	return cfg
}

func newTestSnake(a Archetype) *Snake {
	return NewSnake(testConfig(), 1, a, Smooth, HSL{H: 0.5, S: 1, L: 0.5}, Vec3{}, Vec3{1, 0, 0})
}

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestNewSnake_StartingLengthByArchetype(t *testing.T) {
	for _, tc := range []struct {
		a    Archetype
		want int
	}{
		{Player, 1 + PlayerBodyCount},
		{SmartAI, 1 + SmartAIBodyCount},
		{WanderAI, 1 + WanderAIBodyCount},
	} {
		s := newTestSnake(tc.a)
		if s.Len() != tc.want {
			t.Fatalf("%s len=%d want=%d", tc.a, s.Len(), tc.want)
		}
		if s.TargetScale != MinScale || s.Scale != MinScale {
			t.Fatalf("%s starting scale=%v target=%v want=1", tc.a, s.Scale, s.TargetScale)
		}
	}
}

func TestGrow_AppendsAtTailAndRaisesTarget(t *testing.T) {
	s := newTestSnake(Player)
	before := s.Len()
	tail := s.Segments[before-1].Position

	s.Grow(true)

	if s.Len() != before+1 {
		t.Fatalf("len=%d want=%d", s.Len(), before+1)
	}
	if got := s.Segments[before].Position; got != tail {
		t.Fatalf("new segment at %v want tail %v", got, tail)
	}
	want := 1 + GrowthRate/1.5
	if !approx(s.TargetScale, want, 1e-12) {
		t.Fatalf("targetScale=%v want=%v", s.TargetScale, want)
	}
}

func TestGrow_NeverPassesMaxScale(t *testing.T) {
	s := newTestSnake(SmartAI)
	s.TargetScale = MaxScale - 1e-5
	s.Grow(true)
	if s.TargetScale != MaxScale {
		t.Fatalf("targetScale=%v want=%v", s.TargetScale, MaxScale)
	}
	n := s.Len()
	s.Grow(true)
	if s.TargetScale != MaxScale {
		t.Fatalf("targetScale=%v after capped grow", s.TargetScale)
	}
	if s.Len() != n+1 {
		t.Fatalf("capped grow still adds a segment: len=%d want=%d", s.Len(), n+1)
	}
}

func TestUpdate_ScaleConvergesWithoutOvershoot(t *testing.T) {
	s := newTestSnake(WanderAI)
	s.TargetScale = 3
	prev := s.Scale
	for i := 0; i < 300; i++ {
		s.Update(false)
		if s.Scale < prev {
			t.Fatalf("tick %d: scale fell %v -> %v", i, prev, s.Scale)
		}
		if s.Scale > s.TargetScale {
			t.Fatalf("tick %d: scale %v overshot target %v", i, s.Scale, s.TargetScale)
		}
		prev = s.Scale
	}
	if !approx(s.Scale, 3, 1e-6) {
		t.Fatalf("scale=%v want ~3", s.Scale)
	}
}

func TestUpdate_DirectionStaysUnitAndPlanar(t *testing.T) {
	s := newTestSnake(Player)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		if i%17 == 0 {
			s.TargetDirection = Heading(rng.Float64() * 2 * math.Pi)
		}
		s.Update(false)
		if s.Direction[1] != 0 {
			t.Fatalf("tick %d: direction.y=%v", i, s.Direction[1])
		}
		if !approx(s.Direction.Len(), 1, 1e-9) {
			t.Fatalf("tick %d: |direction|=%v", i, s.Direction.Len())
		}
	}
}

func TestUpdate_OppositeTargetStillUnit(t *testing.T) {
	s := newTestSnake(Player)
	s.TargetDirection = Vec3{-1, 0, 0}
	s.Update(false)
	if !approx(s.Direction.Len(), 1, 1e-9) {
		t.Fatalf("|direction|=%v", s.Direction.Len())
	}
}

func TestUpdate_ArenaClampTurnsBack(t *testing.T) {
	s := newTestSnake(Player)
	lim := s.Config().HalfExtent()
	s.Segments[0].Position = Vec3{lim - 0.2, 2, 0}
	s.LastRecorded = Vec3{lim - 0.2, 0, 0}

	s.Update(false)

	head := s.Head()
	if head[0] > lim || head[0] < -lim {
		t.Fatalf("head x=%v outside +-%v", head[0], lim)
	}
	if head[0] != lim {
		t.Fatalf("head x=%v want clamped to %v", head[0], lim)
	}
	if s.TargetDirection != (Vec3{-1, 0, 0}) {
		t.Fatalf("targetDirection=%v want toward centre", s.TargetDirection)
	}
	if !approx(s.Direction.Len(), 1, 1e-9) || s.Direction[0] >= 0 {
		t.Fatalf("direction=%v want unit and heading back", s.Direction)
	}
}

func TestUpdate_HistoryIsUniformAndBounded(t *testing.T) {
	s := newTestSnake(Player)
	for i := 0; i < 400; i++ {
		s.Update(false)
		if len(s.PathHistory) > s.HistoryLimit() {
			t.Fatalf("tick %d: history=%d limit=%d", i, len(s.PathHistory), s.HistoryLimit())
		}
	}
	for i := 1; i < len(s.PathHistory); i++ {
		d := Distance(s.PathHistory[i-1], s.PathHistory[i])
		if !approx(d, s.Config().HistoryStep, 1e-9) {
			t.Fatalf("history gap %d = %v want %v", i, d, s.Config().HistoryStep)
		}
	}
	if s.PathHistory[0][0] < s.PathHistory[1][0] {
		t.Fatalf("history not newest first: %v then %v", s.PathHistory[0], s.PathHistory[1])
	}
}

func TestUpdate_SegmentsTrailHistory(t *testing.T) {
	s := newTestSnake(Player)
	for i := 0; i < 300; i++ {
		s.Update(false)
	}
	gap := int(math.Ceil(s.Config().SegmentIndexGap * s.Scale * GapFactor))
	for i := 1; i < s.Len(); i++ {
		want := s.PathHistory[i*gap]
		got := s.Segments[i].Position
		if got[0] != want[0] || got[2] != want[2] {
			t.Fatalf("segment %d at %v want %v", i, got, want)
		}
		if !approx(got[1], HeadLift*s.Segments[i].Scale, 1e-12) {
			t.Fatalf("segment %d y=%v want %v", i, got[1], HeadLift*s.Segments[i].Scale)
		}
	}
}

func TestUpdate_MissingHistoryLeavesSegment(t *testing.T) {
	s := newTestSnake(SmartAI)
	tail := s.Segments[s.Len()-1].Position
	s.Update(false)
	if got := s.Segments[s.Len()-1].Position; got != tail {
		t.Fatalf("tail moved to %v before history existed (was %v)", got, tail)
	}
}

func TestUpdate_TaperNearTail(t *testing.T) {
	s := newTestSnake(Player)
	s.Update(false)
	n := float64(s.Len())
	for i := 1; i < s.Len(); i++ {
		p := float64(i) / n
		want := 1.0
		if p > TaperStart {
			want = math.Max(MinTaper, 1-(p-TaperStart)*TaperSlope)
		}
		if !approx(s.Segments[i].Scale, s.Scale*want, 1e-12) {
			t.Fatalf("segment %d scale=%v want=%v", i, s.Segments[i].Scale, s.Scale*want)
		}
		if !approx(s.Segments[i].Radius, BodyRadius*s.Segments[i].Scale, 1e-12) {
			t.Fatalf("segment %d radius=%v", i, s.Segments[i].Radius)
		}
	}
	if !approx(s.HeadRadius(), HeadRadius*s.Scale, 1e-12) {
		t.Fatalf("head radius=%v", s.HeadRadius())
	}
}

func TestUpdate_BoostTradesScoreForSpeed(t *testing.T) {
	s := newTestSnake(Player)
	s.Score = 10
	s.Scale, s.TargetScale = 2, 2

	s.Update(true)

	if !s.Boosting {
		t.Fatalf("boosting=false want true")
	}
	if s.TargetSpeed != s.Config().SpeedBoost {
		t.Fatalf("targetSpeed=%v want %v", s.TargetSpeed, s.Config().SpeedBoost)
	}
	if !approx(s.Score, 9.7, 1e-12) {
		t.Fatalf("score=%v want 9.7", s.Score)
	}
	if !approx(s.TargetScale, 2-BoostShrink, 1e-12) {
		t.Fatalf("targetScale=%v want %v", s.TargetScale, 2-BoostShrink)
	}

	s.Score = 0.6
	s.Update(true)
	if s.TargetScale != MinScale {
		t.Fatalf("targetScale=%v want reset to 1 once score <= 0.5", s.TargetScale)
	}

	s.Score = 0.2
	s.Update(true)
	if s.Score != 0 {
		t.Fatalf("score=%v want floored at 0", s.Score)
	}
	s.Update(true)
	if s.Boosting {
		t.Fatalf("boosting with zero score")
	}
}

func TestUpdate_AIIgnoresBoost(t *testing.T) {
	s := newTestSnake(SmartAI)
	s.Score = 100
	s.Update(true)
	if s.Boosting || s.TargetSpeed != s.Config().SpeedNormal {
		t.Fatalf("ai boosted: boosting=%v targetSpeed=%v", s.Boosting, s.TargetSpeed)
	}
}

func TestUpdate_DeadIsNoOp(t *testing.T) {
	s := newTestSnake(Player)
	s.Alive = false
	head := s.Head()
	s.Update(false)
	if s.Head() != head {
		t.Fatalf("dead snake moved %v -> %v", head, s.Head())
	}
}

func TestUpdate_NonSmoothSkinFacesAhead(t *testing.T) {
	s := NewSnake(testConfig(), 1, WanderAI, Block, HSL{H: 0.1, S: 0.8, L: 0.5}, Vec3{}, Vec3{0, 0, 1})
	for i := 0; i < 200; i++ {
		s.Update(false)
	}
	for i := 1; i < s.Len(); i++ {
		f := s.Segments[i].Facing
		if !approx(f.Len(), 1, 1e-9) || f[2] < 0.99 {
			t.Fatalf("segment %d facing=%v want +z", i, f)
		}
	}
}

func TestScaleStaysInBounds(t *testing.T) {
	s := newTestSnake(Player)
	for i := 0; i < 3000; i++ {
		s.Grow(true)
		s.Update(i%3 == 0)
		if s.Scale < MinScale || s.Scale > MaxScale {
			t.Fatalf("tick %d: scale=%v out of [1,6]", i, s.Scale)
		}
	}
}
