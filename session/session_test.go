package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/rules"
)

type fakeRecorder struct {
	ids    []string
	ticks  []uint64
	events []game.Event
}

func (f *fakeRecorder) Record(id string, snap game.Snapshot, events []game.Event) error {
	f.ids = append(f.ids, id)
	f.ticks = append(f.ticks, snap.Tick)
	f.events = append(f.events, events...)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Game.Seed = 5
	cfg.Game.AICount = 3
	cfg.Game.InitialFood = 10
	return cfg
}

func TestStep_NoopBeforeStart(t *testing.T) {
	s := New(testConfig(), logging.Discard())
	if s.Step() {
		t.Fatalf("stepped in the menu")
	}
	if s.Snapshot().Status != "MENU" || s.ID() != "" {
		t.Fatalf("status=%s id=%q", s.Snapshot().Status, s.ID())
	}
}

func TestStart_NewSessionEachTime(t *testing.T) {
	s := New(testConfig(), logging.Discard())
	rec := &fakeRecorder{}
	s.SetRecorder(rec)

	first := s.Start(nil)
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("session id %q: %v", first, err)
	}
	snap := s.Snapshot()
	if snap.Status != "PLAYING" || len(snap.Enemies) != 3 || len(snap.Foods) != 10 {
		t.Fatalf("status=%s enemies=%d foods=%d", snap.Status, len(snap.Enemies), len(snap.Foods))
	}

	opts := rules.PlayerOptions{Skin: game.Mecha, Color: game.HSL{H: 0.9, S: 1, L: 0.5}}
	second := s.Start(&opts)
	if second == first || s.ID() != second {
		t.Fatalf("ids %q then %q (current %q)", first, second, s.ID())
	}
	if s.Snapshot().Player.Skin != "mecha" {
		t.Fatalf("skin=%s want mecha", s.Snapshot().Player.Skin)
	}
	if len(rec.ids) != 2 || rec.ids[0] != first || rec.ids[1] != second {
		t.Fatalf("recorded ids=%v", rec.ids)
	}
	if len(rec.events) == 0 || rec.events[0].Kind != game.EventStatus {
		t.Fatalf("start events=%+v", rec.events)
	}
}

func TestStep_FollowsInput(t *testing.T) {
	s := New(testConfig(), logging.Discard())
	s.Start(nil)
	s.SetInput(game.Input{Heading: game.Vec3{0, 0, 1}})

	for i := 0; i < 60 && s.Status() == game.StatusPlaying; i++ {
		if !s.Step() {
			t.Fatalf("step %d did not advance", i)
		}
	}
	snap := s.Snapshot()
	if snap.Tick == 0 || snap.Player.Segments[0].Z <= 0 {
		t.Fatalf("tick=%d head z=%v want movement toward +z", snap.Tick, snap.Player.Segments[0].Z)
	}
}

func TestStep_Autopilot(t *testing.T) {
	cfg := testConfig()
	cfg.Autopilot = true
	s := New(cfg, logging.Discard())
	s.Start(nil)
	s.Step()
	if s.Input().Heading.Len() == 0 {
		t.Fatalf("autopilot left the heading empty")
	}
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	s := New(testConfig(), logging.Discard())
	s.Start(nil)

	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	if first.Tick != 0 {
		t.Fatalf("first tick=%d want current snapshot", first.Tick)
	}
	s.Step()
	select {
	case snap := <-ch:
		if snap.Tick != 1 {
			t.Fatalf("tick=%d want=1", snap.Tick)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot after step")
	}
}

func TestSubscribe_SlowSubscriberDoesNotBlock(t *testing.T) {
	cfg := testConfig()
	cfg.SubscriberBuffer = 1
	s := New(cfg, logging.Discard())
	s.Start(nil)

	_, cancel := s.Subscribe()
	for i := 0; i < 10; i++ {
		s.Step()
	}
	if s.Dropped() != 10 {
		t.Fatalf("dropped=%d want=10", s.Dropped())
	}

	cancel()
	cancel()
	if s.Subscribers() != 0 {
		t.Fatalf("subscribers=%d after cancel", s.Subscribers())
	}
}

func TestRun_StopsOnContext(t *testing.T) {
	cfg := testConfig()
	cfg.Game.TickRate = 200
	s := New(cfg, logging.Discard())
	s.Start(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
	if s.Snapshot().Tick == 0 {
		t.Fatalf("no ticks ran")
	}
}
