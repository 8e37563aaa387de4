package tracedb

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/rules"
	"github.com/brensch/snekarena/store"
)

// recordSession plays ticks of an autopilot session and ends it by killing
// the player.
func recordSession(t *testing.T, rec *store.Recorder, id string, seed int64, ticks int) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Seed = seed
	cfg.AICount = 4
	w := game.NewWorld(cfg)
	rules.Start(w, rules.DefaultPlayer())

	record := func() {
		if err := rec.Record(id, w.Snapshot(), w.DrainEvents()); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	record()
	for i := 0; i < ticks && w.Status == game.StatusPlaying; i++ {
		w.Input.Heading = rules.Autopilot(w)
		rules.Step(w)
		record()
	}
	if w.Status == game.StatusPlaying {
		w.AddScore(5)
		rules.Kill(w, w.Player)
		record()
	}
}

func TestSessions(t *testing.T) {
	root := t.TempDir()
	rec := store.NewRecorder(root, 5, "test", logging.Discard())
	recordSession(t, rec, "alpha", 1, 50)
	recordSession(t, rec, "beta", 2, 20)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	all, err := db.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("sessions=%d want=2: %+v", len(all), all)
	}
	for _, s := range all {
		if s.FinalStatus != "GAMEOVER" {
			t.Fatalf("%s final status=%s", s.SessionID, s.FinalStatus)
		}
		if s.Source != "test" || s.Frames < 2 || s.MaxSnakes != 5 {
			t.Fatalf("summary=%+v", s)
		}
		if s.MaxScore < s.FinalScore {
			t.Fatalf("%s scores final=%v max=%v", s.SessionID, s.FinalScore, s.MaxScore)
		}
	}
	if all[0].FinalScore < all[1].FinalScore {
		t.Fatalf("not ordered by final score: %+v", all)
	}

	one, err := db.Session(ctx, "beta")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if one.SessionID != "beta" {
		t.Fatalf("session=%+v", one)
	}
	if _, err := db.Session(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing session err=%v", err)
	}

	timeline, err := db.Timeline(ctx, "beta")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if int64(len(timeline)) != one.Frames {
		t.Fatalf("timeline=%d frames want=%d", len(timeline), one.Frames)
	}
	for i := 1; i < len(timeline); i++ {
		if timeline[i].Tick < timeline[i-1].Tick {
			t.Fatalf("timeline out of order at %d: %+v", i, timeline)
		}
	}
	first, last := timeline[0], timeline[len(timeline)-1]
	if first.Tick != 0 || first.PlayerLength < 1 || first.Snakes < 1 || first.PlayerScale < 1 {
		t.Fatalf("first frame=%+v", first)
	}
	if last.Status != "GAMEOVER" || last.Score != one.FinalScore {
		t.Fatalf("last frame=%+v want status GAMEOVER score %v", last, one.FinalScore)
	}
	if _, err := db.Timeline(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing timeline err=%v", err)
	}

	deaths, err := db.Deaths(ctx, "alpha")
	if err != nil {
		t.Fatalf("Deaths: %v", err)
	}
	var player *DeathCount
	for i := range deaths {
		if deaths[i].Archetype == "player" {
			player = &deaths[i]
		}
	}
	if player == nil || player.Deaths != 1 || player.Segments < 1+game.PlayerBodyCount {
		t.Fatalf("deaths=%+v", deaths)
	}
}

func TestOpen_EmptyRoot(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	all, err := db.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("sessions=%d want=0", len(all))
	}
}
