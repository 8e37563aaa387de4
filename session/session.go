// Package session drives a game.World in real time: it owns the tick loop,
// serializes access from input sources and viewers, fans snapshots out to
// subscribers and forwards events to an optional recorder.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/rules"
)

// Recorder receives every advanced tick. store.Recorder implements it.
type Recorder interface {
	Record(sessionID string, snap game.Snapshot, events []game.Event) error
}

type Config struct {
	Game   game.Config
	Player rules.PlayerOptions

	// Autopilot steers the player with the SmartAI behaviour instead of
	// the input.
	Autopilot bool

	// SubscriberBuffer is the channel depth per subscriber. Slow
	// subscribers miss snapshots rather than stall the tick.
	SubscriberBuffer int
}

func DefaultConfig() Config {
	return Config{
		Game:             game.DefaultConfig(),
		Player:           rules.DefaultPlayer(),
		SubscriberBuffer: 4,
	}
}

// Session is safe for concurrent use.
type Session struct {
	cfg Config
	log *slog.Logger

	mu       sync.Mutex
	world    *game.World
	id       string
	recorder Recorder
	last     game.Snapshot

	subMu   sync.Mutex
	subs    map[int]chan game.Snapshot
	nextSub int
	dropped int64
}

// New returns a session in the menu state. Call Start to begin playing.
func New(cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 1
	}
	w := game.NewWorld(cfg.Game)
	return &Session{
		cfg:   cfg,
		log:   log,
		world: w,
		last:  w.Snapshot(),
		subs:  make(map[int]chan game.Snapshot),
	}
}

// SetRecorder installs r for every following tick. A nil r stops recording.
func (s *Session) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Start clears the world and begins a new session with a fresh ID. A nil
// opts keeps the previous player options.
func (s *Session) Start(opts *rules.PlayerOptions) string {
	s.mu.Lock()
	if opts != nil {
		s.cfg.Player = *opts
	}
	s.id = uuid.NewString()
	rules.Start(s.world, s.cfg.Player)
	snap := s.world.Snapshot()
	s.last = snap
	id := s.id
	events := s.world.DrainEvents()
	s.record(snap, events)
	s.mu.Unlock()

	s.log.Info("session started",
		"session", id,
		"skin", s.cfg.Player.Skin,
		"ai", s.cfg.Game.AICount,
		"food", s.cfg.Game.InitialFood,
	)
	s.logEvents(id, events)
	s.publish(snap)
	return id
}

// ID is the current session ID, empty before the first Start.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Status() game.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Status
}

// PlayerOptions returns the options the next Start(nil) uses.
func (s *Session) PlayerOptions() rules.PlayerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Player
}

// GameConfig returns the arena parameters.
func (s *Session) GameConfig() game.Config {
	return s.cfg.Game
}

// SetInput replaces the player input read by the following ticks.
func (s *Session) SetInput(in game.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world.Input = in
}

// Input returns the current player input.
func (s *Session) Input() game.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Input
}

// Snapshot returns the state after the latest tick.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Step advances one tick and publishes the result. It reports whether the
// world advanced; nothing happens unless a session is playing.
func (s *Session) Step() bool {
	s.mu.Lock()
	w := s.world
	if w.Status != game.StatusPlaying {
		s.mu.Unlock()
		return false
	}
	if s.cfg.Autopilot {
		w.Input.Heading = rules.Autopilot(w)
	}
	rules.Step(w)

	snap := w.Snapshot()
	s.last = snap
	id := s.id
	events := w.DrainEvents()
	s.record(snap, events)
	s.mu.Unlock()

	s.logEvents(id, events)
	s.publish(snap)
	return true
}

// Run steps at the configured tick rate until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Game.TickDuration())
	defer ticker.Stop()
	s.log.Info("tick loop started", "rate", s.cfg.Game.TickRate)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("tick loop stopped", "dropped_snapshots", s.Dropped())
			return ctx.Err()
		case <-ticker.C:
			s.Step()
		}
	}
}

// record must be called with mu held.
func (s *Session) record(snap game.Snapshot, events []game.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(s.id, snap, events); err != nil {
		s.log.Error("record tick failed", "session", s.id, "tick", snap.Tick, "err", err)
	}
}

func (s *Session) logEvents(id string, events []game.Event) {
	for _, e := range events {
		switch e.Kind {
		case game.EventStatus:
			s.log.Info("status changed", "session", id, "tick", e.Tick, "status", e.Status, "score", e.Score)
		case game.EventDeath:
			level := slog.LevelDebug
			if !e.Archetype.IsAI() {
				level = slog.LevelInfo
			}
			s.log.Log(context.Background(), level, "snake died",
				"session", id, "tick", e.Tick, "snake", e.SnakeID, "archetype", e.Archetype, "length", e.Length)
		case game.EventScore:
			s.log.Debug("score", "session", id, "tick", e.Tick, "delta", e.Delta, "score", e.Score)
		case game.EventSpawn:
			s.log.Debug("snake spawned", "session", id, "tick", e.Tick, "snake", e.SnakeID, "archetype", e.Archetype)
		}
	}
}
