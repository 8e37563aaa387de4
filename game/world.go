package game

import (
	"math/rand"
	"slices"
	"time"
)

// World is the whole simulation context for one session: the player, the
// AI roster, the food set, and the scheduling and event state the tick
// needs. It replaces any session-wide globals.
type World struct {
	Config Config
	Rng    *rand.Rand

	Player  *Snake // nil before the first session starts
	Enemies []*Snake
	Foods   []Food

	Status  Status
	Tick    uint64
	Elapsed time.Duration
	Input   Input

	// Respawns holds the elapsed-time deadlines of pending AI spawns.
	Respawns []time.Duration

	events []Event
	nextID uint64
}

// NewWorld returns an empty world in the menu state.
func NewWorld(cfg Config) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &World{
		Config: cfg,
		Rng:    rand.New(rand.NewSource(seed)),
		Status: StatusMenu,
	}
}

// NextID hands out entity and food handles. IDs are never reused within a world.
func (w *World) NextID() uint64 {
	w.nextID++
	return w.nextID
}

// Reset clears every population and timer, keeping the RNG and ID counter.
func (w *World) Reset() {
	w.Player = nil
	w.Enemies = nil
	w.Foods = nil
	w.Tick = 0
	w.Elapsed = 0
	w.Input = Input{}
	w.Respawns = nil
}

// Living returns the player (when alive) followed by every living AI.
// The slice is a fresh copy and stays valid while the roster changes.
func (w *World) Living() []*Snake {
	out := make([]*Snake, 0, len(w.Enemies)+1)
	if w.Player != nil && w.Player.Alive {
		out = append(out, w.Player)
	}
	for _, e := range w.Enemies {
		if e.Alive {
			out = append(out, e)
		}
	}
	return out
}

// Score is the player's current score.
func (w *World) Score() float64 {
	if w.Player == nil {
		return 0
	}
	return w.Player.Score
}

// AddScore credits the player and emits the delta. Non-positive deltas are ignored.
func (w *World) AddScore(delta float64) {
	if w.Player == nil || delta <= 0 {
		return
	}
	w.Player.Score += delta
	w.Emit(Event{Kind: EventScore, SnakeID: w.Player.ID, Delta: delta, Score: w.Player.Score})
}

// SetStatus transitions the session and emits the change.
func (w *World) SetStatus(st Status) {
	if w.Status == st {
		return
	}
	w.Status = st
	w.Emit(Event{Kind: EventStatus, Status: st, Score: w.Score()})
}

// Emit queues an event for the driver, stamped with the current tick.
func (w *World) Emit(e Event) {
	e.Tick = w.Tick
	w.events = append(w.events, e)
}

// DrainEvents returns and clears the queued events.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}

// RemoveEnemy drops s from the AI roster, keeping the order of the rest.
func (w *World) RemoveEnemy(s *Snake) bool {
	i := slices.Index(w.Enemies, s)
	if i < 0 {
		return false
	}
	w.Enemies = slices.Delete(w.Enemies, i, i+1)
	return true
}

// RemoveFood drops the food at index i, keeping the order of the rest.
func (w *World) RemoveFood(i int) Food {
	f := w.Foods[i]
	w.Foods = slices.Delete(w.Foods, i, i+1)
	return f
}

// ScheduleRespawn queues an AI spawn after the configured delay.
func (w *World) ScheduleRespawn() {
	w.Respawns = append(w.Respawns, w.Elapsed+w.Config.RespawnDelay)
}

// DueRespawns removes and counts the respawns whose deadline has passed.
func (w *World) DueRespawns() int {
	due := 0
	kept := w.Respawns[:0]
	for _, at := range w.Respawns {
		if at <= w.Elapsed {
			due++
			continue
		}
		kept = append(kept, at)
	}
	w.Respawns = kept
	return due
}
