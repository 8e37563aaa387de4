// Package game defines the arena state and the per-snake simulation.
//
// Everything here is single-threaded: a World is mutated by one tick at a
// time and callers that share it across goroutines must serialize access
// (see package session).
package game

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Archetype is the behavioural category of a snake, fixed at creation.
type Archetype uint8

const (
	Player Archetype = iota
	SmartAI
	WanderAI
)

func (a Archetype) String() string {
	switch a {
	case Player:
		return "player"
	case SmartAI:
		return "smart"
	case WanderAI:
		return "wander"
	}
	return fmt.Sprintf("archetype(%d)", uint8(a))
}

func (a Archetype) IsAI() bool { return a != Player }

// BaseSegments is the number of body segments grown behind the head at spawn.
func (a Archetype) BaseSegments() int {
	switch a {
	case SmartAI:
		return SmartAIBodyCount
	case WanderAI:
		return WanderAIBodyCount
	}
	return PlayerBodyCount
}

// TurnRate is the heading blend factor per tick. The player's rate depends
// on boosting and is chosen in Update instead.
func (a Archetype) TurnRate() float64 {
	switch a {
	case SmartAI:
		return SmartTurn
	case WanderAI:
		return WanderTurn
	}
	return PlayerTurn
}

func (a Archetype) AvoidanceMultiplier() float64 {
	switch a {
	case SmartAI:
		return SmartAvoidance
	case WanderAI:
		return WanderAvoidance
	}
	return 0
}

// Skin is the body shape. Only non-smooth skins orient their segments.
type Skin uint8

const (
	Smooth Skin = iota
	Block
	Spiky
	Mecha
)

// Skins lists every skin in spawn order.
var Skins = []Skin{Smooth, Block, Spiky, Mecha}

func (s Skin) String() string {
	switch s {
	case Block:
		return "block"
	case Spiky:
		return "spiky"
	case Mecha:
		return "mecha"
	}
	return "smooth"
}

// ParseSkin accepts the names produced by Skin.String.
func ParseSkin(name string) (Skin, error) {
	for _, s := range Skins {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return Smooth, fmt.Errorf("unknown skin %q", name)
}

// HSL is a base colour with every channel in [0, 1].
type HSL struct {
	H, S, L float64
}

func (c HSL) Color() colorful.Color {
	return colorful.Hsl(c.H*360, c.S, c.L).Clamped()
}

// Segment is one body unit. Segments[0] is the head.
type Segment struct {
	Position Vec3
	Facing   Vec3
	Scale    float64
	Radius   float64
	Color    colorful.Color
}

// Snake is a player or AI entity.
type Snake struct {
	ID        uint64
	Archetype Archetype
	Skin      Skin
	Base      HSL
	Alive     bool

	Scale       float64
	TargetScale float64
	Speed       float64
	TargetSpeed float64

	Direction       Vec3
	TargetDirection Vec3

	Segments     []Segment
	PathHistory  []Vec3 // newest first, on the plane
	LastRecorded Vec3

	TurnRate            float64
	AvoidanceMultiplier float64
	WanderTimer         float64

	// Score and Boosting are only meaningful for the player.
	Score    float64
	Boosting bool

	cfg Config
}

// Food is a consumable. Drop marks food left behind by a dead snake.
type Food struct {
	ID       uint64
	Position Vec3
	Value    float64
	Color    colorful.Color
	Drop     bool
}

// Status is the session state shown to the UI.
type Status uint8

const (
	StatusMenu Status = iota
	StatusPlaying
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "PLAYING"
	case StatusGameOver:
		return "GAMEOVER"
	}
	return "MENU"
}

// Input is the per-tick player control read from outside the core.
type Input struct {
	Heading Vec3 // planar; zero keeps the previous target heading
	Boost   bool
}

// EventKind tags an Event.
type EventKind uint8

const (
	EventScore EventKind = iota
	EventStatus
	EventDeath
	EventSpawn
)

func (k EventKind) String() string {
	switch k {
	case EventScore:
		return "score"
	case EventStatus:
		return "status"
	case EventDeath:
		return "death"
	case EventSpawn:
		return "spawn"
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// Event is emitted by the core for the score/status boundary.
// Score deltas are always positive; the boost drain is visible only in
// the running Score.
type Event struct {
	Kind      EventKind
	Tick      uint64
	SnakeID   uint64
	Archetype Archetype
	Delta     float64
	Score     float64
	Status    Status
	Length    int // segments of a dead snake, one death drop each
}
