package game

import (
	"fmt"
	"time"
)

// Config holds the arena parameters. They are fixed once a session starts.
type Config struct {
	ArenaSize       float64 // full side length; the arena spans +-ArenaSize/2
	HistoryStep     float64 // arc length between path history samples
	SegmentIndexGap float64 // history samples between segments at scale 1
	SpeedNormal     float64
	SpeedBoost      float64
	AICount         int
	InitialFood     int
	TickRate        int // ticks per second; drives the elapsed-time counter
	RespawnDelay    time.Duration
	Seed            int64 // 0 picks a time-based seed
}

// DefaultConfig returns the tuning the game shipped with.
func DefaultConfig() Config {
	return Config{
		ArenaSize:       600,
		HistoryStep:     0.5,
		SegmentIndexGap: 5,
		SpeedNormal:     0.55,
		SpeedBoost:      1.3,
		AICount:         15,
		InitialFood:     60,
		TickRate:        60,
		RespawnDelay:    1500 * time.Millisecond,
	}
}

func (c Config) HalfExtent() float64 { return c.ArenaSize / 2 }

// TickDuration is the simulated time covered by one tick.
func (c Config) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// Validate reports parameters the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.ArenaSize <= 2*EdgeMargin:
		return fmt.Errorf("arena size %.1f must exceed %.1f", c.ArenaSize, 2*EdgeMargin)
	case c.HistoryStep <= 0:
		return fmt.Errorf("history step must be positive, got %v", c.HistoryStep)
	case c.SegmentIndexGap <= 0:
		return fmt.Errorf("segment index gap must be positive, got %v", c.SegmentIndexGap)
	case c.SpeedNormal <= 0 || c.SpeedBoost <= 0:
		return fmt.Errorf("speeds must be positive, got normal=%v boost=%v", c.SpeedNormal, c.SpeedBoost)
	case c.AICount < 0:
		return fmt.Errorf("ai count must not be negative, got %d", c.AICount)
	case c.InitialFood < 0:
		return fmt.Errorf("initial food must not be negative, got %d", c.InitialFood)
	case c.TickRate <= 0:
		return fmt.Errorf("tick rate must be positive, got %d", c.TickRate)
	case c.RespawnDelay < 0:
		return fmt.Errorf("respawn delay must not be negative, got %s", c.RespawnDelay)
	}
	return nil
}
