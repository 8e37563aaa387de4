package store

import (
	"github.com/brensch/snekarena/game"
)

// FrameRow is one recorded tick of a session.
//
// One row per frame with nested snakes, the same layout the turn archive
// used: food is not duplicated per snake and snake bodies stay columnar.
type FrameRow struct {
	SessionID string  `parquet:"session_id,dict"`
	Tick      int64   `parquet:"tick"`
	ElapsedMs int64   `parquet:"elapsed_ms"`
	Status    string  `parquet:"status,dict"`
	Score     float64 `parquet:"score"`
	Arena     float64 `parquet:"arena"`

	FoodX     []float32 `parquet:"food_x"`
	FoodZ     []float32 `parquet:"food_z"`
	FoodValue []float32 `parquet:"food_value"`

	Snakes []SnakeRow `parquet:"snakes"`

	// Source is "interactive", "autopilot" or "server".
	Source string `parquet:"source,dict"`
}

type SnakeRow struct {
	ID        int64   `parquet:"id"`
	Archetype string  `parquet:"archetype,dict"`
	Skin      string  `parquet:"skin,dict"`
	Alive     bool    `parquet:"alive"`
	Boosting  bool    `parquet:"boosting"`
	Scale     float32 `parquet:"scale"`
	Color     string  `parquet:"color,dict"`

	BodyX []float32 `parquet:"body_x"`
	BodyZ []float32 `parquet:"body_z"`
}

// EventRow is one score, status, death or spawn event.
type EventRow struct {
	SessionID string  `parquet:"session_id,dict"`
	Tick      int64   `parquet:"tick"`
	Kind      string  `parquet:"kind,dict"`
	SnakeID   int64   `parquet:"snake_id"`
	Archetype string  `parquet:"archetype,dict"`
	Delta     float64 `parquet:"delta"`
	Score     float64 `parquet:"score"`
	Status    string  `parquet:"status,dict"`
	Length    int32   `parquet:"length"`
}

// FrameFromSnapshot flattens a snapshot into a FrameRow. The player, when
// present, is always the first snake.
func FrameFromSnapshot(sessionID, source string, snap game.Snapshot) FrameRow {
	row := FrameRow{
		SessionID: sessionID,
		Tick:      int64(snap.Tick),
		ElapsedMs: snap.ElapsedMs,
		Status:    snap.Status,
		Score:     snap.Score,
		Arena:     snap.Arena,
		FoodX:     make([]float32, len(snap.Foods)),
		FoodZ:     make([]float32, len(snap.Foods)),
		FoodValue: make([]float32, len(snap.Foods)),
		Snakes:    make([]SnakeRow, 0, len(snap.Enemies)+1),
		Source:    source,
	}
	for i, f := range snap.Foods {
		row.FoodX[i] = float32(f.X)
		row.FoodZ[i] = float32(f.Z)
		row.FoodValue[i] = float32(f.Value)
	}
	if snap.Player != nil {
		row.Snakes = append(row.Snakes, snakeRow(*snap.Player))
	}
	for _, e := range snap.Enemies {
		row.Snakes = append(row.Snakes, snakeRow(e))
	}
	return row
}

func snakeRow(v game.SnakeView) SnakeRow {
	r := SnakeRow{
		ID:        int64(v.ID),
		Archetype: v.Archetype,
		Skin:      v.Skin,
		Alive:     v.Alive,
		Boosting:  v.Boosting,
		Scale:     float32(v.Scale),
		Color:     v.Color,
		BodyX:     make([]float32, len(v.Segments)),
		BodyZ:     make([]float32, len(v.Segments)),
	}
	for i, seg := range v.Segments {
		r.BodyX[i] = float32(seg.X)
		r.BodyZ[i] = float32(seg.Z)
	}
	return r
}

func EventFromGame(sessionID string, e game.Event) EventRow {
	return EventRow{
		SessionID: sessionID,
		Tick:      int64(e.Tick),
		Kind:      e.Kind.String(),
		SnakeID:   int64(e.SnakeID),
		Archetype: e.Archetype.String(),
		Delta:     e.Delta,
		Score:     e.Score,
		Status:    e.Status.String(),
		Length:    int32(e.Length),
	}
}
