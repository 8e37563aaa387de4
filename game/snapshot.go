package game

import "time"

// SegmentPose is what a renderer needs to place one body part.
type SegmentPose struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Z      float64 `json:"z" msgpack:"z"`
	FX     float64 `json:"fx" msgpack:"fx"`
	FZ     float64 `json:"fz" msgpack:"fz"`
	Scale  float64 `json:"scale" msgpack:"scale"`
	Radius float64 `json:"radius" msgpack:"radius"`
	Color  string  `json:"color" msgpack:"color"`
}

// SnakeView is the rendering view of one snake.
type SnakeView struct {
	ID        uint64        `json:"id" msgpack:"id"`
	Archetype string        `json:"archetype" msgpack:"archetype"`
	Skin      string        `json:"skin" msgpack:"skin"`
	Alive     bool          `json:"alive" msgpack:"alive"`
	Boosting  bool          `json:"boosting" msgpack:"boosting"`
	Scale     float64       `json:"scale" msgpack:"scale"`
	Color     string        `json:"color" msgpack:"color"`
	Segments  []SegmentPose `json:"segments" msgpack:"segments"`
}

// FoodView is the rendering view of one food item.
type FoodView struct {
	ID    uint64  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Z     float64 `json:"z" msgpack:"z"`
	Value float64 `json:"value" msgpack:"value"`
	Color string  `json:"color" msgpack:"color"`
	Drop  bool    `json:"drop,omitempty" msgpack:"drop,omitempty"`
}

// Snapshot is an immutable copy of everything the rendering and UI
// collaborators read after a tick.
type Snapshot struct {
	Tick      uint64      `json:"tick" msgpack:"tick"`
	ElapsedMs int64       `json:"elapsed_ms" msgpack:"elapsed_ms"`
	Status    string      `json:"status" msgpack:"status"`
	Score     float64     `json:"score" msgpack:"score"`
	Arena     float64     `json:"arena" msgpack:"arena"`
	Player    *SnakeView  `json:"player,omitempty" msgpack:"player,omitempty"`
	Enemies   []SnakeView `json:"enemies" msgpack:"enemies"`
	Foods     []FoodView  `json:"foods" msgpack:"foods"`
}

// Snapshot copies the world into its rendering view.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:      w.Tick,
		ElapsedMs: w.Elapsed.Milliseconds(),
		Status:    w.Status.String(),
		Score:     w.Score(),
		Arena:     w.Config.ArenaSize,
		Enemies:   make([]SnakeView, 0, len(w.Enemies)),
		Foods:     make([]FoodView, 0, len(w.Foods)),
	}
	if w.Player != nil {
		v := viewSnake(w.Player)
		snap.Player = &v
	}
	for _, e := range w.Enemies {
		snap.Enemies = append(snap.Enemies, viewSnake(e))
	}
	for _, f := range w.Foods {
		snap.Foods = append(snap.Foods, FoodView{
			ID:    f.ID,
			X:     f.Position[0],
			Y:     f.Position[1],
			Z:     f.Position[2],
			Value: f.Value,
			Color: f.Color.Hex(),
			Drop:  f.Drop,
		})
	}
	return snap
}

func viewSnake(s *Snake) SnakeView {
	v := SnakeView{
		ID:        s.ID,
		Archetype: s.Archetype.String(),
		Skin:      s.Skin.String(),
		Alive:     s.Alive,
		Boosting:  s.Boosting,
		Scale:     s.Scale,
		Color:     s.Color().Hex(),
		Segments:  make([]SegmentPose, len(s.Segments)),
	}
	for i, seg := range s.Segments {
		v.Segments[i] = SegmentPose{
			X:      seg.Position[0],
			Y:      seg.Position[1],
			Z:      seg.Position[2],
			FX:     seg.Facing[0],
			FZ:     seg.Facing[2],
			Scale:  seg.Scale,
			Radius: seg.Radius,
			Color:  seg.Color.Hex(),
		}
	}
	return v
}

// Elapsed returns the simulated time of the snapshot.
func (s Snapshot) Elapsed() time.Duration {
	return time.Duration(s.ElapsedMs) * time.Millisecond
}

// Living counts the living snakes in the snapshot, player included.
func (s Snapshot) Living() int {
	n := 0
	if s.Player != nil && s.Player.Alive {
		n++
	}
	for _, e := range s.Enemies {
		if e.Alive {
			n++
		}
	}
	return n
}
