package game

import (
	"github.com/lucasb-eyer/go-colorful"
)

// SpawnFood adds one food item and returns it.
//
// With a nil position the food lands anywhere in the arena with a random
// hue. With a position it lands within a few units of it, which is how
// death drops scatter along a dead body. A nil colour picks a random hue.
func (w *World) SpawnFood(at *Vec3, value float64, color *colorful.Color) Food {
	f := Food{ID: w.NextID(), Value: value, Drop: at != nil}

	if at != nil {
		p := *at
		p[0] += (w.Rng.Float64() - 0.5) * DropJitter
		p[2] += (w.Rng.Float64() - 0.5) * DropJitter
		f.Position = p
	} else {
		f.Position = Vec3{
			(w.Rng.Float64() - 0.5) * w.Config.ArenaSize,
			FoodHeight,
			(w.Rng.Float64() - 0.5) * w.Config.ArenaSize,
		}
	}

	if color != nil {
		f.Color = *color
	} else {
		f.Color = HSL{H: w.Rng.Float64(), S: 1, L: 0.5}.Color()
	}

	w.Foods = append(w.Foods, f)
	return f
}

// SpawnAmbientFood spawns value-1 food at a random position.
func (w *World) SpawnAmbientFood() Food {
	return w.SpawnFood(nil, FoodValue, nil)
}

// SpawnDrop spawns a death-drop near pos in the dead snake's colour.
func (w *World) SpawnDrop(pos Vec3, color colorful.Color) Food {
	return w.SpawnFood(&pos, DropValue, &color)
}
