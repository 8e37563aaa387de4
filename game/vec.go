package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a world-space position or direction. Entities move on the XZ
// plane; Y only carries the visual lift of a body part.
type Vec3 = mgl64.Vec3

const epsilon = 1e-9

// Planar drops the vertical component.
func Planar(v Vec3) Vec3 {
	return Vec3{v[0], 0, v[2]}
}

// NormalizeOr returns v at unit length, or fallback when v has no usable length.
func NormalizeOr(v, fallback Vec3) Vec3 {
	l := v.Len()
	if l < epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Lerp moves a toward b by t.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Heading is the planar unit vector at angle radians from +X toward +Z.
func Heading(angle float64) Vec3 {
	return Vec3{math.Cos(angle), 0, math.Sin(angle)}
}

// Angle is the inverse of Heading.
func Angle(v Vec3) float64 {
	return math.Atan2(v[2], v[0])
}

// Distance is the straight-line distance between two positions.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}
