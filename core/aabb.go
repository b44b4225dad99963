package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in local or world space.
type AABB struct {
	MinBounds mgl32.Vec3
	MaxBounds mgl32.Vec3
}

// NewAABB returns the box spanning min..max.
func NewAABB(min, max mgl32.Vec3) AABB {
	return AABB{MinBounds: min, MaxBounds: max}
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		MinBounds: mgl32.Vec3{
			min32(a.MinBounds.X(), b.MinBounds.X()),
			min32(a.MinBounds.Y(), b.MinBounds.Y()),
			min32(a.MinBounds.Z(), b.MinBounds.Z()),
		},
		MaxBounds: mgl32.Vec3{
			max32(a.MaxBounds.X(), b.MaxBounds.X()),
			max32(a.MaxBounds.Y(), b.MaxBounds.Y()),
			max32(a.MaxBounds.Z(), b.MaxBounds.Z()),
		},
	}
}

// Transformed returns the box enclosing this box transformed by m.
func (a AABB) Transformed(m mgl32.Mat4) AABB {
	corners := [8]mgl32.Vec3{
		{a.MinBounds.X(), a.MinBounds.Y(), a.MinBounds.Z()},
		{a.MaxBounds.X(), a.MinBounds.Y(), a.MinBounds.Z()},
		{a.MinBounds.X(), a.MaxBounds.Y(), a.MinBounds.Z()},
		{a.MaxBounds.X(), a.MaxBounds.Y(), a.MinBounds.Z()},
		{a.MinBounds.X(), a.MinBounds.Y(), a.MaxBounds.Z()},
		{a.MaxBounds.X(), a.MinBounds.Y(), a.MaxBounds.Z()},
		{a.MinBounds.X(), a.MaxBounds.Y(), a.MaxBounds.Z()},
		{a.MaxBounds.X(), a.MaxBounds.Y(), a.MaxBounds.Z()},
	}
	const inf = float32(math.MaxFloat32)
	out := AABB{
		MinBounds: mgl32.Vec3{inf, inf, inf},
		MaxBounds: mgl32.Vec3{-inf, -inf, -inf},
	}
	for _, c := range corners {
		p := mgl32.TransformCoordinate(c, m)
		out.MinBounds = mgl32.Vec3{min32(out.MinBounds.X(), p.X()), min32(out.MinBounds.Y(), p.Y()), min32(out.MinBounds.Z(), p.Z())}
		out.MaxBounds = mgl32.Vec3{max32(out.MaxBounds.X(), p.X()), max32(out.MaxBounds.Y(), p.Y()), max32(out.MaxBounds.Z(), p.Z())}
	}
	return out
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
