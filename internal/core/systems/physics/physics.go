package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

var (
	Up      = mgl64.Vec3{0, 1, 0}
	Right   = mgl64.Vec3{1, 0, 0}
	Forward = mgl64.Vec3{0, 0, -1}
)

// SafeNormalize returns v scaled to unit length, or the zero vector when v
// has no usable length. It never produces NaN or Inf.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < epsilon || math.IsInf(l, 0) || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// IsFinite reports whether every component of v is a real number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IntersectTriangle runs Möller–Trumbore against the counter-clockwise
// triangle abc. With cullBack set, rays approaching the back face miss.
func IntersectTriangle(r Ray, a, b, c mgl64.Vec3, cullBack bool) (float64, bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	pvec := r.Direction.Cross(edge2)
	det := edge1.Dot(pvec)

	if cullBack {
		if det < epsilon {
			return 0, false
		}
	} else if math.Abs(det) < epsilon {
		return 0, false
	}

	inv := 1 / det
	tvec := r.Origin.Sub(a)
	u := tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(edge1)
	v := r.Direction.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(qvec) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// TriangleNormal is the unit front-face normal of the counter-clockwise
// triangle abc.
func TriangleNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return SafeNormalize(b.Sub(a).Cross(c.Sub(a)))
}

// AABB is an axis-aligned bounding box. The zero value is empty.
type AABB struct {
	Min, Max mgl64.Vec3
	valid    bool
}

// NewAABB returns the box spanning the given corners.
func NewAABB(min, max mgl64.Vec3) AABB {
	return AABB{Min: min, Max: max, valid: true}
}

// Empty reports whether no point has been added to the box.
func (b AABB) Empty() bool { return !b.valid }

// Extend grows the box to contain p.
func (b AABB) Extend(p mgl64.Vec3) AABB {
	if !b.valid {
		return NewAABB(p, p)
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	if !o.valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent of the box along each axis.
func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// IntersectRay runs the slab test and reports the entry and exit distances.
// A ray starting inside the box has an entry distance of zero.
func (b AABB) IntersectRay(r Ray) (tmin, tmax float64, ok bool) {
	if !b.valid {
		return 0, 0, false
	}
	tmin, tmax = 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if math.Abs(r.Direction[i]) < epsilon {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}
