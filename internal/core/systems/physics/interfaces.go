package physics

import "github.com/go-gl/mathgl/mgl64"

// Intersector answers forward-looking ray queries against collidable
// geometry. Only the nearest hit with near <= distance <= far is reported.
// A false second return means nothing was hit; implementations never fail.
type Intersector interface {
	Intersect(origin, direction mgl64.Vec3, near, far float64) (Hit, bool)
}

// IntersectorFunc adapts a plain function to Intersector.
type IntersectorFunc func(origin, direction mgl64.Vec3, near, far float64) (Hit, bool)

func (f IntersectorFunc) Intersect(origin, direction mgl64.Vec3, near, far float64) (Hit, bool) {
	return f(origin, direction, near, far)
}

// Hit describes the nearest surface struck by a ray.
type Hit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	ObjectID string
	Name     string
	Face     int
}

// Ray is a half-line. Direction is expected to be unit length.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
