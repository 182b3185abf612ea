package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

var _ physics.Intersector = (*Raycaster)(nil)

// Raycaster finds the nearest visible mesh triangle under a root object.
// Lines, point clouds and hidden subtrees are ignored. It reads the scene
// graph without locking, so the graph must not change during a query.
type Raycaster struct {
	root *Object
}

func NewRaycaster(root *Object) *Raycaster {
	return &Raycaster{root: root}
}

// Intersect implements physics.Intersector.
func (r *Raycaster) Intersect(origin, direction mgl64.Vec3, near, far float64) (physics.Hit, bool) {
	dir := physics.SafeNormalize(direction)
	if r.root == nil || dir == (mgl64.Vec3{}) || !physics.IsFinite(origin) {
		return physics.Hit{}, false
	}
	ray := physics.Ray{Origin: origin, Direction: dir}

	var (
		best  physics.Hit
		found bool
	)
	r.root.Traverse(func(o *Object) bool {
		if !o.Visible {
			return false
		}
		if o.Kind != KindMesh || o.Geometry.TriangleCount() == 0 {
			return true
		}
		world := o.WorldMatrix()
		limit := far
		if found {
			limit = best.Distance
		}
		if !worldBounds(o.Geometry, world).overlaps(ray, near, limit) {
			return true
		}
		mirrored := world.Det() < 0
		for i := 0; i < o.Geometry.TriangleCount(); i++ {
			a, b, c := o.Geometry.Triangle(i)
			a = mgl64.TransformCoordinate(a, world)
			b = mgl64.TransformCoordinate(b, world)
			c = mgl64.TransformCoordinate(c, world)
			if mirrored {
				b, c = c, b
			}
			t, ok := physics.IntersectTriangle(ray, a, b, c, o.Side == SideFront)
			if !ok || t < near || t > far || (found && t >= best.Distance) {
				continue
			}
			best = physics.Hit{
				Distance: t,
				Point:    ray.At(t),
				Normal:   physics.TriangleNormal(a, b, c),
				ObjectID: o.ID,
				Name:     o.Name,
				Face:     i,
			}
			found = true
		}
		return true
	})
	return best, found
}

type box struct{ physics.AABB }

func worldBounds(g *Geometry, world mgl64.Mat4) box {
	var out physics.AABB
	local := g.Bounds()
	for _, p := range local.Corners() {
		out = out.Extend(mgl64.TransformCoordinate(p, world))
	}
	return box{out}
}

func (b box) overlaps(ray physics.Ray, near, far float64) bool {
	tmin, tmax, ok := b.IntersectRay(ray)
	return ok && tmax >= near && tmin <= far
}
