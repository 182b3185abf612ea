package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

// Names of the fixed top-level groups.
const (
	GroupCollidable = "collidable"
	GroupHelpers    = "helpers"
	FloorName       = "floor"
)

// Scene is a world root split into geometry that blocks the viewer and
// helpers (controller rays, gizmos) that never do.
type Scene struct {
	Root       *Object
	Collidable *Object
	Helpers    *Object
}

// New returns an empty scene.
func New() *Scene {
	s := &Scene{
		Root:       NewGroup("root"),
		Collidable: NewGroup(GroupCollidable),
		Helpers:    NewGroup(GroupHelpers),
	}
	s.Root.Add(s.Collidable, s.Helpers)
	return s
}

// Build assembles a scene from cfg.
func Build(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := New()

	if cfg.Floor.Width > 0 && cfg.Floor.Depth > 0 {
		floor := NewMesh(FloorName, NewPlane(cfg.Floor.Width, cfg.Floor.Depth))
		floor.Side = SideDouble
		if cfg.Floor.Collidable {
			s.Collidable.Add(floor)
		} else {
			s.Helpers.Add(floor)
		}
	}

	for _, oc := range cfg.Objects {
		geom, err := oc.geometry()
		if err != nil {
			return nil, err
		}
		obj := NewMesh(oc.Name, geom)
		obj.Position = mgl64.Vec3(oc.Position)
		obj.SetRotationEuler(
			mgl64.DegToRad(oc.Rotation[0]),
			mgl64.DegToRad(oc.Rotation[1]),
			mgl64.DegToRad(oc.Rotation[2]),
		)
		for i, v := range oc.Scale {
			if v != 0 {
				obj.Scale[i] = v
			}
		}
		if oc.DoubleSided {
			obj.Side = SideDouble
		}
		obj.Visible = !oc.Hidden
		if oc.Helper {
			s.Helpers.Add(obj)
		} else {
			s.Collidable.Add(obj)
		}
	}

	for i := 0; i < cfg.Controllers; i++ {
		s.Helpers.Add(NewLineObject(fmt.Sprintf("controller-%d", i), NewLine(mgl64.Vec3{}, physics.Forward)))
	}
	return s, nil
}

// Raycaster returns an intersector over the collidable group.
func (s *Scene) Raycaster() *Raycaster {
	return NewRaycaster(s.Collidable)
}

// Bounds is the world-space box around every visible vertex under o.
func Bounds(o *Object) physics.AABB {
	var box physics.AABB
	if o == nil {
		return box
	}
	o.Traverse(func(n *Object) bool {
		if !n.Visible {
			return false
		}
		if n.Geometry == nil || len(n.Geometry.Positions) == 0 {
			return true
		}
		world := n.WorldMatrix()
		for _, p := range n.Geometry.Positions {
			box = box.Extend(mgl64.TransformCoordinate(p, world))
		}
		return true
	})
	return box
}

// Center is the midpoint of Bounds(o), or the origin for an empty subtree.
func Center(o *Object) mgl64.Vec3 {
	b := Bounds(o)
	if b.Empty() {
		return mgl64.Vec3{}
	}
	return b.Center()
}

// Size is the extent of Bounds(o).
func Size(o *Object) mgl64.Vec3 {
	b := Bounds(o)
	if b.Empty() {
		return mgl64.Vec3{}
	}
	return b.Size()
}
