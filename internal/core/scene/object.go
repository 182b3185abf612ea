package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind tells the raycaster what an object is. Only meshes block movement.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
	KindLine
	KindPoints
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindLine:
		return "line"
	case KindPoints:
		return "points"
	default:
		return "group"
	}
}

// Side selects which faces of a mesh a ray can strike.
type Side uint8

const (
	SideFront Side = iota
	SideDouble
)

// Object is a node in the scene graph.
type Object struct {
	ID       string
	Name     string
	Kind     Kind
	Geometry *Geometry
	Side     Side
	Visible  bool

	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3

	parent   *Object
	children []*Object
}

func newObject(name string, kind Kind, geom *Geometry) *Object {
	return &Object{
		ID:       uuid.NewString(),
		Name:     name,
		Kind:     kind,
		Geometry: geom,
		Visible:  true,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// NewGroup creates an empty container.
func NewGroup(name string) *Object {
	return newObject(name, KindGroup, nil)
}

// NewMesh creates a front-sided solid.
func NewMesh(name string, geom *Geometry) *Object {
	return newObject(name, KindMesh, geom)
}

// NewLineObject creates a polyline such as a controller pointer ray.
func NewLineObject(name string, geom *Geometry) *Object {
	return newObject(name, KindLine, geom)
}

// Add reparents children under o.
func (o *Object) Add(children ...*Object) *Object {
	for _, c := range children {
		if c == nil || c == o {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = o
		o.children = append(o.children, c)
	}
	return o
}

// Remove detaches child if it is a direct child of o.
func (o *Object) Remove(child *Object) bool {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

func (o *Object) Parent() *Object { return o.parent }

func (o *Object) Children() []*Object { return o.children }

// SetRotationEuler sets rotation from XYZ Euler angles in radians.
func (o *Object) SetRotationEuler(x, y, z float64) {
	o.Rotation = mgl64.AnglesToQuat(x, y, z, mgl64.XYZ)
}

// Traverse visits o and its descendants depth first. Returning false from
// fn skips the subtree below that node.
func (o *Object) Traverse(fn func(*Object) bool) {
	if !fn(o) {
		return
	}
	for _, c := range o.children {
		c.Traverse(fn)
	}
}

// Find returns the first descendant named name.
func (o *Object) Find(name string) *Object {
	var found *Object
	o.Traverse(func(n *Object) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// LocalMatrix composes translation, rotation and scale.
func (o *Object) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(o.Position.X(), o.Position.Y(), o.Position.Z())
	s := mgl64.Scale3D(o.Scale.X(), o.Scale.Y(), o.Scale.Z())
	return t.Mul4(o.Rotation.Normalize().Mat4()).Mul4(s)
}

// WorldMatrix is the product of every local matrix from the root down.
func (o *Object) WorldMatrix() mgl64.Mat4 {
	m := o.LocalMatrix()
	for p := o.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldPosition is the object's origin in world space.
func (o *Object) WorldPosition() mgl64.Vec3 {
	return mgl64.TransformCoordinate(mgl64.Vec3{}, o.WorldMatrix())
}
