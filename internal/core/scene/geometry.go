package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

// Geometry is an indexed vertex buffer. Triangles wind counter-clockwise
// when seen from the front. Lines and point clouds leave Indices empty.
type Geometry struct {
	Positions []mgl64.Vec3
	Indices   []int
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

// Triangle returns the corners of triangle i in local space.
func (g *Geometry) Triangle(i int) (a, b, c mgl64.Vec3) {
	return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
}

// Bounds is the local-space box around every vertex.
func (g *Geometry) Bounds() physics.AABB {
	var box physics.AABB
	if g == nil {
		return box
	}
	for _, p := range g.Positions {
		box = box.Extend(p)
	}
	return box
}

// NewBox builds a box of the given size centred on the origin.
func NewBox(width, height, depth float64) *Geometry {
	x, y, z := width/2, height/2, depth/2
	return &Geometry{
		Positions: []mgl64.Vec3{
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
		},
		Indices: []int{
			4, 5, 6, 4, 6, 7, // +z
			1, 0, 3, 1, 3, 2, // -z
			5, 1, 2, 5, 2, 6, // +x
			0, 4, 7, 0, 7, 3, // -x
			3, 7, 6, 3, 6, 2, // +y
			0, 1, 5, 0, 5, 4, // -y
		},
	}
}

// NewPlane builds a horizontal plane on y=0 facing +Y, the way a floor is
// laid out.
func NewPlane(width, depth float64) *Geometry {
	x, z := width/2, depth/2
	return &Geometry{
		Positions: []mgl64.Vec3{{-x, 0, -z}, {x, 0, -z}, {x, 0, z}, {-x, 0, z}},
		Indices:   []int{3, 2, 1, 3, 1, 0},
	}
}

// NewSphere builds a UV sphere. Segment counts below the minimum are raised.
func NewSphere(radius float64, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	g := &Geometry{}
	row := widthSegments + 1
	for iy := 0; iy <= heightSegments; iy++ {
		theta := float64(iy) / float64(heightSegments) * math.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			phi := float64(ix) / float64(widthSegments) * 2 * math.Pi
			g.Positions = append(g.Positions, mgl64.Vec3{
				-radius * math.Cos(phi) * math.Sin(theta),
				radius * math.Cos(theta),
				radius * math.Sin(phi) * math.Sin(theta),
			})
		}
	}
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := iy*row + ix + 1
			b := iy*row + ix
			c := (iy+1)*row + ix
			d := (iy+1)*row + ix + 1
			if iy != 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}

// NewLine builds a polyline through points.
func NewLine(points ...mgl64.Vec3) *Geometry {
	return &Geometry{Positions: append([]mgl64.Vec3(nil), points...)}
}
