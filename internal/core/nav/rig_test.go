package nav

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

func TestYaw(t *testing.T) {
	tests := []struct {
		name string
		dir  mgl64.Vec3
		want float64
	}{
		{"forward", mgl64.Vec3{0, 0, -1}, 0},
		{"left", mgl64.Vec3{-1, 0, 0}, math.Pi / 2},
		{"right", mgl64.Vec3{1, 0, 0}, -math.Pi / 2},
		{"back", mgl64.Vec3{0, 0, 1}, math.Pi},
		{"pitched", mgl64.Vec3{-2, 5, 0}, math.Pi / 2},
		{"straight up", mgl64.Vec3{0, 1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Yaw(tt.dir), 1e-12)
		})
	}
}

func TestYawRoundTrip(t *testing.T) {
	for _, yaw := range []float64{-2.5, -1, 0, 0.4, 1.2, 3} {
		dir := RotateYaw(mgl64.Vec3{0, 0, -1}, yaw)
		assert.InDelta(t, yaw, Yaw(dir), 1e-9, "yaw %v", yaw)
	}
}

func TestCameraOrientation(t *testing.T) {
	c := NewCamera(mgl64.Vec3{1, 2, 3})
	assert.True(t, c.Direction().ApproxEqual(mgl64.Vec3{0, 0, -1}))

	c.Look(0, 10)
	_, pitch := c.Orientation()
	assert.Equal(t, math.Pi/2, pitch)
	assert.True(t, c.Direction().ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9))

	c.SetOrientation(math.NaN(), math.Inf(1))
	yaw, pitch := c.Orientation()
	assert.Zero(t, yaw)
	assert.Equal(t, math.Pi/2, pitch)

	c.SetOrientation(3*math.Pi, 0)
	yaw, _ = c.Orientation()
	assert.InDelta(t, math.Pi, math.Abs(yaw), 1e-9)
}

func TestCameraMovement(t *testing.T) {
	c := NewCamera(mgl64.Vec3{})
	c.Translate(mgl64.Vec3{1, 0, -1})
	c.Translate(mgl64.Vec3{1, 0, 0})
	assert.Equal(t, mgl64.Vec3{2, 0, -1}, c.Position())
	c.MoveTo(mgl64.Vec3{5, 5, 5})
	assert.Equal(t, mgl64.Vec3{5, 5, 5}, c.Position())
}

func TestXRRigDirection(t *testing.T) {
	r := NewXRRig(mgl64.Vec3{0, 5, 15})
	assert.True(t, r.Direction().ApproxEqual(mgl64.Vec3{0, 0, -1}))

	r.SetHeadOrientation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	assert.True(t, r.Direction().ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9))

	r.Turn(math.Pi / 2)
	assert.True(t, r.Direction().ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9))

	before := r.Direction()
	r.SetHeadOrientation(mgl64.Quat{})
	r.SetHeadOrientation(mgl64.Quat{W: math.NaN()})
	assert.Equal(t, before, r.Direction())
}

func TestXRRigNormalizesHead(t *testing.T) {
	r := NewXRRig(mgl64.Vec3{})
	r.SetHeadOrientation(mgl64.Quat{W: 2})
	assert.True(t, r.Direction().ApproxEqual(mgl64.Vec3{0, 0, -1}))
}

func TestRigYawSurvivesVerticalLook(t *testing.T) {
	cam := NewCamera(mgl64.Vec3{})
	for _, pitch := range []float64{-math.Pi / 2, 0, math.Pi / 2} {
		cam.SetOrientation(math.Pi/2, pitch)
		assert.InDelta(t, math.Pi/2, cam.Yaw(), 1e-12, "pitch %.2f", pitch)
	}

	r := NewXRRig(mgl64.Vec3{})
	down := mgl64.QuatRotate(math.Pi/2, physics.Up).Mul(mgl64.QuatRotate(-math.Pi/2, physics.Right))
	r.SetHeadOrientation(down)
	assert.InDelta(t, math.Pi/2, r.Yaw(), 1e-9)

	r.Turn(0.5)
	assert.InDelta(t, math.Pi/2+0.5, r.Yaw(), 1e-9)

	level := NewXRRig(mgl64.Vec3{})
	level.SetHeadOrientation(mgl64.QuatRotate(-0.7, physics.Up))
	assert.InDelta(t, Yaw(level.Direction()), level.Yaw(), 1e-9)
}
