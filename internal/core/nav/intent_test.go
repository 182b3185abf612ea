package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentNormalizeZero(t *testing.T) {
	for _, in := range []Intent{
		{},
		{Lateral: math.NaN()},
		{Forward: math.Inf(-1)},
	} {
		n := in.Normalize()
		assert.Equal(t, Intent{}, n)
		assert.False(t, math.IsNaN(n.Lateral) || math.IsNaN(n.Forward))
	}
}

func TestIntentNormalizeUnitLength(t *testing.T) {
	cases := []Intent{
		{Lateral: 1},
		{Forward: -1},
		{Lateral: 1, Forward: 1},
		{Lateral: -1, Forward: 1},
		{Lateral: 0.1, Forward: -0.03},
		{Lateral: 1e-6, Forward: 0},
		{Lateral: -0.7, Forward: 0.7},
	}
	for _, in := range cases {
		assert.InDelta(t, 1.0, in.Normalize().Len(), 1e-12, "intent %+v", in)
	}
}

func TestIntentLocal(t *testing.T) {
	v := Intent{Lateral: 1, Forward: 1}.Local()
	assert.Equal(t, 1.0, v.X())
	assert.Equal(t, 0.0, v.Y())
	assert.Equal(t, -1.0, v.Z())
}

func TestKeyboardSource(t *testing.T) {
	k := NewKeyboardSource()
	assert.Equal(t, Intent{}, k.SampleIntent())

	assert.True(t, k.KeyDown("KeyW"))
	assert.Equal(t, Intent{Forward: 1}, k.SampleIntent())

	assert.True(t, k.KeyDown("ArrowRight"))
	assert.Equal(t, Intent{Lateral: 1, Forward: 1}, k.SampleIntent())

	assert.True(t, k.KeyDown("ArrowDown"))
	assert.Equal(t, Intent{Lateral: 1}, k.SampleIntent(), "opposite keys cancel")

	assert.False(t, k.KeyDown("Space"))
	assert.True(t, k.KeyUp("KeyD"))
	assert.True(t, k.KeyUp("KeyS"))
	assert.Equal(t, Intent{Forward: 1}, k.SampleIntent())
	assert.True(t, k.Pressed(DirectionForward))
	assert.False(t, k.Pressed(Direction(99)))

	k.KeyDown("KeyA")
	assert.Equal(t, Intent{Lateral: -1, Forward: 1}, k.SampleIntent())

	k.Reset()
	assert.Equal(t, Intent{}, k.SampleIntent())
}

func TestTouchSource(t *testing.T) {
	ts := NewTouchSource()
	ts.TouchStart(DirectionForward)
	ts.TouchStart(DirectionForward)
	ts.TouchStart(DirectionLeft)
	assert.Equal(t, Intent{Lateral: -1, Forward: 1}, ts.SampleIntent())

	ts.TouchEnd(DirectionForward)
	assert.Equal(t, Intent{Lateral: -1, Forward: 1}, ts.SampleIntent(), "second finger still down")

	ts.TouchEnd(DirectionForward)
	ts.TouchEnd(DirectionForward)
	ts.TouchEnd(DirectionLeft)
	assert.Equal(t, Intent{}, ts.SampleIntent())

	ts.TouchStart(DirectionBackward)
	assert.Equal(t, Intent{Forward: -1}, ts.SampleIntent())
	ts.Reset()
	assert.Equal(t, Intent{}, ts.SampleIntent())
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("right")
	assert.True(t, ok)
	assert.Equal(t, DirectionRight, d)

	_, ok = ParseDirection("up")
	assert.False(t, ok)
}

func TestGamepadSource(t *testing.T) {
	session := NewSessionState()
	g := NewGamepadSource(session)

	session.Update(false, []XRInputSource{{Handedness: HandRight, Gamepad: &Gamepad{Axes: []float64{0, 0, 1, -1}}}})
	assert.Equal(t, Intent{}, g.SampleIntent(), "not presenting")

	session.Update(true, nil)
	assert.Equal(t, Intent{}, g.SampleIntent(), "no sources")

	session.Update(true, []XRInputSource{
		{Handedness: HandLeft, Gamepad: &Gamepad{Axes: []float64{0, 0, -1, 1}}},
		{Handedness: HandRight, Gamepad: &Gamepad{Axes: []float64{0, 0, 0.5, -1}}},
	})
	assert.Equal(t, Intent{Lateral: 0.5, Forward: 1}, g.SampleIntent(), "right hand preferred")

	session.Update(true, []XRInputSource{
		{Handedness: HandLeft, Gamepad: &Gamepad{Axes: []float64{0, 0, -1, 0.25}}},
		{Handedness: HandNone},
	})
	assert.Equal(t, Intent{Lateral: -1, Forward: -0.25}, g.SampleIntent(), "falls back to index 0")

	session.Update(true, []XRInputSource{{Handedness: HandRight, Gamepad: &Gamepad{Axes: []float64{0.2, -0.4}}}})
	assert.Equal(t, Intent{Lateral: 0.2, Forward: 0.4}, g.SampleIntent(), "touchpad pair")

	session.Update(true, []XRInputSource{{Handedness: HandRight, Gamepad: &Gamepad{Axes: []float64{1}}}})
	assert.Equal(t, Intent{}, g.SampleIntent())

	session.Update(true, []XRInputSource{{Handedness: HandRight}})
	assert.Equal(t, Intent{}, g.SampleIntent(), "no gamepad")

	session.Update(true, []XRInputSource{{Handedness: HandRight, Gamepad: &Gamepad{Axes: []float64{0, 0, math.NaN(), -3}}}})
	assert.Equal(t, Intent{Lateral: 0, Forward: 1}, g.SampleIntent(), "sanitized axes")

	assert.Equal(t, Intent{}, NewGamepadSource(nil).SampleIntent())
}
