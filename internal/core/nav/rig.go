package nav

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

// Rig is the frame of reference the resolver rotates intent into and moves.
// On desktop it is the camera itself; in an immersive session it is the
// group the headset pose is relative to.
type Rig interface {
	// Position is the world position rays are cast from.
	Position() mgl64.Vec3
	// Direction is the world-space view direction.
	Direction() mgl64.Vec3
	// Yaw is the heading about +Y that locomotion follows. It stays
	// defined when Direction points straight up or down.
	Yaw() float64
	Translate(delta mgl64.Vec3)
	MoveTo(p mgl64.Vec3)
}

// Yaw recovers the rotation about +Y from a world view direction: the
// angle to (0,0,-1) on the XZ plane, negated when the direction leans
// towards +X. Straight up or down yields 0.
func Yaw(direction mgl64.Vec3) float64 {
	flat := physics.SafeNormalize(mgl64.Vec3{direction.X(), 0, direction.Z()})
	if flat == (mgl64.Vec3{}) {
		return 0
	}
	angle := math.Acos(mgl64.Clamp(flat.Dot(physics.Forward), -1, 1))
	if flat.X() > 0 {
		angle = -angle
	}
	return angle
}

// yawFromRight recovers the heading from a world right axis, which keeps
// its horizontal extent at any pitch. A rolled-over right axis falls back
// to the view direction.
func yawFromRight(right, direction mgl64.Vec3) float64 {
	if math.Hypot(right.X(), right.Z()) < 1e-6 {
		return Yaw(direction)
	}
	return math.Atan2(-right.Z(), right.X())
}

// RotateYaw rotates a local vector about +Y by yaw radians.
func RotateYaw(v mgl64.Vec3, yaw float64) mgl64.Vec3 {
	return mgl64.QuatRotate(yaw, physics.Up).Rotate(v)
}

// Camera is the desktop and mobile rig: a free camera with pointer-lock
// style yaw/pitch look.
type Camera struct {
	position mgl64.Vec3
	yaw      float64
	pitch    float64
}

var _ Rig = (*Camera)(nil)

// NewCamera places a camera looking down -Z.
func NewCamera(position mgl64.Vec3) *Camera {
	return &Camera{position: position}
}

func (c *Camera) Position() mgl64.Vec3 { return c.position }

func (c *Camera) Translate(delta mgl64.Vec3) { c.position = c.position.Add(delta) }

func (c *Camera) MoveTo(p mgl64.Vec3) { c.position = p }

// Look adds a mouse-look delta. Pitch is clamped to straight up/down.
func (c *Camera) Look(dYaw, dPitch float64) {
	c.SetOrientation(c.yaw+dYaw, c.pitch+dPitch)
}

// SetOrientation replaces yaw and pitch, in radians.
func (c *Camera) SetOrientation(yaw, pitch float64) {
	if math.IsNaN(yaw) || math.IsInf(yaw, 0) {
		yaw = c.yaw
	}
	if math.IsNaN(pitch) || math.IsInf(pitch, 0) {
		pitch = c.pitch
	}
	c.yaw = math.Remainder(yaw, 2*math.Pi)
	c.pitch = mgl64.Clamp(pitch, -math.Pi/2, math.Pi/2)
}

func (c *Camera) Yaw() float64 { return c.yaw }

// Orientation returns yaw and pitch in radians.
func (c *Camera) Orientation() (yaw, pitch float64) { return c.yaw, c.pitch }

func (c *Camera) Direction() mgl64.Vec3 {
	q := mgl64.QuatRotate(c.yaw, physics.Up).Mul(mgl64.QuatRotate(c.pitch, physics.Right))
	return q.Rotate(physics.Forward)
}

// XRRig is the immersive rig: a movable group holding the tracked headset.
// Locomotion moves the group; the headset orientation only steers.
type XRRig struct {
	position mgl64.Vec3
	yaw      float64
	head     mgl64.Quat
}

var _ Rig = (*XRRig)(nil)

func NewXRRig(position mgl64.Vec3) *XRRig {
	return &XRRig{position: position, head: mgl64.QuatIdent()}
}

func (r *XRRig) Position() mgl64.Vec3 { return r.position }

func (r *XRRig) Translate(delta mgl64.Vec3) { r.position = r.position.Add(delta) }

func (r *XRRig) MoveTo(p mgl64.Vec3) { r.position = p }

// SetHeadOrientation stores the headset pose orientation relative to the
// group. Degenerate quaternions are ignored.
func (r *XRRig) SetHeadOrientation(q mgl64.Quat) {
	l := q.Len()
	if l < 1e-9 || math.IsNaN(l) || math.IsInf(l, 0) {
		return
	}
	r.head = q.Normalize()
}

// Turn rotates the group about +Y, e.g. for snap turning.
func (r *XRRig) Turn(dYaw float64) {
	r.yaw = math.Remainder(r.yaw+dYaw, 2*math.Pi)
}

func (r *XRRig) Direction() mgl64.Vec3 {
	return mgl64.QuatRotate(r.yaw, physics.Up).Mul(r.head).Rotate(physics.Forward)
}

// Yaw combines the group yaw with the headset heading.
func (r *XRRig) Yaw() float64 {
	q := mgl64.QuatRotate(r.yaw, physics.Up).Mul(r.head)
	return yawFromRight(q.Rotate(physics.Right), q.Rotate(physics.Forward))
}
