package nav

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

// Frame is the per-frame input to Resolver.Step.
type Frame struct {
	// DT is the elapsed time since the previous frame, in seconds.
	DT     float64
	Intent Intent
	Rig    Rig
}

// Result reports what a frame did.
type Result struct {
	Collision  CollisionState
	Transition Transition
	// Position is the rig position after the frame.
	Position mgl64.Vec3
	// Delta is the translation applied to the rig this frame.
	Delta mgl64.Vec3
	// Hit is the surface that caused contact, valid on TransitionEnter
	// and TransitionHold.
	Hit physics.Hit
}

// Resolver turns intent into rig motion and stops the viewer short of
// geometry. It keeps no per-frame state of its own; everything lives in
// the NavigationState handed to Step.
type Resolver struct {
	cfg   Config
	mode  Mode
	world physics.Intersector
}

// NewResolver builds a resolver. A nil world never reports contact.
func NewResolver(cfg Config, mode Mode, world physics.Intersector) *Resolver {
	return &Resolver{cfg: cfg, mode: mode, world: world}
}

func (r *Resolver) Mode() Mode { return r.mode }

func (r *Resolver) Config() Config { return r.cfg }

// NewState returns a resting state with the current mode's proximity.
func (r *Resolver) NewState() NavigationState {
	return NavigationState{Proximity: r.cfg.Params(r.mode).Proximity}
}

// SetMode switches tuning. While pinned the widened proximity stays in
// force and the new default is picked up on release.
func (r *Resolver) SetMode(state *NavigationState, mode Mode) {
	r.mode = mode
	if !state.Collided {
		state.Proximity = r.cfg.Params(mode).Proximity
	}
}

// restSpeed is the horizontal speed, in m/s, below which a coasting viewer
// is brought to rest.
const restSpeed = 1e-3

// Step advances one frame. It never fails: a missing rig, an empty world
// or a degenerate intent all degrade to "no movement, no collision".
//
// Contact is tested against the whole distance the rig is about to cover,
// not just the standoff: a frame whose travel would end inside the standoff
// of a surface clamps to that standoff instead.
func (r *Resolver) Step(state *NavigationState, f Frame) Result {
	if f.Rig == nil {
		return Result{Collision: CollisionNone}
	}
	params := r.cfg.Params(r.mode)
	dt := r.clampDelta(f.DT)
	start := f.Rig.Position()
	yaw := f.Rig.Yaw()

	if f.Intent.Len() < r.cfg.DeadZone {
		state.Collision = CollisionNone
		if state.Collided {
			r.release(state)
			return r.result(f.Rig, start, TransitionRelease, physics.Hit{})
		}
		return r.coast(state, f.Rig, params, yaw, dt, start)
	}

	intent := f.Intent.Normalize()
	direction := physics.SafeNormalize(RotateYaw(intent.Local(), yaw))

	if state.Collided {
		hit, ok := r.intersect(start, direction, r.cfg.Far)
		if ok && hit.Distance < state.Proximity {
			state.Collision = CollisionMesh
			state.Velocity = mgl64.Vec3{}
			f.Rig.MoveTo(state.CollisionPoint)
			return r.result(f.Rig, start, TransitionHold, hit)
		}
		r.release(state)
		return r.result(f.Rig, start, TransitionRelease, physics.Hit{})
	}

	r.damp(state, params.Damping, dt)
	state.Velocity[0] -= intent.Lateral * params.Speed * dt
	state.Velocity[2] -= intent.Forward * params.Speed * dt
	delta := r.displacement(state, yaw, dt)

	ahead := math.Max(0, delta.Dot(direction))
	hit, ok := r.intersect(start, direction, r.reach(ahead, state.Proximity))
	if ok && hit.Distance < state.Proximity+ahead {
		return r.enter(state, f.Rig, start, direction, hit)
	}
	if hit, dir, ok := r.sweep(start, delta, direction, state.Proximity); ok {
		return r.enter(state, f.Rig, start, dir, hit)
	}

	state.Collision = CollisionNone
	r.move(f.Rig, delta)
	return r.result(f.Rig, start, TransitionFree, physics.Hit{})
}

// coast lets residual velocity decay with no input. Motion that is still
// under way is checked against the world like driven motion.
func (r *Resolver) coast(state *NavigationState, rig Rig, params ModeParams, yaw, dt float64, start mgl64.Vec3) Result {
	r.damp(state, params.Damping, dt)
	if dt > 0 && math.Hypot(state.Velocity[0], state.Velocity[2]) < restSpeed {
		state.Velocity = mgl64.Vec3{}
		return r.result(rig, start, TransitionFree, physics.Hit{})
	}

	delta := r.displacement(state, yaw, dt)
	if hit, dir, ok := r.sweep(start, delta, mgl64.Vec3{}, state.Proximity); ok {
		return r.enter(state, rig, start, dir, hit)
	}
	r.move(rig, delta)
	return r.result(rig, start, TransitionFree, physics.Hit{})
}

// sweep casts along this frame's travel. It is skipped when the travel runs
// along the already cast intent ray.
func (r *Resolver) sweep(start, delta, along mgl64.Vec3, proximity float64) (physics.Hit, mgl64.Vec3, bool) {
	travel := delta.Len()
	if travel == 0 {
		return physics.Hit{}, mgl64.Vec3{}, false
	}
	dir := delta.Mul(1 / travel)
	if along != (mgl64.Vec3{}) && dir.Dot(along) > 1-1e-9 {
		return physics.Hit{}, mgl64.Vec3{}, false
	}
	hit, ok := r.intersect(start, dir, r.reach(travel, proximity))
	if !ok || hit.Distance >= travel+proximity {
		return physics.Hit{}, mgl64.Vec3{}, false
	}
	return hit, dir, true
}

// enter pins the rig at the standoff in front of hit, seen along direction.
func (r *Resolver) enter(state *NavigationState, rig Rig, start, direction mgl64.Vec3, hit physics.Hit) Result {
	state.Collision = CollisionMesh
	state.Velocity = mgl64.Vec3{}
	state.CollisionPoint = hit.Point.Sub(direction.Mul(state.Proximity))
	state.Direction = direction
	state.Collided = true
	state.Proximity *= r.cfg.HoldFactor
	rig.MoveTo(state.CollisionPoint)
	return r.result(rig, start, TransitionEnter, hit)
}

// reach is the ray length needed to see travel plus the standoff.
func (r *Resolver) reach(travel, proximity float64) float64 {
	return math.Max(r.cfg.Far, travel+proximity)
}

func (r *Resolver) clampDelta(dt float64) float64 {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0
	}
	if r.cfg.MaxFrameDelta > 0 && dt > r.cfg.MaxFrameDelta {
		return r.cfg.MaxFrameDelta
	}
	return dt
}

// damp applies v *= (1 - k*dt) to the horizontal components. The factor
// never goes past a full stop.
func (r *Resolver) damp(state *NavigationState, k, dt float64) {
	f := math.Min(k*dt, 1)
	state.Velocity[0] -= state.Velocity[0] * f
	state.Velocity[2] -= state.Velocity[2] * f
}

// displacement is the world translation -v*dt along the rig's local right
// and forward axes.
func (r *Resolver) displacement(state *NavigationState, yaw, dt float64) mgl64.Vec3 {
	if dt == 0 || (state.Velocity[0] == 0 && state.Velocity[2] == 0) {
		return mgl64.Vec3{}
	}
	right := RotateYaw(physics.Right, yaw)
	forward := RotateYaw(physics.Forward, yaw)
	delta := right.Mul(-state.Velocity[0] * dt).Add(forward.Mul(-state.Velocity[2] * dt))
	if !physics.IsFinite(delta) {
		return mgl64.Vec3{}
	}
	return delta
}

func (r *Resolver) move(rig Rig, delta mgl64.Vec3) {
	if delta != (mgl64.Vec3{}) {
		rig.Translate(delta)
	}
}

func (r *Resolver) release(state *NavigationState) {
	state.Collided = false
	state.Collision = CollisionNone
	state.CollisionPoint = mgl64.Vec3{}
	state.Direction = mgl64.Vec3{}
	state.Proximity = r.cfg.Params(r.mode).Proximity
}

func (r *Resolver) intersect(origin, direction mgl64.Vec3, far float64) (physics.Hit, bool) {
	if r.world == nil || direction == (mgl64.Vec3{}) {
		return physics.Hit{}, false
	}
	hit, ok := r.world.Intersect(origin, direction, r.cfg.Near, far)
	if !ok || math.IsNaN(hit.Distance) || !physics.IsFinite(hit.Point) {
		return physics.Hit{}, false
	}
	return hit, true
}

func (r *Resolver) result(rig Rig, start mgl64.Vec3, t Transition, hit physics.Hit) Result {
	pos := rig.Position()
	collision := CollisionNone
	if t == TransitionEnter || t == TransitionHold {
		collision = CollisionMesh
	}
	return Result{
		Collision:  collision,
		Transition: t,
		Position:   pos,
		Delta:      pos.Sub(start),
		Hit:        hit,
	}
}
