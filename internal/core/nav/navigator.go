package nav

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/systems/physics"
)

// Event types published by a Navigator.
const (
	EventCollisionBegin = "nav.collision.begin"
	EventCollisionEnd   = "nav.collision.end"
	EventModeChanged    = "nav.mode.changed"
)

// CollisionEvent is the payload of the collision events.
type CollisionEvent struct {
	Mode      Mode
	Point     mgl64.Vec3
	Direction mgl64.Vec3
	Hit       physics.Hit
}

// ModeEvent is the payload of EventModeChanged.
type ModeEvent struct {
	From, To Mode
}

type binding struct {
	source IntentSource
	rig    Rig
}

// Navigator is the per-frame entry point the render driver calls. It owns
// the navigation state and binds each mode to its intent source and rig;
// switching mode swaps both.
type Navigator struct {
	id       string
	resolver *Resolver
	state    NavigationState
	mode     Mode
	bindings map[Mode]binding
	bus      bus.EventBus
	logger   log.Log
	last     Result
}

type Option func(*Navigator)

// WithBus publishes collision and mode events on b.
func WithBus(b bus.EventBus) Option {
	return func(n *Navigator) { n.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(n *Navigator) { n.logger = l }
}

// WithID sets the event source name, typically the owning session ID.
func WithID(id string) Option {
	return func(n *Navigator) { n.id = id }
}

// NewNavigator creates a navigator in mode with no bindings yet.
func NewNavigator(cfg Config, mode Mode, world physics.Intersector, opts ...Option) *Navigator {
	n := &Navigator{
		id:       "navigator",
		resolver: NewResolver(cfg, mode, world),
		mode:     mode,
		bindings: make(map[Mode]binding),
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(log.String("navigator", n.id))
	n.state = n.resolver.NewState()
	return n
}

func (n *Navigator) ID() string { return n.id }

// Bind attaches a source and rig to mode.
func (n *Navigator) Bind(mode Mode, source IntentSource, rig Rig) {
	n.bindings[mode] = binding{source: source, rig: rig}
}

func (n *Navigator) Mode() Mode { return n.mode }

// SetMode switches to a bound mode.
func (n *Navigator) SetMode(mode Mode) error {
	if _, ok := n.bindings[mode]; !ok {
		return fmt.Errorf("%w: %s", ErrModeNotBound, mode)
	}
	if mode == n.mode {
		return nil
	}
	from := n.mode
	n.mode = mode
	n.resolver.SetMode(&n.state, mode)
	n.logger.Info("Navigation mode changed",
		log.String("from", from.String()),
		log.String("to", mode.String()))
	n.publish(EventModeChanged, ModeEvent{From: from, To: mode})
	return nil
}

// Rig returns the rig bound to the current mode, or nil.
func (n *Navigator) Rig() Rig { return n.bindings[n.mode].rig }

// Update samples the current source and advances one frame of dt seconds.
// An unbound mode yields an empty result.
func (n *Navigator) Update(dt float64) Result {
	b, ok := n.bindings[n.mode]
	if !ok || b.rig == nil {
		return Result{}
	}
	var intent Intent
	if b.source != nil {
		intent = b.source.SampleIntent()
	}
	res := n.resolver.Step(&n.state, Frame{DT: dt, Intent: intent, Rig: b.rig})
	n.last = res

	switch res.Transition {
	case TransitionEnter:
		n.logger.Debug("Collision began",
			log.String("object", res.Hit.Name),
			log.Float64("distance", res.Hit.Distance),
			log.Vec3("point", n.state.CollisionPoint))
		n.publish(EventCollisionBegin, CollisionEvent{
			Mode:      n.mode,
			Point:     n.state.CollisionPoint,
			Direction: n.state.Direction,
			Hit:       res.Hit,
		})
	case TransitionRelease:
		n.logger.Debug("Collision ended", log.Vec3("position", res.Position))
		n.publish(EventCollisionEnd, CollisionEvent{Mode: n.mode, Point: res.Position})
	}
	return res
}

// Collided reports whether the viewer is currently pinned.
func (n *Navigator) Collided() bool { return n.state.Collided }

// State returns a copy of the navigation state.
func (n *Navigator) State() NavigationState { return n.state }

// Last returns the result of the most recent Update.
func (n *Navigator) Last() Result { return n.last }

func (n *Navigator) publish(eventType string, data any) {
	if n.bus == nil {
		return
	}
	err := n.bus.Publish(bus.NewEvent(eventType, n.id, data, map[string]any{"mode": n.mode.String()}))
	if err != nil {
		n.logger.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}
