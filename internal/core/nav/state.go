package nav

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionState is the outcome of the most recent raycast.
type CollisionState uint8

const (
	CollisionNone CollisionState = iota
	CollisionMesh
)

func (c CollisionState) String() string {
	if c == CollisionMesh {
		return "mesh"
	}
	return "none"
}

// Mode selects the input device family and the tuning that goes with it.
type Mode uint8

const (
	ModeDesktop Mode = iota
	ModeMobile
	ModeImmersive
)

func (m Mode) String() string {
	switch m {
	case ModeMobile:
		return "mobile"
	case ModeImmersive:
		return "immersive"
	default:
		return "desktop"
	}
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "desktop", "":
		return ModeDesktop, nil
	case "mobile":
		return ModeMobile, nil
	case "immersive", "vr", "xr":
		return ModeImmersive, nil
	default:
		return ModeDesktop, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// NavigationState is everything the resolver carries from one frame to the
// next.
//
// Velocity is in the rig's local frame: X lateral, Z forward, with driving
// forward making Z negative. CollisionPoint and Direction are only
// meaningful while Collided is set.
type NavigationState struct {
	Velocity       mgl64.Vec3
	Collision      CollisionState
	CollisionPoint mgl64.Vec3
	Direction      mgl64.Vec3
	Proximity      float64
	Collided       bool
}

// Transition names which edge of the FREE/COLLIDED machine a frame took.
type Transition uint8

const (
	// TransitionFree is FREE to FREE.
	TransitionFree Transition = iota
	// TransitionEnter is FREE to COLLIDED.
	TransitionEnter
	// TransitionHold is COLLIDED to COLLIDED.
	TransitionHold
	// TransitionRelease is COLLIDED to FREE.
	TransitionRelease
)

func (t Transition) String() string {
	switch t {
	case TransitionEnter:
		return "enter"
	case TransitionHold:
		return "hold"
	case TransitionRelease:
		return "release"
	default:
		return "free"
	}
}
