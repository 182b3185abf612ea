package server

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/lunarnav/internal/core/nav"
)

// Client message types.
const (
	MessageKey   = "key"
	MessageTouch = "touch"
	MessageXR    = "xr"
	MessageLook  = "look"
	MessageHead  = "head"
	MessageMode  = "mode"
	MessageTick  = "tick"
)

// Server message types.
const (
	MessagePose      = "pose"
	MessageCollision = "collision"
	MessageSettings  = "settings"
	MessageError     = "error"
	MessageWelcome   = "welcome"
)

// ClientMessage is every message a browser sends. Only the fields of the
// given Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// key
	Code string `json:"code,omitempty"`
	Down bool   `json:"down,omitempty"`

	// touch
	Button string `json:"button,omitempty"`

	// xr
	Presenting bool            `json:"presenting,omitempty"`
	Sources    []XRSourceState `json:"sources,omitempty"`

	// look
	Yaw   float64 `json:"yaw,omitempty"`
	Pitch float64 `json:"pitch,omitempty"`

	// head, as x, y, z, w
	Orientation []float64 `json:"orientation,omitempty"`

	// mode
	Mode string `json:"mode,omitempty"`

	// tick, in seconds
	DT float64 `json:"dt,omitempty"`
}

// XRSourceState mirrors one XRInputSource with its gamepad axes.
type XRSourceState struct {
	Handedness string    `json:"handedness"`
	Axes       []float64 `json:"axes,omitempty"`
}

func (x XRSourceState) toNav() nav.XRInputSource {
	src := nav.XRInputSource{Handedness: x.Handedness}
	if x.Axes != nil {
		src.Gamepad = &nav.Gamepad{Axes: append([]float64(nil), x.Axes...)}
	}
	return src
}

type WelcomeMessage struct {
	Type    string     `json:"type"`
	Session string     `json:"session"`
	Mode    string     `json:"mode"`
	Pose    [3]float64 `json:"position"`
}

// PoseMessage reports the rig after a tick.
type PoseMessage struct {
	Type       string     `json:"type"`
	Mode       string     `json:"mode"`
	Position   [3]float64 `json:"position"`
	Direction  [3]float64 `json:"direction"`
	Collided   bool       `json:"collided"`
	Collision  string     `json:"collision"`
	Transition string     `json:"transition"`
}

type CollisionMessage struct {
	Type   string     `json:"type"`
	Phase  string     `json:"phase"`
	Point  [3]float64 `json:"point"`
	Object string     `json:"object,omitempty"`
}

type SettingsMessage struct {
	Type    string `json:"type"`
	ETag    string `json:"etag,omitempty"`
	Cleared bool   `json:"cleared,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func vec(v mgl64.Vec3) [3]float64 { return [3]float64(v) }
