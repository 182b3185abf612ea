package nav

import (
	"math"
	"sync"
	"sync/atomic"
)

// Direction names one of the four movement flags.
type Direction uint8

const (
	DirectionForward Direction = iota
	DirectionBackward
	DirectionLeft
	DirectionRight
	directionCount
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection accepts the names produced by Direction.String.
func ParseDirection(s string) (Direction, bool) {
	for d := DirectionForward; d < directionCount; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

func flagIntent(forward, backward, left, right bool) Intent {
	return Intent{
		Lateral: b2f(right) - b2f(left),
		Forward: b2f(forward) - b2f(backward),
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var keyBindings = map[string]Direction{
	"ArrowUp":    DirectionForward,
	"KeyW":       DirectionForward,
	"ArrowDown":  DirectionBackward,
	"KeyS":       DirectionBackward,
	"ArrowLeft":  DirectionLeft,
	"KeyA":       DirectionLeft,
	"ArrowRight": DirectionRight,
	"KeyD":       DirectionRight,
}

// KeyboardSource tracks WASD and arrow keys. KeyDown/KeyUp may be called
// from any goroutine; SampleIntent reads whatever was written last.
type KeyboardSource struct {
	flags [directionCount]atomic.Bool
}

func NewKeyboardSource() *KeyboardSource {
	return &KeyboardSource{}
}

// KeyDown handles a key-down event by DOM key code. It reports whether the
// code is bound to a direction.
func (k *KeyboardSource) KeyDown(code string) bool {
	return k.set(code, true)
}

// KeyUp handles a key-up event by DOM key code.
func (k *KeyboardSource) KeyUp(code string) bool {
	return k.set(code, false)
}

func (k *KeyboardSource) set(code string, down bool) bool {
	d, ok := keyBindings[code]
	if !ok {
		return false
	}
	k.flags[d].Store(down)
	return true
}

// Pressed reports the current flag for d.
func (k *KeyboardSource) Pressed(d Direction) bool {
	if d >= directionCount {
		return false
	}
	return k.flags[d].Load()
}

// Reset clears every flag, e.g. when pointer lock is lost.
func (k *KeyboardSource) Reset() {
	for i := range k.flags {
		k.flags[i].Store(false)
	}
}

func (k *KeyboardSource) SampleIntent() Intent {
	return flagIntent(
		k.flags[DirectionForward].Load(),
		k.flags[DirectionBackward].Load(),
		k.flags[DirectionLeft].Load(),
		k.flags[DirectionRight].Load(),
	)
}

// TouchSource backs the four on-screen movement buttons of the mobile
// layout. Each button counts the fingers resting on it.
type TouchSource struct {
	touches [directionCount]atomic.Int32
}

func NewTouchSource() *TouchSource {
	return &TouchSource{}
}

// TouchStart registers a finger on the button for d.
func (t *TouchSource) TouchStart(d Direction) {
	if d < directionCount {
		t.touches[d].Add(1)
	}
}

// TouchEnd lifts a finger from the button for d. Unbalanced ends are
// ignored.
func (t *TouchSource) TouchEnd(d Direction) {
	if d >= directionCount {
		return
	}
	for {
		n := t.touches[d].Load()
		if n <= 0 || t.touches[d].CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Reset lifts every finger, e.g. on touchcancel.
func (t *TouchSource) Reset() {
	for i := range t.touches {
		t.touches[i].Store(0)
	}
}

func (t *TouchSource) held(d Direction) bool {
	return t.touches[d].Load() > 0
}

func (t *TouchSource) SampleIntent() Intent {
	return flagIntent(
		t.held(DirectionForward),
		t.held(DirectionBackward),
		t.held(DirectionLeft),
		t.held(DirectionRight),
	)
}

// Handedness values reported by XR input sources.
const (
	HandRight = "right"
	HandLeft  = "left"
	HandNone  = "none"
)

// Thumbstick axis indices on xr-standard gamepads. Older controllers only
// expose the touchpad pair.
const (
	axisStickX    = 2
	axisStickY    = 3
	axisTouchpadX = 0
	axisTouchpadY = 1
)

// Gamepad is the slice of the Gamepad API the navigator reads.
type Gamepad struct {
	Axes []float64
}

// XRInputSource is one tracked controller of an immersive session.
type XRInputSource struct {
	Handedness string
	Gamepad    *Gamepad
}

// XRSession is the live view of an immersive session's input sources.
type XRSession interface {
	Presenting() bool
	InputSources() []XRInputSource
}

// GamepadSource reads locomotion from the right-hand controller's stick.
type GamepadSource struct {
	session XRSession
}

func NewGamepadSource(session XRSession) *GamepadSource {
	return &GamepadSource{session: session}
}

func (g *GamepadSource) SampleIntent() Intent {
	if g.session == nil || !g.session.Presenting() {
		return Intent{}
	}
	sources := g.session.InputSources()
	if len(sources) == 0 {
		return Intent{}
	}

	hand := 0
	for i, src := range sources {
		if src.Handedness == HandRight {
			hand = i
			break
		}
	}

	pad := sources[hand].Gamepad
	if pad == nil {
		return Intent{}
	}

	// Stick-forward is negative on the wire.
	switch {
	case len(pad.Axes) > axisStickY:
		return Intent{Lateral: axis(pad.Axes[axisStickX]), Forward: -axis(pad.Axes[axisStickY])}
	case len(pad.Axes) > axisTouchpadY:
		return Intent{Lateral: axis(pad.Axes[axisTouchpadX]), Forward: -axis(pad.Axes[axisTouchpadY])}
	default:
		return Intent{}
	}
}

func axis(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// SessionState is an XRSession whose snapshot is replaced wholesale by the
// input plumbing each time the browser reports new controller state.
type SessionState struct {
	mu         sync.RWMutex
	presenting bool
	sources    []XRInputSource
}

func NewSessionState() *SessionState {
	return &SessionState{}
}

// Update stores a new snapshot. The slice is copied.
func (s *SessionState) Update(presenting bool, sources []XRInputSource) {
	cp := make([]XRInputSource, len(sources))
	copy(cp, sources)
	s.mu.Lock()
	s.presenting = presenting
	s.sources = cp
	s.mu.Unlock()
}

func (s *SessionState) Presenting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presenting
}

func (s *SessionState) InputSources() []XRInputSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sources
}
