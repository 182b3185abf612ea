package nav

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Intent is the per-frame desired movement in the viewer's local frame.
// Lateral is positive to the right, Forward is positive ahead.
type Intent struct {
	Lateral float64
	Forward float64
}

// Len is the raw magnitude, before normalization.
func (i Intent) Len() float64 {
	l := math.Hypot(i.Lateral, i.Forward)
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return 0
	}
	return l
}

// IsZero reports whether both components are zero.
func (i Intent) IsZero() bool {
	return i.Lateral == 0 && i.Forward == 0
}

// Normalize scales the intent to unit length so diagonals are not faster
// than single axes. A zero (or non-finite) intent normalizes to zero.
func (i Intent) Normalize() Intent {
	l := i.Len()
	if l == 0 {
		return Intent{}
	}
	return Intent{Lateral: i.Lateral / l, Forward: i.Forward / l}
}

// Local maps the intent onto the rig's local axes: lateral along +X,
// forward along -Z.
func (i Intent) Local() mgl64.Vec3 {
	return mgl64.Vec3{i.Lateral, 0, -i.Forward}
}

// IntentSource produces one intent per frame from whatever input device
// backs it. Sampling never mutates navigation state.
type IntentSource interface {
	SampleIntent() Intent
}

// IntentSourceFunc adapts a function to IntentSource.
type IntentSourceFunc func() Intent

func (f IntentSourceFunc) SampleIntent() Intent { return f() }
