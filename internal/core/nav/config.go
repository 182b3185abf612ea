package nav

import "fmt"

// ModeParams tunes integration and collision for one navigation mode.
// Terminal speed is Speed/Damping.
type ModeParams struct {
	Speed     float64 `yaml:"speed" json:"speed"`
	Damping   float64 `yaml:"damping" json:"damping"`
	Proximity float64 `yaml:"proximity" json:"proximity"`
}

// Config holds the navigation constants. Desktop parameters also apply to
// the mobile (touch) mode.
type Config struct {
	Desktop   ModeParams `yaml:"desktop" json:"desktop"`
	Immersive ModeParams `yaml:"immersive" json:"immersive"`

	// Near and Far bound the collision ray.
	Near float64 `yaml:"near" json:"near"`
	Far  float64 `yaml:"far" json:"far"`

	// DeadZone is the raw intent magnitude below which a frame counts as
	// no input at all.
	DeadZone float64 `yaml:"dead_zone" json:"dead_zone"`

	// HoldFactor widens the proximity while pinned so the viewer, parked
	// exactly at the standoff, keeps registering contact.
	HoldFactor float64 `yaml:"hold_factor" json:"hold_factor"`

	// MaxFrameDelta caps dt in seconds; zero disables the cap.
	MaxFrameDelta float64 `yaml:"max_frame_delta" json:"max_frame_delta"`
}

// DefaultConfig returns the viewer's stock tuning.
func DefaultConfig() Config {
	return Config{
		Desktop: ModeParams{
			Speed:     400,
			Damping:   10,
			Proximity: 0.75,
		},
		Immersive: ModeParams{
			Speed:     50,
			Damping:   10,
			Proximity: 0.3,
		},
		Near:          0,
		Far:           2,
		DeadZone:      0.05,
		HoldFactor:    1.5,
		MaxFrameDelta: 0.1,
	}
}

// Params returns the tuning for mode.
func (c Config) Params(mode Mode) ModeParams {
	if mode == ModeImmersive {
		return c.Immersive
	}
	return c.Desktop
}

// Validate checks the ranges the resolver relies on.
func (c Config) Validate() error {
	for _, mode := range []Mode{ModeDesktop, ModeImmersive} {
		p := c.Params(mode)
		if p.Speed < 0 {
			return fmt.Errorf("%w: %s speed must not be negative", ErrInvalidConfig, mode)
		}
		if p.Damping < 0 {
			return fmt.Errorf("%w: %s damping must not be negative", ErrInvalidConfig, mode)
		}
		// v -= v*k*dt must not flip the sign of v within one capped frame.
		if c.MaxFrameDelta > 0 && p.Damping*c.MaxFrameDelta > 1 {
			return fmt.Errorf("%w: %s damping %.2f overshoots at max frame delta %.3f", ErrInvalidConfig, mode, p.Damping, c.MaxFrameDelta)
		}
		if p.Proximity <= 0 {
			return fmt.Errorf("%w: %s proximity must be positive", ErrInvalidConfig, mode)
		}
		if p.Proximity*c.HoldFactor > c.Far {
			return fmt.Errorf("%w: %s held proximity %.2f exceeds ray far %.2f", ErrInvalidConfig, mode, p.Proximity*c.HoldFactor, c.Far)
		}
	}
	if c.Near < 0 || c.Far <= c.Near {
		return fmt.Errorf("%w: ray bounds near=%.2f far=%.2f", ErrInvalidConfig, c.Near, c.Far)
	}
	if c.DeadZone < 0 || c.DeadZone >= 1 {
		return fmt.Errorf("%w: dead zone must be in [0,1)", ErrInvalidConfig)
	}
	if c.HoldFactor < 1 {
		return fmt.Errorf("%w: hold factor must be at least 1", ErrInvalidConfig)
	}
	if c.MaxFrameDelta < 0 {
		return fmt.Errorf("%w: max frame delta must not be negative", ErrInvalidConfig)
	}
	return nil
}
