package scene

import (
	"fmt"
)

// Shapes understood by ObjectConfig.
const (
	ShapeBox    = "box"
	ShapeSphere = "sphere"
	ShapePlane  = "plane"
)

// FloorConfig describes the ground plane.
type FloorConfig struct {
	Width float64 `yaml:"width" json:"width"`
	Depth float64 `yaml:"depth" json:"depth"`
	// Collidable adds the floor to the set rays are tested against.
	// Locomotion rays are horizontal, so this only matters for a rig whose
	// origin sits on the floor plane.
	Collidable bool `yaml:"collidable" json:"collidable"`
}

// ObjectConfig describes one primitive placed in the world. Rotation is in
// degrees; a zero scale component means 1.
type ObjectConfig struct {
	Name        string     `yaml:"name" json:"name"`
	Shape       string     `yaml:"shape" json:"shape"`
	Size        [3]float64 `yaml:"size,omitempty" json:"size,omitempty"`
	Radius      float64    `yaml:"radius,omitempty" json:"radius,omitempty"`
	Segments    [2]int     `yaml:"segments,omitempty" json:"segments,omitempty"`
	Position    [3]float64 `yaml:"position" json:"position"`
	Rotation    [3]float64 `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Scale       [3]float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	DoubleSided bool       `yaml:"double_sided,omitempty" json:"double_sided,omitempty"`
	Hidden      bool       `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	// Helper objects are drawn but never block movement.
	Helper bool `yaml:"helper,omitempty" json:"helper,omitempty"`
}

// Config is the static world the server navigates.
type Config struct {
	Floor       FloorConfig    `yaml:"floor" json:"floor"`
	Objects     []ObjectConfig `yaml:"objects" json:"objects"`
	Controllers int            `yaml:"controllers" json:"controllers"`
}

// DefaultConfig is a 500x500 floor with the moon stand-in at the origin and
// a pointer ray for each hand.
func DefaultConfig() Config {
	return Config{
		Floor: FloorConfig{Width: 500, Depth: 500},
		Objects: []ObjectConfig{
			{Name: "moon", Shape: ShapeSphere, Radius: 10, Segments: [2]int{32, 16}},
		},
		Controllers: 2,
	}
}

func (c Config) Validate() error {
	if c.Floor.Width < 0 || c.Floor.Depth < 0 {
		return fmt.Errorf("%w: floor size must not be negative", ErrInvalidConfig)
	}
	if c.Controllers < 0 {
		return fmt.Errorf("%w: controllers must not be negative", ErrInvalidConfig)
	}
	names := make(map[string]struct{}, len(c.Objects))
	for i, o := range c.Objects {
		if o.Name == "" {
			return fmt.Errorf("%w: object %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := names[o.Name]; dup {
			return fmt.Errorf("%w: duplicate object name %q", ErrInvalidConfig, o.Name)
		}
		names[o.Name] = struct{}{}
		if err := o.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (o ObjectConfig) validate() error {
	switch o.Shape {
	case ShapeBox:
		if o.Size[0] <= 0 || o.Size[1] <= 0 || o.Size[2] <= 0 {
			return fmt.Errorf("%w: box %q needs a positive size", ErrInvalidConfig, o.Name)
		}
	case ShapePlane:
		if o.Size[0] <= 0 || o.Size[2] <= 0 {
			return fmt.Errorf("%w: plane %q needs a positive width and depth", ErrInvalidConfig, o.Name)
		}
	case ShapeSphere:
		if o.Radius <= 0 {
			return fmt.Errorf("%w: sphere %q needs a positive radius", ErrInvalidConfig, o.Name)
		}
	default:
		return fmt.Errorf("%w: %q on object %q", ErrUnknownShape, o.Shape, o.Name)
	}
	return nil
}

func (o ObjectConfig) geometry() (*Geometry, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	switch o.Shape {
	case ShapeBox:
		return NewBox(o.Size[0], o.Size[1], o.Size[2]), nil
	case ShapePlane:
		return NewPlane(o.Size[0], o.Size[2]), nil
	default:
		return NewSphere(o.Radius, o.Segments[0], o.Segments[1]), nil
	}
}
