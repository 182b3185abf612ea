package settings

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// SceneSettings is the saved state of the viewer's display panel.
type SceneSettings struct {
	Water         WaterSettings     `json:"water" yaml:"water"`
	Moon          MoonSettings      `json:"moon" yaml:"moon"`
	Billboard     BillboardSettings `json:"billboard" yaml:"billboard"`
	Ambient       AmbientSettings   `json:"ambient" yaml:"ambient"`
	Bloom         BloomSettings     `json:"bloom" yaml:"bloom"`
	Sun           SunSettings       `json:"sun" yaml:"sun"`
	LightsInModel bool              `json:"lightsInModel" yaml:"lights_in_model"`
}

type WaterSettings struct {
	DistortionScale float64 `json:"distortionScale" yaml:"distortion_scale"`
	Size            float64 `json:"size" yaml:"size"`
	Color           string  `json:"color" yaml:"color"`
	Time            float64 `json:"time" yaml:"time"`
	PosY            float64 `json:"posY" yaml:"pos_y"`
	PosZ            float64 `json:"posZ" yaml:"pos_z"`
	ScaleX          float64 `json:"scaleX" yaml:"scale_x"`
	ScaleZ          float64 `json:"scaleZ" yaml:"scale_z"`
}

// MoonSettings places the model. Rotation is in degrees.
type MoonSettings struct {
	PosX   float64 `json:"posX" yaml:"pos_x"`
	PosY   float64 `json:"posY" yaml:"pos_y"`
	PosZ   float64 `json:"posZ" yaml:"pos_z"`
	RotX   float64 `json:"rotX" yaml:"rot_x"`
	RotY   float64 `json:"rotY" yaml:"rot_y"`
	RotZ   float64 `json:"rotZ" yaml:"rot_z"`
	ScaleX float64 `json:"scaleX" yaml:"scale_x"`
	ScaleY float64 `json:"scaleY" yaml:"scale_y"`
	ScaleZ float64 `json:"scaleZ" yaml:"scale_z"`
}

type BillboardSettings struct {
	Scale   float64 `json:"scale" yaml:"scale"`
	Opacity float64 `json:"opacity" yaml:"opacity"`
}

type AmbientSettings struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Color     string  `json:"color" yaml:"color"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

type BloomSettings struct {
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Exposure  float64 `json:"exposure" yaml:"exposure"`
	Strength  float64 `json:"strength" yaml:"strength"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Radius    float64 `json:"radius" yaml:"radius"`
}

type SunSettings struct {
	Rotation  float64 `json:"rotation" yaml:"rotation"`
	Color     string  `json:"color" yaml:"color"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// Default returns the panel's initial values.
func Default() SceneSettings {
	return SceneSettings{
		Water: WaterSettings{
			DistortionScale: 3.7,
			Size:            1,
			Color:           "0x000000",
			Time:            1,
			ScaleX:          1,
			ScaleZ:          1,
		},
		Moon: MoonSettings{
			PosY:   10,
			PosZ:   -10,
			RotX:   radsToDegrees(-1),
			RotY:   radsToDegrees(-0.5),
			ScaleX: 4,
			ScaleY: 4,
			ScaleZ: 4,
		},
		Billboard: BillboardSettings{Scale: 1, Opacity: 0.5},
		Ambient:   AmbientSettings{Color: "0xffffff", Intensity: 1},
		Bloom: BloomSettings{
			Exposure:  1,
			Strength:  1.76,
			Threshold: 0.05,
			Radius:    2.36,
		},
		Sun: SunSettings{Color: "0xffffff", Intensity: 0.5},
	}
}

func radsToDegrees(r float64) float64 { return r * 180 / math.Pi }

var colorPattern = regexp.MustCompile(`^(0x|#)[0-9a-fA-F]{6}$`)

// Validate checks the ranges the panel enforces.
func (s SceneSettings) Validate() error {
	for name, c := range map[string]string{
		"water.color":   s.Water.Color,
		"ambient.color": s.Ambient.Color,
		"sun.color":     s.Sun.Color,
	} {
		if !colorPattern.MatchString(c) {
			return fmt.Errorf("%w: %s %q is not a hex colour", ErrInvalidSettings, name, c)
		}
	}
	if s.Ambient.Intensity < 0 || s.Ambient.Intensity > 3 {
		return fmt.Errorf("%w: ambient.intensity must be within [0,3]", ErrInvalidSettings)
	}
	if s.Sun.Intensity < 0 {
		return fmt.Errorf("%w: sun.intensity must not be negative", ErrInvalidSettings)
	}
	if s.Billboard.Opacity < 0 || s.Billboard.Opacity > 1 {
		return fmt.Errorf("%w: billboard.opacity must be within [0,1]", ErrInvalidSettings)
	}
	for name, v := range map[string]float64{
		"moon.scale_x": s.Moon.ScaleX,
		"moon.scale_y": s.Moon.ScaleY,
		"moon.scale_z": s.Moon.ScaleZ,
	} {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a non-zero number", ErrInvalidSettings, name)
		}
	}
	return nil
}

// Encode renders s as the YAML document the file store writes.
func Encode(s SceneSettings) ([]byte, error) {
	return yaml.Marshal(s)
}

// Checksum hashes the encoded document; equal settings hash equally.
func Checksum(s SceneSettings) (uint64, error) {
	b, err := Encode(s)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// ETag formats a checksum as a strong HTTP entity tag.
func ETag(sum uint64) string {
	return `"` + strconv.FormatUint(sum, 16) + `"`
}
