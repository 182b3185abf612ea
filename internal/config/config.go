package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/lunarnav/internal/core/nav"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/scene"
)

// Settings backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config is the whole process configuration, read from one YAML document.
type Config struct {
	Server     ServerConfig   `json:"server" yaml:"server"`
	Log        LogConfig      `json:"log" yaml:"log"`
	Navigation nav.Config     `json:"navigation" yaml:"navigation"`
	Scene      scene.Config   `json:"scene" yaml:"scene"`
	Settings   SettingsConfig `json:"settings" yaml:"settings"`
}

// ServerConfig holds the session server settings
type ServerConfig struct {
	ListenAddr      string        `json:"listen_addr" yaml:"listen_addr"`
	MaxSessions     int           `json:"max_sessions" yaml:"max_sessions"`
	ReadLimit       int64         `json:"read_limit" yaml:"read_limit"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	// AllowedModes restricts the ?mode= a session may open or switch to.
	AllowedModes []string `json:"allowed_modes" yaml:"allowed_modes"`
	// Spawn positions per rig.
	CameraStart [3]float64 `json:"camera_start" yaml:"camera_start"`
	XRStart     [3]float64 `json:"xr_start" yaml:"xr_start"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type SettingsConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
}

// Default returns a configuration that validates as is.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8080",
			MaxSessions:     1000,
			ReadLimit:       64 * 1024,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedModes:    []string{"desktop", "mobile", "immersive"},
			CameraStart:     [3]float64{0, 3, 30},
			XRStart:         [3]float64{0, 5, 15},
		},
		Log:        LogConfig{Level: "info"},
		Navigation: nav.DefaultConfig(),
		Scene:      scene.DefaultConfig(),
		Settings:   SettingsConfig{Backend: BackendFile, Path: "data/settings.yaml"},
	}
}

// Load decodes r over Default and validates the result. An empty document
// yields the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Navigation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Scene.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Settings.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Settings.Path == "" {
			return fmt.Errorf("%w: settings.path is required for the file backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown settings backend %q", ErrInvalidConfig, c.Settings.Backend)
	}
	return nil
}

func (s ServerConfig) Validate() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("%w: server.max_sessions must be positive", ErrInvalidConfig)
	}
	if s.ReadLimit <= 0 {
		return fmt.Errorf("%w: server.read_limit must be positive", ErrInvalidConfig)
	}
	if s.WriteTimeout <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: server timeouts must be positive", ErrInvalidConfig)
	}
	if len(s.AllowedModes) == 0 {
		return fmt.Errorf("%w: server.allowed_modes is empty", ErrInvalidConfig)
	}
	if _, err := s.Modes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Modes parses AllowedModes.
func (s ServerConfig) Modes() ([]nav.Mode, error) {
	modes := make([]nav.Mode, 0, len(s.AllowedModes))
	for _, name := range s.AllowedModes {
		m, err := nav.ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// LogLevel parses Log.Level, falling back to info.
func (c Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Log.Level)
	return l
}
