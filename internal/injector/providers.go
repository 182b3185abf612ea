package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/lunarnav/internal/config"
	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/scene"
	"github.com/zeusync/lunarnav/internal/core/systems/physics"
	"github.com/zeusync/lunarnav/internal/server"
	"github.com/zeusync/lunarnav/internal/settings"
)

// App is everything main needs to run and tear down the process.
type App struct {
	Server *server.Server
	Logger *log.Logger
	Scene  *scene.Scene
}

// ProviderSet builds an App from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideBus,
	ProvideScene,
	ProvideWorld,
	ProvideSettingsStore,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideScene(cfg config.Config) (*scene.Scene, error) {
	return scene.Build(cfg.Scene)
}

// ProvideWorld exposes the collidable part of the scene to the resolver.
func ProvideWorld(s *scene.Scene) physics.Intersector {
	return s.Raycaster()
}

func ProvideSettingsStore(cfg config.Config) (settings.Store, error) {
	switch cfg.Settings.Backend {
	case config.BackendMemory:
		return settings.NewMemoryStore(), nil
	case config.BackendFile:
		return settings.NewFileStore(cfg.Settings.Path), nil
	default:
		return nil, fmt.Errorf("%w: unknown settings backend %q", config.ErrInvalidConfig, cfg.Settings.Backend)
	}
}

func ProvideServer(cfg config.Config, world physics.Intersector, store settings.Store, b bus.EventBus, logger log.Log) (*server.Server, error) {
	return server.NewServer(cfg.Server, cfg.Navigation, world, store, b, logger)
}
