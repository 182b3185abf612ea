package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/lunarnav/internal/config"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	listen := flag.String("listen", "", "override server.listen_addr")
	flag.Parse()

	if err := run(*configPath, *listen); err != nil {
		fmt.Fprintln(os.Stderr, "Error running server:", err)
		os.Exit(1)
	}
}

func run(configPath, listen string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if listen != "" {
		cfg.Server.ListenAddr = listen
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("Starting navigation server",
		log.String("config", configPath),
		log.String("listen_addr", cfg.Server.ListenAddr),
		log.String("settings_backend", cfg.Settings.Backend))

	if err := app.Server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return app.Server.Close()
}
