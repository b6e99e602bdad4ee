package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/solenne/chorus/internal/config"
	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/application/usecases"
	"github.com/solenne/chorus/internal/player/infrastructure"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/chorusd
var version = "dev"

func main() {
	// Configure JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Best-effort .env for local development
	_ = godotenv.Load()

	slog.Info("starting chorusd", "version", version)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	bus := infrastructure.NewChannelEventBus(cfg.EventBufferSize)

	var (
		engine  ports.Engine
		scanner ports.LibraryScanner
		library ports.TrackSource
		binder  interface{ BindSyncReporter(ports.SyncReporter) }
	)

	switch cfg.EngineMode {
	case config.EngineModeRemote:
		remote, err := infrastructure.NewRemoteEngine(infrastructure.RemoteEngineConfig{
			Address:  cfg.EngineAddress,
			Password: cfg.EnginePassword,
		}, bus)
		if err != nil {
			slog.Error("failed to connect to remote engine", "error", err)
			os.Exit(1)
		}
		engine, scanner, library, binder = remote, remote, remote, remote

	default:
		demo := infrastructure.NewDemoEngine(bus)
		source, err := infrastructure.NewSqliteTrackSource(cfg.LibraryDBPath)
		if err != nil {
			slog.Error("failed to open library database", "error", err)
			os.Exit(1)
		}
		defer source.Close()
		engine, scanner, library, binder = demo, demo, source, demo
	}

	var checkpoints ports.CheckpointStore = infrastructure.NoopCheckpointStore{}
	if cfg.RedisAddress != "" {
		store, err := infrastructure.NewRedisCheckpointStore(infrastructure.RedisCheckpointConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		checkpoints = store
	}

	coordinator := usecases.NewSyncCoordinator(scanner, bus)
	binder.BindSyncReporter(coordinator)

	manager := usecases.NewSessionManager(
		engine,
		library,
		checkpoints,
		bus,
		time.Duration(cfg.PositionTickMS)*time.Millisecond,
	)

	// Engine pushes flow back into the session through the bus.
	bus.OnTrackEnded(manager.HandleTrackEnded)
	bus.OnTrackUnavailable(manager.HandleTrackUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := manager.RestoreCheckpoint(ctx); err != nil {
		slog.Warn("could not restore playback checkpoint", "error", err)
	}
	cancel()

	slog.Info("player core ready",
		"engine", cfg.EngineMode,
		"sync_required", coordinator.IsSyncRequired(),
	)

	// The UI shells hold references to manager and coordinator and issue
	// commands from here on; this process owns their lifetime.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	manager.Close()
	if err := engine.Close(); err != nil {
		slog.Warn("engine close failed", "error", err)
	}
	bus.Close()

	slog.Info("completed shutdown")
}
