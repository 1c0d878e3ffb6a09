package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/events"
	"murmur/internal/ipc"
	"murmur/internal/logging"
	"murmur/internal/store"
	"murmur/internal/transcription"
	"murmur/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		os.Exit(1)
	}

	bus := events.NewBus(events.DefaultCapacity)
	files, err := watcher.New(cfg, st, bus, logger)
	if err != nil {
		logger.Error("init watcher", logging.Error(err))
		os.Exit(1)
	}
	queue := transcription.NewManager(st, bus, cfg, nil, logger)

	d, err := daemon.New(cfg, st, bus, files, queue, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("murmurd shutting down")
}
