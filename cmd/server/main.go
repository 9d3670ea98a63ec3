package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"
	"golang.org/x/sync/errgroup"

	"github.com/ibreez3/lawbot/config"
	"github.com/ibreez3/lawbot/observability"
	"github.com/ibreez3/lawbot/server"
	"github.com/ibreez3/lawbot/service"
	"github.com/ibreez3/lawbot/settings"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.Setup(ctx, "lawbot", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	log := slog.Default()
	client := service.NewChatClient(cfg, log)
	mgr := service.NewManager(client, store).
		WithFallbackCredential(cfg.OpenRouter.APIKey).
		WithTranscriptDir(cfg.Transcript.Dir).
		WithLogger(log)

	srv := server.New(mgr, log)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting lawbot", "addr", addr, "model", client.Model())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gCtx, addr)
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down", "active_sessions", len(mgr.List()))
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (settings.Store, func() error, error) {
	store, closeFn, err := settings.Open(ctx, settings.RedisConfig{
		URL:       cfg.Redis.URL,
		Password:  cfg.Redis.Password,
		Namespace: cfg.Redis.Namespace,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.URL == "" {
		slog.Info("Using in-memory settings store")
	} else {
		slog.Info("Using Redis settings store")
	}
	return store, closeFn, nil
}
