package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/ibreez3/lawbot/config"
	"github.com/ibreez3/lawbot/service"
	"github.com/ibreez3/lawbot/settings"
)

var (
	cfgPath string
	isDebug bool
	apiKey  string
	model   string
)

var rootCmd = &cobra.Command{
	Use:   "lawbot",
	Short: "LawBot legal information assistant",
	Long: `LawBot answers questions about laws and advocacy practices through a hosted
language model on OpenRouter. It provides general legal information, not legal advice.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "OpenRouter API key (overrides the stored key and the environment)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use instead of the configured one")
}

// setup loads config, installs logging and returns a session manager. The caller must
// invoke the returned close function.
func setup(ctx context.Context) (*service.Manager, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	slogLevel := slog.LevelWarn
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.Kitchen,
	})

	if model != "" {
		cfg.OpenRouter.Model = model
	}
	store, closeStore, err := settings.Open(ctx, settings.RedisConfig{
		URL:       cfg.Redis.URL,
		Password:  cfg.Redis.Password,
		Namespace: cfg.Redis.Namespace,
	})
	if err != nil {
		return nil, nil, err
	}

	fallback := cfg.OpenRouter.APIKey
	if apiKey != "" {
		fallback = apiKey
		// An explicit flag wins over whatever is stored.
		if err := settings.SaveCredential(ctx, store, apiKey); err != nil {
			_ = closeStore()
			return nil, nil, err
		}
	}

	mgr := service.NewManager(service.NewChatClient(cfg, slog.Default()), store).
		WithFallbackCredential(fallback).
		WithTranscriptDir(cfg.Transcript.Dir)
	return mgr, func() { _ = closeStore() }, nil
}
