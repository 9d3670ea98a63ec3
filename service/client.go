package service

import (
	"log/slog"

	"github.com/ibreez3/lawbot/chat"
	"github.com/ibreez3/lawbot/config"
	"github.com/ibreez3/lawbot/openrouter"
)

// NewChatClient wires an OpenRouter-backed chat.Client from cfg. Every caller in the
// process should share the returned client so they share its rate limiter.
func NewChatClient(cfg config.Config, log *slog.Logger) *chat.Client {
	t := openrouter.New(openrouter.Config{
		BaseURL:        cfg.OpenRouter.BaseURL,
		Referer:        cfg.OpenRouter.Referer,
		Title:          cfg.OpenRouter.Title,
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
	})
	return chat.NewClient(t).
		WithLimiter(chat.NewRateLimiter(cfg.MinInterval())).
		WithRetryPolicy(chat.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.InitialDelay(),
			MaxDelay:     cfg.MaxDelay(),
		}).
		WithModel(cfg.OpenRouter.Model, temperature(cfg), cfg.OpenRouter.MaxTokens).
		WithLogger(log)
}

// temperature returns -1 for an unset value so the client keeps its default.
func temperature(cfg config.Config) float64 {
	if cfg.OpenRouter.Temperature == nil {
		return -1
	}
	return *cfg.OpenRouter.Temperature
}
