package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/agent"
	"github.com/droverhq/drover/config"
	"github.com/droverhq/drover/provider/anthropic"
	"github.com/droverhq/drover/provider/google"
	"github.com/droverhq/drover/provider/openai"
	"github.com/droverhq/drover/store"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func buildModel(ctx context.Context, cfg *config.Config) (drover.ModelClient, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider.Name)
	}

	switch cfg.Provider.Name {
	case "anthropic":
		var opts []anthropic.ClientOption
		if cfg.Provider.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Provider.Model))
		}
		return anthropic.New(key, opts...), nil
	case "openai":
		var opts []openai.ClientOption
		if cfg.Provider.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Provider.Model))
		}
		return openai.New(key, opts...), nil
	case "google":
		var opts []google.ClientOption
		if cfg.Provider.Model != "" {
			opts = append(opts, google.WithModel(cfg.Provider.Model))
		}
		return google.New(ctx, key, opts...)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
}

// buildAdapter returns the run store backend and a cleanup func.
func buildAdapter(cfg *config.Config) (store.Adapter, func() error, error) {
	switch cfg.Store.Type {
	case "memory":
		return store.NewMemoryAdapter(), func() error { return nil }, nil
	case "bolt":
		if err := os.MkdirAll(cfg.Store.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory %s: %w", cfg.Store.DataDir, err)
		}
		adapter, err := store.NewBoltAdapter(cfg.DBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening store at %s: %w", cfg.DBPath(), err)
		}
		return adapter, adapter.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		return store.NewRedisAdapter(client, "drover:"), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
}

func agentOptions(cfg *config.Config) []agent.Option {
	opts := []agent.Option{
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithRetry(cfg.RetryPolicy()),
	}
	if cfg.Agent.Timeout > 0 {
		opts = append(opts, agent.WithTimeout(cfg.Agent.Timeout))
	}
	if cfg.Agent.ModelTimeout > 0 {
		opts = append(opts, agent.WithModelTimeout(cfg.Agent.ModelTimeout))
	}
	if cfg.Agent.HandlerTimeout > 0 {
		opts = append(opts, agent.WithHandlerTimeout(cfg.Agent.HandlerTimeout))
	}
	if cfg.Agent.TerminateTool != "" {
		opts = append(opts, agent.WithTerminateTool(cfg.Agent.TerminateTool))
	}
	if cfg.Agent.ParallelTools != nil {
		opts = append(opts, agent.WithParallelToolCalls(*cfg.Agent.ParallelTools))
	}
	return opts
}
