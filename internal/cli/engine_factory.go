package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lathe"
	"github.com/aretw0/lathe/internal/config"
	"github.com/aretw0/lathe/pkg/adapters/redis"
	"github.com/aretw0/lathe/pkg/domain"
)

// NewEngine initializes a lathe engine with standard CLI conventions.
// When a Redis address is configured the video lock is shared through
// Redis; the returned close function releases that connection.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*lathe.Engine, func() error, error) {
	opts := []lathe.Option{
		lathe.WithConfig(cfg),
		lathe.WithLogger(logger),
		lathe.WithLifecycleHooks(createDebugHooks(logger)),
	}
	for _, h := range hooks {
		opts = append(opts, lathe.WithLifecycleHooks(h))
	}

	closeFn := func() error { return nil }
	if cfg.RedisAddr != "" {
		client, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using redis lock", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		opts = append(opts, lathe.WithLocker(redis.NewLocker(client, cfg.RedisPrefix)))
		closeFn = client.Close
	}

	engine, err := lathe.New(opts...)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, closeFn, nil
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(e domain.NodeEvent) {
			logger.Debug("Node Start", "node_id", e.NodeID, "call_id", e.CallID)
		},
		OnNodeFinish: func(e domain.NodeEvent) {
			if e.Err != nil {
				logger.Debug("Node Finish (Error)", "node_id", e.NodeID, "call_id", e.CallID, "err", e.Err)
			} else {
				logger.Debug("Node Finish (Success)", "node_id", e.NodeID, "call_id", e.CallID, "duration", e.Duration)
			}
		},
	}
}
