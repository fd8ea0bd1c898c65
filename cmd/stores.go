package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/shaharia-lab/stockbell/internal/broadcast"
	"github.com/shaharia-lab/stockbell/internal/config"
	"github.com/shaharia-lab/stockbell/internal/storage"
)

// stores bundles the persistence backends selected by configuration.
type stores struct {
	kv            storage.KVStore
	notifications storage.NotificationStore // nil with the memory backend
	redis         *redis.Client
	closers       []func() error
}

// openStores opens the KV backend and, unless running fully in memory, the
// SQLite database holding the notification log.
func openStores(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*stores, error) {
	s := &stores{}

	if cfg.StoreBackend != config.StoreMemory {
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if fresh {
			logger.Info("created database", "path", cfg.DBPath())
		}
		s.notifications = storage.NewSQLiteNotificationStore(db)
		if cfg.StoreBackend == config.StoreSQLite {
			s.kv = storage.NewSQLiteKVStore(db)
		}
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := s.redisClient(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.kv = storage.NewRedisKVStore(client, cfg.RedisKeyPrefix)
	case config.StoreMemory:
		s.kv = storage.NewMemoryKVStore()
	}
	logger.Info("storage ready", "backend", cfg.StoreBackend)
	return s, nil
}

func (s *stores) redisClient(ctx context.Context, cfg *config.AppConfig) (*redis.Client, error) {
	if s.redis != nil {
		return s.redis, nil
	}
	client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	s.redis = client
	s.closers = append(s.closers, client.Close)
	return client, nil
}

// Close releases every backend, newest first.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
	s.closers = nil
}

// newCoordinator builds the snapshot coordinator selected by configuration.
func newCoordinator(ctx context.Context, cfg *config.AppConfig, s *stores, logger *slog.Logger) (broadcast.Coordinator, error) {
	switch cfg.Coordinator {
	case config.CoordinatorRedis:
		client, err := s.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c, err := broadcast.NewRedisCoordinator(ctx, client, cfg.CoordinatorChannel, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.CoordinatorNATS:
		c, err := broadcast.NewNATSCoordinator(cfg.NATSURL, cfg.CoordinatorChannel, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return broadcast.NewBus(2, logger), nil
	}
}
