// Package storage selects an oracle response cache backend from configuration.
package storage

import (
	"fmt"

	"github.com/felixgeelhaar/toolplan/domain/cache"
	"github.com/felixgeelhaar/toolplan/domain/config"
	"github.com/felixgeelhaar/toolplan/infrastructure/storage/badger"
	"github.com/felixgeelhaar/toolplan/infrastructure/storage/memory"
	"github.com/felixgeelhaar/toolplan/infrastructure/storage/redis"
)

// NewCache opens the configured backend. It returns nil when caching is off.
// Callers should close the result if it implements cache.Closer.
func NewCache(cfg config.CacheConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case config.CacheMemory, "":
		return memory.NewCache(memory.WithMaxSize(cfg.MaxSize)), nil

	case config.CacheBadger:
		opts := []badger.Option{badger.WithKeyPrefix(cfg.Prefix)}
		if cfg.Path == "" {
			opts = append(opts, badger.WithInMemory())
		} else {
			opts = append(opts, badger.WithDir(cfg.Path))
		}
		c, err := badger.NewCache(badger.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		return c, nil

	case config.CacheRedis:
		c, err := redis.NewCache(redis.DefaultConfig(),
			redis.WithAddrs(cfg.Addr),
			redis.WithPassword(cfg.Password),
			redis.WithDB(cfg.DB),
			redis.WithKeyPrefix(cfg.Prefix),
		)
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Close releases backends holding connections or files. Nil is allowed.
func Close(c cache.Cache) error {
	if closer, ok := c.(cache.Closer); ok {
		return closer.Close()
	}
	return nil
}
