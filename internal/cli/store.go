package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"mathflix/internal/app"
	"mathflix/internal/config"
	filestore "mathflix/internal/infra/file"
	"mathflix/internal/infra/memory"
	pgstore "mathflix/internal/infra/postgres"
	redisstore "mathflix/internal/infra/redis"
)

// openStore builds the configured KeyValueStore. The returned close function
// releases any underlying connections.
func openStore(ctx context.Context, cfg config.Config) (app.KeyValueStore, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case "", "memory":
		return memory.NewStore(), noop, nil

	case "file":
		dir := cfg.File.Dir
		if dir == "" {
			dir = "data"
		}
		store, err := filestore.NewStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Redis.TTL, 0)
		return redisstore.NewStore(client, ttl), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		ttl := config.TTLDuration(cfg.Storage.CacheTTL, 10*time.Minute)
		return memory.NewCachedStore(pgstore.NewStore(pool), ttl), pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
