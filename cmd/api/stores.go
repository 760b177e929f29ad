package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/pkg/config"
	"storefront/pkg/database"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	ordermem "storefront/pkg/order/memory"
	orderpg "storefront/pkg/order/postgres"
	"storefront/pkg/product"
	productmem "storefront/pkg/product/memory"
	productpg "storefront/pkg/product/postgres"
	"storefront/pkg/session"
	"storefront/pkg/user"
	usermem "storefront/pkg/user/memory"
	userpg "storefront/pkg/user/postgres"
)

type stores struct {
	orders   order.Repository
	products product.Repository
	users    user.Repository
	close    func() error
}

func (s stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openStores picks the repository backend named by STORE. Postgres is
// migrated before use.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (stores, error) {
	if cfg.Store != config.BackendPostgres {
		return stores{
			orders:   ordermem.New(),
			products: productmem.New(),
			users:    usermem.New(),
		}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		db.Close()
		return stores{}, err
	}
	return stores{
		orders:   orderpg.New(db),
		products: productpg.New(db),
		users:    userpg.New(db),
		close:    db.Close,
	}, nil
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	if cfg.SessionStore != config.BackendRedis {
		return session.NewMemoryStore(cfg.SessionTTL), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), client.Close, nil
}
