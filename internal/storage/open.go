package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/config"
	"github.com/Veraticus/proforma/internal/sensitivity"
	"github.com/Veraticus/proforma/internal/service"
)

// Open returns the table store selected by cfg.CacheBackend. SQLite stores
// are migrated before they are returned.
func Open(ctx context.Context, cfg config.Sensitivity) (service.TableStore, error) {
	switch cfg.CacheBackend {
	case "", config.CacheMemory:
		return sensitivity.NewMemoryStore(), nil
	case config.CacheSQLite:
		store, err := NewSQLiteTableStore(config.ExpandPath(cfg.SQLitePath), cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate table cache: %w", err)
		}
		return store, nil
	case config.CacheRedis:
		return NewRedisTableStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidConfig, cfg.CacheBackend)
	}
}
