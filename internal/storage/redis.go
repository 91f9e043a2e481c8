package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// DefaultRedisPrefix namespaces sensitivity keys.
const DefaultRedisPrefix = "uw:sensitivity:"

// RedisOptions configures a RedisTableStore.
type RedisOptions struct {
	Addr     string
	Password string
	Prefix   string
	DB       int
	TTL      time.Duration
}

// RedisTableStore implements service.TableStore on Redis so several
// processes share generated tables.
type RedisTableStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ service.TableStore = (*RedisTableStore)(nil)

// redisEntry is the stored JSON document.
type redisEntry struct {
	CreatedAt  time.Time              `json:"created_at"`
	VersionID  string                 `json:"version_id"`
	IRR        model.SensitivityTable `json:"irr_table"`
	MOIC       model.SensitivityTable `json:"moic_table"`
	MaxPrice   float64                `json:"max_price"`
	MinCapRate float64                `json:"min_cap_rate"`
}

// NewRedisTableStore connects to Redis and verifies the connection.
func NewRedisTableStore(ctx context.Context, opts RedisOptions) (*RedisTableStore, error) {
	if err := validateString(opts.Addr, "addr"); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return newRedisTableStore(client, opts), nil
}

func newRedisTableStore(client *redis.Client, opts RedisOptions) *RedisTableStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisTableStore{client: client, prefix: prefix, ttl: opts.TTL}
}

// Get returns the stored entry for versionID.
func (r *RedisTableStore) Get(ctx context.Context, versionID string) (*service.CachedTables, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(versionID, "versionID"); err != nil {
		return nil, err
	}

	val, err := r.client.Get(ctx, r.key(versionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("tables for version %s: %w", versionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensitivity tables: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode sensitivity tables: %w", err)
	}
	return &service.CachedTables{
		Key: model.SensitivityKey{
			VersionID:  stored.VersionID,
			MaxPrice:   stored.MaxPrice,
			MinCapRate: stored.MinCapRate,
		},
		Result:    model.SensitivityResult{IRR: stored.IRR, MOIC: stored.MOIC},
		CreatedAt: stored.CreatedAt,
	}, nil
}

// Put replaces the entry for the key's version, expiring it after the
// configured TTL.
func (r *RedisTableStore) Put(ctx context.Context, entry service.CachedTables) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data, err := json.Marshal(redisEntry{
		VersionID:  entry.Key.VersionID,
		MaxPrice:   entry.Key.MaxPrice,
		MinCapRate: entry.Key.MinCapRate,
		IRR:        entry.Result.IRR,
		MOIC:       entry.Result.MOIC,
		CreatedAt:  createdAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode sensitivity tables: %w", err)
	}

	if err := r.client.Set(ctx, r.key(entry.Key.VersionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save sensitivity tables: %w", err)
	}
	return nil
}

// Delete removes the entry for versionID.
func (r *RedisTableStore) Delete(ctx context.Context, versionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(versionID, "versionID"); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(versionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete sensitivity tables: %w", err)
	}
	return nil
}

// Versions lists stored version ids.
func (r *RedisTableStore) Versions(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		versions []string
		cursor   uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 200).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensitivity keys: %w", err)
		}
		for _, k := range keys {
			versions = append(versions, k[len(r.prefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return versions, nil
}

// Close closes the Redis connection.
func (r *RedisTableStore) Close() error {
	return r.client.Close()
}

func (r *RedisTableStore) key(versionID string) string {
	return r.prefix + versionID
}
