// Package testutil provides shared test fixtures: migrated sensitivity
// table caches and sample matrices.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
	"github.com/Veraticus/proforma/internal/storage"
)

// TestCache is a file-backed SQLite table cache scoped to one test.
type TestCache struct {
	Store *storage.SQLiteTableStore
	t     *testing.T
	// Path is the database file, for code that opens the cache by config.
	Path string
}

// SetupTableCache creates a migrated cache in the test's temp dir and seeds
// it with entries. The store is closed when the test ends.
//
// Example:
//
//	cache := testutil.SetupTableCache(t, testutil.CachedTables("v1", 1500000, 6.5))
//	cfg.CacheBackend, cfg.SQLitePath = config.CacheSQLite, cache.Path
func SetupTableCache(t *testing.T, entries ...service.CachedTables) *TestCache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tables.db")
	store, err := storage.NewSQLiteTableStore(path, 0)
	if err != nil {
		t.Fatalf("failed to create test cache: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	for _, e := range entries {
		if err := store.Put(ctx, e); err != nil {
			t.Fatalf("failed to seed %s: %v", e.Key, err)
		}
	}

	return &TestCache{Store: store, Path: path, t: t}
}

// MustGet returns the cached entry for versionID or fails the test.
func (c *TestCache) MustGet(versionID string) service.CachedTables {
	c.t.Helper()
	entry, err := c.Store.Get(context.Background(), versionID)
	if err != nil || entry == nil {
		c.t.Fatalf("no cached tables for %q: %v", versionID, err)
	}
	return *entry
}

// Matrix builds a 3x3 table whose first labels are minCapRate and maxPrice.
// Cap rates step by 0.5 points and prices by 5%; each value is base plus
// its row and column index.
func Matrix(maxPrice, minCapRate, base float64) model.SensitivityTable {
	t := model.SensitivityTable{
		CapRates:          make([]float64, 3),
		AcquisitionPrices: make([]float64, 3),
		Values:            make([][]float64, 3),
	}
	for i := range 3 {
		t.CapRates[i] = minCapRate + 0.5*float64(i)
		t.AcquisitionPrices[i] = maxPrice * (1 + 0.05*float64(i))
		t.Values[i] = make([]float64, 3)
		for j := range 3 {
			t.Values[i][j] = base + float64(i+j)
		}
	}
	return t
}

// CachedTables is a cache entry for the given inputs with IRR values from
// 12 and MOIC values from 1.5.
func CachedTables(versionID string, maxPrice, minCapRate float64) service.CachedTables {
	return service.CachedTables{
		Key: model.SensitivityKey{VersionID: versionID, MaxPrice: maxPrice, MinCapRate: minCapRate},
		Result: model.SensitivityResult{
			IRR:  Matrix(maxPrice, minCapRate, 12),
			MOIC: Matrix(maxPrice, minCapRate, 1.5),
		},
		CreatedAt: time.Now(),
	}
}
