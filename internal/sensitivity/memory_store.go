package sensitivity

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/service"
)

// MemoryStore is a process-local TableStore. Entries are replaced whole and
// returned as copies.
type MemoryStore struct {
	entries map[string]service.CachedTables
	mu      sync.RWMutex
}

var _ service.TableStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]service.CachedTables)}
}

// Get returns the entry for versionID or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, versionID string) (*service.CachedTables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[versionID]
	if !ok {
		return nil, fmt.Errorf("tables for version %s: %w", versionID, common.ErrNotFound)
	}
	entry.Result = entry.Result.Clone()
	return &entry, nil
}

// Put replaces the entry for the key's version.
func (m *MemoryStore) Put(ctx context.Context, entry service.CachedTables) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Result = entry.Result.Clone()
	m.entries[entry.Key.VersionID] = entry
	return nil
}

// Delete removes the entry for versionID.
func (m *MemoryStore) Delete(ctx context.Context, versionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, versionID)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
