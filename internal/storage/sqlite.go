// Package storage persists sensitivity results between runs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteTableStore implements service.TableStore using SQLite.
type SQLiteTableStore struct {
	db     *sql.DB
	dbPath string
	ttl    time.Duration
}

var _ service.TableStore = (*SQLiteTableStore)(nil)

// NewSQLiteTableStore opens (creating if needed) the database at dbPath.
// Entries older than ttl read as missing; zero keeps them forever.
func NewSQLiteTableStore(dbPath string, ttl time.Duration) (*SQLiteTableStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteTableStore{db: db, dbPath: dbPath, ttl: ttl}, nil
}

// Close closes the database connection.
func (s *SQLiteTableStore) Close() error {
	return s.db.Close()
}

// Get returns the stored entry for versionID.
func (s *SQLiteTableStore) Get(ctx context.Context, versionID string) (*service.CachedTables, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(versionID, "versionID"); err != nil {
		return nil, err
	}

	var (
		entry     service.CachedTables
		irrJSON   string
		moicJSON  string
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version_id, max_price, min_cap_rate, irr_table, moic_table, created_at
		FROM sensitivity_tables
		WHERE version_id = ?
	`, versionID).Scan(
		&entry.Key.VersionID,
		&entry.Key.MaxPrice,
		&entry.Key.MinCapRate,
		&irrJSON,
		&moicJSON,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tables for version %s: %w", versionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensitivity tables: %w", err)
	}

	if s.ttl > 0 && time.Since(createdAt) > s.ttl {
		return nil, fmt.Errorf("tables for version %s expired: %w", versionID, common.ErrNotFound)
	}

	if err := json.Unmarshal([]byte(irrJSON), &entry.Result.IRR); err != nil {
		return nil, fmt.Errorf("failed to decode irr table: %w", err)
	}
	if err := json.Unmarshal([]byte(moicJSON), &entry.Result.MOIC); err != nil {
		return nil, fmt.Errorf("failed to decode moic table: %w", err)
	}
	entry.CreatedAt = createdAt
	return &entry, nil
}

// Put replaces the entry for the key's version.
func (s *SQLiteTableStore) Put(ctx context.Context, entry service.CachedTables) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	irrJSON, err := encodeTable(entry.Result.IRR)
	if err != nil {
		return err
	}
	moicJSON, err := encodeTable(entry.Result.MOIC)
	if err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	// Stored as text; Prune compares it against a UTC cutoff.
	createdAt = createdAt.UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sensitivity_tables (version_id, max_price, min_cap_rate, irr_table, moic_table, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(version_id) DO UPDATE SET
			max_price = excluded.max_price,
			min_cap_rate = excluded.min_cap_rate,
			irr_table = excluded.irr_table,
			moic_table = excluded.moic_table,
			created_at = excluded.created_at
	`, entry.Key.VersionID, entry.Key.MaxPrice, entry.Key.MinCapRate, irrJSON, moicJSON, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save sensitivity tables: %w", err)
	}
	return nil
}

// Delete removes the entry for versionID. Deleting a missing entry is not
// an error.
func (s *SQLiteTableStore) Delete(ctx context.Context, versionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(versionID, "versionID"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sensitivity_tables WHERE version_id = ?`, versionID); err != nil {
		return fmt.Errorf("failed to delete sensitivity tables: %w", err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns how many went.
func (s *SQLiteTableStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM sensitivity_tables WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sensitivity tables: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

// Versions lists the stored version ids, newest first.
func (s *SQLiteTableStore) Versions(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT version_id FROM sensitivity_tables ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensitivity tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func encodeTable(t model.SensitivityTable) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to encode table: %w", err)
	}
	return string(data), nil
}
