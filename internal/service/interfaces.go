// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/proforma/internal/model"
)

// SensitivityRequest asks the remote engine for IRR and MOIC matrices.
type SensitivityRequest struct {
	GoogleSheetURL string  `json:"google_sheet_url"`
	MaxPrice       float64 `json:"max_price"`
	MinCapRate     float64 `json:"min_cap_rate"`
	VersionID      string  `json:"version_id"`
}

// SensitivityResponse is the outcome of a generation request. Pending is
// set when the engine accepted the request and is still computing; Payload
// is nil in that case unless the body carried a status.
type SensitivityResponse struct {
	StatusCode int
	Pending    bool
	Payload    *model.SensitivityTablesPayload
}

// ModelRef identifies a model version. An empty VersionID means the
// model's current version.
type ModelRef struct {
	ModelID   string
	VersionID string
}

// ModelSource fetches model versions.
type ModelSource interface {
	GetModel(ctx context.Context, ref ModelRef) (*model.Model, error)
}

// SensitivityBackend is the remote recalculation engine.
type SensitivityBackend interface {
	// RequestSensitivity issues exactly one generation request.
	RequestSensitivity(ctx context.Context, req SensitivityRequest) (*SensitivityResponse, error)
	// FetchSensitivity re-reads the sensitivity payload embedded in the
	// model version. A nil payload means nothing is stored yet.
	FetchSensitivity(ctx context.Context, ref ModelRef) (*model.SensitivityTablesPayload, error)
}

// CachedTables is a stored sensitivity result and the key that produced it.
type CachedTables struct {
	Key       model.SensitivityKey
	Result    model.SensitivityResult
	CreatedAt time.Time
}

// TableStore caches sensitivity results by version. A version holds at most
// one entry; Put replaces it whole.
type TableStore interface {
	Get(ctx context.Context, versionID string) (*CachedTables, error)
	Put(ctx context.Context, entry CachedTables) error
	Delete(ctx context.Context, versionID string) error
	Close() error
}

// TableSource extracts table mappings from a model's workbook.
type TableSource interface {
	ExtractTables(ctx context.Context, spreadsheetID string) ([]model.TableMapping, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
