package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/proforma/internal/service"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidEntry = errors.New("invalid sensitivity entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return ctx.Err()
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry checks that an entry has a version and matrices whose
// value rows line up with the cap-rate axis.
func validateEntry(entry service.CachedTables) error {
	if strings.TrimSpace(entry.Key.VersionID) == "" {
		return fmt.Errorf("%w: version id is required", ErrInvalidEntry)
	}
	if len(entry.Result.IRR.Values) > len(entry.Result.IRR.CapRates) {
		return fmt.Errorf("%w: irr table has %d rows for %d cap rates",
			ErrInvalidEntry, len(entry.Result.IRR.Values), len(entry.Result.IRR.CapRates))
	}
	if len(entry.Result.MOIC.Values) > len(entry.Result.MOIC.CapRates) {
		return fmt.Errorf("%w: moic table has %d rows for %d cap rates",
			ErrInvalidEntry, len(entry.Result.MOIC.Values), len(entry.Result.MOIC.CapRates))
	}
	return nil
}
