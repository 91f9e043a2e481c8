package sensitivity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// Seeds are the inputs shown before a model supplies its own.
type Seeds struct {
	MaxPrice   float64
	MinCapRate float64
}

// Request is one generation request for a model version.
type Request struct {
	ModelID    string
	VersionID  string
	SheetURL   string
	MaxPrice   float64
	MinCapRate float64
}

// Key identifies the inputs of r.
func (r Request) Key() model.SensitivityKey {
	return model.SensitivityKey{
		VersionID:  r.VersionID,
		MaxPrice:   r.MaxPrice,
		MinCapRate: r.MinCapRate,
	}
}

// Validate reports ErrInputsNotReady unless both inputs are finite and the
// request names a spreadsheet.
func (r Request) Validate() error {
	if math.IsNaN(r.MaxPrice) || math.IsInf(r.MaxPrice, 0) ||
		math.IsNaN(r.MinCapRate) || math.IsInf(r.MinCapRate, 0) {
		return common.ErrInputsNotReady
	}
	if r.SheetURL == "" {
		return fmt.Errorf("%w: model has no spreadsheet", common.ErrInputsNotReady)
	}
	return nil
}

func (r Request) backendRequest() service.SensitivityRequest {
	return service.SensitivityRequest{
		GoogleSheetURL: r.SheetURL,
		MaxPrice:       r.MaxPrice,
		MinCapRate:     r.MinCapRate,
		VersionID:      r.VersionID,
	}
}

func (r Request) ref() service.ModelRef {
	return service.ModelRef{ModelID: r.ModelID, VersionID: r.VersionID}
}

// RequestFromModel builds a request from the acquisition price and exit cap
// rate stored on the model. Each input is resolved through the model's
// sections, then by field key, then from seeds.
func RequestFromModel(modelID string, m *model.Model, seeds Seeds) (Request, error) {
	r := fields.FromModel(m)

	maxPrice, err := ParseInput(resolveInput(r, fields.AcquisitionPrice, seeds.MaxPrice))
	if err != nil {
		return Request{}, fmt.Errorf("acquisition price: %w", err)
	}
	minCapRate, err := ParseInput(resolveInput(r, fields.ExitCapRate, seeds.MinCapRate))
	if err != nil {
		return Request{}, fmt.Errorf("exit cap rate: %w", err)
	}

	id := modelID
	if id == "" {
		id = m.ID
	}
	return Request{
		ModelID:    id,
		VersionID:  m.VersionID,
		SheetURL:   m.GoogleSheetURL,
		MaxPrice:   maxPrice,
		MinCapRate: minCapRate,
	}, nil
}

// ParseInput reads a user-entered input, ignoring thousands separators and a
// percent sign.
func ParseInput(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "%", "").Replace(s))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", common.ErrInputsNotReady, s)
	}
	return f, nil
}

func resolveInput(r *fields.Resolver, key string, seed float64) string {
	def := strconv.FormatFloat(seed, 'f', -1, 64)
	if v := r.SectionValue(key, ""); v != "" {
		return v
	}
	return r.String(key, fields.Exact, def)
}
