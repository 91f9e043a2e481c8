package model

import "fmt"

// Sensitivity statuses reported by the backend.
const (
	SensitivityStatusGenerating = "generating"
)

// SensitivityTable is a matrix of one return metric over exit cap rates
// (rows) and acquisition prices (columns). Values[i][j] belongs to
// CapRates[i] x AcquisitionPrices[j].
type SensitivityTable struct {
	CapRates          []float64   `json:"capRates"`
	AcquisitionPrices []float64   `json:"acquisitionPrices"`
	Values            [][]float64 `json:"values"`
}

// EmptySensitivityTable returns the empty shape shown when no data is
// available.
func EmptySensitivityTable() SensitivityTable {
	return SensitivityTable{
		CapRates:          []float64{},
		AcquisitionPrices: []float64{},
		Values:            [][]float64{},
	}
}

// IsEmpty reports whether the table has no values to display.
func (t SensitivityTable) IsEmpty() bool {
	return len(t.Values) == 0
}

// Clone returns a deep copy of the table.
func (t SensitivityTable) Clone() SensitivityTable {
	out := SensitivityTable{
		CapRates:          append([]float64{}, t.CapRates...),
		AcquisitionPrices: append([]float64{}, t.AcquisitionPrices...),
		Values:            make([][]float64, len(t.Values)),
	}
	for i, row := range t.Values {
		out.Values[i] = append([]float64{}, row...)
	}
	return out
}

// SensitivityResult pairs the IRR and MOIC matrices produced by one run.
type SensitivityResult struct {
	IRR  SensitivityTable `json:"irr_table"`
	MOIC SensitivityTable `json:"moic_table"`
}

// Clone returns a deep copy of the result.
func (r SensitivityResult) Clone() SensitivityResult {
	return SensitivityResult{IRR: r.IRR.Clone(), MOIC: r.MOIC.Clone()}
}

// SensitivityKey identifies the inputs that produced a SensitivityResult.
type SensitivityKey struct {
	VersionID  string
	MaxPrice   float64
	MinCapRate float64
}

// String renders the key as a stable cache identifier.
func (k SensitivityKey) String() string {
	return fmt.Sprintf("%s|%g|%g", k.VersionID, k.MaxPrice, k.MinCapRate)
}

// SensitivityTablePayload is a matrix as the backend sends it: axis labels
// and cells may be numbers or decorated strings ("12.3%", "1.45x", "1,250,000").
type SensitivityTablePayload struct {
	CapRates          []any   `json:"capRates"`
	AcquisitionPrices []any   `json:"acquisitionPrices"`
	Values            [][]any `json:"values"`
}

// SensitivityTablesPayload is the sensitivity state embedded in a model
// version or returned by the generation endpoint.
type SensitivityTablesPayload struct {
	Status    string                   `json:"status,omitempty"`
	IRRTable  *SensitivityTablePayload `json:"irr_table,omitempty"`
	MOICTable *SensitivityTablePayload `json:"moic_table,omitempty"`
}

// Complete reports whether both matrices are present.
func (p *SensitivityTablesPayload) Complete() bool {
	return p != nil && p.IRRTable != nil && p.MOICTable != nil
}

// Generating reports whether the backend is still computing the matrices.
func (p *SensitivityTablesPayload) Generating() bool {
	return p != nil && p.Status == SensitivityStatusGenerating
}
