package sensitivity

import (
	"github.com/Veraticus/proforma/internal/model"
)

// NormalizeTable converts a wire matrix to floats. Decorated strings such as
// "12.3%", "1.45x" and "1,250,000" read as their numeric value; anything
// unreadable becomes zero. A nil payload yields the empty shape.
func NormalizeTable(p *model.SensitivityTablePayload) model.SensitivityTable {
	if p == nil {
		return model.EmptySensitivityTable()
	}

	out := model.SensitivityTable{
		CapRates:          floats(p.CapRates),
		AcquisitionPrices: floats(p.AcquisitionPrices),
		Values:            make([][]float64, len(p.Values)),
	}
	for i, row := range p.Values {
		out.Values[i] = floats(row)
	}
	return out
}

// NormalizeResult converts both matrices. It reports false when either is
// missing.
func NormalizeResult(p *model.SensitivityTablesPayload) (model.SensitivityResult, bool) {
	if !p.Complete() {
		return emptyResult(), false
	}
	return model.SensitivityResult{
		IRR:  NormalizeTable(p.IRRTable),
		MOIC: NormalizeTable(p.MOICTable),
	}, true
}

// Changed reports whether t was produced by inputs other than maxPrice and
// minCapRate, judged by its first row and column labels. An empty table has
// always changed.
func Changed(t model.SensitivityTable, maxPrice, minCapRate float64) bool {
	if len(t.CapRates) == 0 || len(t.AcquisitionPrices) == 0 {
		return true
	}
	return t.CapRates[0] != minCapRate || t.AcquisitionPrices[0] != maxPrice
}

// keyFromResult recovers the inputs that produced r from its axis labels.
func keyFromResult(versionID string, r model.SensitivityResult) model.SensitivityKey {
	key := model.SensitivityKey{VersionID: versionID}
	if len(r.IRR.AcquisitionPrices) > 0 {
		key.MaxPrice = r.IRR.AcquisitionPrices[0]
	}
	if len(r.IRR.CapRates) > 0 {
		key.MinCapRate = r.IRR.CapRates[0]
	}
	return key
}

func floats(in []any) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = model.LooseFloat(v, 0)
	}
	return out
}
