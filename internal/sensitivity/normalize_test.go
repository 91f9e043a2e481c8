package sensitivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
)

func TestNormalizeTable(t *testing.T) {
	got := NormalizeTable(&model.SensitivityTablePayload{
		CapRates:          []any{"9.5", 10.0, "n/a"},
		AcquisitionPrices: []any{"1,250,000", 1200000.0},
		Values:            [][]any{{"12.3%", "1.45x"}, {nil, true}},
	})

	assert.Equal(t, []float64{9.5, 10, 0}, got.CapRates)
	assert.Equal(t, []float64{1250000, 1200000}, got.AcquisitionPrices)
	assert.Equal(t, [][]float64{{12.3, 1.45}, {0, 1}}, got.Values)

	assert.Equal(t, model.EmptySensitivityTable(), NormalizeTable(nil))
}

func TestNormalizeResultRequiresBothTables(t *testing.T) {
	_, ok := NormalizeResult(&model.SensitivityTablesPayload{IRRTable: &model.SensitivityTablePayload{}})
	assert.False(t, ok)

	_, ok = NormalizeResult(nil)
	assert.False(t, ok)
}

func TestChanged(t *testing.T) {
	table := model.SensitivityTable{CapRates: []float64{10, 10.5}, AcquisitionPrices: []float64{185000, 175000}}

	assert.False(t, Changed(table, 185000, 10))
	assert.True(t, Changed(table, 185000, 10.25))
	assert.True(t, Changed(table, 175000, 10))
	assert.True(t, Changed(model.EmptySensitivityTable(), 185000, 10))
}

func TestRows(t *testing.T) {
	table := model.SensitivityTable{
		CapRates:          []float64{9.5, 10},
		AcquisitionPrices: []float64{1250000, 1200000},
		Values:            [][]float64{{12.34, 11}, {10.06}},
	}

	assert.Equal(t, [][]string{
		{"Exit Cap Rate (%)", "$1,250,000", "$1,200,000"},
		{"9.50%", "12.3%", "11.0%"},
		{"10.00%", "10.1%", ""},
	}, Rows(table, IRR))

	moic := Rows(model.SensitivityTable{
		CapRates:          []float64{9.5},
		AcquisitionPrices: []float64{1250000},
		Values:            [][]float64{{1.456}},
	}, MOIC)
	assert.Equal(t, "1.46x", moic[1][1])

	assert.Nil(t, Rows(model.EmptySensitivityTable(), IRR))
	assert.Equal(t, "Levered MOIC Sensitivity Analysis", MOIC.Title())
}

func TestRequestFromModel(t *testing.T) {
	m := &model.Model{
		ID:             "m1",
		VersionID:      "v3",
		GoogleSheetURL: "https://docs.google.com/spreadsheets/d/abc",
		Sections: []model.Section{{
			Name: "Exit",
			Fields: []model.SectionField{
				{ID: "f1", FieldKey: "Acquisition Price"},
				{ID: "f2", FieldKey: "Multifamily Applied Exit Cap Rate"},
			},
		}},
		FieldValues: []model.ModelFieldValue{
			{FieldID: "f1", FieldKey: "Acquisition Price", Value: "1,250,000"},
			{FieldID: "f2", FieldKey: "Multifamily Applied Exit Cap Rate", Value: "6.5%"},
		},
	}

	req, err := RequestFromModel("", m, Seeds{MaxPrice: 185000, MinCapRate: 10})
	require.NoError(t, err)
	assert.Equal(t, Request{
		ModelID:    "m1",
		VersionID:  "v3",
		SheetURL:   "https://docs.google.com/spreadsheets/d/abc",
		MaxPrice:   1250000,
		MinCapRate: 6.5,
	}, req)

	// Without sections the seeds apply.
	req, err = RequestFromModel("m9", &model.Model{VersionID: "v1"}, Seeds{MaxPrice: 185000, MinCapRate: 10})
	require.NoError(t, err)
	assert.Equal(t, "m9", req.ModelID)
	assert.Equal(t, 185000.0, req.MaxPrice)
	assert.Equal(t, 10.0, req.MinCapRate)

	m.FieldValues[0].Value = "TBD"
	_, err = RequestFromModel("", m, Seeds{})
	assert.ErrorIs(t, err, common.ErrInputsNotReady)
}
