package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLooseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"plain", "42", 42, true},
		{"percent", "12.3%", 12.3, true},
		{"multiple", "1.45x", 1.45, true},
		{"thousands", "1,250,000", 1250000, true},
		{"currency", " $185,000 ", 185000, true},
		{"negative", "-3.5%", -3.5, true},
		{"empty", "", 0, false},
		{"only decoration", "$%", 0, false},
		{"text", "n/a", 0, false},
		{"infinite", "Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLooseNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseNumber(t *testing.T) {
	got, ok := ParseNumber("  ")
	assert.True(t, ok)
	assert.Zero(t, got)

	got, ok = ParseNumber("7.5")
	assert.True(t, ok)
	assert.Equal(t, 7.5, got)

	_, ok = ParseNumber("5%")
	assert.False(t, ok, "strict parsing does not accept decorations")

	_, ok = ParseNumber("NaN")
	assert.False(t, ok)
}

func TestLooseFloat(t *testing.T) {
	assert.Equal(t, 9.0, LooseFloat(nil, 9))
	assert.Equal(t, 3.0, LooseFloat(3.0, 9))
	assert.Equal(t, 1200.0, LooseFloat("1,200", 9))
	assert.Equal(t, 9.0, LooseFloat("abc", 9))
	assert.Equal(t, 1.0, LooseFloat(true, 9))
	assert.Equal(t, 9.0, LooseFloat([]int{1}, 9))
}

func TestNumberUnmarshal(t *testing.T) {
	var row struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 12.5, "b": "1,000", "c": null, "d": "oops"}`), &row)
	require.NoError(t, err)

	assert.Equal(t, Number(12.5), row.A)
	assert.Equal(t, Number(1000), row.B)
	assert.Equal(t, Number(0), row.C)
	assert.Equal(t, Number(0), row.D)
}

func TestAmenityIncomeRow(t *testing.T) {
	row := AmenityIncomeRow{Utilization: 50, UnitCount: 7, MonthlyFee: 25}

	assert.Equal(t, 4.0, row.Usage(), "3.5 rounds half up")
	assert.Equal(t, 100.0, row.Monthly())
	assert.Equal(t, 1200.0, row.Annual())
}

func TestModelRetailExpensesAndSensitivity(t *testing.T) {
	raw := `{
		"version_id": "v1",
		"expenses": [
			{"name": "Taxes", "type": "Retail", "factor": "Annual", "cost_per": 100},
			{"name": "Payroll", "type": "Residential", "factor": "Annual", "cost_per": 50},
			{"name": "Insurance", "type": " retail ", "factor": "Per SF / Yr.", "cost_per": "1.5"}
		],
		"sensitivity_tables": {"status": "generating"}
	}`

	var m Model
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	retail := m.RetailExpenses()
	require.Len(t, retail, 2)
	assert.Equal(t, "Taxes", retail[0].Name)
	assert.Equal(t, Number(1.5), retail[1].CostPer)

	state := m.Sensitivity()
	require.NotNil(t, state)
	assert.True(t, state.Generating())
	assert.False(t, state.Complete())

	m.SensitivityTables = json.RawMessage("null")
	assert.Nil(t, m.Sensitivity())
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank("   "))
	assert.False(t, IsBlank("x"))
	assert.False(t, IsBlank(0.0))
}
