package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

func TestMixedUse(t *testing.T) {
	m := MixedUse().Build()

	assert.Equal(t, "v1", m.VersionID)
	assert.Equal(t, "12 Maple St, Springfield, IL 62701", m.Address())
	assert.Len(t, m.Units, 2)
	assert.Len(t, m.RetailExpenses(), 1)
	assert.True(t, m.RetailIncome[0].IsNNN())

	r := fields.FromModel(m)
	assert.Equal(t, "14.2%", r.String(fields.LeveredIRR, fields.Exact, ""))
}

func TestBuilderJSONRoundTrip(t *testing.T) {
	payload := &model.SensitivityTablesPayload{Status: model.SensitivityStatusGenerating}
	b := Residential().WithSensitivity(t, payload)

	var m model.Model
	require.NoError(t, json.Unmarshal(b.JSON(t), &m))
	assert.Equal(t, "Birch Flats", m.Name)
	assert.InDelta(t, 950, m.Units[0].CurrentRent.Float(), 1e-9)
	assert.True(t, m.Sensitivity().Generating())
}

func TestWithTableSummary(t *testing.T) {
	m := NewBuilder("v1").
		WithTable("Deal Summary", 1, true, []model.Cell{"a"}).
		WithTable("Returns", 2, false, []model.Cell{"b"}).
		Build()

	require.Len(t, m.TableMappingOutput, 2)
	summary, set := m.TableMappingOutput[0].IsSummary()
	assert.True(t, summary)
	assert.True(t, set)
	_, set = m.TableMappingOutput[1].IsSummary()
	assert.False(t, set)
}
