// Package model defines the underwriting payload types shared by the engine.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Model is a model version as returned by the backend. It is the read-only
// input to every calculation in the engine.
type Model struct {
	ID                    string                 `json:"id,omitempty"`
	VersionID             string                 `json:"version_id"`
	Name                  string                 `json:"name,omitempty"`
	StreetAddress         string                 `json:"street_address,omitempty"`
	City                  string                 `json:"city,omitempty"`
	State                 string                 `json:"state,omitempty"`
	ZipCode               string                 `json:"zip_code,omitempty"`
	GoogleSheetURL        string                 `json:"google_sheet_url"`
	Units                 []Unit                 `json:"units"`
	AmenityIncome         []AmenityIncomeRow     `json:"amenity_income"`
	RetailIncome          []RetailIncomeRow      `json:"retail_income"`
	OperatingExpenses     []OperatingExpenseRow  `json:"operating_expenses"`
	Expenses              []RetailExpenseRow     `json:"expenses"`
	FieldValues           []ModelFieldValue      `json:"user_model_field_values"`
	MarketRentAssumptions []MarketRentAssumption `json:"market_rent_assumptions"`
	Sections              []Section              `json:"sections,omitempty"`
	TableMappingOutput    []TableMapping         `json:"table_mapping_output"`
	SensitivityTables     json.RawMessage        `json:"sensitivity_tables,omitempty"`
	Pictures              []Picture              `json:"pictures,omitempty"`
}

// Picture is a property image attached to the model.
type Picture struct {
	ID          string `json:"id"`
	URL         string `json:"picture_url"`
	Description string `json:"description,omitempty"`
}

// Address is the one-line property address, or "" when none is set.
func (m *Model) Address() string {
	if m.StreetAddress == "" && m.City == "" && m.State == "" && m.ZipCode == "" {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s", m.StreetAddress, m.City, m.State, m.ZipCode))
}

// RetailExpenses returns the expense rows tagged as retail.
func (m *Model) RetailExpenses() []RetailExpenseRow {
	out := make([]RetailExpenseRow, 0, len(m.Expenses))
	for _, e := range m.Expenses {
		if e.IsRetail() {
			out = append(out, e)
		}
	}
	return out
}

// Sensitivity decodes the embedded sensitivity state. A missing, null or
// malformed value yields nil.
func (m *Model) Sensitivity() *SensitivityTablesPayload {
	if len(m.SensitivityTables) == 0 || string(m.SensitivityTables) == "null" {
		return nil
	}
	var p SensitivityTablesPayload
	if err := json.Unmarshal(m.SensitivityTables, &p); err != nil {
		return nil
	}
	return &p
}
