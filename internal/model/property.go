package model

import (
	"math"
	"strings"
)

// Rent types carried by retail leases.
const (
	RentTypeGross = "Gross"
	RentTypeNNN   = "NNN"
)

// Unit is one rentable residential unit in a model version's rent roll.
type Unit struct {
	ID          string `json:"id,omitempty"`
	Layout      string `json:"layout"`
	RentType    string `json:"rent_type"`
	SquareFeet  Number `json:"square_feet"`
	CurrentRent Number `json:"current_rent"`
	VacateFlag  Number `json:"vacate_flag"`
	VacateMonth Number `json:"vacate_month"`
}

// Keeps reports whether the unit keeps its in-place rent in the pro forma.
func (u Unit) Keeps() bool {
	return u.VacateFlag == 0
}

// MarketRentAssumption maps a unit layout to its pro-forma rent.
type MarketRentAssumption struct {
	Layout string `json:"layout"`
	PFRent Number `json:"pf_rent"`
}

// AmenityIncomeRow is an ancillary income line such as parking or storage.
type AmenityIncomeRow struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Utilization Number `json:"utilization"`
	UnitCount   Number `json:"unit_count"`
	MonthlyFee  Number `json:"monthly_fee"`
	StartMonth  Number `json:"start_month"`
}

// Usage is the number of units expected to pay for the amenity.
func (a AmenityIncomeRow) Usage() float64 {
	return roundHalfUp(a.Utilization.Float() / 100 * a.UnitCount.Float())
}

// Monthly is the amenity's monthly income.
func (a AmenityIncomeRow) Monthly() float64 {
	return a.Usage() * a.MonthlyFee.Float()
}

// Annual is the amenity's annual income.
func (a AmenityIncomeRow) Annual() float64 {
	return a.Monthly() * 12
}

// RetailIncomeRow is a single retail lease.
type RetailIncomeRow struct {
	ID                       string  `json:"id,omitempty"`
	Suite                    string  `json:"suite"`
	TenantName               string  `json:"tenant_name"`
	RentType                 string  `json:"rent_type"`
	SquareFeet               Number  `json:"square_feet"`
	RentPerSquareFootPerYear Number  `json:"rent_per_square_foot_per_year"`
	LeaseStartMonth          Number  `json:"lease_start_month"`
	LeaseEndMonth            *Number `json:"lease_end_month,omitempty"`
	RentStartMonth           Number  `json:"rent_start_month"`
	AnnualBumps              Number  `json:"annual_bumps"`
	RecoveryStartMonth       Number  `json:"recovery_start_month"`
}

// AnnualRent is the lease's base rent for a year.
func (r RetailIncomeRow) AnnualRent() float64 {
	return r.RentPerSquareFootPerYear.Float() * r.SquareFeet.Float()
}

// IsNNN reports whether the tenant pays on a triple-net basis. Leases with no
// rent type are treated as gross.
func (r RetailIncomeRow) IsNNN() bool {
	return strings.EqualFold(strings.TrimSpace(r.RentType), RentTypeNNN)
}

// OperatingExpenseRow is a residential operating expense. Factor is the
// amount, CostPer names the basis it is denominated in.
type OperatingExpenseRow struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	CostPer string `json:"cost_per"`
	Factor  Number `json:"factor"`
}

// RetailExpenseRow is an entry of the model's "expenses" list. For retail
// rows the columns are swapped relative to OperatingExpenseRow: Factor holds
// the basis label and CostPer the amount.
type RetailExpenseRow struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Factor           string `json:"factor"`
	RentTypeIncluded string `json:"rent_type_included"`
	CostPer          Number `json:"cost_per"`
}

// IsRetail reports whether the row belongs to the retail expense table.
func (e RetailExpenseRow) IsRetail() bool {
	return strings.EqualFold(strings.TrimSpace(e.Type), "retail")
}

// ModelFieldValue is one entry in a model's flat bag of assumption values.
type ModelFieldValue struct {
	FieldID  string `json:"field_id,omitempty"`
	FieldKey string `json:"field_key"`
	Value    any    `json:"value"`
}

// Section groups field definitions for the model's input forms.
type Section struct {
	Name   string         `json:"name"`
	Fields []SectionField `json:"fields"`
}

// SectionField is a field definition; its ID joins to ModelFieldValue.FieldID.
type SectionField struct {
	ID       string `json:"id"`
	FieldKey string `json:"field_key"`
}

// roundHalfUp rounds half values towards positive infinity, matching the
// rounding used for amenity usage in the product's spreadsheets.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
