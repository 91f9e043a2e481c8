// Package models builds model versions for tests with a fluent API.
//
// Example usage:
//
//	m := models.NewBuilder("v1").
//		WithName("Maple Court").
//		WithUnit("1BR", 650, 1200).
//		WithMarketRent("1BR", 1300).
//		WithField(fields.Vacancy, 5).
//		Build()
package models

import (
	"encoding/json"
	"testing"

	"github.com/Veraticus/proforma/internal/model"
)

// Builder accumulates a model version. Every With method returns the same
// builder, so calls chain.
type Builder struct {
	m model.Model
}

// NewBuilder starts a model version with the given version id.
func NewBuilder(versionID string) *Builder {
	return &Builder{m: model.Model{VersionID: versionID}}
}

// WithID sets the model id.
func (b *Builder) WithID(id string) *Builder {
	b.m.ID = id
	return b
}

// WithName sets the model name.
func (b *Builder) WithName(name string) *Builder {
	b.m.Name = name
	return b
}

// WithAddress sets the street address parts.
func (b *Builder) WithAddress(street, city, state, zip string) *Builder {
	b.m.StreetAddress = street
	b.m.City = city
	b.m.State = state
	b.m.ZipCode = zip
	return b
}

// WithSheet sets the model's Google Sheet URL.
func (b *Builder) WithSheet(url string) *Builder {
	b.m.GoogleSheetURL = url
	return b
}

// WithUnit adds a market-rate unit.
func (b *Builder) WithUnit(layout string, squareFeet, currentRent float64) *Builder {
	b.m.Units = append(b.m.Units, model.Unit{
		Layout:      layout,
		RentType:    "Market",
		SquareFeet:  model.Number(squareFeet),
		CurrentRent: model.Number(currentRent),
	})
	return b
}

// WithMarketRent adds a pro-forma rent for a layout.
func (b *Builder) WithMarketRent(layout string, rent float64) *Builder {
	b.m.MarketRentAssumptions = append(b.m.MarketRentAssumptions, model.MarketRentAssumption{
		Layout: layout,
		PFRent: model.Number(rent),
	})
	return b
}

// WithAmenity adds an amenity income line.
func (b *Builder) WithAmenity(name string, utilization, unitCount, monthlyFee float64) *Builder {
	b.m.AmenityIncome = append(b.m.AmenityIncome, model.AmenityIncomeRow{
		Name:        name,
		Utilization: model.Number(utilization),
		UnitCount:   model.Number(unitCount),
		MonthlyFee:  model.Number(monthlyFee),
	})
	return b
}

// WithOperatingExpense adds a residential expense; costPer names its basis.
func (b *Builder) WithOperatingExpense(name, costPer string, factor float64) *Builder {
	b.m.OperatingExpenses = append(b.m.OperatingExpenses, model.OperatingExpenseRow{
		Name:    name,
		CostPer: costPer,
		Factor:  model.Number(factor),
	})
	return b
}

// WithRetailLease adds a retail lease.
func (b *Builder) WithRetailLease(suite, tenant, rentType string, squareFeet, rentPerSF float64) *Builder {
	b.m.RetailIncome = append(b.m.RetailIncome, model.RetailIncomeRow{
		Suite:                    suite,
		TenantName:               tenant,
		RentType:                 rentType,
		SquareFeet:               model.Number(squareFeet),
		RentPerSquareFootPerYear: model.Number(rentPerSF),
	})
	return b
}

// WithRetailExpense adds a retail expense row. basis is the retail basis
// label and recoveredFrom the rent type it is recovered from.
func (b *Builder) WithRetailExpense(name, basis, recoveredFrom string, amount float64) *Builder {
	b.m.Expenses = append(b.m.Expenses, model.RetailExpenseRow{
		Name:             name,
		Type:             "retail",
		Factor:           basis,
		RentTypeIncluded: recoveredFrom,
		CostPer:          model.Number(amount),
	})
	return b
}

// WithField adds an assumption value.
func (b *Builder) WithField(key string, value any) *Builder {
	b.m.FieldValues = append(b.m.FieldValues, model.ModelFieldValue{FieldKey: key, Value: value})
	return b
}

// WithTable adds a mapped table. A summary table also appears on the
// summary page.
func (b *Builder) WithTable(name string, order int, summary bool, data ...[]model.Cell) *Builder {
	t := model.TableMapping{TableName: name, Data: data, Order: model.Number(order)}
	if summary {
		t.Summary = &summary
	}
	b.m.TableMappingOutput = append(b.m.TableMappingOutput, t)
	return b
}

// WithPicture adds a property picture.
func (b *Builder) WithPicture(id, url, description string) *Builder {
	b.m.Pictures = append(b.m.Pictures, model.Picture{ID: id, URL: url, Description: description})
	return b
}

// WithSensitivity embeds a sensitivity payload as the backend stores it.
func (b *Builder) WithSensitivity(t *testing.T, payload *model.SensitivityTablesPayload) *Builder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode sensitivity payload: %v", err)
	}
	b.m.SensitivityTables = raw
	return b
}

// Build returns the model version. Slices are shared with the builder.
func (b *Builder) Build() *model.Model {
	m := b.m
	return &m
}

// JSON encodes the model version as the backend returns it.
func (b *Builder) JSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(b.m)
	if err != nil {
		t.Fatalf("failed to encode model: %v", err)
	}
	return data
}
