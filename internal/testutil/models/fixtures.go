package models

import (
	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

// MixedUse is a two-unit building with one NNN retail lease, a flat
// landscaping contract and a CAM charge recovered from every lease.
//
//	Residential: 1BR 650 SF at $1,200 (pro forma $1,300)
//	             2BR 900 SF at $1,500 (pro forma $1,650)
//	Retail:      suite A, Cafe, 1,000 SF at $24/SF/yr (NNN)
//	Expenses:    Landscaping $12,000 total; CAM $3/SF/yr
func MixedUse() *Builder {
	return NewBuilder("v1").
		WithID("m1").
		WithName("Maple Court").
		WithAddress("12 Maple St", "Springfield", "IL", "62701").
		WithSheet("https://docs.google.com/spreadsheets/d/abc123/edit").
		WithUnit("1BR", 650, 1200).
		WithUnit("2BR", 900, 1500).
		WithMarketRent("1BR", 1300).
		WithMarketRent("2BR", 1650).
		WithOperatingExpense("Landscaping", "Total", 12000).
		WithRetailLease("A", "Cafe", model.RentTypeNNN, 1000, 24).
		WithRetailExpense("CAM", "Per SF", "both", 3).
		WithField(fields.AcquisitionPrice, "1,500,000").
		WithField(fields.ExitCapRate, "6.5").
		WithField(fields.LeveredIRR, "14.2%").
		WithTable("Returns", 1, false, []model.Cell{"Metric", "Value"}, []model.Cell{"IRR", "14.2%"})
}

// Residential is a building with units and no retail space.
func Residential() *Builder {
	return NewBuilder("v2").
		WithID("m2").
		WithName("Birch Flats").
		WithUnit("Studio", 450, 950).
		WithUnit("Studio", 450, 975).
		WithMarketRent("Studio", 1050).
		WithAmenity("Parking", 50, 2, 100).
		WithOperatingExpense("Insurance", "Per Unit", 500).
		WithField(fields.Vacancy, 5)
}
