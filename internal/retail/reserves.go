package retail

import (
	"math"

	"github.com/Veraticus/proforma/internal/fields"
	"github.com/Veraticus/proforma/internal/model"
)

// Reserve assumption defaults.
const (
	DefaultRenewalProbability = 1.5
	DefaultLeaseTermYears     = 1.0
)

// LaneInputs are the assumptions for one leasing lane.
type LaneInputs struct {
	RentPerSF float64 // annual $/SF
	TIPerSF   float64
	// CommissionRate is a fraction of rent.
	CommissionRate float64
	TermYears      float64
}

// ReserveInputs drive the leasing cost reserve calculation.
type ReserveInputs struct {
	TotalSF float64
	// RenewalProbability is a percent; new leases take the complement.
	RenewalProbability float64
	New                LaneInputs
	Renewal            LaneInputs
}

// ReserveInputsFromModel reads reserve assumptions by exact key. Zero or
// missing lease terms fall back to one year.
func ReserveInputsFromModel(m *model.Model) ReserveInputs {
	if m == nil {
		return ReserveInputs{
			RenewalProbability: DefaultRenewalProbability,
			New:                LaneInputs{TermYears: DefaultLeaseTermYears},
			Renewal:            LaneInputs{TermYears: DefaultLeaseTermYears},
		}
	}
	in := ReserveInputsFromFields(fields.FromModel(m))
	for _, l := range m.RetailIncome {
		in.TotalSF += l.SquareFeet.Float()
	}
	return in
}

// ReserveInputsFromFields reads the reserve assumptions. TotalSF is left
// for the caller.
func ReserveInputsFromFields(r *fields.Resolver) ReserveInputs {
	// def applies only when the key is missing; a present but null or
	// unparseable value reads as zero.
	get := func(key string, def float64) float64 {
		if _, ok := r.Find(key, fields.Exact); !ok {
			return def
		}
		return r.Float(key, fields.Exact, 0)
	}
	term := func(key string) float64 {
		if t := get(key, DefaultLeaseTermYears); t != 0 {
			return t
		}
		return DefaultLeaseTermYears
	}

	return ReserveInputs{
		RenewalProbability: get(fields.RenewalProbability, DefaultRenewalProbability),
		New: LaneInputs{
			RentPerSF:      get(fields.RetailRentNew, 0),
			TIPerSF:        get(fields.TenantImprovementsNew, 0),
			CommissionRate: get(fields.LeasingCommissionNew, 0) / 100,
			TermYears:      term(fields.LeaseTermNew),
		},
		Renewal: LaneInputs{
			RentPerSF:      get(fields.RetailRentRenewal, 0),
			TIPerSF:        get(fields.TenantImprovementsRen, 0),
			CommissionRate: get(fields.LeasingCommissionRen, 0) / 100,
			TermYears:      term(fields.LeaseTermRenewal),
		},
	}
}

// LaneCost is the leasing cost of one lane.
type LaneCost struct {
	Probability        float64 // percent
	AnnualRent         float64
	TenantImprovements float64
	Commission         float64
	Total              float64
	AmortizedAnnual    float64
}

// Reserves is the blended leasing cost reserve.
type Reserves struct {
	New           LaneCost
	Renewal       LaneCost
	Annual        float64
	PerSquareFoot float64
}

// LeasingCostReserves amortizes the probability-weighted tenant improvement
// and commission costs of new and renewal leases over their terms.
func LeasingCostReserves(in ReserveInputs) Reserves {
	renewalP := in.RenewalProbability
	newP := math.Max(0, 100-renewalP)

	res := Reserves{
		New:     laneCost(in.TotalSF, newP, in.New),
		Renewal: laneCost(in.TotalSF, renewalP, in.Renewal),
	}
	res.Annual = model.Finite(res.New.AmortizedAnnual + res.Renewal.AmortizedAnnual)
	res.PerSquareFoot = perSF(res.Annual, in.TotalSF)
	return res
}

func laneCost(totalSF, probability float64, lane LaneInputs) LaneCost {
	weight := probability / 100
	c := LaneCost{
		Probability:        probability,
		AnnualRent:         lane.RentPerSF * totalSF,
		TenantImprovements: lane.TIPerSF * totalSF * weight,
		Commission:         totalSF * weight * lane.RentPerSF * lane.CommissionRate * lane.TermYears,
	}
	c.Total = c.TenantImprovements + c.Commission
	if lane.TermYears != 0 {
		c.AmortizedAnnual = model.Finite(c.Total / lane.TermYears)
	}
	return c
}
