// Package retail builds the retail-specific derived tables: expense
// recoveries, gross potential retail income, leasing cost reserves and the
// retail rent roll.
package retail

import (
	"strings"

	"github.com/Veraticus/proforma/internal/expense"
	"github.com/Veraticus/proforma/internal/model"
)

// Buckets are annual recoverable expenses grouped by the rent type they are
// recovered from.
type Buckets struct {
	Both  float64
	Gross float64
	NNN   float64
}

// ForLease is the pool a lease shares in: Both plus the bucket for its own
// rent type.
func (b Buckets) ForLease(l model.RetailIncomeRow) float64 {
	if l.IsNNN() {
		return b.Both + b.NNN
	}
	return b.Both + b.Gross
}

// NewBuckets annualizes each expense row and sums it into the bucket named
// by its rent_type_included tag. Rows with any other tag are not recovered.
func NewBuckets(alloc *expense.RetailAllocator, expenses []model.RetailExpenseRow) Buckets {
	var b Buckets
	for _, e := range expenses {
		annual := alloc.Annual(e)
		switch strings.ToLower(strings.TrimSpace(e.RentTypeIncluded)) {
		case "both":
			b.Both += annual
		case "gross":
			b.Gross += annual
		case "nnn":
			b.NNN += annual
		}
	}
	return b
}

// LeaseRecovery is one lease's share of recoverable expenses.
type LeaseRecovery struct {
	Lease        model.RetailIncomeRow
	ProRataShare float64
	// PerSquareFoot is the lease's pool divided by total leased area.
	PerSquareFoot float64
	Annual        float64
}

// RecoveryTable is the recovery income schedule.
type RecoveryTable struct {
	Buckets       Buckets
	Leases        []LeaseRecovery
	TotalSF       float64
	Total         float64
	PerSquareFoot float64
}

// Recovery allocates recoverable retail expenses to leases by pro-rata
// share of leased area.
func Recovery(leases []model.RetailIncomeRow, expenses []model.RetailExpenseRow) RecoveryTable {
	alloc := expense.NewRetailAllocator(leases)
	return recoveryWith(alloc, leases, NewBuckets(alloc, expenses))
}

// RecoveryFromBuckets allocates precomputed buckets to leases.
func RecoveryFromBuckets(leases []model.RetailIncomeRow, b Buckets) RecoveryTable {
	return recoveryWith(expense.NewRetailAllocator(leases), leases, b)
}

func recoveryWith(alloc *expense.RetailAllocator, leases []model.RetailIncomeRow, b Buckets) RecoveryTable {
	totalSF := alloc.TotalSquareFeet()
	t := RecoveryTable{
		Buckets: b,
		Leases:  make([]LeaseRecovery, 0, len(leases)),
		TotalSF: totalSF,
	}

	for _, l := range leases {
		pool := b.ForLease(l)
		lr := LeaseRecovery{Lease: l}
		if totalSF != 0 {
			lr.ProRataShare = l.SquareFeet.Float() / totalSF
			lr.PerSquareFoot = model.Finite(pool / totalSF)
		}
		lr.Annual = model.Finite(lr.ProRataShare * pool)
		t.Total += lr.Annual
		t.Leases = append(t.Leases, lr)
	}

	if totalSF != 0 {
		t.PerSquareFoot = model.Finite(t.Total / totalSF)
	}
	return t
}
