package fields

// Field keys read by the engine.
const (
	GrossSquareFeet       = "Gross Square Feet"
	Vacancy               = "Vacancy"
	RetailVacancy         = "Vacancy " // stored with a trailing space on retail models
	BadDebt               = "Bad Debt"
	LessVacancyAndBadDebt = "Less: Vacancy and Bad Debt"
	FreeMonthsRent        = "Free Month's Rent"
	BrokerFee             = "Broker Fee"
	AnnualTurnover        = "Annual Turnover"
	AcquisitionPrice      = "Acquisition Price"
	ExitCapRate           = "Multifamily Applied Exit Cap Rate"
	RenewalProbability    = "Renewal Property: Renewal Lease"
	RetailRentNew         = "Retail Rent: New Lease"
	RetailRentRenewal     = "Retail Rent: Renewal Lease"
	TenantImprovementsNew = "TI's: New Lease"
	TenantImprovementsRen = "TI's: Renewal Lease"
	LeasingCommissionNew  = "Leasing Commissions: New Lease"
	LeasingCommissionRen  = "Leasing Commissions: Renewal Lease"
	LeaseTermNew          = "Lease Term: New Lease"
	LeaseTermRenewal      = "Lease Term: Renewal Lease"
	LeveredIRR            = "Levered IRR"
	LeveredMOIC           = "Levered MOIC"
	MultifamilyExitMonth  = "Multifamily Exit Month"
	RetailExitMonth       = "Retail Exit Month"
)
