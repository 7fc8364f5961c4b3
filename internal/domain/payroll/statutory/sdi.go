package statutory

import "github.com/shopspring/decimal"

const (
	DefaultAguinaldoDays       = 15
	DefaultVacationPremiumRate = 25.0
)

// VacationDays returns the statutory paid vacation days for completed years of service.
// Fewer than one year counts as the first year.
func VacationDays(yearsOfService int) int {
	switch {
	case yearsOfService <= 1:
		return 12
	case yearsOfService <= 5:
		return 12 + 2*(yearsOfService-1)
	case yearsOfService <= 10:
		return 22
	}
	return 22 + 2*((yearsOfService-6)/5)
}

type SDIInput struct {
	DailySalary         float64 `json:"dailySalary"`
	YearsOfService      int     `json:"yearsOfService"`
	AguinaldoDays       int     `json:"aguinaldoDays"`
	VacationPremiumRate float64 `json:"vacationPremiumRate"`
	VariableDailyIncome float64 `json:"variableDailyIncome"`
}

func (in SDIInput) Validate() error {
	if in.DailySalary <= 0 {
		return invalid("dailySalary", "must be greater than zero")
	}
	if in.YearsOfService < 0 {
		return invalid("yearsOfService", "must not be negative")
	}
	if in.AguinaldoDays < 0 {
		return invalid("aguinaldoDays", "must not be negative")
	}
	if in.AguinaldoDays > 0 && in.AguinaldoDays < DefaultAguinaldoDays {
		return invalid("aguinaldoDays", "must be at least 15")
	}
	if in.VacationPremiumRate < 0 {
		return invalid("vacationPremiumRate", "must not be negative")
	}
	if in.VariableDailyIncome < 0 {
		return invalid("variableDailyIncome", "must not be negative")
	}
	return nil
}

type SDIResult struct {
	Year                int     `json:"year"`
	DailySalary         float64 `json:"dailySalary"`
	YearsOfService      int     `json:"yearsOfService"`
	VacationDays        int     `json:"vacationDays"`
	AguinaldoDays       int     `json:"aguinaldoDays"`
	VacationPremiumRate float64 `json:"vacationPremiumRate"`
	IntegrationFactor   float64 `json:"integrationFactor"`
	VariableDailyIncome float64 `json:"variableDailyIncome"`
	SDI                 float64 `json:"sdi"`
	SBCCap              float64 `json:"sbcCap"`
	SBCCapped           float64 `json:"sbcCapped"`
	CapApplied          bool    `json:"capApplied"`
}

// IntegrationFactor is (365 + aguinaldo + vacation days * premium) / 365, four decimals.
func IntegrationFactor(aguinaldoDays, vacationDays int, premiumRate float64) decimal.Decimal {
	days := decimal.NewFromInt(365)
	premium := percentOf(decimal.NewFromInt(int64(vacationDays)), premiumRate)
	return days.Add(decimal.NewFromInt(int64(aguinaldoDays))).Add(premium).Div(days).Round(4)
}

func CalculateSDI(tables TableSet, in SDIInput) (SDIResult, error) {
	if err := in.Validate(); err != nil {
		return SDIResult{}, err
	}
	if tables.Values.UMADaily <= 0 {
		return SDIResult{}, missing(tables.Year, "statutory values")
	}

	aguinaldo := in.AguinaldoDays
	if aguinaldo == 0 {
		aguinaldo = DefaultAguinaldoDays
	}
	premium := in.VacationPremiumRate
	if premium == 0 {
		premium = DefaultVacationPremiumRate
	}
	vacation := VacationDays(in.YearsOfService)
	factor := IntegrationFactor(aguinaldo, vacation, premium)

	sdi := dec(in.DailySalary).Mul(factor).Add(dec(in.VariableDailyIncome)).Round(2)
	limit := tables.Values.SBCCap().Round(2)
	capped := decimal.Min(sdi, limit)

	return SDIResult{
		Year:                tables.Year,
		DailySalary:         in.DailySalary,
		YearsOfService:      in.YearsOfService,
		VacationDays:        vacation,
		AguinaldoDays:       aguinaldo,
		VacationPremiumRate: premium,
		IntegrationFactor:   factor.InexactFloat64(),
		VariableDailyIncome: in.VariableDailyIncome,
		SDI:                 money(sdi),
		SBCCap:              money(limit),
		SBCCapped:           money(capped),
		CapApplied:          sdi.GreaterThan(limit),
	}, nil
}
