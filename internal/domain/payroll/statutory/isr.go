package statutory

import "github.com/shopspring/decimal"

type ISRInput struct {
	GrossIncome  float64    `json:"grossIncome"`
	ExemptIncome float64    `json:"exemptIncome"`
	PeriodType   PeriodType `json:"periodType"`
	ApplySubsidy bool       `json:"applySubsidy"`
}

func (in ISRInput) Validate() error {
	if in.GrossIncome <= 0 {
		return invalid("grossIncome", "must be greater than zero")
	}
	if in.ExemptIncome < 0 {
		return invalid("exemptIncome", "must not be negative")
	}
	if in.ExemptIncome >= in.GrossIncome {
		return invalid("exemptIncome", "must be less than grossIncome")
	}
	if _, err := ParsePeriodType(string(in.PeriodType)); err != nil {
		return err
	}
	return nil
}

type ISRResult struct {
	Year            int        `json:"year"`
	PeriodType      PeriodType `json:"periodType"`
	GrossIncome     float64    `json:"grossIncome"`
	ExemptIncome    float64    `json:"exemptIncome"`
	TaxableIncome   float64    `json:"taxableIncome"`
	Bracket         ISRBracket `json:"bracket"`
	ExcessOverLower float64    `json:"excessOverLower"`
	MarginalTax     float64    `json:"marginalTax"`
	FixedFee        float64    `json:"fixedFee"`
	DeterminedTax   float64    `json:"determinedTax"`
	Subsidy         float64    `json:"subsidy"`
	ISR             float64    `json:"isr"`
	EffectiveRate   float64    `json:"effectiveRate"`
}

// FindBracket returns the last bracket whose lower limit does not exceed taxable.
// Income below the first lower limit falls in the first bracket.
func FindBracket(brackets []ISRBracket, taxable decimal.Decimal) (ISRBracket, bool) {
	if len(brackets) == 0 {
		return ISRBracket{}, false
	}
	selected := brackets[0]
	for _, bracket := range brackets {
		if dec(bracket.LowerLimit).GreaterThan(taxable) {
			break
		}
		selected = bracket
	}
	return selected, true
}

// CalculateISR applies the periodic withholding tariff:
// tax = fixedFee + (taxable - lowerLimit) * rate / 100.
func CalculateISR(tables TableSet, in ISRInput) (ISRResult, error) {
	if err := in.Validate(); err != nil {
		return ISRResult{}, err
	}
	period, _ := ParsePeriodType(string(in.PeriodType))
	brackets := tables.ISR[period]
	if len(brackets) == 0 {
		return ISRResult{}, missing(tables.Year, "isr "+string(period))
	}

	gross := dec(in.GrossIncome)
	taxable := gross.Sub(dec(in.ExemptIncome)).Round(2)
	bracket, _ := FindBracket(brackets, taxable)

	excess := taxable.Sub(dec(bracket.LowerLimit))
	if excess.IsNegative() {
		excess = zero
	}
	marginal := percentOf(excess, bracket.Rate)
	determined := dec(bracket.FixedFee).Add(marginal).Round(2)

	subsidy := zero
	if in.ApplySubsidy {
		amount, err := subsidyFor(tables, period, taxable)
		if err != nil {
			return ISRResult{}, err
		}
		subsidy = amount
	}
	isr := determined.Sub(subsidy)
	if isr.IsNegative() {
		isr = zero
	}

	return ISRResult{
		Year:            tables.Year,
		PeriodType:      period,
		GrossIncome:     money(gross),
		ExemptIncome:    money(dec(in.ExemptIncome)),
		TaxableIncome:   money(taxable),
		Bracket:         bracket,
		ExcessOverLower: money(excess),
		MarginalTax:     money(marginal),
		FixedFee:        bracket.FixedFee,
		DeterminedTax:   money(determined),
		Subsidy:         money(subsidy),
		ISR:             money(isr),
		EffectiveRate:   effectiveRate(isr.Round(2), gross),
	}, nil
}

// subsidyFor returns the employment subsidy for the first row covering the income.
func subsidyFor(tables TableSet, period PeriodType, taxable decimal.Decimal) (decimal.Decimal, error) {
	rows := tables.Subsidy[period]
	if len(rows) == 0 {
		return zero, missing(tables.Year, "subsidy "+string(period))
	}
	for _, row := range rows {
		if taxable.LessThanOrEqual(dec(row.UpperIncome)) {
			return dec(row.Amount), nil
		}
	}
	return zero, nil
}
