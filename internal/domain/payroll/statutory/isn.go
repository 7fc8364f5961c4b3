package statutory

import "strings"

type ISNInput struct {
	TaxablePayroll float64 `json:"taxablePayroll"`
	StateCode      string  `json:"stateCode"`
}

func (in ISNInput) Validate() error {
	if in.TaxablePayroll <= 0 {
		return invalid("taxablePayroll", "must be greater than zero")
	}
	if strings.TrimSpace(in.StateCode) == "" {
		return invalid("stateCode", "is required")
	}
	return nil
}

type ISNResult struct {
	Year           int     `json:"year"`
	StateCode      string  `json:"stateCode"`
	TaxablePayroll float64 `json:"taxablePayroll"`
	Rate           float64 `json:"rate"`
	ISN            float64 `json:"isn"`
	EffectiveRate  float64 `json:"effectiveRate"`
}

// CalculateISN applies the state payroll tax rate for (state, year).
func CalculateISN(tables TableSet, in ISNInput) (ISNResult, error) {
	if err := in.Validate(); err != nil {
		return ISNResult{}, err
	}
	state := strings.ToUpper(strings.TrimSpace(in.StateCode))
	rate, ok := tables.ISN[state]
	if !ok {
		return ISNResult{}, missing(tables.Year, "isn "+state)
	}
	base := dec(in.TaxablePayroll)
	tax := percentOf(base, rate).Round(2)
	return ISNResult{
		Year:           tables.Year,
		StateCode:      state,
		TaxablePayroll: money(base),
		Rate:           rate,
		ISN:            money(tax),
		EffectiveRate:  effectiveRate(tax, base),
	}, nil
}
