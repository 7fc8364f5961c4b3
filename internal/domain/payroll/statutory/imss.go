package statutory

import (
	"strings"

	"github.com/shopspring/decimal"
)

const RiskConceptCode = "riesgo_trabajo"

type IMSSInput struct {
	SBC         float64    `json:"sbc"`
	Days        int        `json:"days"`
	PeriodType  PeriodType `json:"periodType"`
	RiskClass   string     `json:"riskClass"`
	RiskPremium *float64   `json:"riskPremium"`
}

func (in IMSSInput) Validate() error {
	if in.SBC <= 0 {
		return invalid("sbc", "must be greater than zero")
	}
	if in.Days < 0 {
		return invalid("days", "must not be negative")
	}
	if in.Days > 31 {
		return invalid("days", "must not exceed 31")
	}
	if in.PeriodType != "" {
		if _, err := ParsePeriodType(string(in.PeriodType)); err != nil {
			return err
		}
	}
	if in.RiskPremium != nil && (*in.RiskPremium < 0 || *in.RiskPremium > 15) {
		return invalid("riskPremium", "must be between 0 and 15")
	}
	return nil
}

func (in IMSSInput) days() int {
	if in.Days > 0 {
		return in.Days
	}
	period, err := ParsePeriodType(string(in.PeriodType))
	if err != nil {
		return PeriodMonthly.ContributionDays()
	}
	return period.ContributionDays()
}

type IMSSLine struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Branch       string  `json:"branch"`
	Base         float64 `json:"base"`
	EmployerRate float64 `json:"employerRate"`
	EmployeeRate float64 `json:"employeeRate"`
	Employer     float64 `json:"employer"`
	Employee     float64 `json:"employee"`
}

type IMSSResult struct {
	Year                  int        `json:"year"`
	SBC                   float64    `json:"sbc"`
	SBCCapped             float64    `json:"sbcCapped"`
	Days                  int        `json:"days"`
	RiskClass             string     `json:"riskClass,omitempty"`
	RiskPremium           float64    `json:"riskPremium"`
	Lines                 []IMSSLine `json:"lines"`
	EmployerTotal         float64    `json:"employerTotal"`
	EmployeeTotal         float64    `json:"employeeTotal"`
	Total                 float64    `json:"total"`
	EmployeeShareAbsorbed bool       `json:"employeeShareAbsorbed"`
	EffectiveRate         float64    `json:"effectiveRate"`
}

// CalculateIMSS computes employer and employee social security quotas for the period.
// When the contribution base does not exceed the minimum wage the employer absorbs
// the employee share.
func CalculateIMSS(tables TableSet, in IMSSInput) (IMSSResult, error) {
	if err := in.Validate(); err != nil {
		return IMSSResult{}, err
	}
	if tables.Values.UMADaily <= 0 {
		return IMSSResult{}, missing(tables.Year, "statutory values")
	}
	if len(tables.IMSS) == 0 {
		return IMSSResult{}, missing(tables.Year, "imss")
	}

	riskClass, riskPremium, err := resolveRisk(tables, in)
	if err != nil {
		return IMSSResult{}, err
	}

	uma := dec(tables.Values.UMADaily)
	sbc := decimal.Min(dec(in.SBC), tables.Values.SBCCap().Round(2))
	days := in.days()
	daysDec := decimal.NewFromInt(int64(days))
	absorb := sbc.LessThanOrEqual(dec(tables.Values.MinimumWage))

	lines := make([]IMSSLine, 0, len(tables.IMSS)+1)
	for _, concept := range tables.IMSS {
		var base decimal.Decimal
		switch concept.Base {
		case BaseFixedQuota:
			base = uma.Mul(daysDec)
		case BaseExcess:
			excess := sbc.Sub(uma.Mul(dec(concept.ThresholdUMA)))
			if !excess.IsPositive() {
				continue
			}
			base = excess.Mul(daysDec)
		default:
			base = sbc.Mul(daysDec)
		}

		employerRate := concept.EmployerRate
		if concept.Tiered {
			rate, err := cvEmployerRate(tables, sbc)
			if err != nil {
				return IMSSResult{}, err
			}
			employerRate = rate
		}
		lines = append(lines, IMSSLine{
			Code:         concept.Code,
			Name:         concept.Name,
			Branch:       concept.Branch,
			Base:         money(base),
			EmployerRate: employerRate,
			EmployeeRate: concept.EmployeeRate,
			Employer:     money(percentOf(base, employerRate)),
			Employee:     money(percentOf(base, concept.EmployeeRate)),
		})
	}

	riskBase := sbc.Mul(daysDec)
	lines = append(lines, IMSSLine{
		Code:         RiskConceptCode,
		Name:         "Riesgos de trabajo",
		Branch:       RiskConceptCode,
		Base:         money(riskBase),
		EmployerRate: riskPremium,
		Employer:     money(percentOf(riskBase, riskPremium)),
	})

	employerTotal := zero
	employeeTotal := zero
	for i := range lines {
		if absorb && lines[i].Employee > 0 {
			lines[i].Employer = money(dec(lines[i].Employer).Add(dec(lines[i].Employee)))
			lines[i].Employee = 0
		}
		employerTotal = employerTotal.Add(dec(lines[i].Employer))
		employeeTotal = employeeTotal.Add(dec(lines[i].Employee))
	}
	total := employerTotal.Add(employeeTotal)

	return IMSSResult{
		Year:                  tables.Year,
		SBC:                   in.SBC,
		SBCCapped:             money(sbc),
		Days:                  days,
		RiskClass:             riskClass,
		RiskPremium:           riskPremium,
		Lines:                 lines,
		EmployerTotal:         money(employerTotal),
		EmployeeTotal:         money(employeeTotal),
		Total:                 money(total),
		EmployeeShareAbsorbed: absorb,
		EffectiveRate:         effectiveRate(total, sbc.Mul(daysDec)),
	}, nil
}

// resolveRisk prefers an explicit premium, then the class table; class I is the default.
func resolveRisk(tables TableSet, in IMSSInput) (string, float64, error) {
	class := strings.ToUpper(strings.TrimSpace(in.RiskClass))
	if in.RiskPremium != nil {
		return class, *in.RiskPremium, nil
	}
	if class == "" {
		class = "I"
	}
	switch class {
	case "I", "II", "III", "IV", "V":
	default:
		return "", 0, invalid("riskClass", "must be one of I, II, III, IV, V")
	}
	premium, ok := tables.RiskClasses[class]
	if !ok {
		return "", 0, missing(tables.Year, "risk class "+class)
	}
	return class, premium, nil
}

// cvEmployerRate picks the severance and old age employer band. The first band
// covers bases up to the minimum wage; later bands are measured in UMAs.
func cvEmployerRate(tables TableSet, sbc decimal.Decimal) (float64, error) {
	tiers := tables.CVTiers
	if len(tiers) == 0 {
		return 0, missing(tables.Year, "imss cv tiers")
	}
	if sbc.LessThanOrEqual(dec(tables.Values.MinimumWage)) {
		return tiers[0].EmployerRate, nil
	}
	ratio := sbc.Div(dec(tables.Values.UMADaily))
	for _, tier := range tiers[1:] {
		if tier.UpToUMA == nil || ratio.LessThanOrEqual(dec(*tier.UpToUMA)) {
			return tier.EmployerRate, nil
		}
	}
	return tiers[len(tiers)-1].EmployerRate, nil
}
