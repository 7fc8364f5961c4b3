package statutory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type PeriodType string

const (
	PeriodMonthly  PeriodType = "monthly"
	PeriodBiweekly PeriodType = "biweekly"
	PeriodWeekly   PeriodType = "weekly"
)

var PeriodTypes = []PeriodType{PeriodMonthly, PeriodBiweekly, PeriodWeekly}

func ParsePeriodType(value string) (PeriodType, error) {
	normalized := PeriodType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case PeriodMonthly, PeriodBiweekly, PeriodWeekly:
		return normalized, nil
	case "":
		return PeriodMonthly, nil
	}
	return "", invalid("periodType", "must be one of monthly, biweekly, weekly")
}

// PayDays is the number of salary days in a period for income tax purposes.
func (p PeriodType) PayDays() decimal.Decimal {
	switch p {
	case PeriodBiweekly:
		return decimal.NewFromInt(15)
	case PeriodWeekly:
		return decimal.NewFromInt(7)
	}
	return decimal.RequireFromString("30.4")
}

// ContributionDays is the number of days social security quotas accrue over.
func (p PeriodType) ContributionDays() int {
	switch p {
	case PeriodBiweekly:
		return 15
	case PeriodWeekly:
		return 7
	}
	return 30
}

type Values struct {
	UMADaily          float64 `yaml:"umaDaily" json:"umaDaily"`
	UMAMonthly        float64 `yaml:"umaMonthly" json:"umaMonthly"`
	UMAAnnual         float64 `yaml:"umaAnnual" json:"umaAnnual"`
	MinimumWage       float64 `yaml:"minimumWage" json:"minimumWage"`
	MinimumWageBorder float64 `yaml:"minimumWageBorder" json:"minimumWageBorder"`
	SBCCapUMA         float64 `yaml:"sbcCapUma" json:"sbcCapUma"`
}

// SBCCap is the daily contribution base ceiling.
func (v Values) SBCCap() decimal.Decimal {
	capUMA := v.SBCCapUMA
	if capUMA <= 0 {
		capUMA = 25
	}
	return dec(v.UMADaily).Mul(dec(capUMA))
}

type ISRBracket struct {
	LowerLimit float64  `yaml:"lowerLimit" json:"lowerLimit"`
	UpperLimit *float64 `yaml:"upperLimit,omitempty" json:"upperLimit"`
	FixedFee   float64  `yaml:"fixedFee" json:"fixedFee"`
	Rate       float64  `yaml:"rate" json:"rate"`
}

type SubsidyRow struct {
	UpperIncome float64 `yaml:"upperIncome" json:"upperIncome"`
	Amount      float64 `yaml:"amount" json:"amount"`
}

// IMSSBase selects what a contribution rate is applied to.
type IMSSBase string

const (
	BaseFixedQuota IMSSBase = "fixed_quota"
	BaseExcess     IMSSBase = "excess"
	BaseSBC        IMSSBase = "sbc"
)

type IMSSConcept struct {
	Code         string   `yaml:"code" json:"code"`
	Name         string   `yaml:"name" json:"name"`
	Branch       string   `yaml:"branch" json:"branch"`
	Base         IMSSBase `yaml:"base" json:"base"`
	EmployerRate float64  `yaml:"employerRate" json:"employerRate"`
	EmployeeRate float64  `yaml:"employeeRate" json:"employeeRate"`
	ThresholdUMA float64  `yaml:"thresholdUma,omitempty" json:"thresholdUma,omitempty"`
	Tiered       bool     `yaml:"tiered,omitempty" json:"tiered,omitempty"`
}

// CVTier is one employer rate band for severance and old age, keyed by SBC in UMAs.
type CVTier struct {
	UpToUMA      *float64 `yaml:"upToUma,omitempty" json:"upToUma"`
	EmployerRate float64  `yaml:"employerRate" json:"employerRate"`
}

// TableSet holds every lookup table the calculators need for one tax year.
type TableSet struct {
	Year        int                         `yaml:"year" json:"year"`
	Values      Values                      `yaml:"values" json:"values"`
	ISR         map[PeriodType][]ISRBracket `yaml:"isr" json:"isr"`
	Subsidy     map[PeriodType][]SubsidyRow `yaml:"subsidy,omitempty" json:"subsidy,omitempty"`
	IMSS        []IMSSConcept               `yaml:"imss" json:"imss"`
	CVTiers     []CVTier                    `yaml:"cvTiers" json:"cvTiers"`
	RiskClasses map[string]float64          `yaml:"riskClasses" json:"riskClasses"`
	ISN         map[string]float64          `yaml:"isn" json:"isn"`
}

// Normalize sorts rows so lookups can rely on ascending order.
func (t *TableSet) Normalize() {
	for period, brackets := range t.ISR {
		sort.SliceStable(brackets, func(i, j int) bool { return brackets[i].LowerLimit < brackets[j].LowerLimit })
		t.ISR[period] = brackets
	}
	for period, rows := range t.Subsidy {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].UpperIncome < rows[j].UpperIncome })
		t.Subsidy[period] = rows
	}
	normalizedISN := make(map[string]float64, len(t.ISN))
	for state, rate := range t.ISN {
		normalizedISN[strings.ToUpper(strings.TrimSpace(state))] = rate
	}
	t.ISN = normalizedISN
	normalizedRisk := make(map[string]float64, len(t.RiskClasses))
	for class, premium := range t.RiskClasses {
		normalizedRisk[strings.ToUpper(strings.TrimSpace(class))] = premium
	}
	t.RiskClasses = normalizedRisk
}

// Validate checks structural consistency; it does not require every sub-table.
func (t TableSet) Validate() error {
	if t.Year < 2000 || t.Year > 2100 {
		return fmt.Errorf("table set year %d out of range", t.Year)
	}
	if t.Values.UMADaily <= 0 || t.Values.MinimumWage <= 0 {
		return fmt.Errorf("table set %d: umaDaily and minimumWage must be positive", t.Year)
	}
	for period, brackets := range t.ISR {
		if _, err := ParsePeriodType(string(period)); err != nil {
			return fmt.Errorf("table set %d: unknown isr period %q", t.Year, period)
		}
		for i, bracket := range brackets {
			if bracket.Rate < 0 || bracket.Rate > 100 {
				return fmt.Errorf("table set %d: %s bracket %d rate out of range", t.Year, period, i)
			}
			if bracket.UpperLimit != nil && *bracket.UpperLimit < bracket.LowerLimit {
				return fmt.Errorf("table set %d: %s bracket %d upper limit below lower limit", t.Year, period, i)
			}
			if i > 0 && bracket.LowerLimit <= brackets[i-1].LowerLimit {
				return fmt.Errorf("table set %d: %s brackets must ascend", t.Year, period)
			}
		}
	}
	for _, concept := range t.IMSS {
		switch concept.Base {
		case BaseFixedQuota, BaseExcess, BaseSBC:
		default:
			return fmt.Errorf("table set %d: imss concept %s has unknown base %q", t.Year, concept.Code, concept.Base)
		}
	}
	for class, premium := range t.RiskClasses {
		if premium < 0 || premium > 100 {
			return fmt.Errorf("table set %d: risk class %s premium out of range", t.Year, class)
		}
	}
	for state, rate := range t.ISN {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("table set %d: isn rate for %s out of range", t.Year, state)
		}
	}
	return nil
}
