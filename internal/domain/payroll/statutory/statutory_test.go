package statutory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtin(t *testing.T, year int) TableSet {
	t.Helper()
	sets, err := BuiltinTableSets()
	require.NoError(t, err)
	tables, err := sets.TableSet(context.Background(), year)
	require.NoError(t, err)
	return tables
}

func TestBuiltinTableSetsCoverShippedYears(t *testing.T) {
	sets, err := BuiltinTableSets()
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, sets.Years())

	for _, year := range sets.Years() {
		tables := sets[year]
		require.NoError(t, tables.Validate())
		for _, period := range PeriodTypes {
			brackets := tables.ISR[period]
			require.NotEmpty(t, brackets, "%d %s", year, period)
			for i := 1; i < len(brackets); i++ {
				prev := brackets[i-1]
				require.NotNil(t, prev.UpperLimit)
				gap := dec(brackets[i].LowerLimit).Sub(dec(*prev.UpperLimit))
				assert.True(t, gap.Equal(decimal.RequireFromString("0.01")), "%d %s bracket %d not contiguous", year, period, i)
			}
			assert.Nil(t, brackets[len(brackets)-1].UpperLimit)
			assert.NotEmpty(t, tables.Subsidy[period])
		}
	}
}

func TestISRTenThousandMonthly2024(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculateISR(tables, ISRInput{GrossIncome: 10000, PeriodType: PeriodMonthly})
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Bracket.LowerLimit, 10000.0)
	if result.Bracket.UpperLimit != nil {
		assert.GreaterOrEqual(t, *result.Bracket.UpperLimit, 10000.0)
	}
	assert.Equal(t, 6332.06, result.Bracket.LowerLimit)
	assert.Equal(t, 770.90, result.ISR)
	assert.Equal(t, 7.71, result.EffectiveRate)
}

func TestISRAtLowerLimitEqualsFixedFee(t *testing.T) {
	tables := builtin(t, 2024)
	for _, period := range PeriodTypes {
		for _, bracket := range tables.ISR[period] {
			result, err := CalculateISR(tables, ISRInput{GrossIncome: bracket.LowerLimit, PeriodType: period})
			require.NoError(t, err)
			assert.Equal(t, bracket.FixedFee, result.DeterminedTax, "%s lower limit %.2f", period, bracket.LowerLimit)
			assert.Equal(t, bracket.LowerLimit, result.Bracket.LowerLimit)
		}
	}
}

func TestISRExemptIncomeAndSubsidy(t *testing.T) {
	tables := builtin(t, 2024)

	exempt, err := CalculateISR(tables, ISRInput{GrossIncome: 12000, ExemptIncome: 2000, PeriodType: PeriodMonthly})
	require.NoError(t, err)
	assert.Equal(t, 10000.0, exempt.TaxableIncome)
	assert.Equal(t, 770.90, exempt.ISR)
	assert.Equal(t, 6.42, exempt.EffectiveRate)

	subsidized, err := CalculateISR(tables, ISRInput{GrossIncome: 8000, PeriodType: PeriodMonthly, ApplySubsidy: true})
	require.NoError(t, err)
	assert.Equal(t, 553.30, subsidized.DeterminedTax)
	assert.Equal(t, 390.12, subsidized.Subsidy)
	assert.Equal(t, 163.18, subsidized.ISR)

	aboveThreshold, err := CalculateISR(tables, ISRInput{GrossIncome: 10000, PeriodType: PeriodMonthly, ApplySubsidy: true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, aboveThreshold.Subsidy)
	assert.Equal(t, 770.90, aboveThreshold.ISR)

	floor, err := CalculateISR(tables, ISRInput{GrossIncome: 700, PeriodType: PeriodMonthly, ApplySubsidy: true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, floor.ISR)
}

func TestISRRejectsInvalidInput(t *testing.T) {
	tables := builtin(t, 2024)
	cases := []ISRInput{
		{GrossIncome: 0, PeriodType: PeriodMonthly},
		{GrossIncome: -5, PeriodType: PeriodMonthly},
		{GrossIncome: 1000, ExemptIncome: 1000, PeriodType: PeriodMonthly},
		{GrossIncome: 1000, PeriodType: "daily"},
	}
	for _, in := range cases {
		_, err := CalculateISR(tables, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
}

func TestCalculatorFailsHardOnMissingTables(t *testing.T) {
	sets, err := BuiltinTableSets()
	require.NoError(t, err)
	calc := NewCalculator(sets)

	_, err = calc.ISR(context.Background(), 2019, ISRInput{GrossIncome: 10000, PeriodType: PeriodMonthly})
	assert.ErrorIs(t, err, ErrTableNotFound)

	partial := StaticSource{2024: {Year: 2024, Values: sets[2024].Values, ISR: map[PeriodType][]ISRBracket{PeriodMonthly: sets[2024].ISR[PeriodMonthly]}}}
	_, err = NewCalculator(partial).ISR(context.Background(), 2024, ISRInput{GrossIncome: 1000, PeriodType: PeriodWeekly})
	var missingErr *MissingTableError
	require.True(t, errors.As(err, &missingErr))
	assert.Equal(t, 2024, missingErr.Year)

	_, err = calc.ISR(context.Background(), 2019, ISRInput{GrossIncome: 0})
	assert.ErrorIs(t, err, ErrInvalidInput, "validation runs before the lookup")
}

func TestVacationDays(t *testing.T) {
	cases := map[int]int{0: 12, 1: 12, 2: 14, 3: 16, 4: 18, 5: 20, 6: 22, 10: 22, 11: 24, 15: 24, 16: 26, 21: 28}
	for years, want := range cases {
		assert.Equal(t, want, VacationDays(years), "years %d", years)
	}
}

func TestSDIIntegration(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculateSDI(tables, SDIInput{DailySalary: 500, YearsOfService: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0493, result.IntegrationFactor)
	assert.Equal(t, 524.65, result.SDI)
	assert.False(t, result.CapApplied)
	assert.LessOrEqual(t, result.SBCCapped, 25*tables.Values.UMADaily)

	third, err := CalculateSDI(tables, SDIInput{DailySalary: 500, YearsOfService: 3})
	require.NoError(t, err)
	assert.Equal(t, 16, third.VacationDays)
	assert.Equal(t, 1.0521, third.IntegrationFactor)
}

func TestSDICappedAtTwentyFiveUMA(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculateSDI(tables, SDIInput{DailySalary: 5000, YearsOfService: 1})
	require.NoError(t, err)
	assert.True(t, result.CapApplied)
	assert.Equal(t, 2714.25, result.SBCCapped)
	assert.LessOrEqual(t, result.SBCCapped, 25*tables.Values.UMADaily)

	_, err = CalculateSDI(tables, SDIInput{DailySalary: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIMSSMonthlyQuotas(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculateIMSS(tables, IMSSInput{SBC: 500, Days: 30, RiskClass: "I"})
	require.NoError(t, err)

	lines := map[string]IMSSLine{}
	for _, line := range result.Lines {
		lines[line.Code] = line
	}
	assert.Equal(t, 664.45, lines["em_fixed"].Employer)
	assert.Equal(t, 57.52, lines["em_excess"].Employer)
	assert.Equal(t, 20.91, lines["em_excess"].Employee)
	assert.Equal(t, 6.422, lines["cv"].EmployerRate)
	assert.Equal(t, 963.30, lines["cv"].Employer)
	assert.Equal(t, 81.53, lines[RiskConceptCode].Employer)

	assert.Equal(t, 3491.80, result.EmployerTotal)
	assert.Equal(t, 377.16, result.EmployeeTotal)
	assert.Equal(t, 3868.96, result.Total)
	assert.Equal(t, 25.79, result.EffectiveRate)
	assert.False(t, result.EmployeeShareAbsorbed)
}

func TestIMSSMinimumWageEmployeeShareAbsorbed(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculateIMSS(tables, IMSSInput{SBC: tables.Values.MinimumWage, PeriodType: PeriodBiweekly})
	require.NoError(t, err)
	assert.True(t, result.EmployeeShareAbsorbed)
	assert.Equal(t, 15, result.Days)
	assert.Equal(t, 0.0, result.EmployeeTotal)
	for _, line := range result.Lines {
		assert.NotEqual(t, "em_excess", line.Code, "no excess below three UMA")
		if line.Code == "cv" {
			assert.Equal(t, 3.150, line.EmployerRate)
		}
	}
}

func TestIMSSCapsBaseAndValidatesRisk(t *testing.T) {
	tables := builtin(t, 2024)

	capped, err := CalculateIMSS(tables, IMSSInput{SBC: 5000, Days: 30})
	require.NoError(t, err)
	assert.Equal(t, 2714.25, capped.SBCCapped)

	premium := 1.5
	explicit, err := CalculateIMSS(tables, IMSSInput{SBC: 500, Days: 30, RiskPremium: &premium})
	require.NoError(t, err)
	assert.Equal(t, 1.5, explicit.RiskPremium)

	_, err = CalculateIMSS(tables, IMSSInput{SBC: 500, RiskClass: "VI"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CalculateIMSS(tables, IMSSInput{SBC: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestISNByStateAndYear(t *testing.T) {
	t2024 := builtin(t, 2024)
	t2025 := builtin(t, 2025)

	result, err := CalculateISN(t2024, ISNInput{TaxablePayroll: 100000, StateCode: "cdmx"})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, result.ISN)
	assert.Equal(t, 3.0, result.EffectiveRate)

	result, err = CalculateISN(t2025, ISNInput{TaxablePayroll: 100000, StateCode: "CDMX"})
	require.NoError(t, err)
	assert.Equal(t, 4000.0, result.ISN)

	_, err = CalculateISN(t2024, ISNInput{TaxablePayroll: 100000, StateCode: "ZZZ"})
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = CalculateISN(t2024, ISNInput{TaxablePayroll: 0, StateCode: "JAL"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPayrollBreakdownBalances(t *testing.T) {
	tables := builtin(t, 2024)

	result, err := CalculatePayroll(tables, PayrollInput{
		DailySalary:    500,
		PeriodType:     PeriodBiweekly,
		YearsOfService: 1,
		StateCode:      "CDMX",
	})
	require.NoError(t, err)
	assert.Equal(t, 7500.0, result.Gross)
	assert.Equal(t, 783.85, result.ISR.ISR)
	assert.Equal(t, 524.65, result.IMSS.SBCCapped)
	require.NotNil(t, result.ISN)
	assert.Equal(t, 225.0, result.ISN.ISN)
	assert.Equal(t, Sum(result.Gross, -result.ISR.ISR, -result.IMSS.EmployeeTotal), result.Net)
	assert.Equal(t, Sum(result.Gross, result.IMSS.EmployerTotal, result.ISN.ISN), result.EmployerCost)
	assert.Empty(t, result.Warnings)
}

func TestPayrollWarnsBelowMinimumWage(t *testing.T) {
	tables := builtin(t, 2024)
	result, err := CalculatePayroll(tables, PayrollInput{DailySalary: 200, PeriodType: PeriodWeekly})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "daily salary is below the general minimum wage")
	assert.Nil(t, result.ISN)
}

func TestLoadDirAndParseValidation(t *testing.T) {
	dir := t.TempDir()
	data, err := builtinFiles.ReadFile("tables/2025.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025.yaml"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	sets, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2025}, sets.Years())

	_, err = ParseTableSet([]byte("year: 2024\nvalues:\n  umaDaily: 108.57\n  minimumWage: 248.93\nisr:\n  monthly:\n    - lowerLimit: 0.01\n      fixedFee: 0\n      rate: 140\n"))
	assert.Error(t, err)
}
