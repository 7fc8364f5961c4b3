package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hris/internal/domain/payroll/statutory"
)

// TableStore persists statutory tables per tax year and serves them as a statutory.Source.
type TableStore struct {
	DB *pgxpool.Pool
}

func NewTableStore(db *pgxpool.Pool) *TableStore {
	return &TableStore{DB: db}
}

func (s *TableStore) Years(ctx context.Context) ([]int, error) {
	rows, err := s.DB.Query(ctx, "SELECT year FROM statutory_values ORDER BY year")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

func (s *TableStore) TableSet(ctx context.Context, year int) (statutory.TableSet, error) {
	set := statutory.TableSet{
		Year:        year,
		ISR:         map[statutory.PeriodType][]statutory.ISRBracket{},
		Subsidy:     map[statutory.PeriodType][]statutory.SubsidyRow{},
		RiskClasses: map[string]float64{},
		ISN:         map[string]float64{},
	}

	err := s.DB.QueryRow(ctx, `
    SELECT uma_daily::float8, uma_monthly::float8, uma_annual::float8,
           minimum_wage::float8, minimum_wage_border::float8, sbc_cap_uma::float8
    FROM statutory_values
    WHERE year = $1
  `, year).Scan(&set.Values.UMADaily, &set.Values.UMAMonthly, &set.Values.UMAAnnual,
		&set.Values.MinimumWage, &set.Values.MinimumWageBorder, &set.Values.SBCCapUMA)
	if errors.Is(err, pgx.ErrNoRows) {
		return statutory.TableSet{}, &statutory.MissingTableError{Year: year, Table: "statutory_values"}
	}
	if err != nil {
		return statutory.TableSet{}, err
	}

	if err := s.loadISR(ctx, &set); err != nil {
		return statutory.TableSet{}, err
	}
	if err := s.loadSubsidy(ctx, &set); err != nil {
		return statutory.TableSet{}, err
	}
	if err := s.loadIMSS(ctx, &set); err != nil {
		return statutory.TableSet{}, err
	}
	if err := s.loadKeyed(ctx, "SELECT class, premium::float8 FROM imss_risk_classes WHERE year = $1", year, set.RiskClasses); err != nil {
		return statutory.TableSet{}, err
	}
	if err := s.loadKeyed(ctx, "SELECT state_code, rate::float8 FROM isn_rates WHERE year = $1", year, set.ISN); err != nil {
		return statutory.TableSet{}, err
	}
	set.Normalize()
	return set, nil
}

func (s *TableStore) loadISR(ctx context.Context, set *statutory.TableSet) error {
	rows, err := s.DB.Query(ctx, `
    SELECT period_type, lower_limit::float8, upper_limit::float8, fixed_fee::float8, rate::float8
    FROM isr_brackets
    WHERE year = $1
    ORDER BY period_type, lower_limit
  `, set.Year)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var period statutory.PeriodType
		var bracket statutory.ISRBracket
		if err := rows.Scan(&period, &bracket.LowerLimit, &bracket.UpperLimit, &bracket.FixedFee, &bracket.Rate); err != nil {
			return err
		}
		set.ISR[period] = append(set.ISR[period], bracket)
	}
	return rows.Err()
}

func (s *TableStore) loadSubsidy(ctx context.Context, set *statutory.TableSet) error {
	rows, err := s.DB.Query(ctx, `
    SELECT period_type, upper_income::float8, amount::float8
    FROM employment_subsidies
    WHERE year = $1
    ORDER BY period_type, upper_income
  `, set.Year)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var period statutory.PeriodType
		var row statutory.SubsidyRow
		if err := rows.Scan(&period, &row.UpperIncome, &row.Amount); err != nil {
			return err
		}
		set.Subsidy[period] = append(set.Subsidy[period], row)
	}
	return rows.Err()
}

func (s *TableStore) loadIMSS(ctx context.Context, set *statutory.TableSet) error {
	rows, err := s.DB.Query(ctx, `
    SELECT code, name, branch, base, employer_rate::float8, employee_rate::float8, threshold_uma::float8, tiered
    FROM imss_rates
    WHERE year = $1
    ORDER BY code
  `, set.Year)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var concept statutory.IMSSConcept
		if err := rows.Scan(&concept.Code, &concept.Name, &concept.Branch, &concept.Base,
			&concept.EmployerRate, &concept.EmployeeRate, &concept.ThresholdUMA, &concept.Tiered); err != nil {
			return err
		}
		set.IMSS = append(set.IMSS, concept)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tiers, err := s.DB.Query(ctx, `
    SELECT up_to_uma::float8, employer_rate::float8
    FROM imss_cv_tiers
    WHERE year = $1
    ORDER BY position
  `, set.Year)
	if err != nil {
		return err
	}
	defer tiers.Close()
	for tiers.Next() {
		var tier statutory.CVTier
		if err := tiers.Scan(&tier.UpToUMA, &tier.EmployerRate); err != nil {
			return err
		}
		set.CVTiers = append(set.CVTiers, tier)
	}
	return tiers.Err()
}

func (s *TableStore) loadKeyed(ctx context.Context, query string, year int, into map[string]float64) error {
	rows, err := s.DB.Query(ctx, query, year)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		into[key] = value
	}
	return rows.Err()
}

// UpsertTableSet replaces every row of the set's year in one transaction.
func (s *TableStore) UpsertTableSet(ctx context.Context, set statutory.TableSet) error {
	set.Normalize()
	if err := set.Validate(); err != nil {
		return fmt.Errorf("%w: %v", statutory.ErrInvalidInput, err)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"isr_brackets", "employment_subsidies", "imss_rates", "imss_cv_tiers", "imss_risk_classes", "isn_rates"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE year = $1", set.Year); err != nil {
			return err
		}
	}

	v := set.Values
	if _, err := tx.Exec(ctx, `
    INSERT INTO statutory_values (year, uma_daily, uma_monthly, uma_annual, minimum_wage, minimum_wage_border, sbc_cap_uma)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (year) DO UPDATE SET
      uma_daily = EXCLUDED.uma_daily,
      uma_monthly = EXCLUDED.uma_monthly,
      uma_annual = EXCLUDED.uma_annual,
      minimum_wage = EXCLUDED.minimum_wage,
      minimum_wage_border = EXCLUDED.minimum_wage_border,
      sbc_cap_uma = EXCLUDED.sbc_cap_uma
  `, set.Year, v.UMADaily, v.UMAMonthly, v.UMAAnnual, v.MinimumWage, v.MinimumWageBorder, sbcCapUMA(v)); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for period, brackets := range set.ISR {
		for _, b := range brackets {
			batch.Queue(`INSERT INTO isr_brackets (year, period_type, lower_limit, upper_limit, fixed_fee, rate) VALUES ($1, $2, $3, $4, $5, $6)`,
				set.Year, string(period), b.LowerLimit, b.UpperLimit, b.FixedFee, b.Rate)
		}
	}
	for period, rows := range set.Subsidy {
		for _, row := range rows {
			batch.Queue(`INSERT INTO employment_subsidies (year, period_type, upper_income, amount) VALUES ($1, $2, $3, $4)`,
				set.Year, string(period), row.UpperIncome, row.Amount)
		}
	}
	for _, c := range set.IMSS {
		batch.Queue(`INSERT INTO imss_rates (year, code, name, branch, base, employer_rate, employee_rate, threshold_uma, tiered) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			set.Year, c.Code, c.Name, c.Branch, string(c.Base), c.EmployerRate, c.EmployeeRate, c.ThresholdUMA, c.Tiered)
	}
	for i, tier := range set.CVTiers {
		batch.Queue(`INSERT INTO imss_cv_tiers (year, up_to_uma, employer_rate, position) VALUES ($1, $2, $3, $4)`,
			set.Year, tier.UpToUMA, tier.EmployerRate, i)
	}
	for class, premium := range set.RiskClasses {
		batch.Queue(`INSERT INTO imss_risk_classes (year, class, premium) VALUES ($1, $2, $3)`, set.Year, class, premium)
	}
	for state, rate := range set.ISN {
		batch.Queue(`INSERT INTO isn_rates (year, state_code, rate) VALUES ($1, $2, $3)`, set.Year, state, rate)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func sbcCapUMA(v statutory.Values) float64 {
	if v.SBCCapUMA <= 0 {
		return 25
	}
	return v.SBCCapUMA
}
