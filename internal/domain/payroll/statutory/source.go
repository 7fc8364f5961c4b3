package statutory

import (
	"context"
	"sort"
)

// Source yields the complete table set for a tax year. Implementations return
// an error wrapping ErrTableNotFound when the year is unknown.
type Source interface {
	TableSet(ctx context.Context, year int) (TableSet, error)
}

// StaticSource serves table sets held in memory.
type StaticSource map[int]TableSet

func (s StaticSource) TableSet(_ context.Context, year int) (TableSet, error) {
	tables, ok := s[year]
	if !ok {
		return TableSet{}, missing(year, "statutory")
	}
	return tables, nil
}

func (s StaticSource) Years() []int {
	years := make([]int, 0, len(s))
	for year := range s {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Calculator fetches the year's tables once per call and runs the pure calculators.
// Input is validated before any lookup.
type Calculator struct {
	source Source
}

func NewCalculator(source Source) *Calculator {
	return &Calculator{source: source}
}

func (c *Calculator) ISR(ctx context.Context, year int, in ISRInput) (ISRResult, error) {
	if err := in.Validate(); err != nil {
		return ISRResult{}, err
	}
	tables, err := c.tables(ctx, year)
	if err != nil {
		return ISRResult{}, err
	}
	return CalculateISR(tables, in)
}

func (c *Calculator) IMSS(ctx context.Context, year int, in IMSSInput) (IMSSResult, error) {
	if err := in.Validate(); err != nil {
		return IMSSResult{}, err
	}
	tables, err := c.tables(ctx, year)
	if err != nil {
		return IMSSResult{}, err
	}
	return CalculateIMSS(tables, in)
}

func (c *Calculator) SDI(ctx context.Context, year int, in SDIInput) (SDIResult, error) {
	if err := in.Validate(); err != nil {
		return SDIResult{}, err
	}
	tables, err := c.tables(ctx, year)
	if err != nil {
		return SDIResult{}, err
	}
	return CalculateSDI(tables, in)
}

func (c *Calculator) ISN(ctx context.Context, year int, in ISNInput) (ISNResult, error) {
	if err := in.Validate(); err != nil {
		return ISNResult{}, err
	}
	tables, err := c.tables(ctx, year)
	if err != nil {
		return ISNResult{}, err
	}
	return CalculateISN(tables, in)
}

func (c *Calculator) Payroll(ctx context.Context, year int, in PayrollInput) (PayrollResult, error) {
	if err := in.Validate(); err != nil {
		return PayrollResult{}, err
	}
	tables, err := c.tables(ctx, year)
	if err != nil {
		return PayrollResult{}, err
	}
	return CalculatePayroll(tables, in)
}

// Tables exposes the raw table set, used by batch runs that calculate many employees.
func (c *Calculator) Tables(ctx context.Context, year int) (TableSet, error) {
	return c.tables(ctx, year)
}

func (c *Calculator) tables(ctx context.Context, year int) (TableSet, error) {
	if year < 2000 || year > 2100 {
		return TableSet{}, invalid("year", "must be a four digit tax year")
	}
	return c.source.TableSet(ctx, year)
}
