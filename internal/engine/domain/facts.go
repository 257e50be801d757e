package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Series names one measure on a sheet row.
type Series string

const (
	SeriesRevenue Series = "revenue"
	SeriesCOGS    Series = "cogs"
	SeriesGP      Series = "gp"
)

// Granularity prefixes a sheet code.
type Granularity string

const (
	GranularityMonthly   Granularity = "m"
	GranularityQuarterly Granularity = "q"
	GranularityAnnual    Granularity = "a"
)

// FinanceSheet builds the accrual sheet code for a category at a granularity,
// e.g. "m.Finance-AN".
func FinanceSheet(g Granularity, category Category) string {
	return fmt.Sprintf("%s.Finance-%s", g, category)
}

// CashSheet builds the monthly cash-view sheet code for a category,
// e.g. "m.Cash-Services".
func CashSheet(category Category) string {
	return fmt.Sprintf("m.Cash-%s", category)
}

// Fact is one persisted engine output cell. The composite key within a run is
// (SheetCode, Category, Period, Series).
type Fact struct {
	RunID     string
	SheetCode string
	Category  Category
	Period    YM
	Series    Series
	Value     decimal.Decimal
}

// FactKey identifies a fact inside a run for idempotent upserts.
type FactKey struct {
	SheetCode string
	Category  Category
	PeriodKey int
	Series    Series
}

// Key returns the fact's composite key.
func (f Fact) Key() FactKey {
	return FactKey{SheetCode: f.SheetCode, Category: f.Category, PeriodKey: f.Period.Key(), Series: f.Series}
}
