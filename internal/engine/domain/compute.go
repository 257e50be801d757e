package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxHorizonMonths bounds a scenario horizon. Realistic scenarios stay well
// under ten years; the cap keeps a bad row from allocating unbounded series.
const MaxHorizonMonths = 600

// Options toggles the engine overlays for one run. A nil RiseAndFall means
// "auto": escalation runs exactly when an active policy exists.
type Options struct {
	RiseAndFall  *bool
	FxApply      bool
	TaxApply     bool
	RebatesApply bool
	TwcApply     bool
	RebateBasis  RebateMode
}

// Result is the computed output of one engine invocation, before any
// persistence. Fact RunID fields are empty; the caller stamps them when a run
// is persisted.
type Result struct {
	Scenario          Scenario
	Facts             []Fact
	RiseAndFall       bool
	RiseAndFallLocked bool
	Notes             []string
}

// Compute runs the full projection pipeline for the enabled categories:
// schedule expansion, escalation, rebates, FX, tax, CAPEX depreciation and
// reward, cash timing, then monthly/quarterly/annual fact emission. It is a
// pure function of its inputs.
func Compute(in Inputs, categories []Category, opts Options) (*Result, error) {
	if err := validateInputs(in, categories); err != nil {
		return nil, err
	}

	res := &Result{Scenario: in.Scenario}
	res.RiseAndFall, res.RiseAndFallLocked = resolveRiseAndFall(opts.RiseAndFall, in.Policies)
	if res.RiseAndFallLocked {
		res.Notes = append(res.Notes, "rise_and_fall forced on: scenario has an active escalation policy")
	}

	dsoLag := 0
	if opts.TwcApply && in.Scenario.DSODays > 0 {
		dsoLag = (in.Scenario.DSODays + 15) / 30
	}

	enabled := make(map[Category]bool, len(categories))
	for _, c := range categories {
		enabled[c] = true
	}

	var lineRevenue map[int64]MonthlySeries
	if enabled[CategoryCapex] {
		lineRevenue = escalatedLineRevenue(in, res.RiseAndFall)
	}

	for _, cat := range []Category{CategoryAN, CategoryEM, CategoryIE} {
		if !enabled[cat] {
			continue
		}
		res.computeBOQCategory(in, cat, opts, dsoLag)
	}
	if enabled[CategoryServices] {
		res.computeServices(in, opts)
	}
	if enabled[CategoryCapex] {
		res.computeCapex(in, lineRevenue)
	}
	return res, nil
}

func validateInputs(in Inputs, categories []Category) error {
	if !in.Scenario.Start.Valid() {
		return fmt.Errorf("scenario %d start %s: %w", in.Scenario.ID, in.Scenario.Start, ErrInvalidPeriod)
	}
	if in.Scenario.Months < 1 || in.Scenario.Months > MaxHorizonMonths {
		return fmt.Errorf("scenario %d horizon %d months: %w", in.Scenario.ID, in.Scenario.Months, ErrInvalidHorizon)
	}
	if len(categories) == 0 {
		return ErrNoCategories
	}
	for _, c := range categories {
		if !c.IsValid() {
			return fmt.Errorf("category %q: %w", c, ErrUnknownCategory)
		}
	}
	return nil
}

// resolveRiseAndFall applies the policy lock: escalation is forced on when an
// active policy exists, regardless of what the caller requested. The second
// return reports whether the caller's explicit "off" was overridden.
func resolveRiseAndFall(requested *bool, policies []EscalationPolicy) (on, locked bool) {
	hasActive := false
	for _, p := range policies {
		if p.Active {
			hasActive = true
			break
		}
	}
	if hasActive {
		return true, requested != nil && !*requested
	}
	if requested != nil {
		return *requested, false
	}
	return false, false
}

func (r *Result) computeBOQCategory(in Inputs, cat Category, opts Options, dsoLag int) {
	exp := ExpandBOQ(in.Scenario, in.BOQ, cat)
	mult := r.multipliers(in, cat)

	revenue := exp.Revenue.Mul(mult)
	cogs := exp.COGS.Mul(mult)

	overlay := RebateOverlay{
		Accrual: NewMonthlySeries(in.Scenario.Months),
		Cash:    NewMonthlySeries(in.Scenario.Months),
	}
	if opts.RebatesApply {
		basis := RebateBasis{
			Revenue:        revenue,
			ProductRevenue: productRevenue(in.BOQ, cat, exp.LineRevenue, mult),
		}
		overlay = ApplyRebates(in.Scenario, in.Rebates, basis, opts.RebateBasis)
	}

	// Cash revenue is the gross (pre-rebate) revenue shifted by the DSO lag,
	// plus rebate cash at its own pay-month timing.
	cashRevenue := revenue.ShiftForward(dsoLag).Add(overlay.Cash)

	r.emitMonthly(FinanceSheet(GranularityMonthly, cat), cat, revenue.Add(overlay.Accrual), cogs)
	r.emitMonthly(CashSheet(cat), cat, cashRevenue, cogs)
	r.emitAggregates(cat, revenue.Add(overlay.Accrual), cogs)
}

// computeServices builds the Services expense pipeline: expand agreements,
// escalate, convert to base currency, add non-inclusive tax, then apply
// services-scoped rebates as a reduction of the expense.
func (r *Result) computeServices(in Inputs, opts Options) {
	exp := ExpandServices(in.Scenario, in.Services)
	expense := exp.Expense.Mul(r.multipliers(in, CategoryServices))
	if opts.FxApply {
		expense = ConvertToBase(in.Scenario, expense, exp.Currencies, in.FxRates)
	}
	if opts.TaxApply {
		expense = ApplyTax(in.Scenario, expense, in.TaxRules, "services")
	}

	overlay := RebateOverlay{
		Accrual: NewMonthlySeries(in.Scenario.Months),
		Cash:    NewMonthlySeries(in.Scenario.Months),
	}
	if opts.RebatesApply {
		overlay = ApplyRebates(in.Scenario, servicesRebates(in.Rebates), RebateBasis{ServicesRevenue: expense}, opts.RebateBasis)
	}

	revenue := NewMonthlySeries(in.Scenario.Months)
	cogs := expense.Add(overlay.Accrual)
	cashCOGS := expense.Add(overlay.Cash)

	r.emitMonthly(FinanceSheet(GranularityMonthly, CategoryServices), CategoryServices, revenue, cogs)
	r.emitMonthly(CashSheet(CategoryServices), CategoryServices, revenue, cashCOGS)
	r.emitAggregates(CategoryServices, revenue, cogs)
}

func (r *Result) computeCapex(in Inputs, lineRevenue map[int64]MonthlySeries) {
	revenue := RewardSeries(in.Scenario, in.Capex, lineRevenue)
	cogs := DepreciationSeries(in.Scenario, in.Capex)

	r.emitMonthly(FinanceSheet(GranularityMonthly, CategoryCapex), CategoryCapex, revenue, cogs)
	r.emitMonthly(CashSheet(CategoryCapex), CategoryCapex, revenue, cogs)
	r.emitAggregates(CategoryCapex, revenue, cogs)
}

func (r *Result) multipliers(in Inputs, cat Category) MonthlySeries {
	if !r.RiseAndFall {
		mult := make(MonthlySeries, in.Scenario.Months)
		for i := range mult {
			mult[i] = decimalOne
		}
		return mult
	}
	return BuildMultipliers(in.Scenario, in.Policies, in.Index, cat)
}

// escalatedLineRevenue computes post-escalation revenue per BOQ line across
// every category, used as follow-BOQ reward weights. Weights are taken from
// all lines so a reward can follow a line whose category is not enabled for
// this run.
func escalatedLineRevenue(in Inputs, riseAndFall bool) map[int64]MonthlySeries {
	out := make(map[int64]MonthlySeries)
	for _, cat := range BOQCategories {
		exp := ExpandBOQ(in.Scenario, in.BOQ, cat)
		var mult MonthlySeries
		if riseAndFall {
			mult = BuildMultipliers(in.Scenario, in.Policies, in.Index, cat)
		}
		for id, series := range exp.LineRevenue {
			if mult != nil {
				series = series.Mul(mult)
			}
			out[id] = series
		}
	}
	return out
}

// productRevenue groups escalated line revenue by product id for
// product-scoped rebates.
func productRevenue(lines []BOQLineItem, cat Category, lineRevenue map[int64]MonthlySeries, mult MonthlySeries) map[int64]MonthlySeries {
	out := make(map[int64]MonthlySeries)
	for _, line := range lines {
		if line.Category != cat || line.ProductID == nil {
			continue
		}
		series, ok := lineRevenue[line.ID]
		if !ok {
			continue
		}
		series = series.Mul(mult)
		if existing, ok := out[*line.ProductID]; ok {
			out[*line.ProductID] = existing.Add(series)
		} else {
			out[*line.ProductID] = series
		}
	}
	return out
}

// servicesRebates keeps only services-scoped definitions so all/boq rebates
// never double-apply against the services expense basis.
func servicesRebates(rebates []RebateDefinition) []RebateDefinition {
	var out []RebateDefinition
	for _, rb := range rebates {
		if rb.Scope == RebateScopeServices {
			out = append(out, rb)
		}
	}
	return out
}

// emitMonthly appends one fact per month and series on the sheet, rounded to
// cents. GP is revenue minus COGS at every grain.
func (r *Result) emitMonthly(sheet string, cat Category, revenue, cogs MonthlySeries) {
	for i := 0; i < r.Scenario.Months; i++ {
		period := r.Scenario.Start.AddMonths(i)
		r.appendFact(sheet, cat, period, SeriesRevenue, revenue[i])
		r.appendFact(sheet, cat, period, SeriesCOGS, cogs[i])
		r.appendFact(sheet, cat, period, SeriesGP, revenue[i].Sub(cogs[i]))
	}
}

// emitAggregates sums the accrual series into quarter-end and year-end
// buckets. GP is derived after aggregation, consistent with the monthly grain.
func (r *Result) emitAggregates(cat Category, revenue, cogs MonthlySeries) {
	r.emitBuckets(FinanceSheet(GranularityQuarterly, cat), cat,
		AggregateQuarterly(r.Scenario, revenue), AggregateQuarterly(r.Scenario, cogs))
	r.emitBuckets(FinanceSheet(GranularityAnnual, cat), cat,
		AggregateAnnual(r.Scenario, revenue), AggregateAnnual(r.Scenario, cogs))
}

func (r *Result) emitBuckets(sheet string, cat Category, revenue, cogs []PeriodBucket) {
	for i := range revenue {
		r.appendFact(sheet, cat, revenue[i].Period, SeriesRevenue, revenue[i].Value)
		r.appendFact(sheet, cat, revenue[i].Period, SeriesCOGS, cogs[i].Value)
		r.appendFact(sheet, cat, revenue[i].Period, SeriesGP, revenue[i].Value.Sub(cogs[i].Value))
	}
}

func (r *Result) appendFact(sheet string, cat Category, period YM, series Series, value decimal.Decimal) {
	r.Facts = append(r.Facts, Fact{
		SheetCode: sheet,
		Category:  cat,
		Period:    period,
		Series:    series,
		Value:     value.Round(2),
	})
}
